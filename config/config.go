package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Firebase Cloud Messaging.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Fan-out tuning.
	FanoutConcurrency   int           `mapstructure:"FANOUT_CONCURRENCY"`
	DispatchConcurrency int           `mapstructure:"DISPATCH_CONCURRENCY"`
	PipelineTimeout     time.Duration `mapstructure:"PIPELINE_TIMEOUT"`
	DedupTTL            time.Duration `mapstructure:"DEDUP_TTL"`
	MinTokenLength      int           `mapstructure:"MIN_TOKEN_LENGTH"`
	WorkerConcurrency   int           `mapstructure:"WORKER_CONCURRENCY"`

	// Scheduled alerts.
	ScheduledPollSpec  string `mapstructure:"SCHEDULED_POLL_SPEC"`
	ScheduledBatchSize int    `mapstructure:"SCHEDULED_BATCH_SIZE"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional and only seeds the process environment.
	_ = godotenv.Load(".env")

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "orgalerts")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("FIREBASE_PROJECT_ID", "")
	viper.SetDefault("FANOUT_CONCURRENCY", 16)
	viper.SetDefault("DISPATCH_CONCURRENCY", 8)
	viper.SetDefault("PIPELINE_TIMEOUT", "9m")
	viper.SetDefault("DEDUP_TTL", "24h")
	viper.SetDefault("MIN_TOKEN_LENGTH", 100)
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("SCHEDULED_POLL_SPEC", "@every 1m")
	viper.SetDefault("SCHEDULED_BATCH_SIZE", 200)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
