package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orgalerts/config"
	"orgalerts/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "middleware-test-secret"
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetIdentity(c).UserID})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustToken(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return tok
}

func TestJWTAuthAndAdmin(t *testing.T) {
	userTok := mustToken(t, "alice", "")
	adminTok := mustToken(t, "root", utils.RoleAdmin)

	cases := []struct {
		name  string
		mw    []gin.HandlerFunc
		token string
		want  int
	}{
		{"no token", []gin.HandlerFunc{JWTAuthMiddleware()}, "", http.StatusUnauthorized},
		{"garbage token", []gin.HandlerFunc{JWTAuthMiddleware()}, "not-a-jwt", http.StatusUnauthorized},
		{"valid user", []gin.HandlerFunc{JWTAuthMiddleware()}, userTok, http.StatusOK},
		{"user on admin route", []gin.HandlerFunc{JWTAuthMiddleware(), RequireAdmin()}, userTok, http.StatusForbidden},
		{"admin on admin route", []gin.HandlerFunc{JWTAuthMiddleware(), RequireAdmin()}, adminTok, http.StatusOK},
	}
	for _, tc := range cases {
		if got := do(newRouter(tc.mw...), tc.token).Code; got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestRateLimitPerCaller(t *testing.T) {
	r := newRouter(JWTAuthMiddleware(), RateLimitMiddleware(2))
	alice := mustToken(t, "alice", "")
	bob := mustToken(t, "bob", "")

	for i := 0; i < 2; i++ {
		if got := do(r, alice).Code; got != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, got)
		}
	}
	if got := do(r, alice).Code; got != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", got)
	}
	if got := do(r, bob).Code; got != http.StatusOK {
		t.Fatalf("other caller status = %d, want 200", got)
	}
}
