package models

// Organization owns followers, alerts and scheduled alerts.
type Organization struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}
