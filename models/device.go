// File: orgalerts/models/device.go
package models

// Token actions accepted by registerDeliveryToken.
const (
	TokenActionRegister   = "register"
	TokenActionUnregister = "unregister"
	TokenActionValidate   = "validate"
)

// DeliveryTokenRequest is the body of the registerDeliveryToken callable.
type DeliveryTokenRequest struct {
	Action   string `json:"action"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// DeliveryTokenResult describes the caller's token after the action ran.
type DeliveryTokenResult struct {
	Action      string `json:"action"`
	Valid       bool   `json:"valid"`
	Registered  bool   `json:"registered"`
	Matches     bool   `json:"matches,omitempty"`
	TokenLength int    `json:"tokenLength"`
}
