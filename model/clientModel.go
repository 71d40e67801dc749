// model/client.go
package model

type VerificationStatus string

const (
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`

	// PassportData is the raw recognition payload: a JSON object, a JSON-encoded
	// string, or nil. Decoded via document.ParsePassport, never read directly.
	PassportData any `json:"passport_data,omitempty"`

	// Extra may hold a nested "payment_method" object among other keys.
	Extra map[string]any `json:"extra,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	TelegramChatID     string             `json:"telegram_chat_id,omitempty"`
	PaymentMethodID    *string            `json:"payment_method_id,omitempty"`
}
