package dto

import "time"

const ProviderGoogle = "google"

// AuthURLResponse carries the consent URL the operator visits to connect the
// company calendar.
type AuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type Tokens struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenResponse is returned from the code exchange. RefreshToken is echoed so
// the operator can place it into durable secret storage; it is only present
// on first consent.
type TokenResponse struct {
	Tokens       Tokens `json:"tokens"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Help         string `json:"help,omitempty"`
}

// TokenStatusResponse reports the exchanger's state machine position.
type TokenStatusResponse struct {
	State        string     `json:"state"` // "authenticated" | "unauthenticated"
	AccountEmail string     `json:"account_email,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
