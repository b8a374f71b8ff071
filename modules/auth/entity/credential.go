package entity

import (
	"time"

	"booking-gateway/core/entity"
)

// CalendarCredential is the company's stored OAuth credential for a calendar
// provider. Exactly one active row per provider; the refresh token is the
// long-lived secret and only changes when the consent flow is re-run.
type CalendarCredential struct {
	entity.BaseEntity
	Provider       string    `db:"provider" json:"provider"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	AccountEmail   string    `db:"account_email" json:"account_email"`
}

func (CalendarCredential) TableName() string {
	return "calendar_credentials"
}
