package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"booking-gateway/core/entity"
)

// Notification is one operator-facing event row: a confirmed booking, a
// credential change, an export. There is no per-user fan-out; the operator
// surface reads the whole log.
type Notification struct {
	Title   string `db:"title" json:"title"`
	Message string `db:"message" json:"message"`
	Type    string `db:"type" json:"type"`
	Data    JSONB  `db:"data" json:"data"`
	IsRead  bool   `db:"is_read" json:"is_read"`
	entity.BaseEntity
}

const (
	TypeBookingConfirmed   = "booking_confirmed"
	TypeCredentialRevoked  = "credential_revoked"
	TypeCredentialReplaced = "credential_replaced"
)

type JSONB map[string]interface{}

func (a JSONB) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *JSONB) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

type PaginatedNotificationEntity = entity.Pagination[Notification]
