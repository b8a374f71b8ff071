package repository

import (
	"context"
	"database/sql"
	"errors"

	"booking-gateway/core/database"
	"booking-gateway/core/logger"
	"booking-gateway/modules/auth/entity"
)

type CredentialRepository interface {
	GetByProvider(ctx context.Context, provider string) (*entity.CalendarCredential, error)
	Upsert(ctx context.Context, cred *entity.CalendarCredential) error
	UpdateAccessToken(ctx context.Context, cred *entity.CalendarCredential) error
	DeleteByProvider(ctx context.Context, provider string) error
}

type credentialRepository struct {
	db database.Database
}

func NewCredentialRepository(db database.Database) CredentialRepository {
	return &credentialRepository{db: db}
}

// GetByProvider returns the stored credential, or nil when the provider has
// never been connected.
func (r *credentialRepository) GetByProvider(ctx context.Context, provider string) (*entity.CalendarCredential, error) {
	query := `
		SELECT id, provider, access_token, refresh_token, token_expires_at, account_email, created_at, updated_at
		FROM calendar_credentials
		WHERE provider = $1
	`
	var cred entity.CalendarCredential
	err := r.db.GetContext(ctx, &cred, query, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("CredentialRepository:GetByProvider:Error", "provider", provider, "error", err)
		return nil, err
	}
	return &cred, nil
}

// Upsert replaces the credential for the provider. Used by the exchange flow,
// which always carries a fresh refresh token.
func (r *credentialRepository) Upsert(ctx context.Context, cred *entity.CalendarCredential) error {
	query := `
		INSERT INTO calendar_credentials (provider, access_token, refresh_token, token_expires_at, account_email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_expires_at = EXCLUDED.token_expires_at,
		    account_email = EXCLUDED.account_email,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		cred.Provider, cred.AccessToken, cred.RefreshToken, cred.TokenExpiresAt, cred.AccountEmail,
	).Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		logger.Error("CredentialRepository:Upsert:Error", "provider", cred.Provider, "error", err)
	}
	return err
}

// UpdateAccessToken stores a refreshed access token. The refresh token column
// is only touched when the provider rotated it; an empty RefreshToken here
// never overwrites the stored one.
func (r *credentialRepository) UpdateAccessToken(ctx context.Context, cred *entity.CalendarCredential) error {
	query := `
		UPDATE calendar_credentials
		SET access_token = $1,
		    token_expires_at = $2,
		    refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
		    updated_at = NOW()
		WHERE provider = $4
	`
	err := r.db.ExecContext(ctx, query,
		cred.AccessToken, cred.TokenExpiresAt, cred.RefreshToken, cred.Provider)
	if err != nil {
		logger.Error("CredentialRepository:UpdateAccessToken:Error", "provider", cred.Provider, "error", err)
	}
	return err
}

func (r *credentialRepository) DeleteByProvider(ctx context.Context, provider string) error {
	err := r.db.ExecContext(ctx, `DELETE FROM calendar_credentials WHERE provider = $1`, provider)
	if err != nil {
		logger.Error("CredentialRepository:DeleteByProvider:Error", "provider", provider, "error", err)
	}
	return err
}
