package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"booking-gateway/core/cache"
	"booking-gateway/core/config"
	"booking-gateway/core/constants"
	"booking-gateway/core/errors"
	"booking-gateway/core/logger"
	"booking-gateway/core/utils"
	"booking-gateway/modules/auth/dto"
	"booking-gateway/modules/auth/entity"
	"booking-gateway/modules/auth/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	reconsentHelp = "No refresh token was returned. Revoke the app's access at " +
		"https://myaccount.google.com/permissions and run the consent flow again " +
		"so Google issues a new refresh token."

	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var calendarScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
}

// OAuthService owns the company's Google credential lifecycle: consent URL,
// code exchange, persistence, and access-token refresh. It also implements
// calendar/service.AccessTokenSource.
type OAuthService struct {
	repo  repository.CredentialRepository
	cache cache.Cache

	// Overridable for tests; defaults to the real Google endpoints.
	endpoint    oauth2.Endpoint
	revokeURL   string
	userinfoURL string
	client      *http.Client

	refreshMu sync.Mutex
}

func NewOAuthService(repo repository.CredentialRepository, cacheClient cache.Cache) *OAuthService {
	return &OAuthService{
		repo:        repo,
		cache:       cacheClient,
		endpoint:    google.Endpoint,
		revokeURL:   googleRevokeURL,
		userinfoURL: googleUserinfoURL,
		client:      &http.Client{Timeout: constants.DefaultRequestTimeout},
	}
}

// NewOAuthServiceWithEndpoint points the service at a fake provider. Intended
// for tests.
func NewOAuthServiceWithEndpoint(repo repository.CredentialRepository, cacheClient cache.Cache, endpoint oauth2.Endpoint, revokeURL string, client *http.Client) *OAuthService {
	return &OAuthService{
		repo:        repo,
		cache:       cacheClient,
		endpoint:    endpoint,
		revokeURL:   revokeURL,
		userinfoURL: googleUserinfoURL,
		client:      client,
	}
}

func (service *OAuthService) oauthConfig() (*oauth2.Config, *errors.AppError) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, errors.NewAppError(errors.ErrConfiguration, "config not initialized", nil)
	}
	if cfg.GoogleAPI.ClientID == "" || cfg.GoogleAPI.ClientSecret == "" {
		return nil, errors.NewAppError(errors.ErrConfiguration, "Google OAuth client is not configured", nil)
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleAPI.ClientID,
		ClientSecret: cfg.GoogleAPI.ClientSecret,
		RedirectURL:  cfg.GoogleAPI.RedirectURI,
		Scopes:       calendarScopes,
		Endpoint:     service.endpoint,
	}, nil
}

// GetAuthURL builds the Google consent URL. AccessTypeOffline plus
// ApprovalForce makes Google issue a refresh token even when the account
// already consented once.
func (service *OAuthService) GetAuthURL(ctx context.Context) (*dto.AuthURLResponse, *errors.AppError) {
	oauthConfig, appErr := service.oauthConfig()
	if appErr != nil {
		return nil, appErr
	}

	state := utils.GenerateRandomString(32)
	if err := service.cache.SaveOAuthState(ctx, state); err != nil {
		logger.Error("OAuthService:GetAuthURL:SaveOAuthState:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store state token", err)
	}

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	logger.Info("OAuthService:GetAuthURL:Generated", "state", state)

	return &dto.AuthURLResponse{URL: authURL, State: state}, nil
}

// ExchangeCode trades an authorization code for tokens and persists them.
// A response without a refresh token is treated as a failed exchange: the
// credential cannot survive access-token expiry, so storing it would only
// defer the breakage to a worse moment.
func (service *OAuthService) ExchangeCode(ctx context.Context, code, state string) (*dto.TokenResponse, *errors.AppError) {
	if code == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "authorization code is required", nil)
	}

	if state != "" {
		ok, err := service.cache.ConsumeOAuthState(ctx, state)
		if err != nil {
			logger.Error("OAuthService:ExchangeCode:ConsumeOAuthState:Error", "error", err)
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to validate state token", err)
		}
		if !ok {
			logger.Warn("OAuthService:ExchangeCode:StateNotFound", "state", state)
			return nil, errors.NewAppError(errors.ErrAuthExchange, "invalid or expired state token", nil)
		}
	}

	oauthConfig, appErr := service.oauthConfig()
	if appErr != nil {
		return nil, appErr
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		logger.Error("OAuthService:ExchangeCode:Exchange:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrAuthExchange, "failed to exchange authorization code", err)
	}

	if token.RefreshToken == "" {
		logger.Warn("OAuthService:ExchangeCode:NoRefreshToken")
		return nil, errors.NewAppErrorWithHelp(errors.ErrAuthExchange,
			"token exchange succeeded but no refresh token was returned", reconsentHelp, nil)
	}

	email, _ := service.fetchAccountEmail(ctx, token.AccessToken)

	cred := &entity.CalendarCredential{
		Provider:       dto.ProviderGoogle,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry,
		AccountEmail:   email,
	}
	if err := service.repo.Upsert(ctx, cred); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}

	logger.Info("OAuthService:ExchangeCode:CredentialStored",
		"account_email", email,
		"expires_at", token.Expiry,
	)

	return &dto.TokenResponse{
		Tokens: dto.Tokens{
			AccessToken: token.AccessToken,
			TokenType:   token.TokenType,
			ExpiresAt:   token.Expiry,
		},
		RefreshToken: token.RefreshToken,
	}, nil
}

// AccessToken returns a bearer token valid for at least TokenExpiryLeeway,
// refreshing through the stored refresh token when needed. Refreshes are
// serialized in-process with a mutex and across processes with a Redis lock
// so concurrent requests trigger a single round trip to Google.
func (service *OAuthService) AccessToken(ctx context.Context) (string, *errors.AppError) {
	cred, appErr := service.storedCredential(ctx)
	if appErr != nil {
		return "", appErr
	}

	if tokenStillValid(cred) {
		return cred.AccessToken, nil
	}

	service.refreshMu.Lock()
	defer service.refreshMu.Unlock()

	// Re-read after taking the lock; another goroutine may have refreshed.
	cred, appErr = service.storedCredential(ctx)
	if appErr != nil {
		return "", appErr
	}
	if tokenStillValid(cred) {
		return cred.AccessToken, nil
	}

	return service.refresh(ctx, cred)
}

func (service *OAuthService) storedCredential(ctx context.Context) (*entity.CalendarCredential, *errors.AppError) {
	cred, err := service.repo.GetByProvider(ctx, dto.ProviderGoogle)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil || cred.RefreshToken == "" {
		return nil, errors.NewAppErrorWithHelp(errors.ErrAuthExchange,
			"calendar is not connected", reconsentHelp, nil)
	}
	return cred, nil
}

func tokenStillValid(cred *entity.CalendarCredential) bool {
	if cred.AccessToken == "" {
		return false
	}
	return time.Now().Add(constants.TokenExpiryLeeway).Before(cred.TokenExpiresAt)
}

func (service *OAuthService) refresh(ctx context.Context, cred *entity.CalendarCredential) (string, *errors.AppError) {
	acquired, err := service.cache.AcquireRefreshLock(ctx, cred.ID.String())
	if err != nil {
		logger.Warn("OAuthService:refresh:AcquireRefreshLock:Error", "error", err)
		// Redis being down should not block the refresh itself.
		acquired = true
	}
	if !acquired {
		// Another process holds the lock. Wait briefly and re-read; it will
		// have written the fresh token by then.
		time.Sleep(500 * time.Millisecond)
		refreshed, appErr := service.storedCredential(ctx)
		if appErr == nil && tokenStillValid(refreshed) {
			return refreshed.AccessToken, nil
		}
		// Fall through and refresh ourselves; Google tolerates duplicate
		// refresh calls with the same refresh token.
	} else {
		defer func() {
			if releaseErr := service.cache.ReleaseRefreshLock(context.WithoutCancel(ctx), cred.ID.String()); releaseErr != nil {
				logger.Warn("OAuthService:refresh:ReleaseRefreshLock:Error", "error", releaseErr)
			}
		}()
	}

	oauthConfig, appErr := service.oauthConfig()
	if appErr != nil {
		return "", appErr
	}

	source := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := source.Token()
	if err != nil {
		logger.Error("OAuthService:refresh:Error", "error", err)
		return "", errors.NewAppErrorWithHelp(errors.ErrAuthExchange,
			"failed to refresh access token", reconsentHelp, err)
	}

	cred.AccessToken = token.AccessToken
	cred.TokenExpiresAt = token.Expiry
	// Google occasionally rotates the refresh token; only persist a non-empty
	// replacement.
	cred.RefreshToken = token.RefreshToken
	if err := service.repo.UpdateAccessToken(ctx, cred); err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store refreshed token", err)
	}

	logger.Info("OAuthService:refresh:Refreshed", "expires_at", token.Expiry)
	return token.AccessToken, nil
}

// TokenStatus reports whether the calendar is connected without exposing the
// tokens themselves.
func (service *OAuthService) TokenStatus(ctx context.Context) (*dto.TokenStatusResponse, *errors.AppError) {
	cred, err := service.repo.GetByProvider(ctx, dto.ProviderGoogle)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil || cred.RefreshToken == "" {
		return &dto.TokenStatusResponse{State: "unauthenticated"}, nil
	}
	expiresAt := cred.TokenExpiresAt
	return &dto.TokenStatusResponse{
		State:        "authenticated",
		AccountEmail: cred.AccountEmail,
		ExpiresAt:    &expiresAt,
	}, nil
}

// Revoke tells Google to invalidate the stored refresh token and removes the
// credential. The provider call failing does not keep the row around; a
// half-revoked credential is worse than a dangling grant.
func (service *OAuthService) Revoke(ctx context.Context) *errors.AppError {
	cred, err := service.repo.GetByProvider(ctx, dto.ProviderGoogle)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil {
		return errors.NewAppError(errors.ErrNotFound, "no stored credential to revoke", nil)
	}

	form := url.Values{"token": {cred.RefreshToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to build revoke request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := service.client.Do(req)
	if err != nil {
		logger.Warn("OAuthService:Revoke:ProviderError", "error", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			logger.Warn("OAuthService:Revoke:ProviderStatus", "status", resp.StatusCode)
		}
	}

	if err := service.repo.DeleteByProvider(ctx, dto.ProviderGoogle); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete credential", err)
	}

	logger.Info("OAuthService:Revoke:Done", "account_email", cred.AccountEmail)
	return nil
}

// AdminLogin authenticates the configured operator and issues a JWT for the
// private admin surface.
func (service *OAuthService) AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, *errors.AppError) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, errors.NewAppError(errors.ErrConfiguration, "config not initialized", nil)
	}
	if cfg.Admin.Email == "" || cfg.Admin.PasswordHash == "" {
		return nil, errors.NewAppError(errors.ErrConfiguration, "admin account is not configured", nil)
	}

	if req.Email != cfg.Admin.Email || !utils.ComparePassword(cfg.Admin.PasswordHash, req.Password) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid email or password", nil)
	}

	token, err := utils.GenerateToken(req.Email, 12*time.Hour)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate token", err)
	}

	logger.Info("OAuthService:AdminLogin:Success", "email", req.Email)
	return &dto.LoginResponse{Token: token}, nil
}

// SeedFromConfig installs a refresh token from the environment when the store
// is empty. Lets a previously consented deployment come up clean without
// re-running the consent flow.
func (service *OAuthService) SeedFromConfig(ctx context.Context) error {
	cfg, ok := config.GetSafe()
	if !ok || cfg.GoogleAPI.RefreshToken == "" {
		return nil
	}

	existing, err := service.repo.GetByProvider(ctx, dto.ProviderGoogle)
	if err != nil {
		return err
	}
	if existing != nil && existing.RefreshToken != "" {
		return nil
	}

	cred := &entity.CalendarCredential{
		Provider:     dto.ProviderGoogle,
		RefreshToken: cfg.GoogleAPI.RefreshToken,
		// Expired on purpose: the first upstream call refreshes immediately.
		TokenExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := service.repo.Upsert(ctx, cred); err != nil {
		return err
	}

	logger.Info("OAuthService:SeedFromConfig:Seeded")
	return nil
}

func (service *OAuthService) fetchAccountEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service.userinfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := service.client.Do(req)
	if err != nil {
		logger.Warn("OAuthService:fetchAccountEmail:Error", "error", err)
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Email, nil
}
