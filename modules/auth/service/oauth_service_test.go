package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"booking-gateway/core/config"
	"booking-gateway/core/errors"
	"booking-gateway/core/utils"
	"booking-gateway/modules/auth/dto"
	"booking-gateway/modules/auth/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type memoryRepo struct {
	mu   sync.Mutex
	cred *entity.CalendarCredential
}

func (m *memoryRepo) GetByProvider(ctx context.Context, provider string) (*entity.CalendarCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil || m.cred.Provider != provider {
		return nil, nil
	}
	copied := *m.cred
	return &copied, nil
}

func (m *memoryRepo) Upsert(ctx context.Context, cred *entity.CalendarCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	copied := *cred
	m.cred = &copied
	return nil
}

func (m *memoryRepo) UpdateAccessToken(ctx context.Context, cred *entity.CalendarCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil
	}
	m.cred.AccessToken = cred.AccessToken
	m.cred.TokenExpiresAt = cred.TokenExpiresAt
	if cred.RefreshToken != "" {
		m.cred.RefreshToken = cred.RefreshToken
	}
	return nil
}

func (m *memoryRepo) DeleteByProvider(ctx context.Context, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}

type memoryCache struct {
	mu     sync.Mutex
	states map[string]bool
	locks  map[string]bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{states: map[string]bool{}, locks: map[string]bool{}}
}

func (c *memoryCache) SaveOAuthState(ctx context.Context, state string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[state] = true
	return nil
}

func (c *memoryCache) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.states[state] {
		return false, nil
	}
	delete(c.states, state)
	return true, nil
}

func (c *memoryCache) GetBusyIntervals(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (c *memoryCache) SetBusyIntervals(ctx context.Context, key string, value any) error {
	return nil
}

func (c *memoryCache) AcquireRefreshLock(ctx context.Context, credentialID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[credentialID] {
		return false, nil
	}
	c.locks[credentialID] = true
	return true, nil
}

func (c *memoryCache) ReleaseRefreshLock(ctx context.Context, credentialID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, credentialID)
	return nil
}

func (c *memoryCache) Ping(ctx context.Context) error { return nil }
func (c *memoryCache) Close() error                   { return nil }

// fakeProvider is an OAuth token endpoint that honours each code once.
type fakeProvider struct {
	mu           sync.Mutex
	usedCodes    map[string]bool
	refreshToken string
	tokenCalls   int
	revokeCalls  int
	server       *httptest.Server
}

func newFakeProvider(refreshToken string) *fakeProvider {
	p := &fakeProvider{usedCodes: map[string]bool{}, refreshToken: refreshToken}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/revoke", p.handleRevoke)
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"email": "calendar-owner@example.com"})
	})
	p.server = httptest.NewServer(mux)
	return p
}

func (p *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenCalls++

	_ = r.ParseForm()
	if code := r.FormValue("code"); code != "" {
		if p.usedCodes[code] {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		p.usedCodes[code] = true
	}

	resp := map[string]any{
		"access_token": "access-" + strings.Repeat("x", p.tokenCalls),
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if p.refreshToken != "" {
		resp["refresh_token"] = p.refreshToken
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (p *fakeProvider) handleRevoke(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokeCalls++
	w.WriteHeader(http.StatusOK)
}

func newTestOAuthService(t *testing.T, provider *fakeProvider) (*OAuthService, *memoryRepo, *memoryCache) {
	t.Helper()
	config.Set(&config.Config{
		GoogleAPI: config.GoogleAPIConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURI:  "http://localhost:7070/api/v1/public/auth/google/callback",
		},
		Admin: config.AdminConfig{JWTSecret: "test-secret"},
	})
	t.Cleanup(func() { config.Set(nil) })

	repo := &memoryRepo{}
	cacheClient := newMemoryCache()
	endpoint := oauth2.Endpoint{
		AuthURL:  provider.server.URL + "/auth",
		TokenURL: provider.server.URL + "/token",
	}
	svc := NewOAuthServiceWithEndpoint(repo, cacheClient, endpoint, provider.server.URL+"/revoke", provider.server.Client())
	svc.userinfoURL = provider.server.URL + "/userinfo"
	return svc, repo, cacheClient
}

func TestGetAuthURLStoresStateAndForcesConsent(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, _, cacheClient := newTestOAuthService(t, provider)

	resp, appErr := svc.GetAuthURL(context.Background())
	require.Nil(t, appErr)

	assert.Contains(t, resp.URL, "client_id=client-id")
	assert.Contains(t, resp.URL, "access_type=offline")
	assert.Contains(t, resp.URL, "approval_prompt=force")
	assert.Contains(t, resp.URL, "state="+resp.State)
	assert.True(t, cacheClient.states[resp.State], "state must be stored for the callback")
}

func TestExchangeCodePersistsCredential(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, cacheClient := newTestOAuthService(t, provider)

	require.NoError(t, cacheClient.SaveOAuthState(context.Background(), "state-1"))

	resp, appErr := svc.ExchangeCode(context.Background(), "code-1", "state-1")
	require.Nil(t, appErr)
	assert.Equal(t, "refresh-1", resp.RefreshToken)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	cred, err := repo.GetByProvider(context.Background(), dto.ProviderGoogle)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.Equal(t, "calendar-owner@example.com", cred.AccountEmail)
}

func TestExchangeCodeReplayedCodeFails(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, _, cacheClient := newTestOAuthService(t, provider)

	require.NoError(t, cacheClient.SaveOAuthState(context.Background(), "state-1"))
	_, appErr := svc.ExchangeCode(context.Background(), "code-1", "state-1")
	require.Nil(t, appErr)

	require.NoError(t, cacheClient.SaveOAuthState(context.Background(), "state-2"))
	_, appErr = svc.ExchangeCode(context.Background(), "code-1", "state-2")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAuthExchange, appErr.Code)
}

func TestExchangeCodeReplayedStateFails(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, _, cacheClient := newTestOAuthService(t, provider)

	require.NoError(t, cacheClient.SaveOAuthState(context.Background(), "state-1"))
	_, appErr := svc.ExchangeCode(context.Background(), "code-1", "state-1")
	require.Nil(t, appErr)

	_, appErr = svc.ExchangeCode(context.Background(), "code-2", "state-1")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAuthExchange, appErr.Code)
}

func TestExchangeCodeWithoutRefreshTokenFailsWithHelp(t *testing.T) {
	provider := newFakeProvider("")
	defer provider.server.Close()
	svc, repo, cacheClient := newTestOAuthService(t, provider)

	require.NoError(t, cacheClient.SaveOAuthState(context.Background(), "state-1"))
	_, appErr := svc.ExchangeCode(context.Background(), "code-1", "state-1")

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAuthExchange, appErr.Code)
	assert.Contains(t, appErr.Help, "myaccount.google.com/permissions")

	cred, err := repo.GetByProvider(context.Background(), dto.ProviderGoogle)
	require.NoError(t, err)
	assert.Nil(t, cred, "a credential without a refresh token must not be stored")
}

func TestAccessTokenFailsWhenNotConnected(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, _, _ := newTestOAuthService(t, provider)

	_, appErr := svc.AccessToken(context.Background())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAuthExchange, appErr.Code)
	assert.NotEmpty(t, appErr.Help)
}

func TestAccessTokenUsesStoredTokenWhileValid(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, _ := newTestOAuthService(t, provider)

	require.NoError(t, repo.Upsert(context.Background(), &entity.CalendarCredential{
		Provider:       dto.ProviderGoogle,
		AccessToken:    "stored-token",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}))

	token, appErr := svc.AccessToken(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, "stored-token", token)
	assert.Equal(t, 0, provider.tokenCalls)
}

func TestAccessTokenRefreshesExpiredToken(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, _ := newTestOAuthService(t, provider)

	require.NoError(t, repo.Upsert(context.Background(), &entity.CalendarCredential{
		Provider:       dto.ProviderGoogle,
		AccessToken:    "stale-token",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(-time.Minute),
	}))

	token, appErr := svc.AccessToken(context.Background())
	require.Nil(t, appErr)
	assert.NotEqual(t, "stale-token", token)
	assert.Equal(t, 1, provider.tokenCalls)

	cred, err := repo.GetByProvider(context.Background(), dto.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, token, cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken, "refresh token must survive the refresh")
	assert.True(t, cred.TokenExpiresAt.After(time.Now()))
}

func TestAccessTokenSecondCallHitsCacheNotProvider(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, _ := newTestOAuthService(t, provider)

	require.NoError(t, repo.Upsert(context.Background(), &entity.CalendarCredential{
		Provider:       dto.ProviderGoogle,
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(-time.Minute),
	}))

	first, appErr := svc.AccessToken(context.Background())
	require.Nil(t, appErr)
	second, appErr := svc.AccessToken(context.Background())
	require.Nil(t, appErr)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.tokenCalls)
}

func TestTokenStatus(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, _ := newTestOAuthService(t, provider)

	status, appErr := svc.TokenStatus(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, "unauthenticated", status.State)

	require.NoError(t, repo.Upsert(context.Background(), &entity.CalendarCredential{
		Provider:       dto.ProviderGoogle,
		RefreshToken:   "refresh-1",
		AccountEmail:   "calendar-owner@example.com",
		TokenExpiresAt: time.Now().Add(time.Hour),
	}))

	status, appErr = svc.TokenStatus(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, "authenticated", status.State)
	assert.Equal(t, "calendar-owner@example.com", status.AccountEmail)
	require.NotNil(t, status.ExpiresAt)
}

func TestRevokeDeletesCredential(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, _ := newTestOAuthService(t, provider)

	require.NoError(t, repo.Upsert(context.Background(), &entity.CalendarCredential{
		Provider:     dto.ProviderGoogle,
		RefreshToken: "refresh-1",
	}))

	appErr := svc.Revoke(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, 1, provider.revokeCalls)

	cred, err := repo.GetByProvider(context.Background(), dto.ProviderGoogle)
	require.NoError(t, err)
	assert.Nil(t, cred)

	appErr = svc.Revoke(context.Background())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestAdminLogin(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, _, _ := newTestOAuthService(t, provider)

	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)
	cfg, _ := config.GetSafe()
	cfg.Admin.Email = "operator@example.com"
	cfg.Admin.PasswordHash = hash
	config.Set(cfg)

	resp, appErr := svc.AdminLogin(context.Background(), &dto.LoginRequest{
		Email:    "operator@example.com",
		Password: "correct horse",
	})
	require.Nil(t, appErr)
	assert.NotEmpty(t, resp.Token)

	tokenData, err := utils.ValidateAndParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "operator@example.com", tokenData.Email)

	_, appErr = svc.AdminLogin(context.Background(), &dto.LoginRequest{
		Email:    "operator@example.com",
		Password: "wrong",
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestSeedFromConfig(t *testing.T) {
	provider := newFakeProvider("refresh-1")
	defer provider.server.Close()
	svc, repo, _ := newTestOAuthService(t, provider)

	cfg, _ := config.GetSafe()
	cfg.GoogleAPI.RefreshToken = "seeded-refresh"
	config.Set(cfg)

	require.NoError(t, svc.SeedFromConfig(context.Background()))

	cred, err := repo.GetByProvider(context.Background(), dto.ProviderGoogle)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "seeded-refresh", cred.RefreshToken)
	assert.True(t, cred.TokenExpiresAt.Before(time.Now()), "seeded token must refresh on first use")

	// A populated store is left alone.
	cred.RefreshToken = "operator-supplied"
	require.NoError(t, repo.Upsert(context.Background(), cred))
	require.NoError(t, svc.SeedFromConfig(context.Background()))

	cred, err = repo.GetByProvider(context.Background(), dto.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "operator-supplied", cred.RefreshToken)
}
