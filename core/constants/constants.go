package constants

import "time"

// Upstream HTTP
const (
	DefaultRequestTimeout = 10 * time.Second
	UpstreamHTTPTimeout   = 30 * time.Second
)

// Business schedule defaults. The bookable day is [OpenHour, CloseHour) in the
// company timezone, one slot per hour.
const (
	DefaultOpenHour  = 9
	DefaultCloseHour = 17
)

// Database pool settings
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Redis key prefixes
const (
	RedisKeyOAuthState  = "oauth:state:"
	RedisKeyBusyCache   = "calendar:busy:"
	RedisKeyRefreshLock = "oauth:refresh-lock:"
)

// Redis TTLs
const (
	OAuthStateTTL  = 10 * time.Minute
	BusyCacheTTL   = 30 * time.Second
	RefreshLockTTL = 15 * time.Second
)

// JWT token scopes
const (
	ScopeTokenAccess = "access"
	ContextTokenData = "token_data"
)

// Token refresh happens this long before the stored expiry.
const TokenExpiryLeeway = 5 * time.Minute

// Asynq task types
const (
	TaskBookingConfirmation = "booking:confirmation"
	QueueDefault            = "default"
)
