package config

import (
	"fmt"
	"sync"

	"booking-gateway/core/constants"
	coreErrors "booking-gateway/core/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// GoogleAPIConfig holds the OAuth client for the company calendar. ClientID
// and ClientSecret are required; missing values fail startup with a
// configuration error rather than surfacing later as a generic upstream
// failure. RefreshToken seeds the credential store on first boot so a
// previously consented deployment keeps working without re-running the
// consent flow.
type GoogleAPIConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
	CalendarID   string
}

// CompanyConfig describes the bookable schedule. Timezone is an IANA name;
// the slot template covers [OpenHour, CloseHour) in that zone.
type CompanyConfig struct {
	Name      string
	Timezone  string
	OpenHour  int
	CloseHour int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AWSConfig struct {
	Region string
	Bucket string
}

type AdminConfig struct {
	Email        string
	PasswordHash string
	JWTSecret    string
}

type Config struct {
	Server    ServerConfig
	GoogleAPI GoogleAPIConfig
	Company   CompanyConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AWS       AWSConfig
	Admin     AdminConfig
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present) and the environment, validates required
// values, and installs the global config. Returns a ConfigurationError when
// the Google OAuth client is incomplete.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("COMPANY_NAME", "Acme Sales")
	v.SetDefault("COMPANY_TIMEZONE", "UTC")
	v.SetDefault("COMPANY_OPEN_HOUR", constants.DefaultOpenHour)
	v.SetDefault("COMPANY_CLOSE_HOUR", constants.DefaultCloseHour)
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "booking_gateway")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AWS_REGION", "us-east-1")

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		GoogleAPI: GoogleAPIConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
			RefreshToken: v.GetString("GOOGLE_REFRESH_TOKEN"),
			CalendarID:   v.GetString("GOOGLE_CALENDAR_ID"),
		},
		Company: CompanyConfig{
			Name:      v.GetString("COMPANY_NAME"),
			Timezone:  v.GetString("COMPANY_TIMEZONE"),
			OpenHour:  v.GetInt("COMPANY_OPEN_HOUR"),
			CloseHour: v.GetInt("COMPANY_CLOSE_HOUR"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		AWS: AWSConfig{
			Region: v.GetString("AWS_REGION"),
			Bucket: v.GetString("AWS_EXPORT_BUCKET"),
		},
		Admin: AdminConfig{
			Email:        v.GetString("ADMIN_EMAIL"),
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
			JWTSecret:    v.GetString("JWT_SECRET"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GoogleAPI.ClientID == "" || c.GoogleAPI.ClientSecret == "" {
		return coreErrors.NewAppErrorWithHelp(
			coreErrors.ErrConfiguration,
			"Google OAuth client credentials are missing",
			"set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in the environment",
			nil,
		)
	}
	if c.Company.OpenHour < 0 || c.Company.CloseHour > 24 || c.Company.OpenHour >= c.Company.CloseHour {
		return coreErrors.NewAppError(
			coreErrors.ErrConfiguration,
			fmt.Sprintf("invalid business hours window [%d, %d)", c.Company.OpenHour, c.Company.CloseHour),
			nil,
		)
	}
	if c.Admin.JWTSecret == "" {
		return coreErrors.NewAppErrorWithHelp(
			coreErrors.ErrConfiguration,
			"JWT secret is missing",
			"set JWT_SECRET in the environment",
			nil,
		)
	}
	return nil
}

// GetSafe returns the installed config and whether it has been loaded.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}

// Set installs a config directly. Intended for tests.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}
