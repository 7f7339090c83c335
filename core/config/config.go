package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Database  DatabaseConfig
	Valkey    ValkeyConfig
	Gateway   GatewayConfig
	Campaign  CampaignConfig
	Blacklist BlacklistConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
}

type PathsConfig struct {
	Storages string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
	SSLMode  string
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// GatewayConfig describes how to reach the UAZAPI instance server.
type GatewayConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
	ListCacheTTL time.Duration
}

// CampaignConfig carries the dispatch defaults and the reconciliation thresholds.
// The thresholds are empirical; keep them overridable.
type CampaignConfig struct {
	DefaultDelayMin     int
	DefaultDelayMax     int
	CompletionGrace     time.Duration
	ActiveWindow        time.Duration
	LongRunningAfter    time.Duration
	LongRunningProgress int
	StuckAfter          time.Duration
	StuckProgress       int
	AbandonedAfter      time.Duration
	SweepInterval       time.Duration
}

type BlacklistConfig struct {
	Storage        string // file | valkey | memory
	StorageKey     string
	ShortTTL       time.Duration
	LongTTL        time.Duration
	RetryThreshold int
	MaxAge         time.Duration
	SweepInterval  time.Duration
}

// Global provides access to the loaded configuration globally
var Global *Config

// LoadConfig reads an optional .env file from path and then the environment.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(path, ".env"))

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	storages := getEnv("APP_BASE_DIR", "storages")

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.0.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbName := filepath.Join(storages, "engage.db")
	if dbDriver == "postgres" {
		dbName = getEnv("DB_NAME", "postgres")
	}

	cfg := &Config{
		App:   appCfg,
		Paths: PathsConfig{Storages: storages},
		Database: DatabaseConfig{
			Driver:   dbDriver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     dbName,
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Valkey: ValkeyConfig{
			Enabled:   getEnvBool("VALKEY_ENABLED", false),
			Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			Password:  getEnv("VALKEY_PASSWORD", ""),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "engage:"),
		},
		Gateway: GatewayConfig{
			BaseURL:      strings.TrimRight(getEnv("UAZAPI_BASE_URL", "https://free.uazapi.com"), "/"),
			Timeout:      getEnvDuration("UAZAPI_TIMEOUT", 30*time.Second),
			RatePerSec:   getEnvFloat("UAZAPI_RATE_PER_SEC", 5),
			Burst:        getEnvInt("UAZAPI_BURST", 5),
			ListCacheTTL: getEnvDuration("UAZAPI_LIST_CACHE_TTL", 15*time.Second),
		},
		Campaign: CampaignConfig{
			DefaultDelayMin:     getEnvInt("CAMPAIGN_DEFAULT_DELAY_MIN", 10),
			DefaultDelayMax:     getEnvInt("CAMPAIGN_DEFAULT_DELAY_MAX", 30),
			CompletionGrace:     getEnvDuration("CAMPAIGN_COMPLETION_GRACE", 5*time.Minute),
			ActiveWindow:        getEnvDuration("CAMPAIGN_ACTIVE_WINDOW", time.Hour),
			LongRunningAfter:    getEnvDuration("CAMPAIGN_LONG_RUNNING_AFTER", 6*time.Hour),
			LongRunningProgress: getEnvInt("CAMPAIGN_LONG_RUNNING_PROGRESS", 95),
			StuckAfter:          getEnvDuration("CAMPAIGN_STUCK_AFTER", 72*time.Hour),
			StuckProgress:       getEnvInt("CAMPAIGN_STUCK_PROGRESS", 5),
			AbandonedAfter:      getEnvDuration("CAMPAIGN_ABANDONED_AFTER", 96*time.Hour),
			SweepInterval:       getEnvDuration("CAMPAIGN_SWEEP_INTERVAL", 30*time.Minute),
		},
		Blacklist: BlacklistConfig{
			Storage:        getEnv("BLACKLIST_STORAGE", "file"),
			StorageKey:     getEnv("BLACKLIST_STORAGE_KEY", "whatsapp_blacklist"),
			ShortTTL:       getEnvDuration("BLACKLIST_SHORT_TTL", 24*time.Hour),
			LongTTL:        getEnvDuration("BLACKLIST_LONG_TTL", 7*24*time.Hour),
			RetryThreshold: getEnvInt("BLACKLIST_RETRY_THRESHOLD", 3),
			MaxAge:         getEnvDuration("BLACKLIST_MAX_AGE", 30*24*time.Hour),
			SweepInterval:  getEnvDuration("BLACKLIST_SWEEP_INTERVAL", 6*time.Hour),
		},
	}

	Global = cfg
	return cfg, nil
}
