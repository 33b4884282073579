package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Data source backends.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DataSource     string        `mapstructure:"DATA_SOURCE"`
	PatientsCSV    string        `mapstructure:"PATIENTS_CSV"`
	ModelsCSV      string        `mapstructure:"MODELS_CSV"`
	AnomaliesCSV   string        `mapstructure:"ANOMALIES_CSV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	CacheSize      int           `mapstructure:"CACHE_SIZE"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	AuthEnabled    bool          `mapstructure:"AUTH_ENABLED"`
	AuthSecret     string        `mapstructure:"AUTH_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_SOURCE", SourceCSV)
	v.SetDefault("PATIENTS_CSV", "data/patients.csv")
	v.SetDefault("MODELS_CSV", "data/model_evaluations.csv")
	v.SetDefault("ANOMALIES_CSV", "data/anomalies.csv")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("CACHE_SIZE", 256)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("AUTH_ENABLED", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_SOURCE")
	v.BindEnv("PATIENTS_CSV")
	v.BindEnv("MODELS_CSV")
	v.BindEnv("ANOMALIES_CSV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("CACHE_SIZE")
	v.BindEnv("CACHE_TTL")
	v.BindEnv("AUTH_ENABLED")
	v.BindEnv("AUTH_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run: a usable data
// source and, when auth is on, a signing secret.
func (c *Config) Validate() error {
	switch c.DataSource {
	case SourceCSV:
		for name, path := range map[string]string{
			"PATIENTS_CSV":  c.PatientsCSV,
			"MODELS_CSV":    c.ModelsCSV,
			"ANOMALIES_CSV": c.AnomaliesCSV,
		} {
			if path == "" {
				return fmt.Errorf("%s is required when DATA_SOURCE is %q", name, SourceCSV)
			}
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE is %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, c.DataSource)
	}

	if c.AuthEnabled && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when AUTH_ENABLED is true")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	return nil
}
