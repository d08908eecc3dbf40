package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Reference data. Individual file settings win over ASSETS_DIR.
	AssetsDir       string `mapstructure:"ASSETS_DIR"`
	TablesFile      string `mapstructure:"TABLES_FILE"`
	IndexFile       string `mapstructure:"INDEX_FILE"`
	BodyPartKeyFile string `mapstructure:"BODY_PART_KEY_FILE"`
	DeviceKeyFile   string `mapstructure:"DEVICE_KEY_FILE"`
	DeviceAggFile   string `mapstructure:"DEVICE_AGG_FILE"`

	// KeySource selects where the synonym dictionaries come from:
	// "file" (JSON assets) or "postgres" (curated key tables).
	KeySource   string `mapstructure:"KEY_SOURCE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	AuthMode     string `mapstructure:"AUTH_MODE"`
	AuthSecret   string `mapstructure:"AUTH_SECRET"`
	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("ASSETS_DIR", "assets")
	v.SetDefault("KEY_SOURCE", "file")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from ENV
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("ASSETS_DIR")
	v.BindEnv("TABLES_FILE")
	v.BindEnv("INDEX_FILE")
	v.BindEnv("BODY_PART_KEY_FILE")
	v.BindEnv("DEVICE_KEY_FILE")
	v.BindEnv("DEVICE_AGG_FILE")
	v.BindEnv("KEY_SOURCE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

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

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: requests are not authenticated. Do NOT use in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise, the mode is inferred:
//   - ENV=development → "development" (no auth)
//   - AUTH_SECRET set → "jwt"
//   - Otherwise       → "development"
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if !c.IsDev() && c.AuthSecret != "" {
		return "jwt"
	}
	return "development"
}

// TablesPath returns the tables XML location, preferring the explicit
// setting over the assets directory convention.
func (c *Config) TablesPath() string {
	return c.assetPath(c.TablesFile, "icd10pcs_tables.xml")
}

// IndexPath returns the term index XML location.
func (c *Config) IndexPath() string {
	return c.assetPath(c.IndexFile, "icd10pcs_index.xml")
}

// BodyPartKeyPath returns the body part synonym dictionary location.
func (c *Config) BodyPartKeyPath() string {
	return c.assetPath(c.BodyPartKeyFile, "body_part_key.json")
}

// DeviceKeyPath returns the device synonym dictionary location.
func (c *Config) DeviceKeyPath() string {
	return c.assetPath(c.DeviceKeyFile, "device_key.json")
}

// DeviceAggPath returns the device aggregation table location.
func (c *Config) DeviceAggPath() string {
	return c.assetPath(c.DeviceAggFile, "device_aggregation.json")
}

func (c *Config) assetPath(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(c.AssetsDir, name)
}

// Validate checks that the configuration is safe to run. The tables file
// is the one asset the engine cannot start without, so its location must
// resolve to something. In jwt mode a signing secret is mandatory, and in
// production the development auth mode is refused outright.
func (c *Config) Validate() error {
	if c.TablesPath() == "" {
		return fmt.Errorf("TABLES_FILE or ASSETS_DIR must be set")
	}

	switch c.KeySource {
	case "file":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when KEY_SOURCE is \"postgres\"")
		}
	default:
		return fmt.Errorf("KEY_SOURCE must be \"file\" or \"postgres\", got %q", c.KeySource)
	}

	mode := c.ResolvedAuthMode()
	switch mode {
	case "development":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE \"development\" is not allowed when ENV=production; set AUTH_SECRET and AUTH_MODE=jwt")
		}
	case "jwt":
		if c.AuthSecret == "" {
			return fmt.Errorf("AUTH_SECRET is required when AUTH_MODE is \"jwt\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"jwt\", got %q", mode)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
