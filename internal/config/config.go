package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Port    string
	LogMode string

	Local  LocalConfig
	Remote RemoteConfig
	Gemini GeminiConfig
	Auth   AuthConfig

	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
}

// LocalConfig selects and locates the local snapshot slot
type LocalConfig struct {
	Driver    string // sqlite or diskv
	DBPath    string
	DiskvPath string
	Slot      string
}

// RemoteConfig holds the connection parameters of the remote document store
type RemoteConfig struct {
	Addr       string
	Project    string
	Collection string
	Username   string
	Password   string
	DB         int
}

// GeminiConfig holds the report generator credentials
type GeminiConfig struct {
	APIKey string
	Model  string
}

// AuthConfig holds admin session settings
type AuthConfig struct {
	JWTSecret     string
	AdminPassword string
	SessionTTL    time.Duration
}

const (
	DriverSQLite = "sqlite"
	DriverDiskv  = "diskv"
)

// Keys that must all be present for live (remote) mode
var requiredRemoteKeys = []string{"remote.addr", "remote.project"}

// Load 加载配置: defaults, then sitetrack.yaml, then SITETRACK_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("sitetrack")
	v.SetEnvPrefix("SITETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("SITETRACK_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", ":8080")
	v.SetDefault("log.mode", "development")

	v.SetDefault("local.driver", DriverSQLite)
	v.SetDefault("local.db_path", "./data/sitetrack.db")
	v.SetDefault("local.diskv_path", "./data/slots")
	v.SetDefault("local.slot", "site_segments_v3")

	v.SetDefault("remote.addr", "")
	v.SetDefault("remote.project", "")
	v.SetDefault("remote.collection", "segments")
	v.SetDefault("remote.username", "")
	v.SetDefault("remote.password", "")
	v.SetDefault("remote.db", 0)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")

	v.SetDefault("auth.jwt_secret", "your-secret-key-change-in-production")
	v.SetDefault("auth.admin_password", "admin888")
	v.SetDefault("auth.session_ttl", "12h")

	v.SetDefault("cors.origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	})
	v.SetDefault("ratelimit.requests", 20)
	v.SetDefault("ratelimit.window", "1m")
}

func fromViper(v *viper.Viper) (*Config, error) {
	port := v.GetString("port")
	if port != "" && !strings.Contains(port, ":") {
		port = ":" + port
	}

	apiKey := v.GetString("gemini.api_key")
	if apiKey == "" {
		apiKey = firstEnv("GEMINI_API_KEY", "API_KEY")
	}

	driver := strings.ToLower(v.GetString("local.driver"))
	if driver != DriverSQLite && driver != DriverDiskv {
		return nil, fmt.Errorf("unknown local.driver %q (want %s or %s)", driver, DriverSQLite, DriverDiskv)
	}

	cfg := &Config{
		Port:    port,
		LogMode: v.GetString("log.mode"),
		Local: LocalConfig{
			Driver:    driver,
			DBPath:    v.GetString("local.db_path"),
			DiskvPath: v.GetString("local.diskv_path"),
			Slot:      v.GetString("local.slot"),
		},
		Remote: RemoteConfig{
			Addr:       strings.TrimSpace(v.GetString("remote.addr")),
			Project:    strings.TrimSpace(v.GetString("remote.project")),
			Collection: strings.TrimSpace(v.GetString("remote.collection")),
			Username:   v.GetString("remote.username"),
			Password:   v.GetString("remote.password"),
			DB:         v.GetInt("remote.db"),
		},
		Gemini: GeminiConfig{
			APIKey: apiKey,
			Model:  v.GetString("gemini.model"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			AdminPassword: v.GetString("auth.admin_password"),
			SessionTTL:    v.GetDuration("auth.session_ttl"),
		},
		CORSOrigins:     v.GetStringSlice("cors.origins"),
		RateLimit:       v.GetInt("ratelimit.requests"),
		RateLimitWindow: v.GetDuration("ratelimit.window"),
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 12 * time.Hour
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	return cfg, nil
}

// MissingKeys lists the required remote keys that are absent
func (r RemoteConfig) MissingKeys() []string {
	var missing []string
	values := map[string]string{"remote.addr": r.Addr, "remote.project": r.Project}
	for _, key := range requiredRemoteKeys {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Enabled reports whether live mode can be used: every required key is
// present and the address is host:port.
func (r RemoteConfig) Enabled() bool {
	if len(r.MissingKeys()) > 0 {
		return false
	}
	return r.Validate() == nil
}

// Validate checks the shape of the remote parameters
func (r RemoteConfig) Validate() error {
	if _, _, err := net.SplitHostPort(r.Addr); err != nil {
		return fmt.Errorf("invalid remote.addr %q: %w", r.Addr, err)
	}
	if r.DB < 0 {
		return fmt.Errorf("invalid remote.db %d", r.DB)
	}
	if strings.ContainsAny(r.Project, ": ") {
		return fmt.Errorf("invalid remote.project %q", r.Project)
	}
	return nil
}

// ReportEnabled reports whether the report generator has a credential
func (c *Config) ReportEnabled() bool {
	return c.Gemini.APIKey != ""
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
