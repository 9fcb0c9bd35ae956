package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file searched for by Load.
const FileName = "orchestra.yaml"

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// ErrCSRFKeyRequired is returned by CSRFSecret in production when no key is configured.
var ErrCSRFKeyRequired = errors.New("csrfKey is required in production")

// IdentityConfig selects how bearer tokens are verified. Production deployments
// point JWKSURL at the identity provider; development and tests may use a shared
// HMAC secret instead.
type IdentityConfig struct {
	JWKSURL    string        `yaml:"jwksURL" validate:"omitempty,url"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	HMACSecret string        `yaml:"hmacSecret" validate:"required_without=JWKSURL"`
	Refresh    time.Duration `yaml:"refresh" validate:"min=0"`
}

// RateLimitConfig is the per-client request budget.
type RateLimitConfig struct {
	Requests int           `yaml:"requests" validate:"min=1"`
	Interval time.Duration `yaml:"interval" validate:"min=1ms"`
}

// CalendarConfig tunes the availability editor.
type CalendarConfig struct {
	DragThreshold   float64       `yaml:"dragThreshold" validate:"gt=0"`
	DuplicateWindow time.Duration `yaml:"duplicateWindow" validate:"min=0"`
	Timezone        string        `yaml:"timezone" validate:"required"`
}

// Config represents the application configuration.
type Config struct {
	Env           string          `yaml:"env" validate:"oneof=development production test"`
	Addr          string          `yaml:"addr" validate:"required"`
	DBPath        string          `yaml:"dbPath" validate:"required"`
	LogLevel      string          `yaml:"logLevel" validate:"oneof=debug info warn error"`
	CSRFKey       string          `yaml:"csrfKey" validate:"omitempty,hexadecimal,len=64"`
	SlowQueryMs   int             `yaml:"slowQueryMs" validate:"min=0"`
	SlowRequestMs int             `yaml:"slowRequestMs" validate:"min=0"`
	Identity      IdentityConfig  `yaml:"identity"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`
	Calendar      CalendarConfig  `yaml:"calendar"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Defaults returns the configuration used when no file or override is present.
func Defaults() Config {
	return Config{
		Env:           EnvDevelopment,
		Addr:          ":8080",
		DBPath:        "orchestra.db",
		LogLevel:      "info",
		SlowQueryMs:   50,
		SlowRequestMs: 500,
		Identity: IdentityConfig{
			Refresh: time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 10,
			Interval: time.Second,
		},
		Calendar: CalendarConfig{
			DragThreshold:   5,
			DuplicateWindow: 500 * time.Millisecond,
			Timezone:        "Asia/Seoul",
		},
	}
}

// Load reads .env (if present), then orchestra.yaml from the current or home
// directory (if present), then ORCHESTRA_* environment overrides, and validates
// the result. An explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = findConfigFile()
	}
	cfg := Defaults()
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromPath loads and validates the configuration from a specific path
// without consulting the environment.
func LoadFromPath(path string) (*Config, error) {
	cfg := Defaults()
	if err := readFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate validates the configuration struct and the timezone name.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid calendar timezone %q: %w", cfg.Calendar.Timezone, err)
	}
	return nil
}

// findConfigFile searches for orchestra.yaml in the current directory and the
// home directory. It returns "" when neither has one.
func findConfigFile() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeConfigPath := filepath.Join(homeDir, FileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath
	}
	return ""
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"ORCHESTRA_ENV":             &cfg.Env,
		"ORCHESTRA_ADDR":            &cfg.Addr,
		"ORCHESTRA_DB_PATH":         &cfg.DBPath,
		"ORCHESTRA_LOG_LEVEL":       &cfg.LogLevel,
		"ORCHESTRA_CSRF_KEY":        &cfg.CSRFKey,
		"ORCHESTRA_JWKS_URL":        &cfg.Identity.JWKSURL,
		"ORCHESTRA_JWT_ISSUER":      &cfg.Identity.Issuer,
		"ORCHESTRA_JWT_AUDIENCE":    &cfg.Identity.Audience,
		"ORCHESTRA_JWT_HMAC_SECRET": &cfg.Identity.HMACSecret,
		"ORCHESTRA_TIMEZONE":        &cfg.Calendar.Timezone,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ORCHESTRA_RATE_LIMIT":      &cfg.RateLimit.Requests,
		"ORCHESTRA_SLOW_QUERY_MS":   &cfg.SlowQueryMs,
		"ORCHESTRA_SLOW_REQUEST_MS": &cfg.SlowRequestMs,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// IsProduction reports whether the production environment is selected.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location returns the calendar timezone. Validate has already checked the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CSRFSecret returns the 32-byte CSRF key. Outside production a missing key is
// replaced by a random one, so sessions do not survive a restart.
func (c *Config) CSRFSecret() (key []byte, generated bool, err error) {
	if c.CSRFKey != "" {
		key, err := hex.DecodeString(c.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, false, fmt.Errorf("csrfKey must be 64 hex characters (32 bytes)")
		}
		return key, false, nil
	}
	if c.IsProduction() {
		return nil, false, ErrCSRFKeyRequired
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate CSRF key: %w", err)
	}
	return key, true, nil
}
