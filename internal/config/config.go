package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/validation"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
	} `yaml:"server"`

	// Identity material DoorDash (developer portal). Sin esto no arrancamos.
	DoorDash struct {
		DeveloperID   string `yaml:"developer_id"`
		KeyID         string `yaml:"key_id"`
		SigningSecret string `yaml:"signing_secret"`
		BaseURL       string `yaml:"base_url"`
	} `yaml:"doordash"`

	Credential struct {
		// EnvFile es el registro durable donde vive DOORDASH_API_KEY.
		EnvFile         string `yaml:"env_file"`
		Key             string `yaml:"key"`
		RefreshInterval string `yaml:"refresh_interval"`
		Watch           bool   `yaml:"watch"`
	} `yaml:"credential"`

	Stripe struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"stripe"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		// puntero: distingue "no configurado" (default 60) de un 0 explícito.
		MaxRequests *int   `yaml:"max_requests"`
	} `yaml:"rate"`

	Redis struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Load lee path (si existe) y aplica env overrides + defaults.
// path vacío o inexistente => solo entorno.
func Load(path string) (*Config, error) {
	var c Config
	c.Credential.Watch = true

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: todo por env
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3001"
	}
	if c.Server.CORSAllowedOrigins == nil {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.DoorDash.BaseURL == "" {
		c.DoorDash.BaseURL = "https://openapi.doordash.com"
	}
	if c.Credential.EnvFile == "" {
		c.Credential.EnvFile = ".env"
	}
	if c.Credential.Key == "" {
		c.Credential.Key = "DOORDASH_API_KEY"
	}
	if c.Credential.RefreshInterval == "" {
		c.Credential.RefreshInterval = "5m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == nil {
		def := 60
		c.Rate.MaxRequests = &def
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "relay:rl:"
	}
}

// Identity devuelve el identity material para jwt.NewSigner.
func (c *Config) Identity() jwt.Identity {
	return jwt.Identity{
		DeveloperID:   c.DoorDash.DeveloperID,
		KeyID:         c.DoorDash.KeyID,
		SigningSecret: c.DoorDash.SigningSecret,
	}
}

// RefreshInterval parsea Credential.RefreshInterval (ya validado).
func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Credential.RefreshInterval)
	return d
}

// RateWindow parsea Rate.Window (ya validado).
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

// RateMax devuelve Rate.MaxRequests (0 si no hay valor).
func (c *Config) RateMax() int {
	if c.Rate.MaxRequests == nil {
		return 0
	}
	return *c.Rate.MaxRequests
}

// ServerTimeouts devuelve read/write timeouts del server entrante.
func (c *Config) ServerTimeouts() (time.Duration, time.Duration) {
	r, _ := time.ParseDuration(c.Server.ReadTimeout)
	w, _ := time.ParseDuration(c.Server.WriteTimeout)
	return r, w
}

// Validate junta todos los problemas de configuración en un solo error.
// Identity incompleta es fatal: sin ella no se pueden firmar credenciales.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DoorDash.DeveloperID) == "" {
		errs = append(errs, errors.New("DEVELOPER_ID is required"))
	}
	if strings.TrimSpace(c.DoorDash.KeyID) == "" {
		errs = append(errs, errors.New("KEY_ID is required"))
	}
	if strings.TrimSpace(c.DoorDash.SigningSecret) == "" {
		errs = append(errs, errors.New("SIGNING_SECRET is required"))
	}
	for name, v := range map[string]string{
		"credential.refresh_interval": c.Credential.RefreshInterval,
		"rate.window":                 c.Rate.Window,
		"server.read_timeout":         c.Server.ReadTimeout,
		"server.write_timeout":        c.Server.WriteTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}
	if !validation.ValidEnvKey(c.Credential.Key) {
		errs = append(errs, fmt.Errorf("credential.key: invalid env key %q", c.Credential.Key))
	}
	if c.Rate.Enabled && c.RateMax() <= 0 {
		errs = append(errs, errors.New("rate.max_requests must be > 0 (use RATE_ENABLED=false to disable rate limiting)"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno. Los nombres de
// DoorDash/Stripe son los mismos que usa el .env del cliente.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	} else if v, ok := getEnvStr("PORT"); ok {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvStr("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}

	// DOORDASH
	if v, ok := getEnvStr("DEVELOPER_ID"); ok {
		c.DoorDash.DeveloperID = v
	}
	if v, ok := getEnvStr("KEY_ID"); ok {
		c.DoorDash.KeyID = v
	}
	if v, ok := getEnvStr("SIGNING_SECRET"); ok {
		c.DoorDash.SigningSecret = v
	}
	if v, ok := getEnvStr("DOORDASH_API_BASE_URL"); ok {
		c.DoorDash.BaseURL = v
	}

	// CREDENTIAL
	if v, ok := getEnvStr("ENV_FILE"); ok {
		c.Credential.EnvFile = v
	}
	if v, ok := getEnvStr("CREDENTIAL_KEY"); ok {
		c.Credential.Key = v
	}
	if v, ok := getEnvStr("CREDENTIAL_REFRESH_INTERVAL"); ok {
		c.Credential.RefreshInterval = v
	}
	if v, ok := getEnvBool("CREDENTIAL_WATCH"); ok {
		c.Credential.Watch = v
	}

	// STRIPE
	if v, ok := getEnvStr("STRIPE_SECRET_KEY"); ok {
		c.Stripe.SecretKey = v
	}

	// RATE / REDIS
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = &v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}
}
