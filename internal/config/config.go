package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	API struct {
		URL         string
		Timeout     time.Duration
		CORSOrigins []string
	}
	Locale struct {
		Default string
	}
	Theme struct {
		Selectors []string
		IAPKey    string
	}
	Log struct {
		Level string
	}
	SessionLifetime time.Duration
	InsecureCookies bool
}

// Load reads config from environment (TALENT_ prefix) and optional talent-portal.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TALENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("talent-portal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("session.lifetime", "12h")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.cors_origins", "http://localhost:*")
	v.SetDefault("locale.default", "en")
	v.SetDefault("theme.selectors", "html")
	v.SetDefault("theme.iap_key", "iap")
	v.SetDefault("log.level", "info")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.OIDC.RedirectURL = v.GetString("oidc.redirect_url")
	cfg.API.URL = v.GetString("api.url")
	cfg.API.CORSOrigins = splitList(v.GetString("api.cors_origins"))
	cfg.Locale.Default = v.GetString("locale.default")
	cfg.Theme.Selectors = splitList(v.GetString("theme.selectors"))
	cfg.Theme.IAPKey = v.GetString("theme.iap_key")
	cfg.Log.Level = v.GetString("log.level")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")

	lifetime, err := time.ParseDuration(v.GetString("session.lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid TALENT_SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	timeout, err := time.ParseDuration(v.GetString("api.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid TALENT_API_TIMEOUT: %w", err)
	}
	cfg.API.Timeout = timeout

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("TALENT_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("TALENT_DB_DSN is required")
	}
	if cfg.API.URL == "" {
		return nil, fmt.Errorf("TALENT_API_URL is required")
	}
	if cfg.OIDC.Issuer == "" {
		return nil, fmt.Errorf("TALENT_OIDC_ISSUER is required")
	}
	if cfg.OIDC.ClientID == "" {
		return nil, fmt.Errorf("TALENT_OIDC_CLIENT_ID is required")
	}
	if cfg.OIDC.ClientSecret == "" {
		return nil, fmt.Errorf("TALENT_OIDC_CLIENT_SECRET is required")
	}
	if cfg.OIDC.RedirectURL == "" {
		return nil, fmt.Errorf("TALENT_OIDC_REDIRECT_URL is required")
	}
	if len(cfg.Theme.Selectors) == 0 {
		return nil, fmt.Errorf("TALENT_THEME_SELECTORS must name at least one selector")
	}

	return cfg, nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
