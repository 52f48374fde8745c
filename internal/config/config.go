package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Port                      string `mapstructure:"PORT"`
	Env                       string `mapstructure:"ENV"`
	LogLevel                  string `mapstructure:"LOG_LEVEL"`
	LDAPURL                   string `mapstructure:"LDAP_URL"`
	LDAPSearchBase            string `mapstructure:"LDAP_SEARCH_BASE"`
	LDAPDisableTLS            bool   `mapstructure:"LDAP_DISABLE_TLS"`
	LDAPLazyConnection        bool   `mapstructure:"LDAP_LAZY_CONNECTION"`
	LDAPConnectionRetries     int    `mapstructure:"LDAP_CONNECTION_RETRIES"`
	LDAPConnectionTimeoutSecs int    `mapstructure:"LDAP_CONNECTION_TIMEOUT_IN_SECONDS"`
	LDAPSearchTimeoutSecs     int    `mapstructure:"LDAP_SEARCH_TIMEOUT_IN_SECONDS"`
	ClientKey                 string `mapstructure:"CLIENT_KEY"`
	ClientCert                string `mapstructure:"CLIENT_CERT"`
	CACerts                   string `mapstructure:"CA_CERTS"`
	SpineCoreODSCode          string `mapstructure:"SPINE_CORE_ODS_CODE"`
	DisableManufacturerSearch bool   `mapstructure:"DISABLE_MANUFACTURER_ORG_SEARCH_PARAM"`
	MockLDAPResponse          bool   `mapstructure:"MOCK_LDAP_RESPONSE"`
	MockLDAPMode              string `mapstructure:"MOCK_LDAP_MODE"`
	MockLDAPPauseMillis       int    `mapstructure:"MOCK_LDAP_PAUSE"`
	MockLDAPDataDir           string `mapstructure:"MOCK_LDAP_DATA_DIR"`
	RequestTimeoutSecs        int    `mapstructure:"REQUEST_TIMEOUT_IN_SECONDS"`
	TraceExporter             string `mapstructure:"TRACE_EXPORTER"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"LDAP_URL",
	"LDAP_SEARCH_BASE",
	"LDAP_DISABLE_TLS",
	"LDAP_LAZY_CONNECTION",
	"LDAP_CONNECTION_RETRIES",
	"LDAP_CONNECTION_TIMEOUT_IN_SECONDS",
	"LDAP_SEARCH_TIMEOUT_IN_SECONDS",
	"CLIENT_KEY",
	"CLIENT_CERT",
	"CA_CERTS",
	"SPINE_CORE_ODS_CODE",
	"DISABLE_MANUFACTURER_ORG_SEARCH_PARAM",
	"MOCK_LDAP_RESPONSE",
	"MOCK_LDAP_MODE",
	"MOCK_LDAP_PAUSE",
	"MOCK_LDAP_DATA_DIR",
	"REQUEST_TIMEOUT_IN_SECONDS",
	"TRACE_EXPORTER",
}

// Load reads configuration from the environment, falling back to an optional
// .env file in the working directory, and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "9000")
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LDAP_SEARCH_BASE", "ou=services,o=nhs")
	v.SetDefault("LDAP_DISABLE_TLS", false)
	v.SetDefault("LDAP_LAZY_CONNECTION", true)
	v.SetDefault("LDAP_CONNECTION_RETRIES", 3)
	v.SetDefault("LDAP_CONNECTION_TIMEOUT_IN_SECONDS", 5)
	v.SetDefault("LDAP_SEARCH_TIMEOUT_IN_SECONDS", 3)
	v.SetDefault("DISABLE_MANUFACTURER_ORG_SEARCH_PARAM", false)
	v.SetDefault("MOCK_LDAP_RESPONSE", false)
	v.SetDefault("MOCK_LDAP_MODE", "STRICT")
	v.SetDefault("MOCK_LDAP_PAUSE", 0)
	v.SetDefault("REQUEST_TIMEOUT_IN_SECONDS", 30)
	v.SetDefault("TRACE_EXPORTER", "none")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.MockLDAPMode = strings.ToUpper(strings.TrimSpace(cfg.MockLDAPMode))
	cfg.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.TraceExporter))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UseTLS reports whether the directory connection must be made over TLS.
func (c *Config) UseTLS() bool {
	return !c.LDAPDisableTLS
}

func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.LDAPSearchTimeoutSecs) * time.Second
}

func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.LDAPConnectionTimeoutSecs) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ZerologLevel parses LOG_LEVEL, defaulting to info when it is unrecognised.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate checks that the configuration is complete enough to serve
// requests. The live directory needs a URL and, unless TLS is disabled, the
// client key, certificate and CA bundle. The mock directory needs none of
// these but its mode must be known.
func (c *Config) Validate() error {
	if c.SpineCoreODSCode == "" {
		return fmt.Errorf("SPINE_CORE_ODS_CODE is required")
	}
	if c.LDAPSearchTimeoutSecs <= 0 {
		return fmt.Errorf("LDAP_SEARCH_TIMEOUT_IN_SECONDS must be positive, got %d", c.LDAPSearchTimeoutSecs)
	}
	switch c.TraceExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("TRACE_EXPORTER must be \"none\" or \"stdout\", got %q", c.TraceExporter)
	}

	if c.MockLDAPResponse {
		switch c.MockLDAPMode {
		case "STRICT", "RANDOM", "FIRST":
		default:
			return fmt.Errorf("MOCK_LDAP_MODE must be \"STRICT\", \"RANDOM\" or \"FIRST\", got %q", c.MockLDAPMode)
		}
		return nil
	}

	if c.LDAPURL == "" {
		return fmt.Errorf("LDAP_URL is required when MOCK_LDAP_RESPONSE is false")
	}
	if c.UseTLS() {
		if c.ClientKey == "" {
			return fmt.Errorf("CLIENT_KEY is required when LDAP TLS is enabled")
		}
		if c.ClientCert == "" {
			return fmt.Errorf("CLIENT_CERT is required when LDAP TLS is enabled")
		}
		if c.CACerts == "" {
			return fmt.Errorf("CA_CERTS is required when LDAP TLS is enabled")
		}
	}
	return nil
}
