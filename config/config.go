package config

import (
	"log/slog"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	LogFormatVerbose = "verbose"
	LogFormatJSON    = "json"
)

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Name    string `mapstructure:"name"`
	DBLevel string `mapstructure:"db_level"`
}

type PathsConfig struct {
	RootDir  string `mapstructure:"root_dir"`
	BuildDir string `mapstructure:"build_dir"`
}

type HealthCheckConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type IdentityConfig struct {
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	Scopes           []string      `mapstructure:"scopes"`
}

// Config is built once by Load and must be treated as read-only afterwards.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Paths       PathsConfig       `mapstructure:"paths"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Settings    Settings          `mapstructure:"-"`
}

func Load() (*Config, error) {
	environ, err := Environ()
	if err != nil {
		slog.Error("failed to read environment", slog.String("error", err.Error()))
		return nil, err
	}
	return LoadWith(viper.New(), environ)
}

// LoadWith reads file settings through v and environment settings from environ.
func LoadWith(v *viper.Viper, environ map[string]string) (*Config, error) {
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatVerbose)
	v.SetDefault("logging.name", "experiments-viewer")
	v.SetDefault("logging.db_level", LogLevelInfo)
	v.SetDefault("paths.root_dir", ".")
	v.SetDefault("paths.build_dir", "build")
	v.SetDefault("health_check.interval", "10s")
	v.SetDefault("identity.breaker_threshold", 5)
	v.SetDefault("identity.breaker_timeout", "30s")
	v.SetDefault("identity.request_timeout", "10s")
	v.SetDefault("identity.scopes", []string{"openid", "email"})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	bindEnviron(v, environ)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	settings, err := Resolve(environ)
	if err != nil {
		slog.Error("failed to resolve environment settings", slog.String("error", err.Error()))
		return nil, err
	}
	cfg.Settings = settings

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// bindEnviron overrides every known key with its environ entry, so
// server.address is read from SERVER_ADDRESS whether that comes from the
// process or from .env.
func bindEnviron(v *viper.Viper, environ map[string]string) {
	toEnv := strings.NewReplacer(".", "_")
	for _, key := range v.AllKeys() {
		if value, ok := environ[strings.ToUpper(toEnv.Replace(key))]; ok {
			v.Set(key, value)
		}
	}
}

// BuildPath returns the directory holding the frontend build output.
func (c *Config) BuildPath() string {
	if filepath.IsAbs(c.Paths.BuildDir) {
		return c.Paths.BuildDir
	}
	return filepath.Join(c.Paths.RootDir, c.Paths.BuildDir)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.ReadTimeout, validation.Required, validation.Min(time.Millisecond)),
					validation.Field(&sc.WriteTimeout, validation.Required, validation.Min(time.Millisecond)),
					validation.Field(&sc.IdleTimeout, validation.Required, validation.Min(time.Millisecond)),
					validation.Field(&sc.ShutdownTimeout, validation.Required, validation.Min(time.Millisecond)),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
					validation.Field(&lc.DBLevel,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
					validation.Field(&lc.Format,
						validation.Required,
						validation.In(LogFormatVerbose, LogFormatJSON),
					),
					validation.Field(&lc.Name, validation.Required),
				)
			}),
		),
		validation.Field(&c.Paths,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(PathsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a PathsConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.RootDir, validation.Required),
					validation.Field(&pc.BuildDir, validation.Required),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval, validation.Required, validation.Min(time.Millisecond)),
				)
			}),
		),
		validation.Field(&c.Identity,
			validation.Required,
			validation.By(func(value interface{}) error {
				ic, ok := value.(IdentityConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an IdentityConfig")
				}
				return validation.ValidateStruct(&ic,
					validation.Field(&ic.BreakerThreshold, validation.Required, validation.Min(1)),
					validation.Field(&ic.BreakerTimeout, validation.Required, validation.Min(time.Millisecond)),
					validation.Field(&ic.RequestTimeout, validation.Required, validation.Min(time.Millisecond)),
					validation.Field(&ic.Scopes, validation.Required, validation.Each(validation.Required)),
				)
			}),
		),
		validation.Field(&c.Settings,
			validation.By(func(value interface{}) error {
				s, ok := value.(Settings)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a Settings")
				}
				if err := s.Validate(); err != nil {
					return err
				}
				if c.Server.Environment == EnvProd && s.SecretKey == DefaultSecretKey {
					return validation.NewError("validation_default_secret", "SECRET_KEY must be set in prod")
				}
				return nil
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return validation.NewError("validation_empty_url", "server URL cannot be empty")
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
