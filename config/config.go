package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "ROOMIES"
	fileName  = "roomies"

	BackendPostgres = "postgres"
	BackendDynamo   = "dynamodb"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Interests InterestsConfig `mapstructure:"interests"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max-open-conns"`
	MaxIdleConns    int           `mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn-max-lifetime"`
}

type InterestsConfig struct {
	// Backend is one of postgres, dynamodb or memory.
	Backend string       `mapstructure:"backend"`
	Dynamo  DynamoConfig `mapstructure:"dynamo"`
}

type DynamoConfig struct {
	Table    string `mapstructure:"table"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt-secret"`
	TokenTTL  time.Duration `mapstructure:"token-ttl"`
}

type MatchingConfig struct {
	MinScore     float64 `mapstructure:"min-score"`
	Limit        int     `mapstructure:"limit"`
	ExcludeActed bool    `mapstructure:"exclude-acted"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read-timeout", 10*time.Second)
	v.SetDefault("server.write-timeout", 15*time.Second)
	v.SetDefault("server.shutdown-timeout", 10*time.Second)
	v.SetDefault("server.cors-origins", []string{"http://localhost:5173", "http://localhost:3001"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max-open-conns", 20)
	v.SetDefault("database.max-idle-conns", 5)
	v.SetDefault("database.conn-max-lifetime", 30*time.Minute)

	v.SetDefault("interests.backend", BackendPostgres)
	v.SetDefault("interests.dynamo.table", "roomies-interests")
	v.SetDefault("interests.dynamo.region", "eu-north-1")
	v.SetDefault("interests.dynamo.endpoint", "")

	v.SetDefault("auth.jwt-secret", "")
	v.SetDefault("auth.token-ttl", 24*time.Hour)

	v.SetDefault("matching.min-score", 50.0)
	v.SetDefault("matching.limit", 10)
	v.SetDefault("matching.exclude-acted", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// legacyEnv lists the unprefixed variable names still honoured, after the
// prefixed one.
var legacyEnv = map[string]string{
	"database.url":    "DATABASE_URL",
	"auth.jwt-secret": "JWT_SECRET",
	"server.port":     "PORT",
}

// New returns a viper instance with defaults and env bindings in place.
// Callers may bind flags on it before Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		_ = v.BindEnv(key, prefixed, legacy)
	}
	return v
}

// Load reads .env, the optional config file and the environment into a
// Config. With an empty file, roomies.yaml in the working directory is used
// if present.
func Load(v *viper.Viper, file string) (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(fileName)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Interests.Backend = strings.ToLower(strings.TrimSpace(cfg.Interests.Backend))
	return &cfg, nil
}

// Validate checks the settings the server needs. requireSecret is false for
// commands that never verify tokens.
func (c *Config) Validate(requireSecret bool) error {
	var errs []error

	switch c.Interests.Backend {
	case BackendPostgres, BackendMemory:
	case BackendDynamo:
		if c.Interests.Dynamo.Table == "" {
			errs = append(errs, errors.New("interests.dynamo.table is required for the dynamodb backend"))
		}
		if c.Interests.Dynamo.Region == "" {
			errs = append(errs, errors.New("interests.dynamo.region is required for the dynamodb backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown interests backend %q", c.Interests.Backend))
	}

	if c.UsesDatabase() && c.Database.URL == "" {
		errs = append(errs, errors.New("database.url (or DATABASE_URL) is required unless the memory backend is used"))
	}
	if requireSecret && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt-secret (or JWT_SECRET) is required"))
	}
	if c.Matching.Limit < 0 {
		errs = append(errs, fmt.Errorf("matching.limit must not be negative, got %d", c.Matching.Limit))
	}
	return errors.Join(errs...)
}

// UsesDatabase reports whether profiles live in Postgres. Only the memory
// backend runs without it.
func (c *Config) UsesDatabase() bool {
	return c.Interests.Backend != BackendMemory
}
