package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Env string
	Log struct {
		Level string
	}
	Server struct {
		Addr string
	}
	Database struct {
		Driver string
		URI    string
		Name   string
		Path   string

		MaxPoolSize              uint64
		MinPoolSize              uint64
		MaxIdleTimeMS            int
		ConnectTimeoutMS         int
		SocketTimeoutMS          int
		ServerSelectionTimeoutMS int
		RetryWrites              bool
		RetryReads               bool
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		Channel  string
	}
	Export struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	CORS struct {
		Origins []string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env never overrides variables already present in the environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LISTMGR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database.uri", "LISTMGR_DATABASE_URI", "MONGODB_URI")
	_ = v.BindEnv("database.name", "LISTMGR_DATABASE_NAME", "MONGODB_DB")

	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "list-manager")
	v.SetDefault("database.path", "data/list-manager.db")
	v.SetDefault("database.maxpoolsize", 10)
	v.SetDefault("database.minpoolsize", 0)
	v.SetDefault("database.maxidletimems", 0)
	v.SetDefault("database.connecttimeoutms", 10000)
	v.SetDefault("database.sockettimeoutms", 10000)
	v.SetDefault("database.serverselectiontimeoutms", 10000)
	v.SetDefault("database.retrywrites", true)
	v.SetDefault("database.retryreads", true)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "list-manager:invalidate")
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.keyprefix", "list-snapshots")
	v.SetDefault("export.region", "us-east-1")
	v.SetDefault("export.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("cors.origins", []string{"*"})

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// the file is optional, but one that exists must parse
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth jwt secret is required"))
	}
	switch c.Database.Driver {
	case DriverMongo:
		if strings.TrimSpace(c.Database.URI) == "" {
			errs = append(errs, errors.New("database uri is required for the mongo driver (set MONGODB_URI)"))
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			errs = append(errs, errors.New("database path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether Env names a production deployment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c Config) MaxIdleTime() time.Duration { return ms(c.Database.MaxIdleTimeMS) }

func (c Config) ConnectTimeout() time.Duration { return ms(c.Database.ConnectTimeoutMS) }

func (c Config) SocketTimeout() time.Duration { return ms(c.Database.SocketTimeoutMS) }

func (c Config) ServerSelectionTimeout() time.Duration {
	return ms(c.Database.ServerSelectionTimeoutMS)
}
