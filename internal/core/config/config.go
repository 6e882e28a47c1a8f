package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxConcurrent     int64
	MaxBodyMB         int64
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	Audience          string
	AccessTokenTTLMin int
	LeewaySec         int
}

func (j JWT) TTL() time.Duration    { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) Leeway() time.Duration { return time.Duration(j.LeewaySec) * time.Second }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Blob struct {
	Root     string
	Prefix   string
	MaxBytes int64
}

type Rewrite struct {
	BaseURL     string
	Model       string
	TimeoutSec  int
	MaxRetries  int
	CacheTTLMin int
}

type Seed struct {
	Enabled       bool
	Samples       bool
	AdminEmail    string
	AdminPassword string
	UserEmail     string
	UserPassword  string
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Blob    Blob
	Rewrite Rewrite
	Seed    Seed
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "obituary-service")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 90)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 75)
	v.SetDefault("app.http.maxConcurrent", 512)
	v.SetDefault("app.http.maxBodyMB", 12)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 7)
	v.SetDefault("log.maxAgeDays", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "obituary-service")
	v.SetDefault("jwt.audience", "obituary-clients")
	v.SetDefault("jwt.accessTokenTTLMin", 60)
	v.SetDefault("jwt.leewaySec", 0)

	v.SetDefault("db.driver", "memory")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("blob.root", "./data/uploads")
	v.SetDefault("blob.prefix", "/uploads")
	v.SetDefault("blob.maxBytes", 10<<20)

	v.SetDefault("rewrite.baseURL", "http://localhost:11434")
	v.SetDefault("rewrite.model", "llama3:latest")
	v.SetDefault("rewrite.timeoutSec", 60)
	v.SetDefault("rewrite.maxRetries", 2)
	v.SetDefault("rewrite.cacheTTLMin", 24*60)

	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.samples", true)
	v.SetDefault("seed.adminEmail", "aa@aa.aa")
	v.SetDefault("seed.adminPassword", "")
	v.SetDefault("seed.userEmail", "uu@uu.uu")
	v.SetDefault("seed.userPassword", "")
}

// Load reads path (or $CONFIG_PATH, or ./configs/config.local.yaml) and
// applies APP_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "memory", "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.DB.Driver != "memory" && c.DB.DSN == "" {
		return errors.New("config: db.dsn is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("config: jwt.secret must be at least 32 bytes")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("config: jwt.accessTokenTTLMin must be positive")
	}
	if c.Seed.Enabled && (c.Seed.AdminPassword == "" || c.Seed.UserPassword == "") {
		return errors.New("config: seed passwords are required when seeding is enabled")
	}
	return nil
}
