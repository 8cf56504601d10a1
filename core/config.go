package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string

		Server   ServerConfig
		Database DatabaseConfig
		Session  SessionConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		RateLimitPerMinute int
		SeedOnStart        bool
		DisableReqLogs     bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite3
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite3 only
		MaxOpenConns  int
	}

	SessionConfig struct {
		Store      string // memory | redis
		CookieName string
		TTL        time.Duration
		Secure     bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

func (dbc DatabaseConfig) IsSQLite() bool {
	return dbc.Engine == "sqlite3"
}

// NewConfig loads the configuration for the current ENV (DEV by default) from
// the environment and the optional config/.env.<env> file.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "CSN Testing Center")
	v.SetDefault("secretKey", "z%8k@x-2p!d4w#r0lq=n7v^s&e1m(c6j)hf5t+y3u9b*g")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.rateLimitPerMinute", 30)
	v.SetDefault("server.seedOnStart", true)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "appointments")
	v.SetDefault("database.user", "appointments")
	v.SetDefault("database.password", "appointments")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("database.path", "app.db")
	v.SetDefault("database.maxOpenConns", 10)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.cookieName", "csn_session")
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.secure", env == "PROD")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// DEV_SERVER_ADDRESS -> server.address
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	if fromEmail.Name == "" {
		fromEmail.Name = v.GetString("appName")
	}

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail: *fromEmail,
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugAddress:       v.GetString("server.debugAddress"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			RateLimitPerMinute: v.GetInt("server.rateLimitPerMinute"),
			SeedOnStart:        v.GetBool("server.seedOnStart"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
		},
		Session: SessionConfig{
			Store:      v.GetString("session.store"),
			CookieName: v.GetString("session.cookieName"),
			TTL:        v.GetDuration("session.ttl"),
			Secure:     v.GetBool("session.secure"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: sqlite3, in-memory sessions, no request logs.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "CSN Testing Center",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:8000",
		DefaultFromEmail: mail.Address{Name: "CSN Testing Center", Address: "noreply@localhost"},
		Server: ServerConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			RateLimitPerMinute: 1000,
			DisableReqLogs:     true,
		},
		Database: DatabaseConfig{Engine: "sqlite3", MaxOpenConns: 1},
		Session: SessionConfig{
			Store:      "memory",
			CookieName: "csn_session",
			TTL:        time.Hour,
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (env=%s, build=%s, db=%s, sessions=%s)",
		c.AppName, c.Env, c.Build, c.Database.Engine, c.Session.Store)
}
