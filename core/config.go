package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends understood by storage/kv.Open.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type (
	Config struct {
		Env              string
		Build            string
		AppName          string
		Debug            bool
		TestMode         bool
		SeedDemoData     bool
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		WorkDir          string

		Server   ServerConfig
		Storage  StorageConfig
		Session  SessionConfig
		Chat     ChatConfig
		Reminder ReminderConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	StorageConfig struct {
		Backend     string
		DataDir     string
		RedisAddr   string
		RedisDB     int
		DatabaseURL string
		Namespace   string
	}

	SessionConfig struct {
		LoginDelay        time.Duration
		LogoutDelay       time.Duration
		DemoPasswordHash  string
		FederationKey     string
		FederationExpires time.Duration
	}

	ChatConfig struct {
		ReplyDelay      time.Duration
		ReplyText       string
		CounterpartName string
	}

	ReminderConfig struct {
		DigestSchedule string
		DigestWindow   time.Duration
	}
)

// NewConfig reads the configuration for the current ENV (DEV by default) from
// the environment and from `config/.env.<env>` when that file exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Placement Portal")
	v.SetDefault("seedDemoData", true)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("serverDisableReqLogs", false)

	v.SetDefault("storageBackend", BackendBadger)
	v.SetDefault("storageDataDir", filepath.Join(os.TempDir(), "placement-kv"))
	v.SetDefault("storageRedisAddr", "localhost:6379")
	v.SetDefault("storageRedisDB", 0)
	v.SetDefault("storageDatabaseURL", "")
	v.SetDefault("storageNamespace", "placement")

	v.SetDefault("sessionLoginDelay", 1000*time.Millisecond)
	v.SetDefault("sessionLogoutDelay", 500*time.Millisecond)
	v.SetDefault("sessionDemoPasswordHash", "")
	v.SetDefault("sessionFederationKey", "h4y#0x2-!mock-idp-signing-key*9w&")
	v.SetDefault("sessionFederationExpires", 5*time.Minute)

	v.SetDefault("chatReplyDelay", 1000*time.Millisecond)
	v.SetDefault("chatReplyText", "Thanks for your message. I'll get back to you shortly.")
	v.SetDefault("chatCounterpartName", "Admin User")

	v.SetDefault("reminderDigestSchedule", "0 8 * * *")
	v.SetDefault("reminderDigestWindow", 72*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storageBackend", BackendMemory)
		v.SetDefault("sessionLoginDelay", time.Duration(0))
		v.SetDefault("sessionLogoutDelay", time.Duration(0))
	}
	v.SetEnvPrefix(env)

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SeedDemoData:     v.GetBool("seedDemoData"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: *from,
		WorkDir:          wd,
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Address:         v.GetString("serverAddress"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
			DisableReqLogs:  v.GetBool("serverDisableReqLogs"),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(v.GetString("storageBackend")),
			DataDir:     v.GetString("storageDataDir"),
			RedisAddr:   v.GetString("storageRedisAddr"),
			RedisDB:     v.GetInt("storageRedisDB"),
			DatabaseURL: v.GetString("storageDatabaseURL"),
			Namespace:   v.GetString("storageNamespace"),
		},
		Session: SessionConfig{
			LoginDelay:        v.GetDuration("sessionLoginDelay"),
			LogoutDelay:       v.GetDuration("sessionLogoutDelay"),
			DemoPasswordHash:  v.GetString("sessionDemoPasswordHash"),
			FederationKey:     v.GetString("sessionFederationKey"),
			FederationExpires: v.GetDuration("sessionFederationExpires"),
		},
		Chat: ChatConfig{
			ReplyDelay:      v.GetDuration("chatReplyDelay"),
			ReplyText:       v.GetString("chatReplyText"),
			CounterpartName: v.GetString("chatCounterpartName"),
		},
		Reminder: ReminderConfig{
			DigestSchedule: v.GetString("reminderDigestSchedule"),
			DigestWindow:   v.GetDuration("reminderDigestWindow"),
		},
	}
}

// NewTestConfig returns a configuration suitable for unit tests: in-memory
// storage, no artificial latency and no external reporting.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		AppName:          "Placement Portal",
		TestMode:         true,
		DefaultFromEmail: mail.Address{Address: "noreply@localhost"},
		Server:           ServerConfig{Host: "localhost", ShutdownTimeout: time.Second, DisableReqLogs: true},
		Storage:          StorageConfig{Backend: BackendMemory, Namespace: "test"},
		Session: SessionConfig{
			FederationKey:     "test-federation-key",
			FederationExpires: time.Minute,
		},
		Chat: ChatConfig{
			ReplyDelay:      time.Second,
			ReplyText:       "Thanks for your message. I'll get back to you shortly.",
			CounterpartName: "Admin User",
		},
		Reminder: ReminderConfig{
			DigestSchedule: "0 8 * * *",
			DigestWindow:   72 * time.Hour,
		},
	}
}
