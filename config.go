package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const devSessionSecret = "dev-insecure-secret-change" // development fallback

// Config is the full runtime configuration. Every key has a default so the
// service starts with no file and no environment.
type Config struct {
	Server struct {
		Addr      string
		Mode      string
		Templates string
	}
	Session struct {
		Secret string
		MaxAge time.Duration `mapstructure:"max_age"`
		Store  string
		Secure bool
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Database struct {
		Driver      string
		DSN         string
		AutoMigrate bool `mapstructure:"auto_migrate"`
	}
	Mongo struct {
		URI      string
		Database string
	}
	Storage struct {
		Driver string
		Local  struct {
			Dir       string
			URLPrefix string `mapstructure:"url_prefix"`
		}
	}
	S3 struct {
		Bucket    string
		Region    string
		Endpoint  string
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		PublicURL string `mapstructure:"public_url"`
	}
	Mail struct {
		Driver   string
		FromName string `mapstructure:"from_name"`
	}
	EmailJS struct {
		Endpoint        string
		ServiceID       string `mapstructure:"service_id"`
		PublicKey       string `mapstructure:"public_key"`
		PrivateKey      string `mapstructure:"private_key"`
		VerifyTemplate  string `mapstructure:"verify_template"`
		RecoverTemplate string `mapstructure:"recover_template"`
	}
	OTP struct {
		TTL            time.Duration
		MaxAttempts    int           `mapstructure:"max_attempts"`
		ResendCooldown time.Duration `mapstructure:"resend_cooldown"`
	}
	Upload struct {
		MaxBytes int64 `mapstructure:"max_bytes"`
	}
	Picture struct {
		Size    int
		Quality int
	}
	Log struct {
		Level string
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.templates", "templates/*.html")

	v.SetDefault("session.secret", devSessionSecret)
	v.SetDefault("session.max_age", 24*time.Hour)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.secure", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "universe.db")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "universe")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.dir", "public/uploads")
	v.SetDefault("storage.local.url_prefix", "/uploads")

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_url", "")

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.from_name", "UniVerse Team")

	v.SetDefault("emailjs.endpoint", "")
	v.SetDefault("emailjs.service_id", "")
	v.SetDefault("emailjs.public_key", "")
	v.SetDefault("emailjs.private_key", "")
	v.SetDefault("emailjs.verify_template", "")
	v.SetDefault("emailjs.recover_template", "")

	v.SetDefault("otp.ttl", 10*time.Minute)
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("otp.resend_cooldown", 30*time.Second)

	v.SetDefault("upload.max_bytes", 5*1024*1024)

	v.SetDefault("picture.size", 400)
	v.SetDefault("picture.quality", 80)

	v.SetDefault("log.level", "info")
}

// loadConfig layers defaults, the optional file at path and UNIVERSE_*
// environment variables (UNIVERSE_SESSION_MAX_AGE overrides session.max_age).
func loadConfig(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("universe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, nil, err
	}
	return &c, v, nil
}

func (c *Config) validate() error {
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be positive, got %s", c.Session.MaxAge)
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("otp.ttl must be positive, got %s", c.OTP.TTL)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// watchConfig re-applies the log level whenever the config file changes.
// Other settings need a restart.
func watchConfig(v *viper.Viper, level zap.AtomicLevel) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		raw := v.GetString("log.level")
		lvl, err := zapcore.ParseLevel(raw)
		if err != nil {
			logger.Warn("ignoring invalid log.level after config change", zap.String("file", e.Name), zap.String("level", raw))
			return
		}
		level.SetLevel(lvl)
		logger.Info("config reloaded", zap.String("file", e.Name), zap.Stringer("log_level", lvl))
	})
	v.WatchConfig()
}
