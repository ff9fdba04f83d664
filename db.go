package main

import (
	"context"
	"fmt"
	"time"

	"universe/pkg/datastore"
	"universe/pkg/mailer"
	"universe/pkg/otp"
	"universe/pkg/picture"
	"universe/pkg/session"
	"universe/pkg/storage"

	"go.uber.org/zap"
)

var (
	db        datastore.Store
	sessions  session.Store
	cookies   *session.Codec
	notifier  mailer.Sender
	bucket    storage.Bucket
	otpPolicy = otp.DefaultPolicy()
	picOpts   = picture.DefaultOptions()
	cfg       *Config

	// now is swapped in tests to move the clock.
	now = time.Now
)

// initDB opens the configured credential store and, unless disabled,
// migrates its schema.
func initDB(ctx context.Context) error {
	var (
		store datastore.Store
		err   error
	)
	switch cfg.Database.Driver {
	case "mongo":
		store, err = datastore.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	default:
		store, err = datastore.OpenGorm(cfg.Database.Driver, cfg.Database.DSN)
	}
	if err != nil {
		return err
	}
	db = store
	if !cfg.Database.AutoMigrate {
		return nil
	}
	// Permission errors on an existing schema are logged and ignored.
	if err := db.Migrate(ctx); err != nil {
		logger.Warn("migration warning", zap.Error(err))
	}
	return nil
}

func initSessions(ctx context.Context) error {
	if cfg.Session.Secret == devSessionSecret {
		logger.Warn("session.secret is the development default; set UNIVERSE_SESSION_SECRET")
	}
	cookies = session.NewCodec([]byte(cfg.Session.Secret))
	switch cfg.Session.Store {
	case "redis":
		rs, err := session.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		sessions = rs
	case "memory":
		ms := session.NewMemoryStore()
		ms.StartJanitor(time.Minute)
		sessions = ms
	default:
		return fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
	otpPolicy = otp.Policy{
		TTL:            cfg.OTP.TTL,
		MaxAttempts:    cfg.OTP.MaxAttempts,
		ResendCooldown: cfg.OTP.ResendCooldown,
	}
	return nil
}

func initMailer() error {
	switch cfg.Mail.Driver {
	case "emailjs":
		s, err := mailer.NewEmailJS(mailer.EmailJSConfig{
			Endpoint:   cfg.EmailJS.Endpoint,
			ServiceID:  cfg.EmailJS.ServiceID,
			PublicKey:  cfg.EmailJS.PublicKey,
			PrivateKey: cfg.EmailJS.PrivateKey,
			FromName:   cfg.Mail.FromName,
			Templates: map[string]string{
				mailer.TemplateVerifyEmail: cfg.EmailJS.VerifyTemplate,
				mailer.TemplateRecoverPIN:  cfg.EmailJS.RecoverTemplate,
			},
		}, nil)
		if err != nil {
			return err
		}
		notifier = s
	case "log":
		notifier = mailer.NewLogSender(logger.Named("mail"))
	default:
		return fmt.Errorf("unsupported mail driver %q", cfg.Mail.Driver)
	}
	return nil
}

func initBucket(ctx context.Context) error {
	switch cfg.Storage.Driver {
	case "s3":
		b, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return err
		}
		bucket = b
	case "local":
		b, err := storage.NewLocal(cfg.Storage.Local.Dir, cfg.Storage.Local.URLPrefix)
		if err != nil {
			return err
		}
		bucket = b
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	picOpts = picture.Options{Size: cfg.Picture.Size, Quality: cfg.Picture.Quality}
	return nil
}
