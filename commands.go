package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := bootstrap(); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initBackends(ctx); err != nil {
		return err
	}
	defer closeBackends()

	r, err := newRouter()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// initBackends wires the store, sessions, mailer and bucket from cfg.
func initBackends(ctx context.Context) error {
	if err := initDB(ctx); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := initSessions(ctx); err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	if err := initMailer(); err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	if err := initBucket(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

func closeBackends() {
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}
	if c, ok := sessions.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logger.Warn("close session store", zap.Error(err))
		}
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bootstrap(); err != nil {
				return err
			}
			// migration is explicit here, not gated by database.auto_migrate
			cfg.Database.AutoMigrate = false
			if err := initDB(cmd.Context()); err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}

func newCreateAccountCmd() *cobra.Command {
	var (
		name, email, phone, dob, pin string
		unverified                   bool
	)
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create an account without email verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bootstrap(); err != nil {
				return err
			}
			if err := initDB(cmd.Context()); err != nil {
				return err
			}
			defer db.Close()
			acc, err := RegisterAccount(cmd.Context(), name, email, phone, dob, pin, !unverified)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s created (id=%s)\n", acc.Email, acc.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&dob, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&pin, "pin", "", "4 to 8 digit PIN")
	f.BoolVar(&unverified, "unverified", false, "leave the email unverified")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func newResetPINCmd() *cobra.Command {
	var email, pin string
	cmd := &cobra.Command{
		Use:   "reset-pin",
		Short: "Set a new PIN for an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bootstrap(); err != nil {
				return err
			}
			if err := initDB(cmd.Context()); err != nil {
				return err
			}
			defer db.Close()
			if err := ResetPIN(cmd.Context(), email, pin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PIN updated for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&pin, "pin", "", "new 4 to 8 digit PIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}
