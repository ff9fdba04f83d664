package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "universe",
		Short:        "UniVerse profile and gallery web service",
		SilenceUsage: true,
		// serve is the default so the binary can run without arguments
		RunE: runServe,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCreateAccountCmd(),
		newResetPINCmd(),
	)
	return root
}

// bootstrap loads configuration and installs the process logger. Every
// subcommand calls it before touching a backend.
func bootstrap() error {
	c, v, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	cfg = c
	gin.SetMode(cfg.Server.Mode)
	l, level, err := newLogger(cfg.Log.Level, cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = l
	zap.ReplaceGlobals(l)
	watchConfig(v, level)
	return nil
}
