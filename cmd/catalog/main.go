package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mytheresa/go-catalog-query/config"
	"github.com/mytheresa/go-catalog-query/logging"
	"github.com/mytheresa/go-catalog-query/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfgFile string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "catalog",
	Short:         "Query the Northwind product catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, ".env", "../.env")
		if err != nil {
			return err
		}
		if _, err := logging.Setup(cfg.Logger); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	rootCmd.AddCommand(newReportCmd(), newServeCmd(), newSeedCmd(), newSQLCmd(), newVerifyCmd())
}

// withDB opens the configured store for the duration of fn.
func withDB(fn func(db *gorm.DB) error) error {
	db, err := models.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := models.Close(db); err != nil {
			zap.L().Warn("close database", zap.Error(err))
		}
	}()
	return fn(db)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
