package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/app"
	"github.com/abhisek/drillz/internal/config"
	"github.com/abhisek/drillz/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "drillz",
	Short:         "Quiz workouts with resumable progress",
	Long:          "drillz runs shuffled multiple-choice workouts per topic, saves progress after every step, and keeps a history of finished attempts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DRILLZ_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "Acting user id for workout commands (overrides DRILLZ_USER env var)")

	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(workoutCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies flags,
// which take the highest priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		cfg.User = u
	}
	return cfg, nil
}

// openApp loads configuration and builds the application. The caller
// must Close the returned App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("shutdown", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
