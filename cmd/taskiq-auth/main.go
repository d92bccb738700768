package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/taskiq/taskiq-auth/internal/auth"
	"github.com/taskiq/taskiq-auth/internal/auth/providers"
	"github.com/taskiq/taskiq-auth/internal/config"
	"github.com/taskiq/taskiq-auth/internal/identity"
	"github.com/taskiq/taskiq-auth/internal/logger"
	"github.com/taskiq/taskiq-auth/internal/server"
	"github.com/taskiq/taskiq-auth/internal/store"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taskiq-auth",
	Short: "TaskIQ OAuth2 authorization server",
	Long: `taskiq-auth receives the Google OAuth redirect, exchanges the authorization
code for tokens, resolves the user's email and stores the credentials in a
per-user file.`,
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute runs the root command and exits on failure
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.Flags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	app := fx.New(
		fx.WithLogger(logger.FxLogger),
		fx.Supply(cfg),
		store.Module,
		providers.Module,
		identity.Module,
		auth.Module,
		server.Module,
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sig := <-app.Wait()
	logger.Info("Stopping", zap.String("signal", sig.Signal.String()), zap.Int("exit_code", sig.ExitCode))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if sig.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", sig.ExitCode)
	}
	return nil
}
