package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/grading_system/internal/app/runtime"
	"github.com/R3E-Network/grading_system/internal/cli"
	"github.com/R3E-Network/grading_system/internal/config"
	"github.com/R3E-Network/grading_system/internal/platform/migrations"
)

var errNoSQLDatabase = errors.New("migrations need a postgres or sqlite database driver")

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "grading",
		Short:         "Subject catalogue service for the grading system",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults to $CONFIG_FILE)")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	application, err := runtime.NewApplication(ctx, cfg)
	if err != nil {
		return err
	}

	runErr := application.Run(ctx)
	if err := application.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func newMigrateCmd(configPath *string) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the subject table schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadSQLConfig(*configPath)
				if err != nil {
					return err
				}
				if err := migrations.Up(cfg.Database.Driver, cfg.Database.DSN); err != nil {
					return err
				}
				cli.Success(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all applied migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadSQLConfig(*configPath)
				if err != nil {
					return err
				}
				if err := migrations.Down(cfg.Database.Driver, cfg.Database.DSN); err != nil {
					return err
				}
				cli.Success(cmd.OutOrStdout(), "migrations reverted")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadSQLConfig(*configPath)
				if err != nil {
					return err
				}
				version, dirty, err := migrations.Version(cfg.Database.Driver, cfg.Database.DSN)
				if err != nil {
					return err
				}
				if dirty {
					cli.Warning(cmd.OutOrStdout(), fmt.Sprintf("schema version %d is dirty", version))
					return nil
				}
				cli.Info(cmd.OutOrStdout(), fmt.Sprintf("schema version %d", version))
				return nil
			},
		},
	)
	return migrateCmd
}

func loadSQLConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return nil, errNoSQLDatabase
	}
	return cfg, nil
}
