package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/env"
	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
)

var migrationsPath string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema and seed management",
	Long:  `Apply, roll back and inspect the Urlsy MySQL schema migrations`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env.SetupEnvFile()
		logger.Init(logger.Options{ServiceName: "urlsy-migrate", Format: "console"})
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			err := m.Up()
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info().Msg("no change: database is already up to date")
				return nil
			}
			if err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			log.Info().Msg("migrations applied")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			if err := m.Steps(-1); err != nil {
				return fmt.Errorf("rolling back: %w", err)
			}
			log.Info().Msg("last migration rolled back")
			return nil
		})
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto VERSION",
	Short: "Migrate up or down to the given version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return withMigrate(func(m *migrate.Migrate) error {
			err := m.Migrate(uint(version))
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info().Uint64("version", version).Msg("no change: database is already at version")
				return nil
			}
			if err != nil {
				return fmt.Errorf("migrating to version %d: %w", version, err)
			}
			log.Info().Uint64("version", version).Msg("migrated")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Info().Msg("no migrations have been applied yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading version: %w", err)
			}
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current migration version")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "file://migrations", "migration source URL")
	rootCmd.AddCommand(upCmd, downCmd, gotoCmd, statusCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withMigrate(fn func(m *migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log.Info().
		Str("user", cfg.DB.User).
		Str("host", cfg.DB.Host).
		Str("port", cfg.DB.Port).
		Str("database", cfg.DB.Name).
		Msg("connecting to database")

	m, err := migrate.New(migrationsPath, cfg.DB.MigrateURL())
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Warn().AnErr("source", sourceErr).AnErr("database", dbErr).Msg("closing migration resources failed")
		}
	}()

	return fn(m)
}
