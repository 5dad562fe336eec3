package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/config"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/consultation"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/domain/registry"
	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/kv"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dash-server",
		Short: "Patient dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Inspect the patient registry",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *registry.Store) error {
				current, _ := store.Current()
				printPatients(cmd, store.ListPatients(), current.ID)
				return nil
			})
		},
	}
	cmd.AddCommand(listCmd)

	selectCmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Make a patient the current selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *registry.Store) error {
				if err := store.SetCurrent(ctx, args[0]); err != nil {
					return err
				}
				p, _ := store.Current()
				cmd.Printf("Current patient: %s (%s)\n", p.ID, p.Name)
				return nil
			})
		},
	}
	cmd.AddCommand(selectCmd)

	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the bootstrap patient list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *registry.Store) error {
				if err := store.Reset(ctx); err != nil {
					return err
				}
				cmd.Printf("Registry reset to %d patient(s).\n", len(store.ListPatients()))
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the sqlite storage schema",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSQLite(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			version, err := kv.MigrationVersion(s.DB())
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			cmd.Printf("Schema is at version %d.\n", version)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSQLite(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := kv.PrintMigrationStatus(s.DB(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

// openSQLite opens the configured sqlite database. OpenSQLite applies
// pending migrations, so opening is the whole of "migrate up".
func openSQLite(ctx context.Context) (*kv.SQLiteStorage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.StorageOptions()
	if opts.Driver != kv.DriverSQLite {
		return nil, fmt.Errorf("migrate requires STORAGE_DRIVER=sqlite, got %q", opts.Driver)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return kv.OpenSQLite(ctx, opts.Path)
}

// withStore opens the configured storage, initializes the registry and
// runs fn against it.
func withStore(fn func(ctx context.Context, store *registry.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Commands print to stdout; keep the log out of the way.
	logger := newLogger(cfg, os.Stderr)

	ctx := context.Background()
	storage, err := kv.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger, storage)
	if err != nil {
		storage.Close()
		return err
	}
	defer a.Close()

	if err := a.store.Initialize(ctx); err != nil {
		return err
	}
	if err := fn(ctx, a.store); err != nil {
		return err
	}
	if err := a.store.StorageErr(); err != nil {
		return fmt.Errorf("changes were not persisted: %w", err)
	}
	return nil
}

func printPatients(cmd *cobra.Command, patients []registry.Patient, currentID string) {
	cmd.Printf("%-2s %-12s %-24s %-8s %-16s %s\n", "", "ID", "NAME", "LABEL", "STATUS", "SERVICE")
	cmd.Println("-- ------------ ------------------------ -------- ---------------- --------")
	for _, p := range patients {
		marker := ""
		if p.ID == currentID {
			marker = "*"
		}
		cmd.Printf("%-2s %-12s %-24s %-8s %-16s %s\n",
			marker, p.ID, p.Name, p.Label, p.Status,
			consultation.Format(time.Duration(p.ServiceTimer)*time.Second))
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	ctx := context.Background()
	storage, err := kv.Open(ctx, cfg.StorageOptions())
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	logger.Info().Str("driver", cfg.StorageDriver).Str("path", cfg.StoragePath).Msg("storage opened")

	a, err := newApp(ctx, cfg, logger, storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize registry")
	}
	defer a.Close()

	e := a.routes()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
