// Package cli implements the adstate command surface. It is thin glue:
// it reads fetcher-shaped records from files and drives the normalizer,
// diff engine, and stores.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adstate-project/adstate/internal/changelog"
	"github.com/adstate-project/adstate/internal/snapstore"
	"github.com/adstate-project/adstate/internal/sqlitestore"
	"github.com/adstate-project/adstate/pkg/config"
	"github.com/adstate-project/adstate/pkg/logging"
)

var (
	dataDir    string
	jsonOutput bool
	rootCmd    = &cobra.Command{
		Use:   "adstate",
		Short: "adstate - campaign state snapshots and change detection",
		Long: `adstate captures point-in-time configuration snapshots of advertising
campaigns, detects typed changes between snapshots, and maintains an
append-only changelog per campaign for report context.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".adstate", "data directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// env bundles the configured stores for one command invocation.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	snaps snapstore.Store
	logs  changelog.Store
	close func() error
}

func openEnv() (*env, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	e := &env{cfg: cfg, log: logger, close: func() error { return nil }}
	switch cfg.Storage {
	case "", "file":
		e.snaps = snapstore.NewFileStore(dataDir)
		e.logs = changelog.NewFileStore(dataDir, changelog.FileStoreOptions{
			RetryAttempts: cfg.Retry.Attempts,
			RetryBackoff:  cfg.Retry.Backoff,
			Logger:        logger,
		})
	case "sqlite":
		db, err := sqlitestore.Open(filepath.Join(dataDir, cfg.SQLitePath))
		if err != nil {
			return nil, err
		}
		e.snaps = sqlitestore.NewSnapshotStore(db)
		e.logs = sqlitestore.NewChangelogStore(db, sqlitestore.ChangelogStoreOptions{
			RetryAttempts: cfg.Retry.Attempts,
			RetryBackoff:  cfg.Retry.Backoff,
			Logger:        logger,
		})
		e.close = db.Close
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
	return e, nil
}

// outputJSON prints v as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
