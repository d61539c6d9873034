package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/config"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/logging"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "neuromath",
	Short: "Dyscalculia screening for children",
	Long: "NeuroMath Navigator runs an adaptive number-skills check-up, detects the\n" +
		"constructs a child struggles with and produces a five-step remediation roadmap.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.FromEnv()
		if err != nil {
			return err
		}
		conf = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTake(cmd)
	},
}

// conf is read from the environment before any command runs.
var conf *config.Config

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides NEUROMATH_DB env var)")
	pf.String("driver", "", "Database driver: sqlite or postgres (overrides NEUROMATH_DB_DRIVER)")
	pf.String("dsn", "", "Database DSN (overrides NEUROMATH_DB_DSN)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (overrides NEUROMATH_LOG_LEVEL)")
	pf.String("log-format", "", "Log format: text or json (overrides NEUROMATH_LOG_FORMAT)")

	addTakeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagOr returns the flag value when set, else fallback.
func flagOr(cmd *cobra.Command, flag, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return fallback
}

// resolveDSN picks the driver and DSN. For SQLite without an explicit DSN
// the database path is --db, then NEUROMATH_DB, then the default XDG path.
func resolveDSN(cmd *cobra.Command, c *config.Config) (store.Driver, string, error) {
	driver, err := store.ParseDriver(flagOr(cmd, "driver", c.DBDriver))
	if err != nil {
		return "", "", err
	}
	dsn := flagOr(cmd, "dsn", c.DBDSN)
	if dsn != "" {
		return driver, dsn, nil
	}
	if driver == store.DriverPostgres {
		return "", "", fmt.Errorf("postgres requires --dsn or NEUROMATH_DB_DSN")
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return driver, p, store.EnsureDir(p)
	}
	p, err := store.DefaultDBPath()
	return driver, p, err
}

// openStore opens and migrates the configured database.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	driver, dsn, err := resolveDSN(cmd, conf)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	s, err := store.Open(cmd.Context(), driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newLogger builds the command logger writing to w and installs it as the
// slog default.
func newLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(
		flagOr(cmd, "log-level", conf.LogLevel),
		flagOr(cmd, "log-format", conf.LogFormat),
		w,
	)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
