package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/api"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/config"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/questiongen"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/roadmap"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/sessions"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/store"
)

const sweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve check-ups over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides NEUROMATH_HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := conf
	if err := cfg.Validate(); err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	logger, err := newLogger(cmd, os.Stderr)
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), logger)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}

	backend, closeBackend, err := sessionBackend(ctx, cfg, st, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	registry := sessions.NewRegistry(backend, diagnostic.Deps{
		Questions: questiongen.New(provider, questiongen.DefaultConfig()),
		Roadmaps:  roadmap.New(provider, roadmap.DefaultConfig()),
		Recorder:  st.Recorder(),
		Logger:    logger,
	}, sessions.Options{TTL: cfg.SessionTTL, Logger: logger})

	srv, err := api.New(api.Options{
		Registry:    registry,
		Students:    st.StudentRepo(),
		Auth:        api.NewAuth(cfg.AuthSecret),
		Health:      st,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info("serving",
		"addr", cfg.HTTPAddr,
		"session_backend", cfg.SessionBackend,
		"model", provider.ModelID(),
	)
	return srv.ListenAndServe(ctx, cfg.HTTPAddr)
}

// sessionBackend builds the configured backend and starts its expiry sweep
// where the store does not expire entries itself.
func sessionBackend(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (sessions.Backend, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		m := sessions.NewMemory()
		go sweep(ctx, logger, func(context.Context) (int64, error) {
			return int64(m.Sweep()), nil
		})
		return m, func() {}, nil

	case config.BackendRedis:
		client, err := sessions.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return sessions.NewRedis(client), func() { _ = client.Close() }, nil

	default:
		s := sessions.NewSQL(st.SnapshotRepo())
		go sweep(ctx, logger, s.Prune)
		return s, func() {}, nil
	}
}

func sweep(ctx context.Context, logger *slog.Logger, prune func(context.Context) (int64, error)) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := prune(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
