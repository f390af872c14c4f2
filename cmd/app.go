package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"examly/internal/evaluation"
	"examly/internal/llm"
	"examly/internal/mastery"
	"examly/internal/store"
	"examly/internal/testgen"
)

// app bundles everything a command needs: open store, configured
// provider, and the domain services built on top.
type app struct {
	store     *store.Store
	cfg       llm.Config
	generator *testgen.Service
	evaluator *evaluation.Service
	tracker   *mastery.Tracker
}

// openApp opens the database and builds the full service stack.
// Callers must Close when done.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	provider, cfg, err := llm.NewProviderFromEnv(ctx, s.EventRepo())
	if err != nil {
		s.Close()
		return nil, err
	}

	client := llm.NewClient(provider)
	client.SetMaxRetries(cfg.MaxRetries)
	tracker := mastery.NewTracker(s.ProfileRepo())

	return &app{
		store:     s,
		cfg:       cfg,
		generator: testgen.NewService(client, s.TestRepo()),
		evaluator: evaluation.NewService(client, s.TestRepo(), tracker),
		tracker:   tracker,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// requestContext applies the configured per-request timeout.
func (a *app) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

// openStore opens just the database, for commands that never touch the
// LLM backend.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
