package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-engine/internal/generate"
	"github.com/sells-group/outreach-engine/internal/knowledge"
	"github.com/sells-group/outreach-engine/internal/pipeline"
	"github.com/sells-group/outreach-engine/internal/signals"
	"github.com/sells-group/outreach-engine/internal/store"
	anthropicpkg "github.com/sells-group/outreach-engine/pkg/anthropic"
	"github.com/sells-group/outreach-engine/pkg/proxycurl"
)

// appEnv holds the initialized store, engines, and pipeline shared by the
// analyze/batch/serve/knowledge commands.
type appEnv struct {
	Store     store.Store
	Knowledge *knowledge.Engine
	Pipeline  *pipeline.Pipeline

	stopSweeper context.CancelFunc
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.stopSweeper != nil {
		e.stopSweeper()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore builds the configured storage backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "outreach.db"
		}
		st, err = store.NewSQLite(dsn)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initKnowledge sets up the store and the knowledge engine only, for
// commands that never run analyses.
func initKnowledge(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("knowledge"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	eng, err := knowledge.NewEngine(ctx, st, cfg.Knowledge)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &appEnv{Store: st, Knowledge: eng}, nil
}

// initAnalysis sets up the full environment: store, knowledge engine,
// enrichment and generation clients, and the pipeline with its sweeper.
// Callers should defer env.Close().
func initAnalysis(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	eng, err := knowledge.NewEngine(ctx, st, cfg.Knowledge)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	enrich := proxycurl.NewClient(cfg.Enrich.Key,
		proxycurl.WithBaseURL(cfg.Enrich.BaseURL),
		proxycurl.WithRateLimit(cfg.Enrich.RatePerSec),
	)
	generator := generate.NewGenerator(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic, cfg.Generate)

	registry := pipeline.NewRegistry(
		time.Duration(cfg.Jobs.RetentionMins)*time.Minute,
		time.Duration(cfg.Jobs.SweepSecs)*time.Second,
	)
	p := pipeline.New(pipeline.Options{
		Registry:     registry,
		Store:        st,
		Enrich:       enrich,
		Signals:      signals.NewEngine(),
		Generator:    generator,
		Snippets:     eng,
		Retention:    time.Duration(cfg.Jobs.RetentionMins) * time.Minute,
		SnippetCount: cfg.Generate.ContextSnippets,
	})

	sweepCtx, stop := context.WithCancel(context.Background())
	go registry.Run(sweepCtx)

	return &appEnv{
		Store:       st,
		Knowledge:   eng,
		Pipeline:    p,
		stopSweeper: stop,
	}, nil
}
