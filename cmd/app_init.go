package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wypadek/karta-cli/internal/claim"
	"github.com/wypadek/karta-cli/internal/decision"
	"github.com/wypadek/karta-cli/internal/gateway"
	"github.com/wypadek/karta-cli/internal/oracle"
	"github.com/wypadek/karta-cli/internal/precedent"
	"github.com/wypadek/karta-cli/internal/schema"
	"github.com/wypadek/karta-cli/internal/slotfill"
	"github.com/wypadek/karta-cli/internal/store"
	anthropicpkg "github.com/wypadek/karta-cli/pkg/anthropic"
)

// appEnv holds the initialized store and pipeline needed by the serve and
// chat commands.
type appEnv struct {
	Store   store.Store
	Service *claim.Service
}

// Close releases resources held by the environment.
func (a *appEnv) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// initApp sets up the store, the oracle, and the claim service. Callers
// should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Anthropic.Key == "" {
		_ = st.Close()
		return nil, eris.New("anthropic API key is required (KARTA_ANTHROPIC_KEY)")
	}

	reg := schema.AccidentCard()

	or := oracle.NewAnthropic(
		anthropicpkg.NewClient(cfg.Anthropic.Key),
		reg,
		oracle.Options{
			Model:          cfg.Anthropic.Model,
			MaxTokens:      cfg.Oracle.MaxTokens,
			RequestTimeout: time.Duration(cfg.Oracle.RequestTimeoutSecs) * time.Second,
			RequestsPerMin: cfg.Oracle.RequestsPerMin,
		},
	)

	filler := slotfill.New(reg, slotfill.LastNonEmptyWins)

	weights := decision.Weights{
		Warning:    cfg.Decision.WarningWeight,
		Critical:   cfg.Decision.CriticalWeight,
		Unresolved: cfg.Decision.UnresolvedWeight,
	}
	engine := decision.New(reg, precedent.NewStoreIndex(st), weights)

	svc := claim.New(st, or, filler, engine, gateway.New(st))

	return &appEnv{Store: st, Service: svc}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "karta.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
