package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/inkwell-hq/formfill/internal/answer"
	"github.com/inkwell-hq/formfill/internal/engine"
	"github.com/inkwell-hq/formfill/internal/merge"
	"github.com/inkwell-hq/formfill/internal/reconcile"
	"github.com/inkwell-hq/formfill/internal/store"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

// env holds the wired application components for a command run.
type env struct {
	store  store.Store
	engine *engine.Engine
	worker *reconcile.Worker
}

// initStore opens the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv wires the full engine: store, reasoning clients, answer policy,
// merge pass and the reconciliation worker (already started).
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	client := reasoning.NewClient(cfg.Anthropic.Key)
	reasoner := reasoning.NewReasoner(client, cfg.Anthropic)
	detector := reasoning.NewDetector(client, cfg.Anthropic)

	answers := answer.New(st, reasoner, cfg.Answer)
	merger := merge.New(st, detector, cfg.Merge)
	worker := reconcile.NewWorker(st, reasoner, answers, cfg.Reconcile)
	worker.Start()

	return &env{
		store:  st,
		engine: engine.New(st, answers, merger, worker, cfg.QC),
		worker: worker,
	}, nil
}

// Close drains the worker, then closes the store.
func (e *env) Close() {
	if e.worker != nil {
		e.worker.Stop()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}
