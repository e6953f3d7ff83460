// Package store implements the Store capability (§6, external to the
// engine core): list_flows, get_flow, save_flow, list_runs, save_run.
// Persistence format is opaque to the engine; this package ships an
// in-memory default and an optional Postgres-backed implementation.
package store

import (
	"context"

	"github.com/flowlayer/flowengine/internal/domain"
)

// Store is the abstract capability the scheduler and any outer HTTP/CLI
// surface consume to load and persist flow definitions and run history.
type Store interface {
	ListFlows(ctx context.Context) ([]domain.Flow, error)
	GetFlow(ctx context.Context, id string) (domain.Flow, error)
	SaveFlow(ctx context.Context, flow domain.Flow) error
	ListRuns(ctx context.Context, flowID string) ([]domain.Run, error)
	SaveRun(ctx context.Context, run domain.Run) error
}
