package recorder

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/flowlayer/flowengine/internal/domain"
)

// runModel is the run-level row. Grounded on the bun.BaseModel +
// pgdriver.NewConnector/pgdialect.New() wiring this engine's optional
// Postgres store uses for its other aggregate tables.
type runModel struct {
	bun.BaseModel `bun:"table:flow_runs,alias:r"`

	ID          string    `bun:"id,pk"`
	FlowID      string    `bun:"flow_id"`
	TriggerKind string    `bun:"trigger_kind"`
	Status      string    `bun:"status"`
	StartedAt   time.Time `bun:"started_at"`
	FinishedAt  time.Time `bun:"finished_at,nullzero"`
}

// nodeRecordModel is one node's lifecycle row within a run. OutputSummary
// holds the msgpack encoding of the node's output summary string in one
// opaque bytea column instead of a wide, node-kind-specific schema.
type nodeRecordModel struct {
	bun.BaseModel `bun:"table:flow_run_nodes,alias:n"`

	RunID         string    `bun:"run_id,pk"`
	NodeID        string    `bun:"node_id,pk"`
	Status        string    `bun:"status"`
	ErrorMessage  string    `bun:"error_message"`
	OutputSummary []byte    `bun:"output_summary"`
	StartedAt     time.Time `bun:"started_at"`
	FinishedAt    time.Time `bun:"finished_at,nullzero"`
}

// PostgresRecorder is a Recorder backed by uptrace/bun over a Postgres
// connection, for deployments that want run history to survive process
// restarts (note: this is history only — the engine's own Non-goals
// still exclude resuming a crashed in-flight run).
type PostgresRecorder struct {
	db *bun.DB
}

// NewPostgresRecorder opens a Postgres connection via the given DSN.
func NewPostgresRecorder(dsn string) *PostgresRecorder {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PostgresRecorder{db: bun.NewDB(sqldb, pgdialect.New())}
}

// InitSchema creates the recorder's tables if they don't already exist.
func (p *PostgresRecorder) InitSchema(ctx context.Context) error {
	models := []any{(*runModel)(nil), (*nodeRecordModel)(nil)}
	for _, model := range models {
		if _, err := p.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgresRecorder) BeginRun(ctx context.Context, flowID string, trigger TriggerInfo) (string, error) {
	m := &runModel{
		ID:          uuid.NewString(),
		FlowID:      flowID,
		TriggerKind: trigger.Kind,
		Status:      string(domain.RunStatusRunning),
		StartedAt:   time.Now(),
	}
	if _, err := p.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (p *PostgresRecorder) UpdateNode(ctx context.Context, runID, nodeID string, status domain.NodeStatus, errMessage, outputSummary string) error {
	packed, err := msgpack.Marshal(outputSummary)
	if err != nil {
		return err
	}
	m := &nodeRecordModel{
		RunID:         runID,
		NodeID:        nodeID,
		Status:        string(status),
		ErrorMessage:  errMessage,
		OutputSummary: packed,
		FinishedAt:    time.Now(),
	}
	_, err = p.db.NewInsert().Model(m).
		On("CONFLICT (run_id, node_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("error_message = EXCLUDED.error_message").
		Set("output_summary = EXCLUDED.output_summary").
		Set("finished_at = EXCLUDED.finished_at").
		Exec(ctx)
	return err
}

func (p *PostgresRecorder) FinishRun(ctx context.Context, runID string, status domain.RunStatus) error {
	_, err := p.db.NewUpdate().Model((*runModel)(nil)).
		Set("status = ?", string(status)).
		Set("finished_at = ?", time.Now()).
		Where("id = ?", runID).
		Exec(ctx)
	return err
}
