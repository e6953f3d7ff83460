package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/flowlayer/flowengine/internal/domain"
)

// flowModel is the bun-mapped row for a stored flow definition. Nodes and
// Edges are stored as opaque jsonb, matching the engine's stance that
// persistence format is opaque to it. Grounded on the
// pgdriver.NewConnector + pgdialect.New() + bun.BaseModel wiring this
// engine's Postgres recorder shares.
type flowModel struct {
	bun.BaseModel `bun:"table:flows,alias:f"`

	ID       string            `bun:"id,pk"`
	Name     string            `bun:"name"`
	Enabled  bool              `bun:"enabled"`
	Metadata map[string]string `bun:"metadata,type:jsonb"`
	Nodes    []byte            `bun:"nodes,type:jsonb"`
	Edges    []byte            `bun:"edges,type:jsonb"`
}

// PostgresStore is a Store backed by uptrace/bun.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore opens a Postgres connection via the given DSN.
func NewPostgresStore(dsn string) *PostgresStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}
}

// InitSchema creates the flows table if it doesn't already exist.
func (p *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := p.db.NewCreateTable().Model((*flowModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (p *PostgresStore) toModel(flow domain.Flow) (*flowModel, error) {
	nodes, err := json.Marshal(flow.Nodes)
	if err != nil {
		return nil, err
	}
	edges, err := json.Marshal(flow.Edges)
	if err != nil {
		return nil, err
	}
	return &flowModel{ID: flow.ID, Name: flow.Name, Enabled: flow.Enabled, Metadata: flow.Metadata, Nodes: nodes, Edges: edges}, nil
}

func (m *flowModel) toDomain() (domain.Flow, error) {
	var nodes []domain.Node
	if err := json.Unmarshal(m.Nodes, &nodes); err != nil {
		return domain.Flow{}, err
	}
	var edges []domain.Edge
	if err := json.Unmarshal(m.Edges, &edges); err != nil {
		return domain.Flow{}, err
	}
	return domain.Flow{ID: m.ID, Name: m.Name, Enabled: m.Enabled, Metadata: m.Metadata, Nodes: nodes, Edges: edges}, nil
}

func (p *PostgresStore) SaveFlow(ctx context.Context, flow domain.Flow) error {
	m, err := p.toModel(flow)
	if err != nil {
		return err
	}
	_, err = p.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("enabled = EXCLUDED.enabled").
		Set("metadata = EXCLUDED.metadata").
		Set("nodes = EXCLUDED.nodes").
		Set("edges = EXCLUDED.edges").
		Exec(ctx)
	return err
}

func (p *PostgresStore) GetFlow(ctx context.Context, id string) (domain.Flow, error) {
	m := new(flowModel)
	if err := p.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Flow{}, err
	}
	return m.toDomain()
}

func (p *PostgresStore) ListFlows(ctx context.Context) ([]domain.Flow, error) {
	var models []flowModel
	if err := p.db.NewSelect().Model(&models).Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Flow, 0, len(models))
	for _, m := range models {
		flow, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, flow)
	}
	return out, nil
}

// ListRuns and SaveRun are no-ops: this store only owns flow definitions,
// so ListRuns always returns no runs and SaveRun discards the run. Run
// history is kept in recorder.PostgresRecorder's own tables.
func (p *PostgresStore) ListRuns(context.Context, string) ([]domain.Run, error) {
	return nil, nil
}

func (p *PostgresStore) SaveRun(context.Context, domain.Run) error {
	return nil
}
