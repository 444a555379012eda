package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/wypadek/karta-cli/internal/db"
	"github.com/wypadek/karta-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	phase      TEXT NOT NULL DEFAULT 'COLLECTING',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cases (
	id                TEXT PRIMARY KEY,
	record            JSONB NOT NULL,
	decision          JSONB NOT NULL,
	narrative         TEXT NOT NULL,
	accident_type     TEXT NOT NULL,
	accident_severity TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'szkic',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_conversations_phase ON conversations(phase);
CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_type ON cases(accident_type);
CREATE INDEX IF NOT EXISTS idx_cases_severity ON cases(accident_severity);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	state := model.NewConversationState(id)

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal state")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (id, state, phase, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(stateJSON), string(state.Phase), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert conversation")
	}

	return &model.Conversation{ID: id, State: state, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var (
		stateJSON string
		conv      model.Conversation
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, state, created_at, updated_at FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &stateJSON, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: conversation %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get conversation %s", id)
	}
	if err := json.Unmarshal([]byte(stateJSON), &conv.State); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal conversation %s", id)
	}
	return &conv, nil
}

func (s *PostgresStore) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	stateJSON, err := json.Marshal(conv.State)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal state")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations SET state = $1, phase = $2, updated_at = $3 WHERE id = $4`,
		string(stateJSON), string(conv.State.Phase), time.Now().UTC(), conv.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save conversation %s", conv.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: conversation %s", conv.ID)
	}
	return nil
}

func (s *PostgresStore) InsertCase(ctx context.Context, sub model.CaseSubmission, status model.CaseStatus) (*model.Case, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(sub.Record)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal record")
	}
	decisionJSON, err := json.Marshal(sub.Decision)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal decision")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO cases (id, record, decision, narrative, accident_type, accident_severity, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(recordJSON), string(decisionJSON), sub.Narrative,
		string(sub.Type), string(sub.Severity), string(status), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert case")
	}

	return &model.Case{
		ID: id, Record: sub.Record, Decision: sub.Decision, Narrative: sub.Narrative,
		Type: sub.Type, Severity: sub.Severity, Status: status, CreatedAt: now,
	}, nil
}

func (s *PostgresStore) GetCase(ctx context.Context, id string) (*model.Case, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, record, decision, narrative, accident_type, accident_severity, status, created_at
		 FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: case %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get case %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListCases(ctx context.Context, filter model.CaseFilter) ([]model.Case, error) {
	query := `SELECT id, record, decision, narrative, accident_type, accident_severity, status, created_at FROM cases WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND accident_type = ` + arg(string(filter.Type))
	}
	if filter.Severity != "" {
		query += ` AND accident_severity = ` + arg(string(filter.Severity))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ` + arg(filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cases")
	}
	defer rows.Close()

	var out []model.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan case")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list cases")
}

func (s *PostgresStore) CountCases(ctx context.Context, dim StatDimension) ([]model.StatBucket, error) {
	column, err := statColumn(dim)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM cases GROUP BY %s ORDER BY COUNT(*) DESC`, column, column))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: count cases by %s", column)
	}
	defer rows.Close()

	var out []model.StatBucket
	for rows.Next() {
		var b model.StatBucket
		if err := rows.Scan(&b.Name, &b.Value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stat bucket")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: count cases")
}
