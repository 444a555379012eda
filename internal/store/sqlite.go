package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/wypadek/karta-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	phase      TEXT NOT NULL DEFAULT 'COLLECTING',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS cases (
	id                TEXT PRIMARY KEY,
	record            TEXT NOT NULL,
	decision          TEXT NOT NULL,
	narrative         TEXT NOT NULL,
	accident_type     TEXT NOT NULL,
	accident_severity TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'szkic',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_conversations_phase ON conversations(phase);
CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_type ON cases(accident_type);
CREATE INDEX IF NOT EXISTS idx_cases_severity ON cases(accident_severity);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	state := model.NewConversationState(id)

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal state")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, state, phase, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(stateJSON), string(state.Phase), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert conversation")
	}

	return &model.Conversation{ID: id, State: state, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var (
		stateJSON string
		conv      model.Conversation
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, state, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &stateJSON, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: conversation %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get conversation %s", id)
	}
	if err := json.Unmarshal([]byte(stateJSON), &conv.State); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal conversation %s", id)
	}
	return &conv, nil
}

func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	stateJSON, err := json.Marshal(conv.State)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal state")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET state = ?, phase = ?, updated_at = ? WHERE id = ?`,
		string(stateJSON), string(conv.State.Phase), time.Now().UTC(), conv.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save conversation %s", conv.ID)
	}
	return checkRowsAffected(res, "conversation", conv.ID)
}

func (s *SQLiteStore) InsertCase(ctx context.Context, sub model.CaseSubmission, status model.CaseStatus) (*model.Case, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(sub.Record)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal record")
	}
	decisionJSON, err := json.Marshal(sub.Decision)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal decision")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cases (id, record, decision, narrative, accident_type, accident_severity, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(recordJSON), string(decisionJSON), sub.Narrative,
		string(sub.Type), string(sub.Severity), string(status), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert case")
	}

	return &model.Case{
		ID: id, Record: sub.Record, Decision: sub.Decision, Narrative: sub.Narrative,
		Type: sub.Type, Severity: sub.Severity, Status: status, CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetCase(ctx context.Context, id string) (*model.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, record, decision, narrative, accident_type, accident_severity, status, created_at
		 FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: case %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get case %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListCases(ctx context.Context, filter model.CaseFilter) ([]model.Case, error) {
	query := `SELECT id, record, decision, narrative, accident_type, accident_severity, status, created_at FROM cases WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND accident_type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Severity != "" {
		query += ` AND accident_severity = ?`
		args = append(args, string(filter.Severity))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cases")
	}
	defer rows.Close()

	var out []model.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan case")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list cases")
}

func (s *SQLiteStore) CountCases(ctx context.Context, dim StatDimension) ([]model.StatBucket, error) {
	column, err := statColumn(dim)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM cases GROUP BY %s ORDER BY COUNT(*) DESC`, column, column))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: count cases by %s", column)
	}
	defer rows.Close()

	var out []model.StatBucket
	for rows.Next() {
		var b model.StatBucket
		if err := rows.Scan(&b.Name, &b.Value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stat bucket")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: count cases")
}

// statColumn maps a dimension to its column, failing closed so dimension
// values never reach SQL unchecked.
func statColumn(dim StatDimension) (string, error) {
	switch dim {
	case ByType, BySeverity, ByStatus:
		return string(dim), nil
	default:
		return "", eris.Errorf("store: unknown stat dimension %q", dim)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*model.Case, error) {
	var (
		c                        model.Case
		recordJSON, decisionJSON string
		typ, sev, status         string
	)
	if err := row.Scan(&c.ID, &recordJSON, &decisionJSON, &c.Narrative, &typ, &sev, &status, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recordJSON), &c.Record); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(decisionJSON), &c.Decision); err != nil {
		return nil, err
	}
	c.Type = model.AccidentType(typ)
	c.Severity = model.AccidentSeverity(sev)
	c.Status = model.CaseStatus(status)
	return &c, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}
