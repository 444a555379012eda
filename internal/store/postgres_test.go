package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS conversations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateConversation(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "COLLECTING", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	conv, err := st.CreateConversation(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, model.PhaseCollecting, conv.State.Phase)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetConversation(t *testing.T) {
	st, mock := newMockStore(t)

	state := model.NewConversationState("c1")
	state.Draft.Injured.FirstName = "Jan"
	stateJSON, err := json.Marshal(state)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, state, created_at, updated_at FROM conversations").
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "created_at", "updated_at"}).
			AddRow("c1", string(stateJSON), now, now))

	conv, err := st.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Jan", conv.State.Draft.Injured.FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetConversation_Missing(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, state, created_at, updated_at FROM conversations").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "created_at", "updated_at"}))

	_, err := st.GetConversation(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgres_SaveConversation(t *testing.T) {
	st, mock := newMockStore(t)

	conv := &model.Conversation{ID: "c1", State: model.NewConversationState("c1")}
	conv.State.Phase = model.PhaseReady

	mock.ExpectExec("UPDATE conversations SET state").
		WithArgs(pgxmock.AnyArg(), "READY", pgxmock.AnyArg(), "c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.SaveConversation(context.Background(), conv))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveConversation_Missing(t *testing.T) {
	st, mock := newMockStore(t)

	conv := &model.Conversation{ID: "ghost", State: model.NewConversationState("ghost")}
	mock.ExpectExec("UPDATE conversations SET state").
		WithArgs(pgxmock.AnyArg(), "COLLECTING", pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.SaveConversation(context.Background(), conv)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgres_InsertCase(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO cases").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "opis",
			"przy_pracy", "lekki", "zaakceptowany", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sub := model.CaseSubmission{
		Record:    &model.CaseRecord{},
		Decision:  &model.AccidentDecision{Verdict: model.VerdictApproved},
		Narrative: "opis",
		Type:      model.TypeAtWork,
		Severity:  model.SeverityLight,
	}
	c, err := st.InsertCase(context.Background(), sub, model.StatusApproved)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, model.StatusApproved, c.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListCases_FilterPlaceholders(t *testing.T) {
	st, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "record", "decision", "narrative",
		"accident_type", "accident_severity", "status", "created_at",
	}).AddRow("case-1", "{}", "{}", "opis", "przy_pracy", "lekki", "zaakceptowany", time.Now().UTC())

	mock.ExpectQuery("SELECT (.+) FROM cases WHERE 1=1 AND status = \\$1 AND accident_severity = \\$2 ORDER BY created_at DESC LIMIT \\$3").
		WithArgs("zaakceptowany", "lekki", 10).
		WillReturnRows(rows)

	out, err := st.ListCases(context.Background(), model.CaseFilter{
		Status:   model.StatusApproved,
		Severity: model.SeverityLight,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "case-1", out[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountCases(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM cases GROUP BY status").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("zaakceptowany", 3).
			AddRow("odrzucony", 1))

	out, err := st.CountCases(context.Background(), ByStatus)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, model.StatBucket{Name: "zaakceptowany", Value: 3}, out[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountCases_UnknownDimension(t *testing.T) {
	st, _ := newMockStore(t)
	_, err := st.CountCases(context.Background(), StatDimension("narrative"))
	require.Error(t, err)
}
