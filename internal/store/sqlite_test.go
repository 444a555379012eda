package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wypadek/karta-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testSubmission(sev model.AccidentSeverity) model.CaseSubmission {
	return model.CaseSubmission{
		Messages: []model.ChatMessage{{Role: "user", Content: "opis wypadku"}},
		Record: &model.CaseRecord{
			Injured:  model.Injured{FirstName: "Jan", LastName: "Kowalski"},
			Accident: model.Accident{Description: "Upadek z drabiny"},
		},
		Decision: &model.AccidentDecision{
			Verdict:    model.VerdictApproved,
			Confidence: 1.0,
			Precedent:  model.NoPrecedent,
		},
		Narrative: "Poszkodowany spadł z drabiny.",
		Type:      model.TypeAtWork,
		Severity:  sev,
	}
}

// --- Conversations ---

func TestSQLite_Conversation_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	conv, err := st.CreateConversation(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, model.PhaseCollecting, conv.State.Phase)

	got, err := st.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, model.PhaseCollecting, got.State.Phase)
	assert.NotNil(t, got.State.Draft)
}

func TestSQLite_Conversation_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetConversation(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_Conversation_SaveRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	conv, err := st.CreateConversation(ctx)
	require.NoError(t, err)

	conv.State.Draft.Injured.FirstName = "Jan"
	conv.State.Phase = model.PhaseReady
	conv.State.History = []model.ChatMessage{
		{Role: "user", Content: "Mam na imię Jan"},
		{Role: "assistant", Content: "Zanotowałem."},
	}
	conv.State.Missing = []model.MissingField{{Field: "injured.pesel", Reason: "brak"}}
	require.NoError(t, st.SaveConversation(ctx, conv))

	got, err := st.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jan", got.State.Draft.Injured.FirstName)
	assert.Equal(t, model.PhaseReady, got.State.Phase)
	assert.Len(t, got.State.History, 2)
	assert.Equal(t, "injured.pesel", got.State.Missing[0].Field)
}

func TestSQLite_Conversation_SaveUnknownID(t *testing.T) {
	st := newTestSQLiteStore(t)

	conv := &model.Conversation{ID: "ghost", State: model.NewConversationState("ghost")}
	err := st.SaveConversation(context.Background(), conv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_Conversation_DecisionSurvivesRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	conv, err := st.CreateConversation(ctx)
	require.NoError(t, err)

	conv.State.Phase = model.PhaseAdjudicated
	conv.State.Decision = &model.AccidentDecision{
		Verdict:    model.VerdictRejected,
		Confidence: 0.4,
		Flaws: []model.Flaw{{
			Category: model.FlawIntoxication,
			Severity: model.SeverityCritical,
		}},
	}
	conv.State.Narrative = "opis"
	require.NoError(t, st.SaveConversation(ctx, conv))

	got, err := st.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.State.Decision)
	assert.Equal(t, model.VerdictRejected, got.State.Decision.Verdict)
	assert.Equal(t, model.FlawIntoxication, got.State.Decision.Flaws[0].Category)
}

// --- Cases ---

func TestSQLite_Case_InsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.InsertCase(ctx, testSubmission(model.SeverityLight), model.StatusApproved)
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	got, err := st.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, "Jan", got.Record.Injured.FirstName)
	assert.Equal(t, model.VerdictApproved, got.Decision.Verdict)
	assert.Equal(t, "Poszkodowany spadł z drabiny.", got.Narrative)
}

func TestSQLite_Case_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetCase(context.Background(), "nonexistent")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_Case_ListFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.InsertCase(ctx, testSubmission(model.SeverityLight), model.StatusApproved)
	require.NoError(t, err)
	_, err = st.InsertCase(ctx, testSubmission(model.SeveritySevere), model.StatusApproved)
	require.NoError(t, err)
	_, err = st.InsertCase(ctx, testSubmission(model.SeverityLight), model.StatusRejected)
	require.NoError(t, err)

	all, err := st.ListCases(ctx, model.CaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	approved, err := st.ListCases(ctx, model.CaseFilter{Status: model.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	severe, err := st.ListCases(ctx, model.CaseFilter{Severity: model.SeveritySevere})
	require.NoError(t, err)
	assert.Len(t, severe, 1)

	limited, err := st.ListCases(ctx, model.CaseFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLite_Case_CountByDimension(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.InsertCase(ctx, testSubmission(model.SeverityLight), model.StatusApproved)
	require.NoError(t, err)
	_, err = st.InsertCase(ctx, testSubmission(model.SeverityLight), model.StatusApproved)
	require.NoError(t, err)
	_, err = st.InsertCase(ctx, testSubmission(model.SeveritySevere), model.StatusRejected)
	require.NoError(t, err)

	bySeverity, err := st.CountCases(ctx, BySeverity)
	require.NoError(t, err)
	require.Len(t, bySeverity, 2)
	assert.Equal(t, "lekki", bySeverity[0].Name)
	assert.Equal(t, 2, bySeverity[0].Value)

	byStatus, err := st.CountCases(ctx, ByStatus)
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	_, err = st.CountCases(ctx, StatDimension("narrative"))
	require.Error(t, err, "unknown dimension fails closed")
}
