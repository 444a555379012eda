package gateway

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/store"
)

func newTestGateway(t *testing.T) (*StoreGateway, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st), st
}

func submission(verdict model.Verdict) model.CaseSubmission {
	return model.CaseSubmission{
		Messages:  []model.ChatMessage{{Role: "user", Content: "opis"}},
		Record:    &model.CaseRecord{Injured: model.Injured{FirstName: "Jan"}},
		Decision:  &model.AccidentDecision{Verdict: verdict},
		Narrative: "Poszkodowany spadł z drabiny.",
		Type:      model.TypeAtWork,
		Severity:  model.SeverityLight,
	}
}

func TestSubmit_StatusFollowsVerdict(t *testing.T) {
	g, st := newTestGateway(t)
	ctx := context.Background()

	tests := []struct {
		verdict model.Verdict
		status  model.CaseStatus
	}{
		{model.VerdictApproved, model.StatusApproved},
		{model.VerdictRejected, model.StatusRejected},
		{model.VerdictNeedsClarification, model.StatusFiled},
	}
	for _, tt := range tests {
		id, err := g.Submit(ctx, submission(tt.verdict))
		require.NoError(t, err)
		require.NotEmpty(t, id)

		c, err := st.GetCase(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, tt.status, c.Status, string(tt.verdict))
	}
}

func TestSubmit_IncompleteBundleRejected(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	var gErr *model.GatewayError

	sub := submission(model.VerdictApproved)
	sub.Record = nil
	_, err := g.Submit(ctx, sub)
	require.ErrorAs(t, err, &gErr)

	sub = submission(model.VerdictApproved)
	sub.Decision = nil
	_, err = g.Submit(ctx, sub)
	require.ErrorAs(t, err, &gErr)
}

type failingStore struct {
	store.Store
}

func (f *failingStore) InsertCase(context.Context, model.CaseSubmission, model.CaseStatus) (*model.Case, error) {
	return nil, errors.New("disk full")
}

func TestSubmit_StoreFailureWrapped(t *testing.T) {
	g := New(&failingStore{})

	_, err := g.Submit(context.Background(), submission(model.VerdictApproved))
	var gErr *model.GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, "submit", gErr.Op)
}
