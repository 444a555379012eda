package claim

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wypadek/karta-cli/internal/decision"
	"github.com/wypadek/karta-cli/internal/gateway"
	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
	"github.com/wypadek/karta-cli/internal/slotfill"
	"github.com/wypadek/karta-cli/internal/store"
)

type fakeOracle struct {
	turnExt *model.TurnExtraction
	queue   []*model.TurnExtraction
	turnErr error
	fin     *model.AdjudicationInput
	finErr  error

	turnCalls     int
	finalizeCalls int
	lastHistory   []model.ChatMessage
}

func (f *fakeOracle) Turn(_ context.Context, history []model.ChatMessage) (*model.TurnExtraction, error) {
	f.turnCalls++
	f.lastHistory = history
	if f.turnErr != nil {
		return nil, f.turnErr
	}
	if len(f.queue) > 0 {
		ext := f.queue[0]
		f.queue = f.queue[1:]
		return ext, nil
	}
	return f.turnExt, nil
}

func (f *fakeOracle) Finalize(_ context.Context, history []model.ChatMessage) (*model.AdjudicationInput, error) {
	f.finalizeCalls++
	f.lastHistory = history
	if f.finErr != nil {
		return nil, f.finErr
	}
	return f.fin, nil
}

func newTestService(t *testing.T, or *fakeOracle) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	reg := schema.AccidentCard()
	filler := slotfill.New(reg, slotfill.LastNonEmptyWins)
	engine := decision.New(reg, nil, decision.DefaultWeights())
	return New(st, or, filler, engine, gateway.New(st)), st
}

func partialExtraction() *model.TurnExtraction {
	return &model.TurnExtraction{
		AssistantMessage: "Dziękuję. Jak nazywa się pracodawca?",
		Fragment: &model.Fragment{Leaves: map[string]string{
			"injured.first_name": "Jan",
			"injured.last_name":  "Kowalski",
		}},
	}
}

func fullExtraction() *model.TurnExtraction {
	return &model.TurnExtraction{
		AssistantMessage: "Mam komplet danych.",
		Fragment: &model.Fragment{
			Leaves: map[string]string{
				"employer.employer_name":                           "Budimex S.A.",
				"employer.hq_address":                              "ul. Siedmiogrodzka 9, Warszawa",
				"employer.nip":                                     "5261003187",
				"employer.regon":                                   "010732630",
				"injured.first_name":                               "Jan",
				"injured.last_name":                                "Kowalski",
				"injured.pesel":                                    "90010112345",
				"injured.id.kind":                                  "dowód osobisty",
				"injured.id.series":                                "ABC",
				"injured.id.number":                                "123456",
				"injured.birth.date":                               "1990-01-01",
				"injured.birth.place":                              "Kraków",
				"injured.address":                                  "ul. Długa 5/7, Kraków",
				"injured.insurance_title.code":                     "pkt 6",
				"injured.insurance_title.description":              "umowa zlecenia",
				"injured.is_student":                               "false",
				"accident.date":                                    "2025-12-03",
				"accident.reporters_first_name":                    "Anna",
				"accident.reporters_last_name":                     "Nowak",
				"accident.description":                             "Upadek z rusztowania, złamanie nadgarstka",
				"accident.legal_qualification.is_accident_at_work": "true",
				"accident.legal_qualification.legal_basis":         "pkt 6",
				"accident.legal_qualification.justification":       "Nagłe zdarzenie przy wykonywaniu zlecenia",
				"sobriety.was_intoxicated":                         "false",
				"meta_process.acknowledgment.person_name":          "Jan Kowalski",
				"meta_process.acknowledgment.date":                 "2025-12-10",
				"meta_process.preparation.date":                    "2025-12-10",
				"meta_process.preparation.entity_name":             "Budimex S.A.",
				"meta_process.preparation.preparer_name":           "Anna Nowak",
			},
			WitnessesConfirmed: true,
		},
	}
}

func metInput() *model.AdjudicationInput {
	met := model.CriterionFinding{Met: true, Known: true, Justification: "Potwierdzone w relacji"}
	return &model.AdjudicationInput{
		Fragment:  &model.Fragment{Leaves: map[string]string{}},
		Narrative: "Poszkodowany spadł z rusztowania podczas montażu szalunku.",
		Criteria:  model.CriteriaFindings{Suddenness: met, ExternalCause: met, WorkConnection: met},
	}
}

func TestTurn_PersistsMergedState(t *testing.T) {
	or := &fakeOracle{turnExt: partialExtraction()}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)

	state, err := svc.Turn(ctx, conv.ID, "Nazywam się Jan Kowalski")
	require.NoError(t, err)
	assert.Equal(t, "Jan", state.Draft.Injured.FirstName)
	assert.Equal(t, model.PhaseCollecting, state.Phase)

	// The oracle saw the transcript ending with the new user message.
	require.NotEmpty(t, or.lastHistory)
	assert.Equal(t, "user", or.lastHistory[len(or.lastHistory)-1].Role)
	assert.Equal(t, "Nazywam się Jan Kowalski", or.lastHistory[len(or.lastHistory)-1].Content)

	reloaded, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kowalski", reloaded.State.Draft.Injured.LastName)
	require.Len(t, reloaded.State.History, 2)
}

func TestTurn_EmptyMessageRejected(t *testing.T) {
	or := &fakeOracle{turnExt: partialExtraction()}
	svc, _ := newTestService(t, or)

	conv, err := svc.Start(context.Background())
	require.NoError(t, err)

	_, err = svc.Turn(context.Background(), conv.ID, "   ")
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, or.turnCalls)
}

func TestTurn_UnknownConversation(t *testing.T) {
	svc, _ := newTestService(t, &fakeOracle{})

	_, err := svc.Turn(context.Background(), "missing", "dzień dobry")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTurn_OracleFailureLeavesStateUntouched(t *testing.T) {
	or := &fakeOracle{turnExt: partialExtraction()}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.Turn(ctx, conv.ID, "Nazywam się Jan Kowalski")
	require.NoError(t, err)

	or.turnErr = errors.New("oracle down")
	prior, err := svc.Turn(ctx, conv.ID, "Pracuję w Budimexie")
	require.Error(t, err)
	require.NotNil(t, prior)

	reloaded, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.State.History, 2, "failed turn must not be recorded")
	assert.Equal(t, "Jan", reloaded.State.Draft.Injured.FirstName)
}

func TestAdjudicate_RejectedWhileCollecting(t *testing.T) {
	or := &fakeOracle{turnExt: partialExtraction(), fin: metInput()}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, conv.ID, "Nazywam się Jan Kowalski")
	require.NoError(t, err)

	_, err = svc.Adjudicate(ctx, conv.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required fields still missing")
	assert.Zero(t, or.finalizeCalls)
}

func TestForce_AdjudicatesIncompleteDraft(t *testing.T) {
	fin := metInput()
	fin.Criteria.WorkConnection = model.CriterionFinding{Known: false}
	or := &fakeOracle{turnExt: partialExtraction(), fin: fin}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, conv.ID, "Nazywam się Jan Kowalski")
	require.NoError(t, err)

	state, err := svc.Force(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAdjudicated, state.Phase)
	require.NotNil(t, state.Decision)
	assert.Equal(t, model.VerdictNeedsClarification, state.Decision.Verdict)
}

func TestAdjudicate_FromReady(t *testing.T) {
	or := &fakeOracle{turnExt: fullExtraction(), fin: metInput()}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)

	state, err := svc.Turn(ctx, conv.ID, "Opowiem wszystko od razu...")
	require.NoError(t, err)
	require.Equal(t, model.PhaseReady, state.Phase)

	state, err = svc.Adjudicate(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAdjudicated, state.Phase)
	require.NotNil(t, state.Decision)
	assert.Equal(t, model.VerdictApproved, state.Decision.Verdict)
	assert.InDelta(t, 1.0, state.Decision.Confidence, 1e-9)
	assert.Equal(t, metInput().Narrative, state.Narrative)

	reloaded, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAdjudicated, reloaded.State.Phase)
	require.NotNil(t, reloaded.State.Decision)
}

func TestAdjudicate_OracleFailureKeepsPhase(t *testing.T) {
	or := &fakeOracle{turnExt: fullExtraction(), finErr: errors.New("oracle down")}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, conv.ID, "Opowiem wszystko od razu...")
	require.NoError(t, err)

	_, err = svc.Adjudicate(ctx, conv.ID)
	require.Error(t, err)

	reloaded, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseReady, reloaded.State.Phase)
	assert.Nil(t, reloaded.State.Decision)
}

func TestSubmit_RequiresAdjudication(t *testing.T) {
	or := &fakeOracle{turnExt: partialExtraction()}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, conv.ID)
	require.Error(t, err)
}

func TestSubmit_RecordsCaseAndTerminates(t *testing.T) {
	or := &fakeOracle{turnExt: fullExtraction(), fin: metInput()}
	svc, st := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, conv.ID, "Opowiem wszystko od razu...")
	require.NoError(t, err)
	_, err = svc.Adjudicate(ctx, conv.ID)
	require.NoError(t, err)

	caseID, err := svc.Submit(ctx, conv.ID)
	require.NoError(t, err)
	require.NotEmpty(t, caseID)

	c, err := st.GetCase(ctx, caseID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, c.Status)
	assert.Equal(t, "Kowalski", c.Record.Injured.LastName)
	require.NotNil(t, c.Decision)
	assert.Equal(t, model.VerdictApproved, c.Decision.Verdict)

	reloaded, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSubmitted, reloaded.State.Phase)

	// Terminal phase blocks further turns and resubmission.
	_, err = svc.Turn(ctx, conv.ID, "jeszcze jedno")
	require.Error(t, err)
	_, err = svc.Submit(ctx, conv.ID)
	require.Error(t, err)
}

func TestClaim_TwoTurnIntake(t *testing.T) {
	firstTurn := &model.TurnExtraction{
		AssistantMessage: "Przykro mi. Proszę podać dane pracodawcy i poszkodowanego.",
		Fragment: &model.Fragment{Leaves: map[string]string{
			"accident.date":        "2025-12-03",
			"accident.description": "Upadek z rusztowania na budowie około 10:30, złamany nadgarstek",
		}},
	}
	or := &fakeOracle{
		queue: []*model.TurnExtraction{firstTurn, fullExtraction()},
		fin:   metInput(),
	}
	svc, _ := newTestService(t, or)
	ctx := context.Background()

	conv, err := svc.Start(ctx)
	require.NoError(t, err)

	state, err := svc.Turn(ctx, conv.ID, "Upadłem na budowie 3.12.2025 o 10:30, spadłem z rusztowania i złamałem nadgarstek")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseCollecting, state.Phase)
	assert.Equal(t, "2025-12-03", state.Draft.Accident.Date)

	missingAfterFirst := map[string]bool{}
	for _, m := range state.Missing {
		missingAfterFirst[m.Field] = true
	}
	assert.False(t, missingAfterFirst["accident.date"])
	assert.True(t, missingAfterFirst["employer.employer_name"])
	firstCount := len(state.Missing)

	state, err = svc.Turn(ctx, conv.ID, "Pracodawca to Budimex S.A., podam wszystkie pozostałe dane...")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseReady, state.Phase)
	assert.Empty(t, state.Missing)
	assert.Less(t, len(state.Missing), firstCount)
	require.Len(t, state.History, 4)

	state, err = svc.Adjudicate(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAdjudicated, state.Phase)
	require.NotNil(t, state.Decision)
	assert.Equal(t, model.VerdictApproved, state.Decision.Verdict)
	assert.InDelta(t, 1.0, state.Decision.Confidence, 1e-9)
}
