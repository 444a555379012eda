// Package claim orchestrates one claim's lifecycle across the collaborators:
// store, extraction oracle, slot filler, decision engine and submission
// gateway. All writes to a conversation are serialized per conversation ID.
package claim

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/decision"
	"github.com/wypadek/karta-cli/internal/gateway"
	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/oracle"
	"github.com/wypadek/karta-cli/internal/slotfill"
	"github.com/wypadek/karta-cli/internal/store"
)

// Service runs the claim pipeline.
type Service struct {
	store  store.Store
	oracle oracle.Oracle
	filler *slotfill.Filler
	engine *decision.Engine
	gw     gateway.Gateway

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New assembles the service from its collaborators.
func New(st store.Store, or oracle.Oracle, filler *slotfill.Filler, eng *decision.Engine, gw gateway.Gateway) *Service {
	return &Service{
		store:  st,
		oracle: or,
		filler: filler,
		engine: eng,
		gw:     gw,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lock returns the mutex serializing writes to one conversation.
func (s *Service) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Start creates a fresh conversation in COLLECTING phase.
func (s *Service) Start(ctx context.Context) (*model.Conversation, error) {
	conv, err := s.store.CreateConversation(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "claim: create conversation")
	}
	zap.L().Info("conversation started", zap.String("conversation", conv.ID))
	return conv, nil
}

// Get loads a conversation.
func (s *Service) Get(ctx context.Context, id string) (*model.Conversation, error) {
	return s.store.GetConversation(ctx, id)
}

// Turn runs one user turn: oracle extraction, validation, merge, persist.
// On any failure the stored state is left untouched.
func (s *Service) Turn(ctx context.Context, id, userText string) (*model.ConversationState, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, &model.ValidationError{Field: "message", Reason: "empty user message"}
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	state := conv.State
	if state.Phase == model.PhaseSubmitted {
		return state, eris.New("claim: conversation already submitted")
	}

	prompt := append(append([]model.ChatMessage(nil), state.History...),
		model.ChatMessage{Role: "user", Content: userText})

	ext, err := s.oracle.Turn(ctx, prompt)
	if err != nil {
		return state, err
	}

	next, err := s.filler.IngestTurn(state, userText, ext)
	if err != nil {
		return state, err
	}

	conv.State = next
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return state, err
	}
	return next, nil
}

// Adjudicate finalizes the draft and produces the decision. The
// conversation must be READY; forced adjudication of an incomplete draft
// goes through Force instead.
func (s *Service) Adjudicate(ctx context.Context, id string) (*model.ConversationState, error) {
	return s.adjudicate(ctx, id, false)
}

// Force adjudicates despite remaining required gaps. Unresolved criteria
// bias the outcome toward NEEDS_CLARIFICATION.
func (s *Service) Force(ctx context.Context, id string) (*model.ConversationState, error) {
	return s.adjudicate(ctx, id, true)
}

func (s *Service) adjudicate(ctx context.Context, id string, force bool) (*model.ConversationState, error) {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	state := conv.State

	switch state.Phase {
	case model.PhaseSubmitted:
		return state, eris.New("claim: conversation already submitted")
	case model.PhaseCollecting:
		if !force {
			return state, eris.Errorf("claim: %d required fields still missing", len(state.Missing))
		}
	}

	fin, err := s.oracle.Finalize(ctx, state.History)
	if err != nil {
		return state, err
	}

	next, err := s.filler.AbsorbFinal(state, fin.Fragment)
	if err != nil {
		return state, err
	}

	dec, err := s.engine.Adjudicate(ctx, next.Draft, fin.Narrative, fin.Criteria)
	if err != nil {
		return state, err
	}

	next, err = s.filler.MarkAdjudicated(next, dec, fin.Narrative)
	if err != nil {
		return state, err
	}

	conv.State = next
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return state, err
	}

	zap.L().Info("conversation adjudicated",
		zap.String("conversation", id),
		zap.String("verdict", string(dec.Verdict)),
		zap.Float64("confidence", dec.Confidence),
		zap.Bool("forced", force),
	)
	return next, nil
}

// Submit hands the adjudicated claim to the gateway as one all-or-nothing
// bundle and moves the conversation to its terminal phase.
func (s *Service) Submit(ctx context.Context, id string) (string, error) {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return "", err
	}
	state := conv.State

	next, err := s.filler.MarkSubmitted(state)
	if err != nil {
		return "", err
	}

	sub := model.CaseSubmission{
		Messages:    state.History,
		Record:      state.Draft,
		Decision:    state.Decision,
		Narrative:   state.Narrative,
		Attachments: state.Draft.MetaProcess.Attachments,
		Type:        decision.DeriveAccidentType(state.Draft, state.Narrative),
		Severity:    decision.DeriveSeverity(state.Draft, state.Narrative),
	}

	caseID, err := s.gw.Submit(ctx, sub)
	if err != nil {
		return "", err
	}

	conv.State = next
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		// The case is durably recorded; a failed phase write must not
		// hide that from the caller.
		zap.L().Error("conversation phase write failed after submission",
			zap.String("conversation", id),
			zap.String("case", caseID),
			zap.Error(err),
		)
	}

	zap.L().Info("claim submitted",
		zap.String("conversation", id),
		zap.String("case", caseID),
	)
	return caseID, nil
}
