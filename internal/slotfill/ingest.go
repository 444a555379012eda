// Package slotfill owns the conversation state machine that assembles a
// case record across turns: it merges validated oracle extractions into the
// draft, recomputes what is still missing, and never asks twice for data the
// claimant already gave.
package slotfill

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
)

// Filler is the conversation state machine. It holds no per-conversation
// state; every operation takes a ConversationState and returns a new one, so
// identical inputs always produce identical outputs.
type Filler struct {
	reg    *schema.Registry
	policy MergePolicy
}

// New creates a Filler over the given registry. An unknown policy falls back
// to LastNonEmptyWins.
func New(reg *schema.Registry, policy MergePolicy) *Filler {
	if policy != FirstWins {
		policy = LastNonEmptyWins
	}
	return &Filler{reg: reg, policy: policy}
}

// Registry exposes the schema the filler was built over.
func (f *Filler) Registry() *schema.Registry {
	return f.reg
}

// IngestTurn applies one conversation turn. On any validation failure the
// prior state is returned unchanged alongside the error — a turn is applied
// in full or not at all.
func (f *Filler) IngestTurn(prior *model.ConversationState, userText string, ext *model.TurnExtraction) (*model.ConversationState, error) {
	if prior.Phase == model.PhaseSubmitted {
		return prior, eris.New("slotfill: conversation already submitted")
	}
	if err := f.validateExtraction(ext); err != nil {
		return prior, err
	}

	next := prior.Clone()
	f.mergeFragment(next.Draft, ext.Fragment)

	next.Missing = f.recomputeMissing(next.Draft, ext.Missing)
	next.FollowUps = dedupQuestions(append(append([]string(nil), prior.FollowUps...), ext.FollowUps...))

	if userText != "" {
		next.History = append(next.History, model.ChatMessage{Role: "user", Content: userText})
	}
	next.History = append(next.History, model.ChatMessage{Role: "assistant", Content: ext.AssistantMessage})

	next.Phase = nextPhase(prior.Phase, f.hasRequiredGap(next.Missing))

	zap.L().Debug("slotfill: turn ingested",
		zap.String("conversation", next.ID),
		zap.Int("missing", len(next.Missing)),
		zap.String("phase", string(next.Phase)),
	)
	return next, nil
}

// AbsorbFinal folds the adjudication-time best-effort fragment into the
// draft. History and follow-ups are untouched; only the draft and the
// missing list move. Unknown leaf paths reject the whole fragment.
func (f *Filler) AbsorbFinal(prior *model.ConversationState, frag *model.Fragment) (*model.ConversationState, error) {
	if prior.Phase == model.PhaseSubmitted {
		return prior, eris.New("slotfill: conversation already submitted")
	}
	if frag != nil {
		for path := range frag.Leaves {
			if f.reg.Lookup(path) == nil {
				return prior, &model.ValidationError{Field: path, Reason: "unregistered leaf path in fragment"}
			}
		}
	}
	next := prior.Clone()
	f.mergeFragment(next.Draft, frag)
	next.Missing = f.recomputeMissing(next.Draft, nil)
	return next, nil
}

// MarkAdjudicated records the decision and advances the state.
func (f *Filler) MarkAdjudicated(prior *model.ConversationState, dec *model.AccidentDecision, narrative string) (*model.ConversationState, error) {
	if prior.Phase == model.PhaseSubmitted {
		return prior, eris.New("slotfill: conversation already submitted")
	}
	if dec == nil {
		return prior, eris.New("slotfill: cannot mark adjudicated without a decision")
	}
	next := prior.Clone()
	next.Phase = model.PhaseAdjudicated
	next.Decision = dec
	next.Narrative = narrative
	return next, nil
}

// MarkSubmitted advances to the terminal phase. Only an adjudicated
// conversation can be submitted.
func (f *Filler) MarkSubmitted(prior *model.ConversationState) (*model.ConversationState, error) {
	if prior.Phase != model.PhaseAdjudicated {
		return prior, eris.Errorf("slotfill: cannot submit from phase %s", prior.Phase)
	}
	next := prior.Clone()
	next.Phase = model.PhaseSubmitted
	return next, nil
}

// validateExtraction runs before any merge: malformed oracle output rejects
// the whole turn. Unknown leaf paths in the fragment are structural
// failures; they never reach the merge.
func (f *Filler) validateExtraction(ext *model.TurnExtraction) error {
	if ext == nil {
		return &model.ValidationError{Reason: "nil extraction result"}
	}
	if strings.TrimSpace(ext.AssistantMessage) == "" {
		return &model.ValidationError{Field: "assistant_message", Reason: "empty"}
	}
	for _, m := range ext.Missing {
		if strings.TrimSpace(m.Field) == "" {
			return &model.ValidationError{Field: "missing_fields", Reason: "entry with empty field path"}
		}
	}
	if ext.Fragment != nil {
		for path := range ext.Fragment.Leaves {
			if f.reg.Lookup(path) == nil {
				return &model.ValidationError{Field: path, Reason: "unregistered leaf path in fragment"}
			}
		}
	}
	return nil
}

// recomputeMissing builds the authoritative missing list: required paths
// still empty in the merged draft, in schema order, then any registered
// extraction-declared entries not already satisfied. Duplicates collapse by
// normalized path, first-seen reason wins.
func (f *Filler) recomputeMissing(draft *model.CaseRecord, declared []model.MissingField) []model.MissingField {
	seen := make(map[string]bool)
	var out []model.MissingField

	for _, path := range f.reg.RequiredPaths() {
		value, _ := f.reg.Get(draft, path)
		if strings.TrimSpace(value) != "" {
			continue
		}
		norm := schema.NormalizePath(path)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		desc, _ := f.reg.Describe(path)
		entry := model.MissingField{Field: path, Reason: desc.Description, Example: desc.Example}
		// An extraction-declared reason for the same path is more specific
		// than the schema description; prefer it.
		for _, d := range declared {
			if schema.NormalizePath(d.Field) == norm {
				if d.Reason != "" {
					entry.Reason = d.Reason
				}
				if d.Example != "" {
					entry.Example = d.Example
				}
				break
			}
		}
		out = append(out, entry)
	}

	for _, d := range declared {
		leaf := f.reg.Lookup(d.Field)
		if leaf == nil {
			zap.L().Warn("slotfill: dropping missing entry for unregistered path",
				zap.String("path", d.Field),
			)
			continue
		}
		norm := schema.NormalizePath(d.Field)
		if seen[norm] {
			continue
		}
		value, _ := f.reg.Get(draft, leaf.Path)
		if strings.TrimSpace(value) != "" {
			continue // already satisfied, never re-ask
		}
		seen[norm] = true
		out = append(out, model.MissingField{Field: leaf.Path, Reason: d.Reason, Example: d.Example})
	}

	return out
}

// hasRequiredGap reports whether any missing entry addresses a required
// leaf. Declared-but-optional gaps stay on the list for the caller to
// surface, but they never drive the phase.
func (f *Filler) hasRequiredGap(missing []model.MissingField) bool {
	for _, m := range missing {
		if leaf := f.reg.Lookup(m.Field); leaf != nil && leaf.Required {
			return true
		}
	}
	return false
}

// nextPhase applies the monotonic phase rules: no remaining required gap
// moves COLLECTING forward to READY; a genuinely new required gap pulls
// READY or ADJUDICATED back to COLLECTING; SUBMITTED never changes.
func nextPhase(prior model.Phase, requiredGap bool) model.Phase {
	switch prior {
	case model.PhaseCollecting:
		if !requiredGap {
			return model.PhaseReady
		}
		return model.PhaseCollecting
	case model.PhaseReady, model.PhaseAdjudicated:
		if requiredGap {
			return model.PhaseCollecting
		}
		return prior
	default:
		return prior
	}
}
