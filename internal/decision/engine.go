// Package decision evaluates a finished case draft against the three
// statutory criteria of art. 3 ustawy wypadkowej and composes the verdict.
// Semantic judgment of the free-text narrative arrives pre-computed from the
// extraction oracle; this package only composes policy.
package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wypadek/karta-cli/internal/insurance"
	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/precedent"
	"github.com/wypadek/karta-cli/internal/schema"
)

// Weights are the confidence penalties. They are a policy choice; the only
// hard requirements are monotonicity (more flaws never raise confidence) and
// that 1.0 appears only for a flawless, all-criteria-met case.
type Weights struct {
	Warning    float64 `yaml:"warning" mapstructure:"warning"`
	Critical   float64 `yaml:"critical" mapstructure:"critical"`
	Unresolved float64 `yaml:"unresolved" mapstructure:"unresolved"`
}

// DefaultWeights returns the production penalty set.
func DefaultWeights() Weights {
	return Weights{Warning: 0.1, Critical: 0.6, Unresolved: 0.15}
}

// Engine adjudicates case drafts. It never mutates the draft and produces a
// fresh decision on every call.
type Engine struct {
	reg       *schema.Registry
	index     precedent.Index
	weights   Weights
	lookupTTL time.Duration
}

// New creates an Engine. A nil index degrades every decision to the explicit
// no-precedent value.
func New(reg *schema.Registry, index precedent.Index, w Weights) *Engine {
	return &Engine{reg: reg, index: index, weights: w, lookupTTL: 10 * time.Second}
}

// Adjudicate evaluates the draft and narrative against the statutory
// criteria. The draft may be incomplete when the caller forces adjudication;
// criteria whose evidence leaves are empty are then treated as unresolved,
// biasing the verdict toward NEEDS_CLARIFICATION instead of a hard outcome.
func (e *Engine) Adjudicate(ctx context.Context, draft *model.CaseRecord, narrative string, findings model.CriteriaFindings) (*model.AccidentDecision, error) {
	if draft == nil {
		return nil, &model.SchemaViolationError{Path: "draft", Reason: "nil case record"}
	}

	// Precedent lookup runs alongside the deterministic evaluation; a slow
	// or failing index must never block the verdict.
	var ref model.Precedent
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref = e.lookupPrecedent(gCtx, draft, narrative)
		return nil
	})

	dec := e.evaluate(draft, narrative, findings)
	_ = g.Wait()
	dec.Precedent = ref

	zap.L().Info("decision: adjudicated",
		zap.String("verdict", string(dec.Verdict)),
		zap.Float64("confidence", dec.Confidence),
		zap.Int("flaws", len(dec.Flaws)),
	)
	return dec, nil
}

func (e *Engine) evaluate(draft *model.CaseRecord, narrative string, findings model.CriteriaFindings) *model.AccidentDecision {
	findings = e.groundFindings(draft, narrative, findings)

	dec := &model.AccidentDecision{
		Criteria: model.CriteriaAnalysis{
			Suddenness:     result(findings.Suddenness),
			ExternalCause:  result(findings.ExternalCause),
			WorkConnection: result(findings.WorkConnection),
		},
	}

	// A title that resolves to no accident insurance cannot support an
	// approval; flag it and let the claimant clarify their coverage.
	if basis, ok := insurance.BasisForCode(draft.Injured.InsuranceTitle.Code); ok {
		if res, err := insurance.Resolve(basis, draft.Injured.IsStudent == "true"); err == nil && !res.Covered {
			dec.Flaws = append(dec.Flaws, model.Flaw{
				Category:    model.FlawNoWorkConnection,
				Description: res.Note,
				Severity:    model.SeverityWarning,
			})
			dec.FollowUpQuestions = append(dec.FollowUpQuestions,
				"Czy poszkodowany podlegał ubezpieczeniu wypadkowemu w dniu zdarzenia?")
		}
	}

	// Rule 1 cannot be evaluated without a sobriety statement; flag the gap
	// so a draft missing it never approves outright.
	if strings.TrimSpace(draft.Sobriety.WasIntoxicated) == "" {
		dec.Flaws = append(dec.Flaws, model.Flaw{
			Category:    model.FlawLackOfEvidence,
			Description: "Brak informacji o stanie trzeźwości poszkodowanego w chwili wypadku.",
			Severity:    model.SeverityWarning,
		})
		dec.FollowUpQuestions = append(dec.FollowUpQuestions,
			"Czy poszkodowany był trzeźwy w chwili wypadku?")
	}

	// Rule 1: intoxication without corroborating evidence is disqualifying.
	if draft.Sobriety.WasIntoxicated == "true" && strings.TrimSpace(draft.Sobriety.EvidenceDescription) == "" {
		dec.Flaws = append(dec.Flaws, model.Flaw{
			Category:    model.FlawIntoxication,
			Description: "Stwierdzono stan nietrzeźwości bez dowodów przyczynienia się do wypadku.",
			Severity:    model.SeverityCritical,
		})
		dec.Verdict = model.VerdictRejected
		dec.Confidence = e.confidence(dec, findings)
		return dec
	}

	// Rule 2: any confidently unmet criterion rejects the claim.
	unmet := false
	for _, c := range []struct {
		name    model.CriterionName
		finding model.CriterionFinding
		flaw    model.FlawCategory
	}{
		{model.CriterionSuddenness, findings.Suddenness, model.FlawLackOfSuddenness},
		{model.CriterionExternalCause, findings.ExternalCause, model.FlawNoExternalCause},
		{model.CriterionWorkConnection, findings.WorkConnection, model.FlawNoWorkConnection},
	} {
		if c.finding.Known && !c.finding.Met {
			unmet = true
			dec.Flaws = append(dec.Flaws, model.Flaw{
				Category:    c.flaw,
				Description: fmt.Sprintf("Kryterium %s nie zostało spełnione: %s", c.name, c.finding.Justification),
				Severity:    model.SeverityCritical,
			})
		}
	}
	if unmet {
		dec.Verdict = model.VerdictRejected
		dec.Confidence = e.confidence(dec, findings)
		return dec
	}

	// Rule 3: all three confidently met and nothing flagged — approve.
	if findings.Suddenness.Known && findings.Suddenness.Met &&
		findings.ExternalCause.Known && findings.ExternalCause.Met &&
		findings.WorkConnection.Known && findings.WorkConnection.Met &&
		len(dec.Flaws) == 0 {
		dec.Verdict = model.VerdictApproved
		dec.Confidence = e.confidence(dec, findings)
		return dec
	}

	// Rule 4: thin or unresolved evidence asks for clarification.
	for _, c := range []struct {
		name    model.CriterionName
		finding model.CriterionFinding
	}{
		{model.CriterionSuddenness, findings.Suddenness},
		{model.CriterionExternalCause, findings.ExternalCause},
		{model.CriterionWorkConnection, findings.WorkConnection},
	} {
		if !c.finding.Known {
			dec.Flaws = append(dec.Flaws, model.Flaw{
				Category:    model.FlawLackOfEvidence,
				Description: fmt.Sprintf("Brak wystarczających dowodów dla kryterium %s.", c.name),
				Severity:    model.SeverityWarning,
			})
			dec.FollowUpQuestions = append(dec.FollowUpQuestions, clarifyingQuestion(c.name))
		}
	}
	dec.Verdict = model.VerdictNeedsClarification
	dec.Confidence = e.confidence(dec, findings)
	return dec
}

// groundFindings forces a criterion to unresolved when its evidence leaves
// in the draft are empty, regardless of what the oracle claimed. This is
// the NEEDS_CLARIFICATION bias for forced adjudication of incomplete
// drafts.
func (e *Engine) groundFindings(draft *model.CaseRecord, narrative string, f model.CriteriaFindings) model.CriteriaFindings {
	if strings.TrimSpace(draft.Accident.Description) == "" && strings.TrimSpace(narrative) == "" {
		f.Suddenness.Known = false
	}
	// An external cause reported present with no causal factor anywhere in
	// the draft is an oracle overreach; demand the evidence.
	if f.ExternalCause.Known && f.ExternalCause.Met &&
		strings.TrimSpace(draft.Accident.Cause) == "" && strings.TrimSpace(draft.Accident.Description) == "" {
		f.ExternalCause.Known = false
	}
	if f.WorkConnection.Known && f.WorkConnection.Met &&
		strings.TrimSpace(draft.Injured.InsuranceTitle.Code) == "" &&
		strings.TrimSpace(draft.Accident.LegalQualification.LegalBasis) == "" {
		f.WorkConnection.Known = false
	}
	return f
}

// confidence starts at 1.0 and subtracts per-flaw and per-unresolved
// penalties, clamped to [0,1].
func (e *Engine) confidence(dec *model.AccidentDecision, findings model.CriteriaFindings) float64 {
	score := 1.0
	for _, fl := range dec.Flaws {
		switch fl.Severity {
		case model.SeverityCritical:
			score -= e.weights.Critical
		case model.SeverityWarning:
			score -= e.weights.Warning
		}
	}
	for _, c := range []model.CriterionFinding{findings.Suddenness, findings.ExternalCause, findings.WorkConnection} {
		if !c.Known {
			score -= e.weights.Unresolved
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (e *Engine) lookupPrecedent(ctx context.Context, draft *model.CaseRecord, narrative string) model.Precedent {
	if e.index == nil {
		return model.NoPrecedent
	}
	ctx, cancel := context.WithTimeout(ctx, e.lookupTTL)
	defer cancel()

	ref, err := e.index.Nearest(ctx, draft, narrative)
	if err != nil {
		zap.L().Warn("decision: precedent lookup failed, degrading", zap.Error(err))
		return model.NoPrecedent
	}
	return ref
}

func result(f model.CriterionFinding) model.CriterionResult {
	just := f.Justification
	if !f.Known && just == "" {
		just = "Brak wystarczających danych do oceny kryterium."
	}
	return model.CriterionResult{Met: f.Known && f.Met, Justification: just}
}

func clarifyingQuestion(name model.CriterionName) string {
	switch name {
	case model.CriterionSuddenness:
		return "O której dokładnie godzinie i którego dnia doszło do zdarzenia?"
	case model.CriterionExternalCause:
		return "Co było bezpośrednią, zewnętrzną przyczyną urazu?"
	default:
		return "Jakie obowiązki służbowe wykonywał poszkodowany w chwili zdarzenia?"
	}
}
