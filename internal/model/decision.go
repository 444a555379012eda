package model

// Verdict is the final outcome of an adjudication.
type Verdict string

const (
	VerdictApproved           Verdict = "APPROVED"
	VerdictRejected           Verdict = "REJECTED"
	VerdictNeedsClarification Verdict = "NEEDS_CLARIFICATION"
)

// Valid reports whether v is one of the three known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictApproved, VerdictRejected, VerdictNeedsClarification:
		return true
	}
	return false
}

// FlawCategory classifies an evidentiary or legal flaw in a claim.
type FlawCategory string

const (
	FlawNoExternalCause  FlawCategory = "NO_EXTERNAL_CAUSE"
	FlawNoWorkConnection FlawCategory = "NO_WORK_CONNECTION"
	FlawIntoxication     FlawCategory = "INTOXICATION"
	FlawLackOfEvidence   FlawCategory = "LACK_OF_EVIDENCE"
	FlawLackOfSuddenness FlawCategory = "LACK_OF_SUDDENNESS"
	FlawOther            FlawCategory = "OTHER"
)

// FlawSeverity grades a flaw.
type FlawSeverity string

const (
	SeverityCritical FlawSeverity = "CRITICAL"
	SeverityWarning  FlawSeverity = "WARNING"
)

// Flaw is one identified problem with a claim.
type Flaw struct {
	Category    FlawCategory `json:"category"`
	Description string       `json:"detailed_description"`
	Severity    FlawSeverity `json:"severity"`
}

// CriterionName identifies one of the three statutory criteria.
type CriterionName string

const (
	CriterionSuddenness     CriterionName = "suddenness"
	CriterionExternalCause  CriterionName = "external_cause"
	CriterionWorkConnection CriterionName = "work_connection"
)

// CriterionResult is the engine's conclusion for one criterion.
type CriterionResult struct {
	Met           bool   `json:"met"`
	Justification string `json:"justification"`
}

// CriteriaAnalysis holds exactly the three statutory criteria.
type CriteriaAnalysis struct {
	Suddenness     CriterionResult `json:"suddenness"`
	ExternalCause  CriterionResult `json:"external_cause"`
	WorkConnection CriterionResult `json:"work_connection"`
}

// Precedent references the most similar previously adjudicated case.
type Precedent struct {
	ID         string `json:"nearest_precedent_id"`
	Similarity string `json:"similarity_to_precedent"`
}

// NoPrecedent is the explicit degraded value used when the precedent index
// is unavailable. Adjudication proceeds with it rather than failing.
var NoPrecedent = Precedent{ID: "", Similarity: "no precedent available"}

// AccidentDecision is the full adjudication result for one claim. It is
// produced fresh on every adjudication request and never mutated afterwards.
type AccidentDecision struct {
	Verdict           Verdict          `json:"verdict"`
	Confidence        float64          `json:"confidence_level"`
	Criteria          CriteriaAnalysis `json:"criteria_analysis"`
	Flaws             []Flaw           `json:"identified_flaws"`
	Precedent         Precedent        `json:"references"`
	FollowUpQuestions []string         `json:"suggested_follow_up_questions,omitempty"`
}

// HasCritical reports whether any flaw is CRITICAL.
func (d *AccidentDecision) HasCritical() bool {
	for _, f := range d.Flaws {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
