package model

// Fragment is the structured part of an oracle reply: leaf values keyed by
// dotted path, plus the list-shaped sections that are not scalar leaves.
// WitnessesConfirmed distinguishes "the user said there were no witnesses"
// from "the witness list was never mentioned".
type Fragment struct {
	Leaves             map[string]string `json:"leaves"`
	Witnesses          []Witness         `json:"witnesses"`
	WitnessesConfirmed bool              `json:"witnesses_confirmed"`
	Attachments        []string          `json:"attachments"`
}

// TurnExtraction is one validated oracle turn result. It only exists after
// the oracle reply passed the shape check; raw oracle output never reaches
// the slot filler.
type TurnExtraction struct {
	AssistantMessage string         `json:"assistant_message"`
	Missing          []MissingField `json:"missing_fields"`
	FollowUps        []string       `json:"follow_up_questions"`
	Fragment         *Fragment      `json:"collected_data_summary,omitempty"`
}

// CriterionFinding is the oracle's semantic judgment of one statutory
// criterion. Known=false means the narrative gave no confident basis either
// way; the decision engine then treats the criterion as unresolved instead
// of unmet.
type CriterionFinding struct {
	Met           bool   `json:"met"`
	Known         bool   `json:"known"`
	Justification string `json:"justification"`
}

// CriteriaFindings carries the three pre-computed criterion judgments into
// the decision engine, which composes policy but never interprets free text.
type CriteriaFindings struct {
	Suddenness     CriterionFinding `json:"suddenness"`
	ExternalCause  CriterionFinding `json:"external_cause"`
	WorkConnection CriterionFinding `json:"work_connection"`
}

// AdjudicationInput is the oracle's best-effort final extraction: the draft
// fragment, a free-text narrative of the whole claim, and the criteria
// judgments.
type AdjudicationInput struct {
	Fragment  *Fragment        `json:"fragment"`
	Narrative string           `json:"narrative"`
	Criteria  CriteriaFindings `json:"criteria"`
}
