package model

import "time"

// AccidentType classifies where the accident happened relative to work.
type AccidentType string

const (
	TypeAtWork   AccidentType = "przy_pracy"
	TypeToWork   AccidentType = "w_drodze_do_pracy"
	TypeFromWork AccidentType = "w_drodze_z_pracy"
)

// AccidentTypes lists all accident types in display order.
var AccidentTypes = []AccidentType{TypeAtWork, TypeToWork, TypeFromWork}

// AccidentSeverity grades the outcome of the accident.
type AccidentSeverity string

const (
	SeverityLight      AccidentSeverity = "lekki"
	SeveritySevere     AccidentSeverity = "ciezki"
	SeverityFatal      AccidentSeverity = "smiertelny"
	SeverityCollective AccidentSeverity = "zbiorowy"
)

// AccidentSeverities lists all severities in display order.
var AccidentSeverities = []AccidentSeverity{SeverityLight, SeveritySevere, SeverityFatal, SeverityCollective}

// CaseStatus is the lifecycle status of a persisted case.
type CaseStatus string

const (
	StatusDraft    CaseStatus = "szkic"
	StatusFiled    CaseStatus = "zlozony"
	StatusApproved CaseStatus = "zaakceptowany"
	StatusRejected CaseStatus = "odrzucony"
)

// CaseStatuses lists all statuses in display order.
var CaseStatuses = []CaseStatus{StatusDraft, StatusFiled, StatusApproved, StatusRejected}

// StatusForVerdict maps an adjudication verdict to a persisted case status.
func StatusForVerdict(v Verdict) CaseStatus {
	switch v {
	case VerdictApproved:
		return StatusApproved
	case VerdictRejected:
		return StatusRejected
	default:
		return StatusFiled
	}
}

// CaseSubmission is the all-or-nothing bundle handed to the submission
// gateway: transcript, final draft, decision and attachment descriptors.
type CaseSubmission struct {
	Messages    []ChatMessage    `json:"messages"`
	Record      *CaseRecord      `json:"record"`
	Decision    *AccidentDecision `json:"decision"`
	Narrative   string           `json:"narrative"`
	Attachments []string         `json:"attachments"`
	Type        AccidentType     `json:"accident_type"`
	Severity    AccidentSeverity `json:"accident_severity"`
}

// Case is a durably recorded, finalized claim.
type Case struct {
	ID        string            `json:"id"`
	Record    *CaseRecord       `json:"record"`
	Decision  *AccidentDecision `json:"decision"`
	Narrative string            `json:"narrative"`
	Type      AccidentType      `json:"accident_type"`
	Severity  AccidentSeverity  `json:"accident_severity"`
	Status    CaseStatus        `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// CaseFilter specifies criteria for listing persisted cases.
type CaseFilter struct {
	Status   CaseStatus       `json:"status,omitempty"`
	Type     AccidentType     `json:"accident_type,omitempty"`
	Severity AccidentSeverity `json:"accident_severity,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// StatBucket is one row of an aggregate projection: a label and a count.
type StatBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}
