package model

import "time"

// Phase is the slot filler's conversation phase. Transitions only move
// forward: COLLECTING → READY → ADJUDICATED → SUBMITTED, except that a newly
// discovered required gap returns READY/ADJUDICATED to COLLECTING.
type Phase string

const (
	PhaseCollecting  Phase = "COLLECTING"
	PhaseReady       Phase = "READY"
	PhaseAdjudicated Phase = "ADJUDICATED"
	PhaseSubmitted   Phase = "SUBMITTED"
)

// ChatMessage is one turn of the conversation transcript.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// MissingField describes one required leaf the draft still lacks.
type MissingField struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Example string `json:"example,omitempty"`
}

// ConversationState is the complete, explicitly-passed state of one claim
// conversation. Every slot filler operation takes a state and returns a new
// one; nothing is hidden, so the same inputs always produce the same outputs.
type ConversationState struct {
	ID        string         `json:"id"`
	Draft     *CaseRecord    `json:"draft"`
	Missing   []MissingField `json:"missing"`
	FollowUps []string       `json:"follow_ups"`
	History   []ChatMessage  `json:"history"`
	Phase     Phase          `json:"phase"`

	// Set once the conversation reaches ADJUDICATED.
	Decision  *AccidentDecision `json:"decision,omitempty"`
	Narrative string            `json:"narrative,omitempty"`
}

// NewConversationState returns an empty COLLECTING state for a fresh claim.
func NewConversationState(id string) *ConversationState {
	return &ConversationState{
		ID:    id,
		Draft: &CaseRecord{},
		Phase: PhaseCollecting,
	}
}

// Clone returns a deep copy so callers can merge without aliasing the prior
// state (a rejected turn must return the prior state untouched).
func (s *ConversationState) Clone() *ConversationState {
	out := *s
	out.Draft = s.Draft.Clone()
	out.Missing = append([]MissingField(nil), s.Missing...)
	out.FollowUps = append([]string(nil), s.FollowUps...)
	out.History = append([]ChatMessage(nil), s.History...)
	return &out
}

// Conversation is the persisted envelope around a ConversationState.
type Conversation struct {
	ID        string             `json:"id"`
	State     *ConversationState `json:"state"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
