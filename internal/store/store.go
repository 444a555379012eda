// Package store persists conversations-in-progress and finalized cases,
// with SQLite and Postgres backends behind one interface.
package store

import (
	"context"
	"errors"

	"github.com/wypadek/karta-cli/internal/model"
)

// ErrNotFound reports a missing conversation or case.
var ErrNotFound = errors.New("not found")

// StatDimension selects which aggregate projection CountCases computes.
type StatDimension string

const (
	ByType     StatDimension = "accident_type"
	BySeverity StatDimension = "accident_severity"
	ByStatus   StatDimension = "status"
)

// Store defines persistence for the claim pipeline.
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context) (*model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	SaveConversation(ctx context.Context, conv *model.Conversation) error

	// Finalized cases
	InsertCase(ctx context.Context, sub model.CaseSubmission, status model.CaseStatus) (*model.Case, error)
	GetCase(ctx context.Context, id string) (*model.Case, error)
	ListCases(ctx context.Context, filter model.CaseFilter) ([]model.Case, error)
	CountCases(ctx context.Context, dim StatDimension) ([]model.StatBucket, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
