// Package gateway is the case submission boundary: it durably records a
// finalized {transcript, draft, decision, attachments} bundle and returns
// the persisted case identifier. Submission is all-or-nothing — a failure
// leaves nothing behind and is safe to retry.
package gateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/store"
)

// Gateway accepts finalized case submissions.
type Gateway interface {
	Submit(ctx context.Context, sub model.CaseSubmission) (string, error)
}

// StoreGateway records submissions in the Store.
type StoreGateway struct {
	store store.Store
}

// New creates a store-backed Gateway.
func New(s store.Store) *StoreGateway {
	return &StoreGateway{store: s}
}

// Submit persists the bundle and returns the case ID. Errors come back as
// GatewayError so the caller keeps the conversation in ADJUDICATED and may
// retry.
func (g *StoreGateway) Submit(ctx context.Context, sub model.CaseSubmission) (string, error) {
	if sub.Record == nil || sub.Decision == nil {
		return "", &model.GatewayError{Op: "submit", Err: &model.ValidationError{Reason: "submission missing record or decision"}}
	}

	status := model.StatusForVerdict(sub.Decision.Verdict)
	c, err := g.store.InsertCase(ctx, sub, status)
	if err != nil {
		return "", &model.GatewayError{Op: "submit", Err: err}
	}

	zap.L().Info("gateway: case submitted",
		zap.String("case_id", c.ID),
		zap.String("status", string(c.Status)),
		zap.String("accident_type", string(c.Type)),
	)
	return c.ID, nil
}
