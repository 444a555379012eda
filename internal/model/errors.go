package model

import "fmt"

// ValidationError signals that an oracle reply failed the shape or schema
// check. The turn is rejected and the prior conversation state is preserved.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// SchemaViolationError signals use of an unregistered field path, or an
// adjudication attempt against a draft with critical evidence entirely
// absent. Adjudication downgrades to NEEDS_CLARIFICATION rather than failing.
type SchemaViolationError struct {
	Path   string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation: %s: %s", e.Path, e.Reason)
}

// GatewayError wraps a submission or precedent-lookup failure. It is
// surfaced to the caller verbatim; the conversation stays ADJUDICATED and
// the submission is safe to retry.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
