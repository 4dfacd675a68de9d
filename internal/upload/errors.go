package upload

import "fmt"

// Phase identifies which step of the upload protocol failed. Callers use it
// to offer phase-specific guidance: a fetch failure is an asset-store problem
// on our side, a transfer failure is the platform's.
type Phase string

const (
	PhaseInitiate    Phase = "initiate"
	PhaseFetchSource Phase = "fetch_source"
	PhaseTransfer    Phase = "transfer"
	PhaseFinalize    Phase = "finalize"
)

// PhaseError reports a failure in one phase of the upload protocol.
type PhaseError struct {
	Phase   Phase
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upload %s failed (status %d): %s", e.Phase, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("upload %s failed: %s: %v", e.Phase, e.Message, e.Err)
	}
	return fmt.Sprintf("upload %s failed: %s", e.Phase, e.Message)
}

// Unwrap exposes the underlying transport error for errors.Is/As checks.
func (e *PhaseError) Unwrap() error {
	return e.Err
}
