package connectors

import (
	"fmt"

	"github.com/haasonsaas/syndicate/pkg/models"
)

// ValidationError indicates content failed a platform's offline constraints.
// It never reaches the network.
type ValidationError struct {
	Platform models.Platform
	Checks   models.DryRunChecks
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] validation failed: %s", e.Platform, e.Message)
}

// PlatformError indicates the platform rejected a call. Code carries the
// platform's machine-readable error code when one was returned; it is never
// collapsed into a generic message.
type PlatformError struct {
	Platform models.Platform
	Status   int
	Code     string
	Message  string
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] platform error %d (%s): %s", e.Platform, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] platform error %d: %s", e.Platform, e.Status, e.Message)
}
