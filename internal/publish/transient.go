package publish

import (
	"context"
	"errors"
	"net"
	"strings"
)

// transientFragments are substrings that mark an error as a transport-level
// failure rather than a platform rejection.
var transientFragments = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
	"temporary failure",
	"EOF",
}

// IsTransient reports whether an error is a timeout or connection failure
// that the caller may retry. The orchestrator itself never retries: publish
// is not idempotent and a blind retry can double-post.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	for _, fragment := range transientFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
