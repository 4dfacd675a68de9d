// Package connectors defines the uniform contract every publishing platform
// adapter must satisfy, plus the static registry over the closed connector
// set. The rest of the system talks to platforms exclusively through this
// contract; platform protocols, limits, and failure modes stay inside each
// adapter.
package connectors

import (
	"context"

	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/pkg/models"
)

// Connector is the interface all platform adapters implement.
type Connector interface {
	// Platform returns the platform this connector serves.
	Platform() models.Platform

	// ValidateToken performs a cheap liveness check against the platform.
	// It never returns an error; any failure reports false.
	ValidateToken(ctx context.Context, cred *credentials.Credential) bool

	// DryRun validates content offline (character limits, format rules) and
	// folds in the token validity from ValidateToken. It must not perform a
	// publish side effect.
	DryRun(ctx context.Context, content *models.Content, cred *credentials.Credential) *models.DryRunResult

	// Publish performs the real side-effecting call. Connectors never retry
	// internally: a blind retry can double-post, so retries are the caller's
	// decision.
	Publish(ctx context.Context, content *models.Content, cred *credentials.Credential) (*models.PublishResult, error)
}

// Registry holds the closed, statically known connector set.
type Registry struct {
	connectors map[models.Platform]Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[models.Platform]Connector),
	}
}

// Register adds a connector to the registry.
func (r *Registry) Register(c Connector) {
	r.connectors[c.Platform()] = c
}

// Get returns the connector for a platform.
func (r *Registry) Get(platform models.Platform) (Connector, bool) {
	c, ok := r.connectors[platform]
	return c, ok
}

// All returns every registered connector.
func (r *Registry) All() []Connector {
	all := make([]Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		all = append(all, c)
	}
	return all
}
