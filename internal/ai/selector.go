package ai

import (
	"context"
	"errors"

	"github.com/haasonsaas/syndicate/internal/credentials"
)

// CredentialResolver resolves a usable credential for a provider, or reports
// credentials.ErrNotConfigured.
type CredentialResolver interface {
	Resolve(ctx context.Context, providerID, workspaceID string) (*credentials.Credential, error)
}

// Selector picks the first provider in priority order whose credential
// resolves for the workspace.
type Selector struct {
	resolver CredentialResolver
}

// NewSelector creates a provider selector.
func NewSelector(resolver CredentialResolver) *Selector {
	return &Selector{resolver: resolver}
}

// Select returns the highest-priority configured provider and its credential.
// When no provider is configured it reports credentials.ErrNotConfigured.
func (s *Selector) Select(ctx context.Context, workspaceID string) (ProviderID, *credentials.Credential, error) {
	for _, id := range Priority {
		cred, err := s.resolver.Resolve(ctx, string(id), workspaceID)
		if err != nil {
			if errors.Is(err, credentials.ErrNotConfigured) {
				continue
			}
			return "", nil, err
		}
		return id, cred, nil
	}
	return "", nil, credentials.ErrNotConfigured
}
