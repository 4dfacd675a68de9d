// Package credentials resolves workspace-scoped platform credentials.
//
// A workspace either supplies its own API key (BYOK) or connects a
// platform-managed OAuth token pair. The resolver hides the difference behind
// a single Resolve call and handles access-token expiry, including
// single-flight refresh so concurrent callers never trigger a refresh storm.
package credentials

import (
	"context"
	"sync"

	"github.com/haasonsaas/syndicate/pkg/models"
)

// Store persists workspace credentials keyed by (provider, workspace).
//
// Get returns (nil, nil) when no credential is stored. Put replaces the whole
// record atomically for its key; implementations must not expose a
// read-then-write window where concurrent writers can lose updates.
type Store interface {
	Get(ctx context.Context, providerID, workspaceID string) (*models.CredentialRecord, error)
	Put(ctx context.Context, providerID, workspaceID string, record *models.CredentialRecord) error
	Delete(ctx context.Context, providerID, workspaceID string) error
}

// MemoryStore keeps credentials in memory. Used in tests and single-node
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.CredentialRecord
}

// NewMemoryStore returns a new in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.CredentialRecord),
	}
}

func storeKey(providerID, workspaceID string) string {
	return providerID + ":" + workspaceID
}

// Get returns the stored record, or nil when absent.
func (s *MemoryStore) Get(ctx context.Context, providerID, workspaceID string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[storeKey(providerID, workspaceID)]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

// Put replaces the record for (provider, workspace).
func (s *MemoryStore) Put(ctx context.Context, providerID, workspaceID string, record *models.CredentialRecord) error {
	if record == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey(providerID, workspaceID)] = cloneRecord(record)
	return nil
}

// Delete removes the record for (provider, workspace).
func (s *MemoryStore) Delete(ctx context.Context, providerID, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, storeKey(providerID, workspaceID))
	return nil
}

func cloneRecord(record *models.CredentialRecord) *models.CredentialRecord {
	if record == nil {
		return nil
	}
	clone := *record
	if record.ExpiresAt != nil {
		expiry := *record.ExpiresAt
		clone.ExpiresAt = &expiry
	}
	return &clone
}
