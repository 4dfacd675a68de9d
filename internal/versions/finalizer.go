// Package versions tracks content versions and enforces that each content
// item has exactly one final version. Publishing pipelines race on marking a
// version final, so the promotion is a demote-then-promote step executed
// atomically by every implementation.
package versions

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrVersionNotFound is returned when a version id does not exist for the
// content item.
var ErrVersionNotFound = errors.New("content version not found")

// Version is one revision of a content item.
type Version struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	Label     string    `json:"label"`
	Final     bool      `json:"final"`
	CreatedAt time.Time `json:"createdAt"`
}

// Finalizer promotes one version of a content item to final. After MarkFinal
// returns, the named version is the only final version for that content item
// regardless of how many were final before or how many callers raced.
type Finalizer interface {
	MarkFinal(ctx context.Context, contentID, versionID string) error
	FinalVersion(ctx context.Context, contentID string) (*Version, error)
}

// MemoryStore is an in-memory version store for tests and single-node use.
type MemoryStore struct {
	mu       sync.Mutex
	versions map[string]map[string]*Version // contentID -> versionID -> version
}

// NewMemoryStore creates an empty version store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]map[string]*Version)}
}

// Add records a new version.
func (s *MemoryStore) Add(ctx context.Context, v *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.versions[v.ContentID]
	if !ok {
		byID = make(map[string]*Version)
		s.versions[v.ContentID] = byID
	}
	clone := *v
	byID[v.ID] = &clone
	return nil
}

// MarkFinal implements Finalizer. Demotion and promotion happen under one
// lock acquisition, so two racing calls serialize and the loser's winner
// stands demoted.
func (s *MemoryStore) MarkFinal(ctx context.Context, contentID, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.versions[contentID]
	if !ok {
		return ErrVersionNotFound
	}
	target, ok := byID[versionID]
	if !ok {
		return ErrVersionNotFound
	}
	for _, v := range byID {
		v.Final = false
	}
	target.Final = true
	return nil
}

// FinalVersion implements Finalizer.
func (s *MemoryStore) FinalVersion(ctx context.Context, contentID string) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[contentID] {
		if v.Final {
			clone := *v
			return &clone, nil
		}
	}
	return nil, ErrVersionNotFound
}

// List returns all versions of a content item.
func (s *MemoryStore) List(ctx context.Context, contentID string) ([]*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Version
	for _, v := range s.versions[contentID] {
		clone := *v
		out = append(out, &clone)
	}
	return out, nil
}
