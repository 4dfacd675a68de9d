// Package channels keeps per-workspace connection bookkeeping: which
// platform accounts are connected, when they last published, and what their
// token health looks like.
package channels

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/syndicate/pkg/models"
)

// ErrChannelNotFound is returned when no matching channel exists.
var ErrChannelNotFound = errors.New("channel not found")

// Store persists channel records.
type Store interface {
	Put(ctx context.Context, ch *models.Channel) error
	Get(ctx context.Context, id string) (*models.Channel, error)
	List(ctx context.Context, workspaceID string) ([]*models.Channel, error)
	FindActive(ctx context.Context, workspaceID string, platform models.Platform, accountID string) (*models.Channel, error)
	Delete(ctx context.Context, id string) error
}

// Service owns the channel lifecycle. At most one channel is active per
// (workspace, platform, account) tuple; connecting again deactivates the
// previous one instead of failing.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// connectMu serializes Connect: find-active and the two writes must not
	// interleave with another Connect for the same tuple, or both channels
	// end up active.
	connectMu sync.Mutex
}

// NewService creates a channel service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "channels"),
		now:    time.Now,
	}
}

// ConnectRequest carries the outcome of a completed OAuth/connect flow.
type ConnectRequest struct {
	WorkspaceID    string
	Platform       models.Platform
	Tier           string
	DisplayName    string
	AccountID      string
	TokenExpiresAt *time.Time
}

// Connect records a newly connected account. An existing active channel for
// the same tuple is deactivated first.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) (*models.Channel, error) {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	if prev, err := s.store.FindActive(ctx, req.WorkspaceID, req.Platform, req.AccountID); err == nil {
		prev.Active = false
		if err := s.store.Put(ctx, prev); err != nil {
			return nil, err
		}
		s.logger.Info("deactivated superseded channel", "channel_id", prev.ID, "platform", prev.Platform)
	} else if !errors.Is(err, ErrChannelNotFound) {
		return nil, err
	}

	ch := &models.Channel{
		ID:             uuid.NewString(),
		WorkspaceID:    req.WorkspaceID,
		Platform:       req.Platform,
		Tier:           req.Tier,
		DisplayName:    req.DisplayName,
		AccountID:      req.AccountID,
		Active:         true,
		ConnectedAt:    s.now().UTC(),
		TokenExpiresAt: req.TokenExpiresAt,
	}
	if err := s.store.Put(ctx, ch); err != nil {
		return nil, err
	}
	s.logger.Info("channel connected", "channel_id", ch.ID, "platform", ch.Platform, "workspace_id", ch.WorkspaceID)
	return ch, nil
}

// Disconnect removes a channel.
func (s *Service) Disconnect(ctx context.Context, channelID string) error {
	if err := s.store.Delete(ctx, channelID); err != nil {
		return err
	}
	s.logger.Info("channel disconnected", "channel_id", channelID)
	return nil
}

// RecordPublish stamps a successful publish on the active channel and clears
// any previous error.
func (s *Service) RecordPublish(ctx context.Context, workspaceID string, platform models.Platform) {
	ch, err := s.findAnyActive(ctx, workspaceID, platform)
	if err != nil {
		return
	}
	now := s.now().UTC()
	ch.LastPublishedAt = &now
	ch.LastError = ""
	if err := s.store.Put(ctx, ch); err != nil {
		s.logger.Warn("failed to record publish", "channel_id", ch.ID, "error", err)
	}
}

// RecordError stamps a failed publish on the active channel.
func (s *Service) RecordError(ctx context.Context, workspaceID string, platform models.Platform, message string) {
	ch, err := s.findAnyActive(ctx, workspaceID, platform)
	if err != nil {
		return
	}
	ch.LastError = message
	if err := s.store.Put(ctx, ch); err != nil {
		s.logger.Warn("failed to record error", "channel_id", ch.ID, "error", err)
	}
}

// RecordTokenRefresh stamps a new token expiry on the active channel.
func (s *Service) RecordTokenRefresh(ctx context.Context, workspaceID string, platform models.Platform, expiresAt time.Time) {
	ch, err := s.findAnyActive(ctx, workspaceID, platform)
	if err != nil {
		return
	}
	ch.TokenExpiresAt = &expiresAt
	if err := s.store.Put(ctx, ch); err != nil {
		s.logger.Warn("failed to record token refresh", "channel_id", ch.ID, "error", err)
	}
}

// ChannelView is a channel plus its derived token health.
type ChannelView struct {
	models.Channel
	TokenHealth models.TokenHealth `json:"tokenHealth"`
}

// List returns a workspace's channels with token health computed against the
// current time.
func (s *Service) List(ctx context.Context, workspaceID string) ([]ChannelView, error) {
	all, err := s.store.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]ChannelView, 0, len(all))
	for _, ch := range all {
		views = append(views, ChannelView{
			Channel:     *ch,
			TokenHealth: ch.TokenHealth(now),
		})
	}
	return views, nil
}

func (s *Service) findAnyActive(ctx context.Context, workspaceID string, platform models.Platform) (*models.Channel, error) {
	all, err := s.store.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for _, ch := range all {
		if ch.Platform == platform && ch.Active {
			return ch, nil
		}
	}
	return nil, ErrChannelNotFound
}

// MemoryStore is an in-memory channel store.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[string]*models.Channel
}

// NewMemoryStore creates an empty channel store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{channels: make(map[string]*models.Channel)}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, ch *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *ch
	s.channels[ch.ID] = &clone
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, ErrChannelNotFound
	}
	clone := *ch
	return &clone, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, workspaceID string) ([]*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Channel
	for _, ch := range s.channels {
		if ch.WorkspaceID == workspaceID {
			clone := *ch
			out = append(out, &clone)
		}
	}
	return out, nil
}

// FindActive implements Store.
func (s *MemoryStore) FindActive(ctx context.Context, workspaceID string, platform models.Platform, accountID string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.channels {
		if ch.Active && ch.WorkspaceID == workspaceID && ch.Platform == platform && ch.AccountID == accountID {
			clone := *ch
			return &clone, nil
		}
	}
	return nil, ErrChannelNotFound
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.channels[id]; !ok {
		return ErrChannelNotFound
	}
	delete(s.channels, id)
	return nil
}
