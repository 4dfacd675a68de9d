package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/haasonsaas/syndicate/internal/observability"
	"github.com/haasonsaas/syndicate/pkg/models"
)

// ErrNotConfigured indicates no usable credential exists for the
// (provider, workspace) pair. Callers surface it as an action item
// ("connect this provider"), never as an internal failure.
var ErrNotConfigured = errors.New("credential not configured")

// Credential is a resolved, usable credential. Value is the opaque secret the
// caller sends to the platform; the stored record never crosses this boundary.
type Credential struct {
	ProviderID  string
	WorkspaceID string
	Kind        models.CredentialKind
	Value       string
	ExpiresAt   *time.Time
}

// Health returns the derived four-state health of the credential.
func (c *Credential) Health(now time.Time) models.TokenHealth {
	return models.ClassifyTokenHealth(c.ExpiresAt, now)
}

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, providerID, refreshToken string) (accessToken string, expiresAt time.Time, err error)
}

// Resolver resolves workspace credentials with BYOK-before-OAuth precedence
// and at most one in-flight token refresh per (provider, workspace) pair.
type Resolver struct {
	store     Store
	refresher TokenRefresher
	metrics   *observability.Metrics
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]*refreshCall
}

type refreshCall struct {
	done chan struct{}
	cred *Credential
	err  error
}

// NewResolver creates a resolver over the given store. The refresher may be
// nil when no OAuth-backed providers are configured; expired tokens then
// resolve to ErrNotConfigured.
func NewResolver(store Store, refresher TokenRefresher) *Resolver {
	return &Resolver{
		store:     store,
		refresher: refresher,
		now:       time.Now,
		inflight:  make(map[string]*refreshCall),
	}
}

// WithMetrics enables refresh outcome counting and returns the resolver.
func (r *Resolver) WithMetrics(m *observability.Metrics) *Resolver {
	r.metrics = m
	return r
}

// Resolve returns an active usable credential for (provider, workspace).
//
// Resolution order: workspace BYOK key, then platform-managed OAuth token,
// then ErrNotConfigured. An expired OAuth access token triggers exactly one
// refresh attempt; a failed refresh invalidates the stored token so
// subsequent calls report ErrNotConfigured instead of refreshing again.
func (r *Resolver) Resolve(ctx context.Context, providerID, workspaceID string) (*Credential, error) {
	record, err := r.store.Get(ctx, providerID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("credential lookup: %w", err)
	}
	if record == nil {
		return nil, ErrNotConfigured
	}

	switch record.Kind {
	case models.CredentialBYOK:
		if record.Key == "" {
			return nil, ErrNotConfigured
		}
		return &Credential{
			ProviderID:  providerID,
			WorkspaceID: workspaceID,
			Kind:        models.CredentialBYOK,
			Value:       record.Key,
		}, nil

	case models.CredentialOAuth:
		if record.AccessToken != "" && !record.Expired(r.now()) {
			return &Credential{
				ProviderID:  providerID,
				WorkspaceID: workspaceID,
				Kind:        models.CredentialOAuth,
				Value:       record.AccessToken,
				ExpiresAt:   record.ExpiresAt,
			}, nil
		}
		if record.RefreshToken == "" || r.refresher == nil {
			return nil, ErrNotConfigured
		}
		return r.refresh(ctx, providerID, workspaceID, record)

	default:
		return nil, fmt.Errorf("credential lookup: unknown kind %q", record.Kind)
	}
}

// refresh deduplicates concurrent refreshes for one (provider, workspace)
// pair. The first caller performs the refresh; everyone else awaits and
// shares its outcome.
func (r *Resolver) refresh(ctx context.Context, providerID, workspaceID string, record *models.CredentialRecord) (*Credential, error) {
	key := providerID + ":" + workspaceID

	r.mu.Lock()
	if call, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.cred, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	r.inflight[key] = call
	r.mu.Unlock()

	call.cred, call.err = r.doRefresh(ctx, providerID, workspaceID, record)
	close(call.done)

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()

	return call.cred, call.err
}

func (r *Resolver) doRefresh(ctx context.Context, providerID, workspaceID string, record *models.CredentialRecord) (*Credential, error) {
	accessToken, expiresAt, err := r.refresher.Refresh(ctx, providerID, record.RefreshToken)
	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.CredentialRefreshCounter.WithLabelValues(providerID, status).Inc()
	}
	if err != nil {
		// Invalidate the stored token: the next Resolve reports
		// ErrNotConfigured instead of repeating the failed refresh.
		invalidated := *record
		invalidated.AccessToken = ""
		invalidated.RefreshToken = ""
		invalidated.ExpiresAt = nil
		if putErr := r.store.Put(ctx, providerID, workspaceID, &invalidated); putErr != nil {
			return nil, fmt.Errorf("invalidate credential after failed refresh: %w", putErr)
		}
		return nil, fmt.Errorf("%w: token refresh failed: %v", ErrNotConfigured, err)
	}

	refreshed := *record
	refreshed.AccessToken = accessToken
	refreshed.ExpiresAt = &expiresAt
	if err := r.store.Put(ctx, providerID, workspaceID, &refreshed); err != nil {
		return nil, fmt.Errorf("persist refreshed credential: %w", err)
	}

	return &Credential{
		ProviderID:  providerID,
		WorkspaceID: workspaceID,
		Kind:        models.CredentialOAuth,
		Value:       accessToken,
		ExpiresAt:   &expiresAt,
	}, nil
}

// ClientConfig holds the OAuth client registration for one provider.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// OAuthRefresher implements TokenRefresher via golang.org/x/oauth2 using
// per-provider token endpoints.
type OAuthRefresher struct {
	clients map[string]ClientConfig
}

// NewOAuthRefresher creates a refresher for the given provider clients.
func NewOAuthRefresher(clients map[string]ClientConfig) *OAuthRefresher {
	if clients == nil {
		clients = map[string]ClientConfig{}
	}
	return &OAuthRefresher{clients: clients}
}

// Refresh exchanges the refresh token against the provider's token endpoint.
func (r *OAuthRefresher) Refresh(ctx context.Context, providerID, refreshToken string) (string, time.Time, error) {
	client, ok := r.clients[providerID]
	if !ok {
		return "", time.Time{}, fmt.Errorf("no oauth client registered for provider %q", providerID)
	}

	conf := &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: client.TokenURL},
	}
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh token for %s: %w", providerID, err)
	}
	return token.AccessToken, token.Expiry, nil
}
