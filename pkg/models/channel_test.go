package models

import (
	"testing"
	"time"
)

func TestClassifyTokenHealth(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      TokenHealth
	}{
		{"nil expiry", nil, TokenHealthUnknown},
		{"expired one second ago", ptr(now.Add(-time.Second)), TokenHealthExpired},
		{"expires exactly now", ptr(now), TokenHealthExpired},
		{"expires in 6 days", ptr(now.Add(6 * 24 * time.Hour)), TokenHealthExpiringSoon},
		{"expires at the horizon", ptr(now.Add(ExpiryHorizon)), TokenHealthExpiringSoon},
		{"expires in 8 days", ptr(now.Add(8 * 24 * time.Hour)), TokenHealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTokenHealth(tt.expiresAt, now)
			if got != tt.want {
				t.Errorf("ClassifyTokenHealth() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChannel_TokenHealth(t *testing.T) {
	now := time.Now()
	expiry := now.Add(time.Hour)

	ch := &Channel{TokenExpiresAt: &expiry}
	if got := ch.TokenHealth(now); got != TokenHealthExpiringSoon {
		t.Errorf("TokenHealth() = %q, want %q", got, TokenHealthExpiringSoon)
	}

	ch = &Channel{}
	if got := ch.TokenHealth(now); got != TokenHealthUnknown {
		t.Errorf("TokenHealth() = %q, want %q", got, TokenHealthUnknown)
	}
}

func TestCredentialRecord_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if (&CredentialRecord{ExpiresAt: &past}).Expired(now) != true {
		t.Error("past expiry should be expired")
	}
	if (&CredentialRecord{ExpiresAt: &future}).Expired(now) != false {
		t.Error("future expiry should not be expired")
	}
	if (&CredentialRecord{}).Expired(now) != false {
		t.Error("missing expiry should never be expired")
	}
}
