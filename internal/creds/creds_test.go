package creds

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingProvider hands out snapshots with a fixed lifetime and counts
// how often it is called.
type countingProvider struct {
	calls    int
	lifetime time.Duration
	err      error
}

func (p *countingProvider) Snapshot(ctx context.Context) (Snapshot, error) {
	p.calls++
	if p.err != nil {
		return Snapshot{}, p.err
	}
	return Snapshot{
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		SessionToken:    "token",
		Region:          "us-west-2",
		Expires:         time.Now().Add(p.lifetime),
		CanExpire:       true,
	}, nil
}

func TestCache_SnapshotReused(t *testing.T) {
	p := &countingProvider{lifetime: time.Hour}
	c := NewCache(p, 5*time.Minute)

	ctx := context.Background()
	first := c.Current(ctx)
	second := c.Current(ctx)

	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}
	if !first.SameIdentity(second) {
		t.Error("snapshots should carry the same credentials")
	}
}

func TestCache_RefreshesNearExpiry(t *testing.T) {
	// Lifetime shorter than the margin: every Current must refresh.
	p := &countingProvider{lifetime: time.Minute}
	c := NewCache(p, 5*time.Minute)

	ctx := context.Background()
	c.Current(ctx)
	c.Current(ctx)

	if p.calls != 2 {
		t.Errorf("provider called %d times, want 2", p.calls)
	}
}

func TestCache_PassthroughOnProviderError(t *testing.T) {
	p := &countingProvider{err: errors.New("no metadata service")}
	c := NewCache(p, 5*time.Minute)

	snap := c.Current(context.Background())
	if !snap.Ambient() {
		t.Error("snapshot should be the ambient pass-through")
	}
	if snap.CanExpire {
		t.Error("pass-through snapshot should never expire")
	}

	// The pass-through result is cached like any other snapshot.
	c.Current(context.Background())
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}
}

func TestSnapshot_ExpiresWithin(t *testing.T) {
	s := Snapshot{Expires: time.Now().Add(time.Minute), CanExpire: true}
	if !s.ExpiresWithin(5 * time.Minute) {
		t.Error("snapshot expiring in 1m is within a 5m margin")
	}
	if s.ExpiresWithin(10 * time.Second) {
		t.Error("snapshot expiring in 1m is not within a 10s margin")
	}

	ambient := Passthrough()
	if ambient.ExpiresWithin(24 * 365 * time.Hour) {
		t.Error("pass-through snapshot never expires")
	}
}
