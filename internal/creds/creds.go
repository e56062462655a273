// Package creds caches short-lived access credentials for the transfer
// engine. Each fetch uses an immutable snapshot taken when it is spawned;
// the cache refreshes the snapshot from the provider before it expires so
// long transfers outlive any single set of session credentials.
package creds

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chanzuckerberg/s3mi/internal/logging"
	"github.com/chanzuckerberg/s3mi/internal/metrics"
)

// Snapshot is an immutable set of access credentials. The zero value is
// the pass-through snapshot: no explicit credentials, never expires, and
// lets the transport use whatever ambient mechanism exists.
type Snapshot struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string

	Expires   time.Time
	CanExpire bool
}

// Ambient reports whether the snapshot carries no explicit credentials.
func (s Snapshot) Ambient() bool {
	return s.AccessKeyID == ""
}

// ExpiresWithin reports whether the snapshot expires within d from now.
func (s Snapshot) ExpiresWithin(d time.Duration) bool {
	return s.CanExpire && time.Until(s.Expires) < d
}

// SameIdentity reports whether two snapshots carry the same credentials,
// ignoring expiration. Transports use this to decide whether a cached
// client can be reused.
func (s Snapshot) SameIdentity(o Snapshot) bool {
	return s.AccessKeyID == o.AccessKeyID &&
		s.SecretAccessKey == o.SecretAccessKey &&
		s.SessionToken == o.SessionToken &&
		s.Region == o.Region
}

// Passthrough returns the sentinel snapshot used when no provider is
// available.
func Passthrough() Snapshot {
	return Snapshot{}
}

// Provider produces a credential snapshot with an expiration timestamp.
type Provider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Snapshot, error)

// Snapshot implements Provider.
func (f ProviderFunc) Snapshot(ctx context.Context) (Snapshot, error) {
	return f(ctx)
}

// Cache holds the current snapshot and refreshes it from the provider
// when less than the margin remains before expiry. Callers receive the
// snapshot by value; the provider is called at most once per snapshot
// lifetime.
type Cache struct {
	mu       sync.Mutex
	provider Provider
	margin   time.Duration

	snap  Snapshot
	valid bool

	log *slog.Logger
}

// NewCache creates a credential cache refreshing when less than margin
// remains before the held snapshot expires.
func NewCache(provider Provider, margin time.Duration) *Cache {
	return &Cache{
		provider: provider,
		margin:   margin,
		log:      logging.Component("creds"),
	}
}

// Current returns a snapshot usable for a fetch spawned now. It refreshes
// from the provider on first use or when the held snapshot is near expiry.
// If the provider is unavailable the pass-through snapshot is returned and
// cached, so the transport falls back to ambient configuration.
func (c *Cache) Current(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && !c.snap.ExpiresWithin(c.margin) {
		return c.snap
	}

	snap, err := c.provider.Snapshot(ctx)
	if err != nil {
		c.log.Warn("credential provider unavailable, using ambient credentials", "error", err)
		snap = Passthrough()
	} else {
		c.log.Debug("credential snapshot refreshed",
			"can_expire", snap.CanExpire,
			"expires", snap.Expires,
		)
	}

	if m := metrics.Get(); m != nil {
		m.CredentialRefreshes.Inc()
	}

	c.snap = snap
	c.valid = true
	return c.snap
}
