// Package images resolves symbolic site image keys to URLs.
//
// A Resolver is built once at startup and handed to whoever needs it. Under
// the cached policy it keeps one snapshot of the whole image directory and
// refetches it once the snapshot is older than the TTL; under the uncached
// policy every lookup goes to the directory. Lookups never fail: a broken
// directory degrades to the caller's fallback, then to a static default table,
// then to "".
package images

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meur/equicenter/internal/logger"
	"github.com/meur/equicenter/internal/models"
)

// DefaultTTL is how long a cached snapshot is served before refetching.
const DefaultTTL = 5 * time.Minute

// Directory is the source of truth for site images.
type Directory interface {
	ListSiteImages(ctx context.Context) ([]models.SiteImage, error)
}

type Policy string

const (
	PolicyCached   Policy = "cached"
	PolicyUncached Policy = "uncached"
)

// ParsePolicy accepts "cached" and "uncached".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyCached, PolicyUncached:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown image cache policy %q", s)
}

type snapshot struct {
	images    []models.SiteImage
	fetchedAt time.Time
}

// Resolver maps image keys to URLs.
type Resolver struct {
	dir      Directory
	policy   Policy
	ttl      time.Duration
	clock    clockwork.Clock
	log      logger.Logger
	defaults map[string]string
	metrics  *Metrics

	mu    sync.Mutex
	cache *snapshot
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithPolicy(p Policy) Option { return func(r *Resolver) { r.policy = p } }

func WithTTL(d time.Duration) Option { return func(r *Resolver) { r.ttl = d } }

func WithClock(c clockwork.Clock) Option { return func(r *Resolver) { r.clock = c } }

func WithLogger(l logger.Logger) Option { return func(r *Resolver) { r.log = l } }

// WithDefaults replaces the static default table.
func WithDefaults(m map[string]string) Option { return func(r *Resolver) { r.defaults = m } }

func WithMetrics(m *Metrics) Option { return func(r *Resolver) { r.metrics = m } }

// New returns a cached Resolver over dir unless WithPolicy says otherwise.
func New(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:      dir,
		policy:   PolicyCached,
		ttl:      DefaultTTL,
		clock:    clockwork.NewRealClock(),
		log:      logger.Nop(),
		defaults: models.DefaultImages(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.ttl <= 0 {
		r.ttl = DefaultTTL
	}
	r.log = r.log.With("component", "images", "policy", string(r.policy))
	return r
}

func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve returns the URL configured for key. It never fails; see the package
// doc for the fallback order.
func (r *Resolver) Resolve(ctx context.Context, key, fallback string) string {
	images, ok := r.images(ctx)
	if ok {
		if url, found := lookup(images, key); found {
			return url
		}
	}
	return r.fallback(key, fallback)
}

// List returns the directory contents: the snapshot under the cached policy,
// a fresh fetch otherwise. A failed fetch yields an empty list.
func (r *Resolver) List(ctx context.Context) []models.SiteImage {
	images, ok := r.images(ctx)
	if !ok {
		return []models.SiteImage{}
	}
	out := make([]models.SiteImage, len(images))
	copy(out, images)
	return out
}

// ClearCache drops the snapshot so the next lookup refetches.
func (r *Resolver) ClearCache() {
	if r.policy != PolicyCached {
		return
	}
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
	r.log.Debug("image cache cleared")
}

func (r *Resolver) images(ctx context.Context) ([]models.SiteImage, bool) {
	if r.policy == PolicyUncached {
		return r.fetch(ctx)
	}

	if images, ok := r.fresh(); ok {
		r.metrics.hit()
		return images, true
	}

	images, ok := r.fetch(ctx)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	r.cache = &snapshot{images: images, fetchedAt: r.clock.Now()}
	r.mu.Unlock()
	return images, true
}

func (r *Resolver) fresh() ([]models.SiteImage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		return nil, false
	}
	if r.clock.Since(r.cache.fetchedAt) >= r.ttl {
		return nil, false
	}
	return r.cache.images, true
}

// fetch reads the directory without holding the lock. Results of a fetch
// whose context ended while it was in flight are dropped.
func (r *Resolver) fetch(ctx context.Context) ([]models.SiteImage, bool) {
	r.metrics.fetch()
	images, err := r.dir.ListSiteImages(ctx)
	if err != nil {
		r.metrics.failure()
		r.log.Warn("image directory fetch failed", "error", err)
		return nil, false
	}
	if ctx.Err() != nil {
		r.log.Debug("discarding superseded image fetch", "error", ctx.Err())
		return nil, false
	}
	if images == nil {
		images = []models.SiteImage{}
	}
	return images, true
}

func (r *Resolver) fallback(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return r.defaults[key]
}

func lookup(images []models.SiteImage, key string) (string, bool) {
	for _, img := range images {
		if img.Key == key {
			return img.URL, true
		}
	}
	return "", false
}
