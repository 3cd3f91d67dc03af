// Package cache provides a read-through in-memory cache in front of the
// user directory. Profiles are looked up on every pairing operation and
// again for every notification, and they change rarely.
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/neomorfeo/dancepair/internal/domain"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Source is the directory being cached. Save is optional for callers that
// only read; it is required to register profiles through the cache.
type Source interface {
	domain.UserDirectory
	Save(ctx context.Context, u domain.UserProfile) error
}

var _ domain.UserDirectory = (*Directory)(nil)

// Directory caches successful lookups by id and by email. Misses are not
// cached, so a user registered after a failed lookup is found right away.
type Directory struct {
	source Source
	cache  *gocache.Cache
}

// NewDirectory wraps source with a cache whose entries live for ttl.
// A non-positive ttl uses DefaultExpiration.
func NewDirectory(source Source, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &Directory{
		source: source,
		cache:  gocache.New(ttl, DefaultCleanupInterval),
	}
}

func (d *Directory) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	if u, ok := d.get(idKey(id)); ok {
		return u, nil
	}
	u, err := d.source.GetByID(ctx, id)
	if err != nil {
		return domain.UserProfile{}, err
	}
	d.put(u)
	return u, nil
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	if u, ok := d.get(emailKey(email)); ok {
		return u, nil
	}
	u, err := d.source.GetByEmail(ctx, email)
	if err != nil {
		return domain.UserProfile{}, err
	}
	d.put(u)
	return u, nil
}

// Save writes through to the source and drops any cached copy of the user,
// including the entry under a previous email.
func (d *Directory) Save(ctx context.Context, u domain.UserProfile) error {
	if old, ok := d.get(idKey(u.ID)); ok {
		d.cache.Delete(emailKey(old.Email))
	}
	d.cache.Delete(idKey(u.ID))
	d.cache.Delete(emailKey(u.Email))

	return d.source.Save(ctx, u)
}

// Len reports how many entries are cached, counting expired entries that
// the janitor has not removed yet.
func (d *Directory) Len() int {
	return d.cache.ItemCount()
}

func (d *Directory) get(key string) (domain.UserProfile, bool) {
	v, found := d.cache.Get(key)
	if !found {
		return domain.UserProfile{}, false
	}
	u, ok := v.(domain.UserProfile)
	return u, ok
}

func (d *Directory) put(u domain.UserProfile) {
	d.cache.SetDefault(idKey(u.ID), u)
	d.cache.SetDefault(emailKey(u.Email), u)
}

func idKey(id string) string { return "id:" + id }

func emailKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}
