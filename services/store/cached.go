package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/logger"
	"sjsage522/leadworker/services/cache"
)

// CachedStore remembers known website URLs in a cache so repeated
// existence checks skip the backend. Cache failures never fail a call.
type CachedStore struct {
	Store
	cache cache.CacheService
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedStore wraps next with an existence cache
func NewCachedStore(next Store, c cache.CacheService, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store: next,
		cache: c,
		ttl:   ttl,
		log:   logger.ForCache(),
	}
}

// existsKey builds a memcache-safe key for a website URL
func existsKey(websiteURL string) string {
	sum := sha1.Sum([]byte(websiteURL))
	return "lead:exists:" + hex.EncodeToString(sum[:])
}

// Exists implements Store
func (c *CachedStore) Exists(ctx context.Context, websiteURL string) (bool, error) {
	key := existsKey(websiteURL)

	if _, err := c.cache.Get(key); err == nil {
		return true, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		c.log.Debug().Err(err).Str("website", websiteURL).Msg("Cache lookup failed")
	}

	exists, err := c.Store.Exists(ctx, websiteURL)
	if err != nil {
		return false, err
	}
	if exists {
		c.remember(key, websiteURL)
	}
	return exists, nil
}

// UpsertDiscovered implements Store
func (c *CachedStore) UpsertDiscovered(ctx context.Context, l lead.Lead) error {
	if err := c.Store.UpsertDiscovered(ctx, l); err != nil {
		return err
	}
	c.remember(existsKey(l.WebsiteURL), l.WebsiteURL)
	return nil
}

func (c *CachedStore) remember(key, websiteURL string) {
	if err := c.cache.Set(key, []byte{1}, c.ttl); err != nil {
		c.log.Debug().Err(err).Str("website", websiteURL).Msg("Cache write failed")
	}
}
