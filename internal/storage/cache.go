// cache.go - In-memory cache for payment records

package storage

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// PaymentLoader loads a payment record from the backing store
type PaymentLoader interface {
	GetPaymentRecord(ctx context.Context, paymentID string) (*PaymentRecord, error)
}

type cachedPayment struct {
	record   *PaymentRecord
	loadedAt time.Time
}

// PaymentCache is a read-through TTL cache over a PaymentLoader.
// Failed loads are not cached. Concurrent misses for one id share a single
// load, and no lock is held while loading.
type PaymentCache struct {
	loader  PaymentLoader
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cachedPayment
	loads   singleflight.Group
}

// NewPaymentCache creates a cache whose entries expire after ttl
func NewPaymentCache(loader PaymentLoader, ttl time.Duration) *PaymentCache {
	return &PaymentCache{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedPayment),
	}
}

// GetPaymentRecord retrieves a record from cache or loads it
func (c *PaymentCache) GetPaymentRecord(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	if record, ok := c.lookup(paymentID); ok {
		return record, nil
	}

	// The first caller's ctx drives a shared load
	v, err, _ := c.loads.Do(paymentID, func() (interface{}, error) {
		// Check again: a load may have finished since the miss above
		if record, ok := c.lookup(paymentID); ok {
			return record, nil
		}

		record, err := c.loader.GetPaymentRecord(ctx, paymentID)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			delete(c.entries, paymentID)
			return nil, err
		}
		c.entries[paymentID] = cachedPayment{record: record, loadedAt: c.now()}
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PaymentRecord), nil
}

// lookup returns a cached record that has not expired
func (c *PaymentCache) lookup(paymentID string) (*PaymentRecord, bool) {
	c.mu.RLock()
	entry, exists := c.entries[paymentID]
	c.mu.RUnlock()

	if exists && c.now().Sub(entry.loadedAt) < c.ttl {
		return entry.record, true
	}
	return nil, false
}

// Invalidate removes the cached record for a payment
func (c *PaymentCache) Invalidate(paymentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, paymentID)
}

// Len returns the number of cached records, expired ones included
func (c *PaymentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
