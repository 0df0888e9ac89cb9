// Package intern keeps a process-wide pool of strings deduplicated by content.
//
// A string handed to the pool is copied once into an allocation owned by the
// pool, and every later lookup of equal content returns that same allocation.
// The pool never gives memory back: evicting a string only forgets it, the
// allocation stays alive until the process exits. The pool therefore grows
// without bound for as long as new content keeps arriving.
package intern

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ErrPoisoned is the panic value of every operation on a pool whose lock was
// abandoned by a panicking holder.
var ErrPoisoned = errors.New("intern pool poisoned")

type Stats struct {
	// Live is the number of tracked entries
	Live int
	// Retired is the number of evicted allocations kept alive by the pool
	Retired int
	// Allocations is the number of canonical copies ever created
	Allocations int
	// Bytes is the total size of all canonical copies ever created
	Bytes int64
}

type Pool struct {
	mu       sync.Mutex
	entries  map[string]string
	retired  []string
	stats    Stats
	poisoned bool
	logger   *slog.Logger
}

type Option func(*Pool)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

func New(opts ...Option) *Pool {
	p := &Pool{
		entries: make(map[string]string),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// locked runs fn with the pool lock held. If fn does not return normally the
// pool is poisoned before the lock is released.
func (p *Pool) locked(fn func()) {
	p.mu.Lock()
	if p.poisoned {
		p.mu.Unlock()
		panic(ErrPoisoned)
	}

	completed := false
	defer func() {
		if !completed {
			p.poisoned = true
		}
		p.mu.Unlock()
	}()

	fn()
	completed = true
}

// claim must be called with the lock held
func (p *Pool) claim(s string) string {
	owned := strings.Clone(s)
	p.entries[owned] = owned
	p.stats.Live = len(p.entries)
	p.stats.Allocations++
	p.stats.Bytes += int64(len(owned))
	return owned
}

// Intern returns the canonical copy of s, creating it if s is not tracked.
func (p *Pool) Intern(s string) string {
	var result string
	hit := false
	p.locked(func() {
		result, hit = p.entries[s]
		if !hit {
			result = p.claim(s)
		}
	})

	recordLookup(hit)
	if !hit {
		p.logger.Debug("Interned new string", slog.Int("length", len(result)))
	}
	return result
}

// InternBytes is like Intern but does not allocate when b is already tracked.
func (p *Pool) InternBytes(b []byte) string {
	var result string
	hit := false
	p.locked(func() {
		result, hit = p.entries[string(b)]
		if !hit {
			result = p.claim(string(b))
		}
	})

	recordLookup(hit)
	return result
}

func (p *Pool) IsInterned(s string) bool {
	var ok bool
	p.locked(func() {
		_, ok = p.entries[s]
	})
	return ok
}

// Evict stops tracking s and reports whether it was tracked. The evicted
// allocation is retired, not freed: strings previously returned for s stay
// valid, and a later Intern of the same content creates a new allocation.
func (p *Pool) Evict(s string) bool {
	var ok bool
	p.locked(func() {
		var owned string
		owned, ok = p.entries[s]
		if !ok {
			return
		}
		delete(p.entries, s)
		p.retired = append(p.retired, owned)
		p.stats.Live = len(p.entries)
		p.stats.Retired = len(p.retired)
	})

	if ok {
		recordEviction()
		p.logger.Debug("Evicted string", slog.Int("length", len(s)))
	}
	return ok
}

func (p *Pool) Stats() Stats {
	var stats Stats
	p.locked(func() {
		stats = p.stats
	})
	return stats
}
