package connection

import (
	"context"
	"sync"
	"time"

	"github.com/queryforge/core/internal/models"
)

// Pool configuration values, per spec.md §4.1: timeout=30s, recycle=3600s.
const (
	idleTimeout  = 30 * time.Second
	recycleAfter = 3600 * time.Second
)

type pooledEntry struct {
	handle    EngineHandle
	openedAt  time.Time
	lastUsed  time.Time
}

// Pool is a per-connection-id cache of open EngineHandles, bounded by idle
// timeout and a hard recycle age. It is the thing the pipeline's
// prepare_context node actually calls, not connection.Open directly, so
// that repeated runs against the same Connection reuse a live handle.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*pooledEntry

	stopJanitor chan struct{}
}

func NewPool() *Pool {
	p := &Pool{
		entries:     make(map[string]*pooledEntry),
		stopJanitor: make(chan struct{}),
	}
	go p.janitor()
	return p
}

// Acquire returns the pooled handle for connectionID, opening one via open
// if none exists yet or the existing one has aged past recycleAfter.
func (p *Pool) Acquire(ctx context.Context, connectionID string, kind models.ConnectionKind, payload models.ConnectionPayload) (EngineHandle, error) {
	p.mu.Lock()
	if e, ok := p.entries[connectionID]; ok {
		if time.Since(e.openedAt) < recycleAfter {
			e.lastUsed = time.Now()
			p.mu.Unlock()
			return e.handle, nil
		}
		e.handle.Close()
		delete(p.entries, connectionID)
	}
	p.mu.Unlock()

	handle, err := Open(ctx, kind, payload)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.entries[connectionID] = &pooledEntry{handle: handle, openedAt: time.Now(), lastUsed: time.Now()}
	p.mu.Unlock()

	return handle, nil
}

// Invalidate drops and closes the pooled handle for connectionID, per
// spec.md §4.1's "discarded on connection mutation" lifetime rule.
func (p *Pool) Invalidate(connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[connectionID]; ok {
		e.handle.Close()
		delete(p.entries, connectionID)
	}
}

func (p *Pool) janitor() {
	ticker := time.NewTicker(idleTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stopJanitor:
			return
		}
	}
}

func (p *Pool) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for id, e := range p.entries {
		if now.Sub(e.lastUsed) > idleTimeout {
			e.handle.Close()
			delete(p.entries, id)
		}
	}
}

// Close stops the janitor and closes every pooled handle. Intended for
// process shutdown.
func (p *Pool) Close() {
	close(p.stopJanitor)
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range p.entries {
		e.handle.Close()
		delete(p.entries, id)
	}
}
