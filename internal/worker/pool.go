// Package worker fans inbound chat events out to a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/domain"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Handler processes one event.
type Handler func(ctx context.Context, ev domain.Event) error

// Pool routes events to shards by sender id, so one user's events run in
// arrival order while different users run in parallel.
type Pool struct {
	handler Handler
	logger  *zap.Logger
	shards  []chan domain.Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool with the given shard count and per-shard queue size.
func NewPool(shards, queueSize int, handler Handler, logger *zap.Logger) *Pool {
	if shards <= 0 {
		shards = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		handler: handler,
		logger:  logger.Named("worker"),
		shards:  make([]chan domain.Event, shards),
	}
	for i := range p.shards {
		p.shards[i] = make(chan domain.Event, queueSize)
	}
	return p
}

// Start launches one goroutine per shard. Handlers receive ctx.
func (p *Pool) Start(ctx context.Context) {
	for i, ch := range p.shards {
		p.wg.Add(1)
		go p.run(ctx, i, ch)
	}
}

// Submit enqueues ev, blocking while the shard queue is full.
func (p *Pool) Submit(ctx context.Context, ev domain.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.shards[p.shardFor(ev.SenderID)] <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, ch := range p.shards {
		close(ch)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) shardFor(userID int64) int {
	return int(uint64(userID) % uint64(len(p.shards)))
}

func (p *Pool) run(ctx context.Context, shard int, ch <-chan domain.Event) {
	defer p.wg.Done()
	for ev := range ch {
		if err := p.safeHandle(ctx, ev); err != nil {
			p.logger.Warn("event handling failed",
				zap.Int("shard", shard),
				zap.Int64("user_id", ev.SenderID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err))
		}
	}
}

func (p *Pool) safeHandle(ctx context.Context, ev domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("event handler panic", zap.Int64("user_id", ev.SenderID), zap.Any("panic", r))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return p.handler(ctx, ev)
}
