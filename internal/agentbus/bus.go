// internal/agentbus/bus.go
package agentbus

import (
	"context"
	"sync"
	"time"

	"travelsure-agents/internal/common/errors"
	"travelsure-agents/internal/common/logger"
	"travelsure-agents/internal/common/metrics"

	"github.com/google/uuid"
)

// Handler processes one inbound message for an agent and returns the reply.
type Handler func(ctx context.Context, msg interface{}) (interface{}, error)

// reply carries a handler result back to the requester.
type reply struct {
	payload interface{}
	err     error
}

// pendingRequest tracks one in-flight request awaiting its reply.
type pendingRequest struct {
	id       string
	to       string
	replyCh  chan reply
	deadline time.Time
}

// Bus is an in-process request/response bus between agents. Each request is
// correlated by a generated ID held in a pending table with explicit expiry;
// there is no process-global correlation state.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	pending  map[string]*pendingRequest

	requestTTL  time.Duration
	janitorTick time.Duration

	logger logger.Logger
	done   chan struct{}
	wg     sync.WaitGroup
}

// Options configures a Bus.
type Options struct {
	RequestTTL  time.Duration
	JanitorTick time.Duration
}

// New creates a Bus and starts its expiry janitor.
func New(opts Options, log logger.Logger) *Bus {
	if opts.RequestTTL <= 0 {
		opts.RequestTTL = 30 * time.Second
	}
	if opts.JanitorTick <= 0 {
		opts.JanitorTick = 5 * time.Second
	}

	b := &Bus{
		handlers:    make(map[string]Handler),
		pending:     make(map[string]*pendingRequest),
		requestTTL:  opts.RequestTTL,
		janitorTick: opts.JanitorTick,
		logger:      log,
		done:        make(chan struct{}),
	}

	b.wg.Add(1)
	go b.janitor()

	return b
}

// Register binds a handler to an agent name. Registering the same name twice
// replaces the previous handler.
func (b *Bus) Register(agent string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[agent] = h
}

// Request sends msg to the named agent and blocks until the reply arrives,
// ctx is cancelled, or the pending entry expires.
func (b *Bus) Request(ctx context.Context, to string, msg interface{}) (interface{}, error) {
	b.mu.RLock()
	handler, ok := b.handlers[to]
	b.mu.RUnlock()
	if !ok {
		return nil, errors.NewUnknownAgentError(to)
	}

	req := &pendingRequest{
		id:       uuid.New().String(),
		to:       to,
		replyCh:  make(chan reply, 1),
		deadline: time.Now().Add(b.requestTTL),
	}

	b.mu.Lock()
	b.pending[req.id] = req
	b.mu.Unlock()
	metrics.PendingRequests.Inc()

	go b.dispatch(ctx, handler, req, msg)

	select {
	case r := <-req.replyCh:
		b.remove(req.id)
		return r.payload, r.err

	case <-ctx.Done():
		b.remove(req.id)
		return nil, ctx.Err()
	}
}

// dispatch runs the handler and delivers its result, unless the pending entry
// has already expired.
func (b *Bus) dispatch(ctx context.Context, handler Handler, req *pendingRequest, msg interface{}) {
	payload, err := handler(ctx, msg)

	b.mu.RLock()
	_, alive := b.pending[req.id]
	b.mu.RUnlock()
	if !alive {
		return
	}

	select {
	case req.replyCh <- reply{payload: payload, err: err}:
	default:
	}
}

// remove drops a pending entry.
func (b *Bus) remove(id string) {
	b.mu.Lock()
	if _, ok := b.pending[id]; ok {
		delete(b.pending, id)
		metrics.PendingRequests.Dec()
	}
	b.mu.Unlock()
}

// janitor sweeps expired pending requests and fails them explicitly.
func (b *Bus) janitor() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.janitorTick)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case now := <-ticker.C:
			b.expire(now)
		}
	}
}

func (b *Bus) expire(now time.Time) {
	b.mu.Lock()
	var expired []*pendingRequest
	for id, req := range b.pending {
		if now.After(req.deadline) {
			expired = append(expired, req)
			delete(b.pending, id)
			metrics.PendingRequests.Dec()
		}
	}
	b.mu.Unlock()

	for _, req := range expired {
		metrics.ExpiredRequests.Inc()
		b.logger.Warn("pending request expired", map[string]interface{}{
			"requestId": req.id,
			"agent":     req.to,
		})
		select {
		case req.replyCh <- reply{err: errors.NewRequestExpiredError(req.id)}:
		default:
		}
	}
}

// PendingCount returns the number of requests awaiting a reply.
func (b *Bus) PendingCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending)
}

// Close stops the janitor. In-flight requests are left to their callers.
func (b *Bus) Close() {
	close(b.done)
	b.wg.Wait()
}
