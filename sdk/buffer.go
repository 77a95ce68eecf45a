package sdk

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultQueueSize is the default buffer capacity.
	DefaultQueueSize = 1000
	// DefaultMaxFailures is the consecutive-failure threshold that opens
	// the circuit breaker.
	DefaultMaxFailures = 3
	// DefaultCooldownPeriod is how long the breaker stays open.
	DefaultCooldownPeriod = 60 * time.Second
)

// Transport pushes a single event toward the ingestion endpoint.
type Transport interface {
	Send(ctx context.Context, event *Event) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, event *Event) error

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Buffer decouples event production from network I/O. Enqueue never blocks:
// when the buffer is full the oldest pending event is evicted, so the buffer
// always holds the most recent events up to its capacity. A single background
// worker drains the buffer toward the transport, gated by a circuit breaker.
// Failed sends are dropped, never retried.
type Buffer struct {
	transport   Transport
	capacity    int
	sendTimeout time.Duration

	mu       sync.Mutex
	notEmpty *sync.Cond
	drained  *sync.Cond
	queue    []*Event
	inflight bool
	started  bool
	stopped  bool
	done     chan struct{}

	// Circuit breaker state. Mutated and read only by the worker.
	failures      int
	maxFailures   int
	cooldownUntil time.Time
	cooldown      time.Duration

	now func() time.Time
}

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithQueueSize sets the buffer capacity.
func WithQueueSize(n int) BufferOption {
	return func(b *Buffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithMaxFailures sets the breaker's consecutive-failure threshold.
func WithMaxFailures(n int) BufferOption {
	return func(b *Buffer) {
		if n > 0 {
			b.maxFailures = n
		}
	}
}

// WithCooldownPeriod sets how long the breaker stays open.
func WithCooldownPeriod(d time.Duration) BufferOption {
	return func(b *Buffer) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithSendTimeout bounds each transport call.
func WithSendTimeout(d time.Duration) BufferOption {
	return func(b *Buffer) {
		if d > 0 {
			b.sendTimeout = d
		}
	}
}

// NewBuffer creates a buffer draining toward the given transport.
func NewBuffer(transport Transport, opts ...BufferOption) *Buffer {
	b := &Buffer{
		transport:   transport,
		capacity:    DefaultQueueSize,
		sendTimeout: DefaultTimeout,
		maxFailures: DefaultMaxFailures,
		cooldown:    DefaultCooldownPeriod,
		done:        make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.notEmpty = sync.NewCond(&b.mu)
	b.drained = sync.NewCond(&b.mu)
	return b
}

// Enqueue adds an event to the buffer without blocking. When the buffer is
// full the oldest pending event is evicted ("drop oldest"). Safe for
// concurrent producers. Never fails past this call.
func (b *Buffer) Enqueue(event *Event) {
	if event == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	if len(b.queue) >= b.capacity {
		b.queue = b.queue[1:]
		log.Debug().Msg("trace buffer full, dropped oldest event")
	}
	b.queue = append(b.queue, event)
	b.notEmpty.Signal()
}

// Len returns the number of pending events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Start launches the background worker. Idempotent: a second call while a
// worker is active is a no-op. The worker stops when ctx is cancelled.
func (b *Buffer) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.stopped = true
		b.notEmpty.Broadcast()
		b.drained.Broadcast()
		b.mu.Unlock()
	}()

	go b.worker(ctx)
	log.Debug().Msg("trace buffer worker started")
}

// worker drains the queue toward the transport. Every dequeued event counts
// as processed whether the send succeeded, failed, or was skipped by the
// breaker.
func (b *Buffer) worker(ctx context.Context) {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.stopped {
			b.notEmpty.Wait()
		}
		if b.stopped {
			b.mu.Unlock()
			return
		}
		event := b.queue[0]
		b.queue = b.queue[1:]
		b.inflight = true
		b.mu.Unlock()

		b.process(ctx, event)

		b.mu.Lock()
		b.inflight = false
		if len(b.queue) == 0 {
			b.drained.Broadcast()
		}
		b.mu.Unlock()
	}
}

func (b *Buffer) process(ctx context.Context, event *Event) {
	// While the cooldown deadline has not passed, skip without a send.
	// After it passes the breaker is implicitly closed again; a single
	// successful send resets the failure counter.
	if b.now().Before(b.cooldownUntil) {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, b.sendTimeout)
	err := b.transport.Send(sendCtx, event)
	cancel()

	if err != nil {
		b.failures++
		log.Debug().Err(err).Str("event_type", event.EventType).Msg("trace event send failed")
		if b.failures >= b.maxFailures {
			b.cooldownUntil = b.now().Add(b.cooldown)
			log.Warn().
				Int("failures", b.failures).
				Dur("cooldown", b.cooldown).
				Msg("trace transport failing, suspending sends")
		}
		return
	}
	b.failures = 0
}

// Flush blocks until every currently buffered event has been dequeued and
// processed by the worker. It is a drain barrier, not a delivery guarantee.
// Returns early with ctx.Err() if ctx is cancelled, or nil immediately if
// the worker has been stopped.
func (b *Buffer) Flush(ctx context.Context) error {
	watch := make(chan struct{})
	defer close(watch)
	go func() {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.drained.Broadcast()
			b.mu.Unlock()
		case <-watch:
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	for (len(b.queue) > 0 || b.inflight) && !b.stopped {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.drained.Wait()
	}
	return ctx.Err()
}

// Done is closed once the worker goroutine has exited.
func (b *Buffer) Done() <-chan struct{} {
	return b.done
}
