package session

import (
	"log/slog"
	"slices"
	"sync"
)

// Gate defers work while a session is being (re)authenticated.
//
// It holds two FIFO queues, pending requests and pending completions, plus a
// terminal invalidation state. Every mutation happens under one lock so the
// availability flags always equal !empty for their own queue. Observers are
// notified after the lock is released, in the order the changes happened.
//
// A drain takes its snapshot and empties the queue in one step, so work
// enqueued while actions run is left for the next drain. Drains are
// serialized against each other. An action must not call
// RunPendingRequests or RunPendingCompletions on the same Gate.
type Gate struct {
	mu      sync.Mutex
	drainMu sync.Mutex

	requests             []func()
	completions          []func()
	requestsAvailable    bool
	completionsAvailable bool

	reason Reason
	done   chan struct{}

	observers    []observer
	nextObserver uint64
	outbox       []Event
	delivering   bool

	logger *slog.Logger
}

type observer struct {
	id uint64
	fn func(Event)
}

// NewGate returns an active Gate. A nil logger discards log output.
func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		done:   make(chan struct{}),
		logger: logger,
	}
}

// EnqueueRequest appends fn to the pending-request queue and returns. It
// reports whether the queue was empty before fn was added, which is the
// moment a caller should start resolving the session.
func (g *Gate) EnqueueRequest(fn func()) (wasEmpty bool) {
	if fn == nil {
		return false
	}
	g.mu.Lock()
	wasEmpty = len(g.requests) == 0
	g.requests = append(g.requests, fn)
	g.syncFlagsLocked()
	g.mu.Unlock()
	g.flush()
	return wasEmpty
}

// EnqueueRequestIfPending appends fn only while the request queue is
// non-empty, and reports whether it did. The check and the append happen
// under one lock, so fn can never land behind a drain that already started.
func (g *Gate) EnqueueRequestIfPending(fn func()) bool {
	if fn == nil {
		return false
	}
	g.mu.Lock()
	if len(g.requests) == 0 {
		g.mu.Unlock()
		return false
	}
	g.requests = append(g.requests, fn)
	g.mu.Unlock()
	return true
}

// EnqueueCompletion appends fn to the pending-completion queue and returns.
func (g *Gate) EnqueueCompletion(fn func()) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.completions = append(g.completions, fn)
	g.syncFlagsLocked()
	g.mu.Unlock()
	g.flush()
}

// RunPendingRequests runs the request queue and then the completion queue,
// both as they stood when the call began, in FIFO order. Work enqueued while
// it runs, including completions queued by the request actions, is left for
// the next drain. Drains are serialized; calling either Run method from
// inside a queued action deadlocks.
func (g *Gate) RunPendingRequests() {
	g.drainMu.Lock()
	defer g.drainMu.Unlock()

	g.mu.Lock()
	reqs, comps := g.requests, g.completions
	g.requests, g.completions = nil, nil
	g.syncFlagsLocked()
	g.mu.Unlock()
	g.flush()

	g.run(batch{q: &g.requests, name: "requests", fns: reqs}, batch{q: &g.completions, name: "completions", fns: comps})
}

// RunPendingCompletions runs the completion queue as it stood when the call
// began.
func (g *Gate) RunPendingCompletions() {
	g.drainMu.Lock()
	defer g.drainMu.Unlock()

	g.mu.Lock()
	comps := g.completions
	g.completions = nil
	g.syncFlagsLocked()
	g.mu.Unlock()
	g.flush()

	g.run(batch{q: &g.completions, name: "completions", fns: comps})
}

// batch is a queue snapshot that has already been removed from its queue.
type batch struct {
	q    *[]func()
	name string
	fns  []func()
}

// run executes each batch in order. Every action runs at most once: if one
// panics, the actions after it, in its batch and in later batches, go back to
// the front of their queues before the panic propagates. Caller holds drainMu.
func (g *Gate) run(batches ...batch) {
	bi, i := 0, 0
	defer func() {
		if bi == len(batches) {
			return
		}
		g.mu.Lock()
		for j := len(batches) - 1; j >= bi; j-- {
			rest := batches[j].fns
			if j == bi {
				rest = rest[i+1:]
			}
			if len(rest) > 0 {
				*batches[j].q = append(slices.Clone(rest), *batches[j].q...)
			}
		}
		g.syncFlagsLocked()
		g.mu.Unlock()
		g.flush()
	}()

	for ; bi < len(batches); bi++ {
		b := batches[bi]
		if len(b.fns) > 0 {
			g.logger.Debug("draining queue", "queue", b.name, "count", len(b.fns))
		}
		for i = 0; i < len(b.fns); i++ {
			b.fns[i]()
		}
	}
}

// syncFlagsLocked recomputes both flags from their own queues and queues an
// event for each flip. Caller holds mu.
func (g *Gate) syncFlagsLocked() {
	if avail := len(g.requests) > 0; avail != g.requestsAvailable {
		g.requestsAvailable = avail
		g.outbox = append(g.outbox, Event{Kind: RequestsAvailableChanged, Available: avail})
	}
	if avail := len(g.completions) > 0; avail != g.completionsAvailable {
		g.completionsAvailable = avail
		g.outbox = append(g.outbox, Event{Kind: CompletionsAvailableChanged, Available: avail})
	}
}

// Invalidate moves the gate to its terminal state. The first reason wins:
// later calls, and calls with a reason outside the closed set, return false
// and change nothing.
func (g *Gate) Invalidate(reason Reason) bool {
	if !reason.valid() {
		return false
	}
	g.mu.Lock()
	if g.reason != 0 {
		g.mu.Unlock()
		return false
	}
	g.reason = reason
	close(g.done)
	g.outbox = append(g.outbox, Event{Kind: Invalidated, Reason: reason})
	g.mu.Unlock()

	g.logger.Info("session invalidated", "reason", reason.String())
	g.flush()
	return true
}

// IsValid reports whether the gate has not been invalidated.
func (g *Gate) IsValid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reason == 0
}

// InvalidationReason returns the reason the gate was invalidated, if it was.
func (g *Gate) InvalidationReason() (Reason, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reason, g.reason != 0
}

// Done returns a channel that is closed once the gate is invalidated.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// PendingRequestsAvailable reports whether the request queue is non-empty.
func (g *Gate) PendingRequestsAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requestsAvailable
}

// PendingCompletionsAvailable reports whether the completion queue is non-empty.
func (g *Gate) PendingCompletionsAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completionsAvailable
}

// Subscribe registers fn for change events and returns a func that removes it.
// fn runs outside the gate's lock and may call back into the gate.
func (g *Gate) Subscribe(fn func(Event)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	g.mu.Lock()
	g.nextObserver++
	id := g.nextObserver
	g.observers = append(g.observers, observer{id: id, fn: fn})
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.observers = slices.DeleteFunc(g.observers, func(o observer) bool { return o.id == id })
			g.mu.Unlock()
		})
	}
}

// flush delivers queued events. Only one goroutine delivers at a time; events
// raised by other goroutines or by observers themselves are picked up by the
// active deliverer, which keeps delivery in mutation order. If an observer
// panics, the event it was handling is dropped and the rest stay queued for
// the next flush.
func (g *Gate) flush() {
	g.mu.Lock()
	if g.delivering {
		g.mu.Unlock()
		return
	}
	g.delivering = true
	defer func() {
		g.delivering = false
		g.mu.Unlock()
	}()
	for len(g.outbox) > 0 {
		ev := g.outbox[0]
		g.outbox = g.outbox[1:]
		g.deliver(slices.Clone(g.observers), ev)
	}
	g.outbox = nil
}

// deliver calls each observer with ev outside the lock. Caller holds mu; it
// is held again when deliver returns or panics.
func (g *Gate) deliver(obs []observer, ev Event) {
	g.mu.Unlock()
	defer g.mu.Lock()
	for _, o := range obs {
		o.fn(ev)
	}
}
