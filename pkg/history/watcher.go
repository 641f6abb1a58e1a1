package history

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
)

// State is the lifecycle of the current invocation
type State int

const (
	// StateIdle means Watch has not been called yet
	StateIdle State = iota
	// StatePending means the latency has not elapsed for the current section
	StatePending
	// StateResolved means the current section has a final value (possibly nil)
	StateResolved
	// StateClosed means the watcher was torn down
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Update is a resolved value delivered by a Watcher.
// Record is nil when the section is unknown.
type Update struct {
	SectionID string
	Record    *Record
	Token     uint64
}

// Watcher follows one section at a time and resolves it after the latency.
//
// At most one resolution is pending at any time. Watch supersedes the pending
// invocation and Close cancels it; in both cases the abandoned invocation can
// never deliver, because its token no longer matches. Each invocation looks up
// under its own context, which is cancelled when the invocation is abandoned.
type Watcher struct {
	source Source
	opts   options

	ctx    context.Context
	cancel context.CancelFunc

	// deliverMu serializes deliveries against Close so that nothing is
	// delivered once Close has returned. Lock order: deliverMu, then mu.
	deliverMu sync.Mutex
	mu        sync.Mutex

	token    uint64
	timer    clockwork.Timer
	inflight context.CancelFunc
	section string
	state   State
	current *Record

	updates  chan Update
	listener func(Update)
}

// NewWatcher creates a watcher over source
func NewWatcher(source Source, opts ...Option) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		source:  source,
		opts:    buildOptions(opts),
		ctx:     ctx,
		cancel:  cancel,
		state:   StateIdle,
		updates: make(chan Update, 1),
	}
}

// OnResolve registers a listener called for every delivered update.
// The listener may call Watch but must not call Close.
func (w *Watcher) OnResolve(fn func(Update)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listener = fn
}

// Watch starts resolving sectionID, superseding any pending invocation.
// It returns the token of the new invocation. Immediately afterwards Current
// reports StatePending with a nil record.
func (w *Watcher) Watch(sectionID string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateClosed {
		return w.token
	}

	if w.state == StatePending {
		w.stopLocked()
		w.opts.recorder.RecordCancelled(CancelSuperseded)
	}

	w.token++
	token := w.token
	w.section = sectionID
	w.current = nil
	w.state = StatePending

	ctx, cancel := context.WithCancel(w.ctx)
	w.inflight = cancel
	w.timer = w.opts.clock.AfterFunc(w.opts.latency, func() {
		w.resolve(ctx, token, sectionID)
	})

	return token
}

// Current returns the latest resolved record and the watcher state.
// The record is always nil while pending.
func (w *Watcher) Current() (*Record, State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil, w.state
	}
	rec := *w.current
	return &rec, w.state
}

// Section returns the section of the current invocation
func (w *Watcher) Section() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.section
}

// Updates returns a channel carrying the most recent resolution.
// Only the latest undelivered update is kept. The channel is closed by Close.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Close cancels any pending resolution. It is safe to call more than once.
func (w *Watcher) Close() {
	// Unblock a source lookup that may be holding up a delivery.
	w.cancel()

	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return
	}
	if w.state == StatePending {
		w.stopLocked()
		w.opts.recorder.RecordCancelled(CancelClosed)
	}
	w.token++
	w.state = StateClosed
	w.current = nil
	w.listener = nil
	w.mu.Unlock()

	close(w.updates)
}

// stopLocked stops the timer and cancels the lookup of the current invocation
func (w *Watcher) stopLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.inflight != nil {
		w.inflight()
		w.inflight = nil
	}
}

func (w *Watcher) isCurrent(token uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.token == token && w.state == StatePending
}

// resolve runs on the timer. Stale tokens are ignored at every step.
func (w *Watcher) resolve(ctx context.Context, token uint64, sectionID string) {
	if !w.isCurrent(token) {
		return
	}

	rec := lookup(ctx, w.source, sectionID, w.opts)

	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	w.mu.Lock()
	if w.token != token || w.state != StatePending {
		w.mu.Unlock()
		return
	}
	w.current = rec
	w.state = StateResolved
	w.stopLocked()
	listener := w.listener
	w.mu.Unlock()

	update := Update{SectionID: sectionID, Record: rec, Token: token}
	w.publish(update)
	if listener != nil {
		listener(update)
	}
}

// publish replaces any undelivered update with u
func (w *Watcher) publish(u Update) {
	for {
		select {
		case w.updates <- u:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}
