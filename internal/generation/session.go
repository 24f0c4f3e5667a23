package generation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle of the generation owned by a Session.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateDone
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Terminal reports whether no more deltas can change the state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored || s == StateCancelled
}

var ErrCancelled = errors.New("generation cancelled")

// Generator is satisfied by *Client.
type Generator interface {
	Generate(ctx context.Context, req Request, onDelta DeltaFunc) (*Result, error)
}

// Snapshot is the visible state of a session. Result is only set in
// StateDone; Partial is what has streamed so far and is never a final result.
type Snapshot struct {
	ID      string
	State   State
	Partial string
	Result  *Result
	Err     error
}

// Session allows one generation in flight, like a builder dialog. Starting a
// new generation or cancelling abandons the current one; deltas that arrive
// for an abandoned generation are dropped.
type Session struct {
	gen      Generator
	onChange func(Snapshot)

	mu      sync.Mutex
	epoch   uint64
	seq     uint64
	id      string
	state   State
	partial strings.Builder
	result  *Result
	err     error
	cancel  context.CancelFunc

	// notifyMu orders onChange calls; delivered is the seq of the last one
	notifyMu  sync.Mutex
	delivered uint64
}

// NewSession creates an idle session. onChange, if set, is called with every
// visible state change in order, outside the session lock. Snapshots that were
// overtaken by a newer one are never delivered. onChange must not call back
// into the session.
func NewSession(gen Generator, onChange func(Snapshot)) *Session {
	return &Session{gen: gen, onChange: onChange}
}

// Run starts a generation, abandoning any in flight, and blocks until it
// ends. A generation that was abandoned or whose ctx was cancelled returns
// ErrCancelled.
func (s *Session) Run(ctx context.Context, req Request) (*Result, error) {
	_, result, err := s.run(ctx, req)
	return result, err
}

// Start is Run in the background. The returned channel receives the final
// snapshot of this generation, even if a newer one has since started, and is
// then closed.
func (s *Session) Start(ctx context.Context, req Request) <-chan Snapshot {
	done := make(chan Snapshot, 1)
	go func() {
		defer close(done)
		final, _, _ := s.run(ctx, req)
		done <- final
	}()
	return done
}

func (s *Session) run(ctx context.Context, req Request) (Snapshot, *Result, error) {
	ctx, epoch, id := s.begin(ctx)

	result, err := s.gen.Generate(ctx, req, func(delta string) {
		s.apply(epoch, delta)
	})

	return s.finish(epoch, id, result, err)
}

// Cancel abandons the in-flight generation, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	s.abandonLocked()
	s.state = StateCancelled
	s.err = ErrCancelled
	snap, seq := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap, seq)
}

// Snapshot returns the current visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) begin(parent context.Context) (context.Context, uint64, string) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.state == StateStreaming {
		s.abandonLocked()
	}
	s.epoch++
	epoch := s.epoch
	s.id = uuid.NewString()
	s.state = StateStreaming
	s.partial.Reset()
	s.result = nil
	s.err = nil
	s.cancel = cancel
	id := s.id
	snap, seq := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap, seq)
	return ctx, epoch, id
}

func (s *Session) apply(epoch uint64, delta string) {
	if delta == "" {
		return
	}

	s.mu.Lock()
	if epoch != s.epoch || s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	s.partial.WriteString(delta)
	snap, seq := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap, seq)
}

// finish records the outcome of generation epoch and returns its final
// snapshot. An abandoned generation keeps its cancelled snapshot if it is still
// the visible one; a superseded one gets a synthesized cancelled snapshot.
func (s *Session) finish(epoch uint64, id string, result *Result, err error) (Snapshot, *Result, error) {
	s.mu.Lock()
	if epoch != s.epoch || s.state != StateStreaming {
		final := Snapshot{ID: id, State: StateCancelled, Err: ErrCancelled}
		if s.id == id {
			final = s.snapshotLocked()
		}
		s.mu.Unlock()
		return final, nil, ErrCancelled
	}

	s.cancel()
	s.cancel = nil
	switch {
	case errors.Is(err, context.Canceled):
		s.state = StateCancelled
		s.err = ErrCancelled
		err = ErrCancelled
	case err != nil:
		s.state = StateErrored
		s.err = err
	default:
		s.state = StateDone
		s.result = result
	}
	snap, seq := s.stampLocked()
	s.mu.Unlock()

	s.notify(snap, seq)
	if err != nil {
		return snap, nil, err
	}
	return snap, result, nil
}

// abandonLocked cancels the running request and invalidates its epoch.
func (s *Session) abandonLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:      s.id,
		State:   s.state,
		Partial: s.partial.String(),
		Result:  s.result,
		Err:     s.err,
	}
}

// stampLocked takes a snapshot for delivery, numbered in state-change order.
func (s *Session) stampLocked() (Snapshot, uint64) {
	s.seq++
	return s.snapshotLocked(), s.seq
}

func (s *Session) notify(snap Snapshot, seq uint64) {
	if s.onChange == nil {
		return
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq
	s.onChange(snap)
}
