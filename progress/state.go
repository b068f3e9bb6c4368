// Package progress implements the hierarchical progress-and-cancellation
// tree spec.md §9 calls for in place of the source's ad-hoc counter
// chains (state_get_child / state_done / state_finished): every long
// operation takes a *State and child states inherit cancellation from the
// root. Each State counts only its own steps: a child's progress is not
// added to its parent's Percent.
package progress

import (
	"context"
	"sync"

	"github.com/hughsie/zif"
)

// State is one node of the progress tree. The zero value is not usable;
// construct with New or Child.
type State struct {
	mu       sync.Mutex
	parent   *State
	steps    int
	done     int
	cancel   context.CancelFunc
	cancelled bool
	ctx      context.Context
}

// New creates a root State with the given number of steps, deriving its
// cancellation from parentCtx.
func New(parentCtx context.Context, steps int) *State {
	ctx, cancel := context.WithCancel(parentCtx)
	return &State{steps: steps, cancel: cancel, ctx: ctx}
}

// Child creates a State with its own steps count, sharing s's
// cancellation. Completing the child does not advance s; callers mark
// s's step done themselves.
func (s *State) Child(steps int) *State {
	return &State{parent: s, steps: steps, ctx: s.ctx}
}

// Context returns the State's cancellation-aware context.
func (s *State) Context() context.Context { return s.ctx }

// Cancel marks the root of s's tree cancelled. Every descendant State's
// Done/Finished calls will observe it.
func (s *State) Cancel() {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	root.mu.Lock()
	root.cancelled = true
	root.mu.Unlock()
	if root.cancel != nil {
		root.cancel()
	}
}

// cancelledErr returns a *zif.Error(ErrCancelled) if s's tree has been
// cancelled, else nil.
func (s *State) cancelledErr() error {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	root.mu.Lock()
	c := root.cancelled
	root.mu.Unlock()
	if c || root.ctx.Err() != nil {
		return zif.NewTransactionError("State", zif.ErrCancelled, "operation cancelled", nil)
	}
	return nil
}

// Done adds step to s's own completed count; ancestors are not updated.
// It returns a cancelled error if the tree has been cancelled, the one
// suspension-point check spec.md §5 calls out.
func (s *State) Done(step int) error {
	if err := s.cancelledErr(); err != nil {
		return err
	}
	s.mu.Lock()
	s.done += step
	s.mu.Unlock()
	return nil
}

// Percent returns the non-decreasing completion ratio of s, done/steps,
// clamped to [0,1]. Callers are expected to only report increasing
// values, per spec.md §4.3.7; Percent itself is monotonic within a
// single State because done only increases.
func (s *State) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.steps <= 0 {
		return 1
	}
	p := float64(s.done) / float64(s.steps)
	if p > 1 {
		p = 1
	}
	return p
}

// Finished marks s fully done, returning a cancelled error if
// applicable, the same way Done does.
func (s *State) Finished() error {
	if err := s.cancelledErr(); err != nil {
		return err
	}
	s.mu.Lock()
	s.done = s.steps
	s.mu.Unlock()
	return nil
}
