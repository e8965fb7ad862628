package wizard

import (
	"fmt"
	"slices"

	"github.com/bbruceyuan/vmarker/internal/shared"
)

// Steps tracks the current position in a linear sequence of steps.
//
// Moving forward is unexported: wizards advance only from a step's completion handler.
// Moving back is unrestricted.
type Steps[S comparable] struct {
	order   []S
	current int
}

// NewSteps starts at the first of order.
func NewSteps[S comparable](order ...S) *Steps[S] {
	return &Steps[S]{order: order}
}

func (s *Steps[S]) Current() S    { return s.order[s.current] }
func (s *Steps[S]) Index() int    { return s.current }
func (s *Steps[S]) All() []S      { return slices.Clone(s.order) }
func (s *Steps[S]) IsFirst() bool { return s.current == 0 }
func (s *Steps[S]) IsLast() bool  { return s.current == len(s.order)-1 }

// IndexOf returns step's position, or -1.
func (s *Steps[S]) IndexOf(step S) int {
	return slices.Index(s.order, step)
}

// Reached reports whether step is the current step or one before it.
func (s *Steps[S]) Reached(step S) bool {
	i := s.IndexOf(step)
	return i >= 0 && i <= s.current
}

// Prev moves back one step. It is a no-op on the first step.
func (s *Steps[S]) Prev() {
	if s.current > 0 {
		s.current--
	}
}

// GoTo jumps to an earlier step, or stays put on the current one.
func (s *Steps[S]) GoTo(step S) error {
	i := s.IndexOf(step)
	if i < 0 {
		return fmt.Errorf("%w: unknown step %v", shared.ErrInvalidArgument, step)
	}
	if i > s.current {
		return fmt.Errorf("%w: %v", shared.ErrStepLocked, step)
	}
	s.current = i
	return nil
}

func (s *Steps[S]) jump(step S) {
	if i := s.IndexOf(step); i >= 0 {
		s.current = i
	}
}
