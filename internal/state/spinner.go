package state

import (
	"context"
	"sync"
	"time"
)

// Direction of a spinner step.
type Direction int

const (
	Up Direction = iota
	Down
)

const (
	DefaultSpinDelay    = 400 * time.Millisecond
	DefaultSpinInterval = 100 * time.Millisecond
)

// Spinner repeats a numeric step while a control is held: one step right
// away, then after Delay one step every Interval until Stop is called.
// There is no timeout; only Stop or the context ends a spin.
type Spinner struct {
	Store    *Store
	Delay    time.Duration
	Interval time.Duration
	// OnChange is called after every step that changed the store.
	OnChange func(Field)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSpinner(store *Store, onChange func(Field)) *Spinner {
	return &Spinner{Store: store, Delay: DefaultSpinDelay, Interval: DefaultSpinInterval, OnChange: onChange}
}

// Start begins spinning id in dir. A spin already running is stopped first.
func (s *Spinner) Start(ctx context.Context, id NumericField, dir Direction) {
	s.Stop()

	s.step(id, dir)

	spinCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-spinCtx.Done():
			return
		case <-timer.C:
		}
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-spinCtx.Done():
				return
			case <-ticker.C:
				s.step(id, dir)
			}
		}
	}()
}

// Stop ends the current spin and waits for its goroutine. It is safe to call
// when nothing is spinning.
func (s *Spinner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Spinning reports whether a spin is active.
func (s *Spinner) Spinning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Spinner) step(id NumericField, dir Direction) {
	step := s.Store.Limits().For(id).Step
	if step <= 0 {
		step = 1
	}
	if dir == Down {
		step = -step
	}
	if changed := s.Store.Adjust(id, step); changed != FieldNone && s.OnChange != nil {
		s.OnChange(changed)
	}
}
