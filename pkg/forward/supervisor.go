// Package forward owns the port-forward child for the rest of the run: it
// starts it, stops it on interrupt, and returns once it is gone.
package forward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/xlttj/kfwd/pkg/failure"
	"github.com/xlttj/kfwd/pkg/logging"
	"github.com/xlttj/kfwd/pkg/ui"
)

// DefaultPollInterval is how often the supervisor checks for the end of the session.
const DefaultPollInterval = 100 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called on a used supervisor.
var ErrAlreadyRunning = errors.New("interrupt handler already installed")

// Process is the handle of a running forward child.
type Process interface {
	Terminate() error
	Wait() error
	Exited() bool
}

// State is the lifecycle position of a supervisor.
type State int32

const (
	Idle State = iota
	Starting
	Running
	Terminating
	Exited
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Terminating:
		return "Terminating"
	case Exited:
		return "Exited"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// handle holds the child once it is running. Whoever claims it first is the
// only one allowed to terminate and reap it.
type handle struct {
	proc    Process
	claimed atomic.Bool
}

func (h *handle) claim() (Process, bool) {
	if !h.claimed.CompareAndSwap(false, true) {
		return nil, false
	}
	return h.proc, true
}

// Supervisor runs a single forward session.
type Supervisor struct {
	PollInterval time.Duration

	out        io.Writer
	notify     func(c chan<- os.Signal) error
	stopNotify func(c chan<- os.Signal)

	state   atomic.Int32
	stopped atomic.Bool
}

// New returns a supervisor printing notices to out and listening for os.Interrupt.
func New(out io.Writer) *Supervisor {
	return &Supervisor{
		PollInterval: DefaultPollInterval,
		out:          out,
		notify: func(c chan<- os.Signal) error {
			signal.Notify(c, os.Interrupt)
			return nil
		},
		stopNotify: func(c chan<- os.Signal) {
			signal.Stop(c)
		},
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(state State) {
	logging.LogDebug("Forward supervisor: %s -> %s", s.State(), state)
	s.state.Store(int32(state))
}

// Run starts the child with start and blocks until the session ends: an
// interrupt (or ctx cancellation) kills and reaps the child, and a child that
// exits on its own is reaped. Both count as a completed session.
func (s *Supervisor) Run(ctx context.Context, start func() (Process, error)) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Starting)) {
		return failure.Wrap(failure.SignalSetupFailed, ErrAlreadyRunning)
	}

	proc, err := start()
	if err != nil {
		s.setState(Exited)
		return failure.Wrap(failure.KubectlFailed, err)
	}
	h := &handle{proc: proc}

	sigs := make(chan os.Signal, 1)
	if err := s.notify(sigs); err != nil {
		s.reap(h, "")
		s.setState(Exited)
		return failure.Wrap(failure.SignalSetupFailed, err)
	}
	defer s.stopNotify(sigs)
	s.setState(Running)

	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			select {
			case <-sigs:
				s.interrupt(h)
			case <-ctx.Done():
				s.interrupt(h)
				return
			case <-quit:
				return
			}
		}
	}()

	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !s.stopped.Load() {
		if proc.Exited() {
			s.reap(h, "Port-forward process exited.")
		}
		if s.stopped.Load() {
			break
		}
		<-ticker.C
	}

	s.setState(Exited)
	return nil
}

// interrupt kills and reaps the child unless someone already did.
func (s *Supervisor) interrupt(h *handle) {
	proc, ok := h.claim()
	if !ok {
		logging.LogDebug("Interrupt ignored, port-forward already terminating")
		return
	}
	s.setState(Terminating)

	if err := proc.Terminate(); err != nil {
		logging.LogError(err, "Failed to kill port-forward process")
	}
	if err := proc.Wait(); err != nil {
		logging.LogDebug("Port-forward process ended: %v", err)
	}
	fmt.Fprintln(s.out, "\n"+ui.RenderNotice("Port-forward terminated successfully."))
	s.stopped.Store(true)
}

// reap collects a child that exited by itself. notice is printed when set.
func (s *Supervisor) reap(h *handle, notice string) {
	proc, ok := h.claim()
	if !ok {
		return
	}
	s.setState(Terminating)

	// The child may still be alive when signal setup failed.
	if !proc.Exited() {
		if err := proc.Terminate(); err != nil {
			logging.LogError(err, "Failed to kill port-forward process")
		}
	}
	if err := proc.Wait(); err != nil {
		logging.LogWarn("Port-forward process ended: %v", err)
	}
	if notice != "" {
		fmt.Fprintln(s.out, ui.RenderNotice(notice))
	}
	s.stopped.Store(true)
}
