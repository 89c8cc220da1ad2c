package forward

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlttj/kfwd/pkg/failure"
)

type fakeProcess struct {
	terminations atomic.Int32
	waits        atomic.Int32
	done         chan struct{}
	once         sync.Once
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProcess) Terminate() error {
	p.terminations.Add(1)
	p.exit()
	return nil
}

func (p *fakeProcess) Wait() error {
	p.waits.Add(1)
	<-p.done
	return nil
}

func (p *fakeProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// syncBuffer guards a bytes.Buffer written by the handler goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestSupervisor returns a supervisor whose signal channel is handed to
// the test through the returned channel once Run installs it.
func newTestSupervisor(out *syncBuffer) (*Supervisor, chan chan<- os.Signal) {
	installed := make(chan chan<- os.Signal, 1)
	s := New(out)
	s.PollInterval = 5 * time.Millisecond
	s.notify = func(c chan<- os.Signal) error {
		installed <- c
		return nil
	}
	s.stopNotify = func(chan<- os.Signal) {}
	return s, installed
}

func runAsync(s *Supervisor, ctx context.Context, proc Process) chan error {
	result := make(chan error, 1)
	go func() {
		result <- s.Run(ctx, func() (Process, error) { return proc, nil })
	}()
	return result
}

func waitResult(t *testing.T, result chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not return")
		return nil
	}
}

func TestInterruptKillsOnce(t *testing.T) {
	out := &syncBuffer{}
	s, installed := newTestSupervisor(out)
	proc := newFakeProcess()

	result := runAsync(s, context.Background(), proc)
	sigs := <-installed

	sigs <- os.Interrupt
	sigs <- os.Interrupt

	require.NoError(t, waitResult(t, result))
	assert.Equal(t, int32(1), proc.terminations.Load())
	assert.Equal(t, int32(1), proc.waits.Load())
	assert.Contains(t, out.String(), "Port-forward terminated successfully.")
	assert.Equal(t, Exited, s.State())
}

func TestNaturalExitEndsSession(t *testing.T) {
	out := &syncBuffer{}
	s, installed := newTestSupervisor(out)
	proc := newFakeProcess()

	result := runAsync(s, context.Background(), proc)
	<-installed
	assert.Eventually(t, func() bool { return s.State() == Running }, time.Second, time.Millisecond)

	proc.exit()

	require.NoError(t, waitResult(t, result))
	assert.Equal(t, int32(0), proc.terminations.Load(), "an exited child is not killed")
	assert.Equal(t, int32(1), proc.waits.Load())
	assert.Contains(t, out.String(), "Port-forward process exited.")
	assert.Equal(t, Exited, s.State())
}

func TestContextCancelActsAsInterrupt(t *testing.T) {
	out := &syncBuffer{}
	s, installed := newTestSupervisor(out)
	proc := newFakeProcess()
	ctx, cancel := context.WithCancel(context.Background())

	result := runAsync(s, ctx, proc)
	<-installed
	cancel()

	require.NoError(t, waitResult(t, result))
	assert.Equal(t, int32(1), proc.terminations.Load())
}

func TestStartFailure(t *testing.T) {
	s := New(&syncBuffer{})
	startErr := errors.New("exec: \"kubectl\": executable file not found in $PATH")

	err := s.Run(context.Background(), func() (Process, error) { return nil, startErr })
	assert.Equal(t, failure.KubectlFailed, failure.KindOf(err))
	assert.ErrorIs(t, err, startErr)
	assert.Equal(t, Exited, s.State())
}

func TestSignalSetupFailureReapsChild(t *testing.T) {
	s := New(&syncBuffer{})
	s.notify = func(chan<- os.Signal) error { return errors.New("no signals here") }
	proc := newFakeProcess()

	err := s.Run(context.Background(), func() (Process, error) { return proc, nil })
	assert.Equal(t, failure.SignalSetupFailed, failure.KindOf(err))
	assert.Equal(t, int32(1), proc.terminations.Load())
	assert.True(t, proc.Exited())
}

func TestRunTwiceFails(t *testing.T) {
	out := &syncBuffer{}
	s, installed := newTestSupervisor(out)
	proc := newFakeProcess()

	result := runAsync(s, context.Background(), proc)
	sigs := <-installed

	err := s.Run(context.Background(), func() (Process, error) {
		t.Fatal("second run must not start a process")
		return nil, nil
	})
	assert.Equal(t, failure.SignalSetupFailed, failure.KindOf(err))
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	sigs <- os.Interrupt
	require.NoError(t, waitResult(t, result))
}

func TestHandleClaimIsExclusive(t *testing.T) {
	h := &handle{proc: newFakeProcess()}

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := h.claim(); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Terminating", Terminating.String())
	assert.Equal(t, "State(42)", State(42).String())
}
