package kubectl

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/xlttj/kfwd/pkg/config"
	"github.com/xlttj/kfwd/pkg/logging"
)

// Sentinel error for a local port that something else already listens on
var ErrPortInUse = errors.New("local port already in use")

// isPortAvailable checks if a TCP port is available to listen on localhost.
func isPortAvailable(port uint16) bool {
	address := fmt.Sprintf("127.0.0.1:%d", port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		logging.LogDebug("Port check: Cannot listen on %s: %v", address, err)
		return false
	}
	_ = listener.Close()
	return true
}

// ForwardArgs builds the port-forward argument vector. Pairs are ordered by
// remote port so the command line is stable across runs.
func ForwardArgs(namespace, service string, ports config.PortMapping) []string {
	remotes := make([]int, 0, len(ports))
	for remote := range ports {
		remotes = append(remotes, int(remote))
	}
	sort.Ints(remotes)

	args := []string{"--namespace", namespace, "port-forward", "service/" + service}
	for _, remote := range remotes {
		args = append(args, fmt.Sprintf("%d:%d", ports[uint16(remote)], remote))
	}
	return args
}

// Process is a running port-forward child. The child is reaped by a single
// background goroutine, so Wait and Exited may be called from any goroutine.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func newProcess(cmd *exec.Cmd) *Process {
	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Terminate kills the child. Killing an already exited child is not an error.
func (p *Process) Terminate() error {
	if p.Exited() {
		return nil
	}
	logging.LogDebug("Stopping port-forward process PID: %d", p.Pid())
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Wait blocks until the child has exited and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Exited reports whether the child has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// StartForward spawns kubectl port-forward for service in namespace.
func (c *Client) StartForward(namespace, service string, ports config.PortMapping) (*Process, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports to forward for service/%s", service)
	}

	for _, local := range ports {
		if !c.portAvailable(local) {
			logging.LogError(ErrPortInUse, "Pre-check failed for local port %d", local)
			return nil, fmt.Errorf("%w: %d", ErrPortInUse, local)
		}
	}

	args := ForwardArgs(namespace, service, ports)
	logging.LogDebug("Starting %s %s", c.binary, strings.Join(args, " "))

	cmd := exec.Command(c.binary, args...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Start(); err != nil {
		logging.LogError(err, "Failed to start port-forward")
		return nil, fmt.Errorf("%s start failed: %w", c.binary, err)
	}

	logging.LogDebug("Started port-forward process PID: %d", cmd.Process.Pid)
	return newProcess(cmd), nil
}
