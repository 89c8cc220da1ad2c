package kubectl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/xlttj/kfwd/pkg/logging"

	corev1 "k8s.io/api/core/v1"
)

// DefaultBinary is the cluster tool invoked when none is configured.
const DefaultBinary = "kubectl"

// queryTimeout bounds every read-only kubectl query.
const queryTimeout = 30 * time.Second

// ErrCommandFailed is returned when kubectl exits with a non-zero status.
var ErrCommandFailed = errors.New("command failed")

// ErrMalformedOutput is returned when kubectl output cannot be decoded.
var ErrMalformedOutput = errors.New("malformed kubectl output")

// runFunc executes binary with args and returns its standard output.
type runFunc func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Client issues queries and the port-forward command to kubectl.
type Client struct {
	binary string
	run    runFunc

	// Stdout and Stderr receive the output of the forwarding process.
	Stdout io.Writer
	Stderr io.Writer

	portAvailable func(port uint16) bool
}

// NewClient returns a client for binary, or DefaultBinary when empty.
func NewClient(binary string) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{
		binary:        binary,
		run:           runCommand,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		portAvailable: isPortAvailable,
	}
}

// Binary returns the configured cluster tool.
func (c *Client) Binary() string {
	return c.binary
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s %s: %v (stderr: %s)",
				ErrCommandFailed, binary, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s %s timed out after %s", binary, strings.Join(args, " "), queryTimeout)
		}
		return nil, fmt.Errorf("failed to launch %s: %w", binary, err)
	}
	return stdout.Bytes(), nil
}

func (c *Client) query(ctx context.Context, args ...string) ([]byte, error) {
	logging.LogDebug("Running %s %s", c.binary, strings.Join(args, " "))
	out, err := c.run(ctx, c.binary, args...)
	if err != nil {
		logging.LogError(err, "%s %s failed", c.binary, strings.Join(args, " "))
		return nil, err
	}
	return out, nil
}

// CurrentContext returns the context kubectl currently uses.
func (c *Client) CurrentContext(ctx context.Context) (string, error) {
	out, err := c.query(ctx, "config", "current-context")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Contexts lists all configured contexts. The result may be empty.
func (c *Client) Contexts(ctx context.Context) ([]string, error) {
	out, err := c.query(ctx, "config", "get-contexts", "--output=name")
	if err != nil {
		return nil, err
	}

	var contexts []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			contexts = append(contexts, line)
		}
	}
	return contexts, nil
}

// UseContext switches kubectl to name.
func (c *Client) UseContext(ctx context.Context, name string) error {
	_, err := c.query(ctx, "config", "use-context", name)
	return err
}

// Namespaces lists the namespaces of the current context.
func (c *Client) Namespaces(ctx context.Context) ([]Namespace, error) {
	out, err := c.query(ctx, "get", "namespaces", "--output=json")
	if err != nil {
		return nil, err
	}

	var list corev1.NamespaceList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("%w: namespaces: %v", ErrMalformedOutput, err)
	}
	return namespacesFromList(&list), nil
}

// Services lists the services in namespace.
func (c *Client) Services(ctx context.Context, namespace string) ([]Service, error) {
	out, err := c.query(ctx, "--namespace", namespace, "get", "services", "--output=json")
	if err != nil {
		return nil, err
	}

	var list corev1.ServiceList
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("%w: services in %s: %v", ErrMalformedOutput, namespace, err)
	}
	return servicesFromList(&list), nil
}
