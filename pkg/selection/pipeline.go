// Package selection walks the user from a kubectl context down to a port
// mapping for one service, defaulting every step to what was chosen last time
// when that choice is still available.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/xlttj/kfwd/pkg/config"
	"github.com/xlttj/kfwd/pkg/failure"
	"github.com/xlttj/kfwd/pkg/kubectl"
	"github.com/xlttj/kfwd/pkg/logging"
	"github.com/xlttj/kfwd/pkg/ui"
)

// Gateway answers cluster queries.
type Gateway interface {
	CurrentContext(ctx context.Context) (string, error)
	Contexts(ctx context.Context) ([]string, error)
	UseContext(ctx context.Context, name string) error
	Namespaces(ctx context.Context) ([]kubectl.Namespace, error)
	Services(ctx context.Context, namespace string) ([]kubectl.Service, error)
}

// Prompter asks the user to choose.
type Prompter interface {
	// Select returns the index of the chosen item; defaultIndex -1 means no default.
	Select(label string, items []string, defaultIndex int) (int, error)
	// MultiSelect returns the indexes of the checked items.
	MultiSelect(label string, items []string, checked []bool) ([]int, error)
	// Port reads a local port; defaultPort 0 means no default.
	Port(label string, defaultPort uint16) (uint16, error)
	// Spin runs work behind a progress indicator.
	Spin(message string, work func() error) error
}

// Store persists the preference record.
type Store interface {
	Save(prefs *config.Preferences) error
}

// Result is the outcome of a completed selection.
type Result struct {
	Context   string
	Namespace kubectl.Namespace
	Service   kubectl.Service
	Ports     config.PortMapping
}

// Pipeline runs the five selection stages in order.
type Pipeline struct {
	gateway  Gateway
	prompter Prompter
	store    Store
	prefs    *config.Preferences
}

// New returns a pipeline defaulting from prefs. prefs is updated in place as
// choices are made.
func New(gateway Gateway, prompter Prompter, store Store, prefs *config.Preferences) *Pipeline {
	if prefs == nil {
		prefs = config.NewPreferences()
	}
	return &Pipeline{gateway: gateway, prompter: prompter, store: store, prefs: prefs}
}

// Preferences returns the record as updated by the run so far.
func (p *Pipeline) Preferences() *config.Preferences {
	return p.prefs
}

// Run executes every stage. On success the record has been saved with the new
// port mapping. When no port is selected the namespace and service are still
// saved and a NoPorts failure is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	kubeContext, err := p.selectContext(ctx)
	if err != nil {
		return nil, err
	}

	namespace, err := p.selectNamespace(ctx)
	if err != nil {
		return nil, err
	}
	p.prefs.Namespace = namespace.Name

	service, err := p.selectService(ctx, namespace)
	if err != nil {
		return nil, err
	}
	p.prefs.LastService = service.Name

	history := p.prefs.PortsFor(service.Name)

	remotePorts, err := p.selectRemotePorts(service, history)
	if err != nil {
		return nil, err
	}
	if len(remotePorts) == 0 {
		if err := p.save(); err != nil {
			return nil, err
		}
		return nil, failure.New(failure.NoPorts)
	}

	mapping, err := p.selectLocalPorts(remotePorts, history)
	if err != nil {
		return nil, err
	}
	p.prefs.SetPorts(service.Name, mapping)
	if err := p.save(); err != nil {
		return nil, err
	}

	return &Result{Context: kubeContext, Namespace: namespace, Service: service, Ports: mapping}, nil
}

func (p *Pipeline) save() error {
	if p.store == nil {
		return nil
	}
	return failure.Wrap(failure.IOError, p.store.Save(p.prefs))
}

// promptFailure classifies an error from the prompter. Every prompt error,
// including a cancelled prompt, ends the run as an invalid selection.
func promptFailure(err error) error {
	return failure.Wrap(failure.InvalidSelection, err)
}

// indexOf returns the position of want in items, or -1.
func indexOf(items []string, want string) int {
	if want == "" {
		return -1
	}
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}

func (p *Pipeline) selectContext(ctx context.Context) (string, error) {
	contexts, err := p.gateway.Contexts(ctx)
	if err != nil {
		return "", failure.Wrap(failure.KubectlFailed, err)
	}
	if len(contexts) == 0 {
		return "", failure.New(failure.NoContext)
	}

	current, err := p.gateway.CurrentContext(ctx)
	if err != nil {
		logging.LogDebug("No current context reported: %v", err)
		current = ""
	}

	if len(contexts) == 1 {
		logging.LogDebug("Single context %q, keeping it", contexts[0])
		return contexts[0], nil
	}

	idx, err := p.prompter.Select("Select context", contexts, indexOf(contexts, current))
	if err != nil {
		return "", promptFailure(err)
	}
	chosen := contexts[idx]
	if err := p.gateway.UseContext(ctx, chosen); err != nil {
		return "", failure.Wrap(failure.KubectlFailed, fmt.Errorf("switch to context %s: %w", chosen, err))
	}
	return chosen, nil
}

func (p *Pipeline) selectNamespace(ctx context.Context) (kubectl.Namespace, error) {
	var namespaces []kubectl.Namespace
	err := p.prompter.Spin("Getting available namespaces...", func() error {
		var err error
		namespaces, err = p.gateway.Namespaces(ctx)
		return err
	})
	if errors.Is(err, ui.ErrAborted) {
		return kubectl.Namespace{}, promptFailure(err)
	}
	if err != nil {
		return kubectl.Namespace{}, failure.Wrap(failure.KubectlFailed, err)
	}
	if len(namespaces) == 0 {
		return kubectl.Namespace{}, failure.New(failure.NoNamespace)
	}
	if len(namespaces) == 1 {
		return namespaces[0], nil
	}

	names := make([]string, len(namespaces))
	for i, ns := range namespaces {
		names[i] = ns.Name
	}
	idx, err := p.prompter.Select("Select namespace", names, indexOf(names, p.prefs.Namespace))
	if err != nil {
		return kubectl.Namespace{}, promptFailure(err)
	}
	return namespaces[idx], nil
}

func (p *Pipeline) selectService(ctx context.Context, namespace kubectl.Namespace) (kubectl.Service, error) {
	var services []kubectl.Service
	err := p.prompter.Spin(fmt.Sprintf("Reading services of %s...", namespace.Name), func() error {
		var err error
		services, err = p.gateway.Services(ctx, namespace.Name)
		return err
	})
	if errors.Is(err, ui.ErrAborted) {
		return kubectl.Service{}, promptFailure(err)
	}
	if err != nil {
		return kubectl.Service{}, failure.Wrap(failure.KubectlFailed, err)
	}
	if len(services) == 0 {
		return kubectl.Service{}, failure.NoServiceIn(namespace.Name)
	}
	if len(services) == 1 {
		return services[0], nil
	}

	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = svc.Name
	}
	idx, err := p.prompter.Select("Select service", names, indexOf(names, p.prefs.LastService))
	if err != nil {
		return kubectl.Service{}, promptFailure(err)
	}
	return services[idx], nil
}

// selectRemotePorts confirms a lone port with a one-item checklist and takes
// every port of a multi-port service without asking.
func (p *Pipeline) selectRemotePorts(service kubectl.Service, history config.PortMapping) ([]uint16, error) {
	ports := service.RemotePorts()
	if len(ports) != 1 {
		return ports, nil
	}

	_, previouslyForwarded := history[ports[0]]
	picked, err := p.prompter.MultiSelect(
		fmt.Sprintf("Select ports of %s", service.Name),
		[]string{strconv.Itoa(int(ports[0]))},
		[]bool{previouslyForwarded},
	)
	if err != nil {
		return nil, promptFailure(err)
	}

	selected := make([]uint16, 0, len(picked))
	for _, i := range picked {
		selected = append(selected, ports[i])
	}
	return selected, nil
}

func (p *Pipeline) selectLocalPorts(remotePorts []uint16, history config.PortMapping) (config.PortMapping, error) {
	mapping := make(config.PortMapping, len(remotePorts))
	for _, remote := range remotePorts {
		local, err := p.prompter.Port(
			fmt.Sprintf("Forward container port %d to local port:", remote),
			history[remote],
		)
		if err != nil {
			return nil, promptFailure(err)
		}
		mapping[remote] = local
	}
	return mapping, nil
}
