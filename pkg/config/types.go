package config

// PortMapping maps a remote service port to the local port it is forwarded to.
// JSON encodes the keys as strings ("8080": 9090).
type PortMapping map[uint16]uint16

// Preferences is the record persisted between runs.
// Every field is optional on read; older files without lastService load as-is.
type Preferences struct {
	Namespace   string                 `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	LastService string                 `json:"lastService,omitempty" yaml:"lastService,omitempty"`
	Ports       map[string]PortMapping `json:"ports" yaml:"ports"`
}

// NewPreferences returns an empty record.
func NewPreferences() *Preferences {
	return &Preferences{Ports: map[string]PortMapping{}}
}

// PortsFor returns the persisted mapping for service, or nil.
func (p *Preferences) PortsFor(service string) PortMapping {
	if p == nil || p.Ports == nil {
		return nil
	}
	return p.Ports[service]
}

// SetPorts replaces the mapping stored for service.
func (p *Preferences) SetPorts(service string, mapping PortMapping) {
	if p.Ports == nil {
		p.Ports = map[string]PortMapping{}
	}
	p.Ports[service] = mapping
}
