package kubectl

import (
	corev1 "k8s.io/api/core/v1"
)

// Namespace is a namespace as listed by kubectl.
type Namespace struct {
	Name string
}

func (n Namespace) String() string {
	return n.Name
}

// Port is one port exposed by a service inside the cluster.
type Port struct {
	Name     string
	Remote   uint16
	Protocol string
}

// Service is a service with its ports in declaration order.
type Service struct {
	Name  string
	Ports []Port
}

func (s Service) String() string {
	return s.Name
}

// RemotePorts returns the service's port numbers in declaration order.
func (s Service) RemotePorts() []uint16 {
	ports := make([]uint16, 0, len(s.Ports))
	for _, p := range s.Ports {
		ports = append(ports, p.Remote)
	}
	return ports
}

func namespacesFromList(list *corev1.NamespaceList) []Namespace {
	namespaces := make([]Namespace, 0, len(list.Items))
	for _, item := range list.Items {
		namespaces = append(namespaces, Namespace{Name: item.Name})
	}
	return namespaces
}

func servicesFromList(list *corev1.ServiceList) []Service {
	services := make([]Service, 0, len(list.Items))
	for _, item := range list.Items {
		svc := Service{Name: item.Name}
		for _, p := range item.Spec.Ports {
			// Valid service ports are 1..65535; anything else cannot be forwarded.
			if p.Port <= 0 || p.Port > 65535 {
				continue
			}
			svc.Ports = append(svc.Ports, Port{
				Name:     p.Name,
				Remote:   uint16(p.Port),
				Protocol: string(p.Protocol),
			})
		}
		services = append(services, svc)
	}
	return services
}
