package container

import (
	"fmt"
	"reflect"
	"sync"
)

// Container is a named registry of long-lived instances and lazily
// built singletons, looked up by name. The supervisor wires its
// components directly and does not register them here, and no admin
// endpoint reads a Container.
type Container struct {
	services map[string]interface{}
	mu       sync.RWMutex
}

// NewContainer creates a new empty container.
func NewContainer() *Container {
	return &Container{
		services: make(map[string]interface{}),
	}
}

// Register registers a service instance under a name.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[name] = service
}

// RegisterSingleton registers a lazily-constructed, once-built service.
func (c *Container) RegisterSingleton(name string, factory func(*Container) interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[name] = &lazySingleton{
		factory:   factory,
		container: c,
	}
}

// Get retrieves a service by name.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.RLock()
	service, exists := c.services[name]
	c.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("service '%s' not found", name)
	}

	if lazy, ok := service.(*lazySingleton); ok {
		return lazy.getInstance(), nil
	}

	return service, nil
}

// MustGet retrieves a service by name or panics. Intended for startup
// wiring where a missing dependency is a programming error, not a
// runtime condition to recover from.
func (c *Container) MustGet(name string) interface{} {
	service, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return service
}

// GetServices returns all registered service names.
func (c *Container) GetServices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	return names
}

// HasService checks if a service is registered.
func (c *Container) HasService(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.services[name]
	return exists
}

type lazySingleton struct {
	factory   func(*Container) interface{}
	container *Container
	instance  interface{}
	once      sync.Once
}

func (l *lazySingleton) getInstance() interface{} {
	l.once.Do(func() {
		l.instance = l.factory(l.container)
	})
	return l.instance
}

// ServiceInfo describes a registered service: its name, its stored
// Go type and whether it is a lazy singleton or a plain instance.
type ServiceInfo struct {
	Name string
	Type reflect.Type
	Kind string // singleton, instance
}

// GetServiceInfo returns information about all registered services.
func (c *Container) GetServiceInfo() []ServiceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := make([]ServiceInfo, 0, len(c.services))
	for name, service := range c.services {
		si := ServiceInfo{Name: name, Type: reflect.TypeOf(service)}
		if _, ok := service.(*lazySingleton); ok {
			si.Kind = "singleton"
		} else {
			si.Kind = "instance"
		}
		info = append(info, si)
	}

	return info
}
