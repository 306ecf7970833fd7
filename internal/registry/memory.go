package registry

import (
	"sort"
	"sync"
)

// Memory is an in-memory store for testing and the REPL.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*Package
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*Package)}
}

// Get retrieves a package by name.
func (m *Memory) Get(name string) (*Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.data[name]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

// Put stores a package by name.
func (m *Memory) Put(pkg *Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pkg
	m.data[pkg.Name] = &cp
	return nil
}

// List returns installed package names in sorted order.
func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a package by name.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error {
	return nil
}
