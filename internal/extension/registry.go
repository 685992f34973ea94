// Package extension implements the namespaced extension registry: servers
// register capabilities under "namespace/name" identifiers, clients
// negotiate a per-session enabled subset via the initialize handshake's
// experimental capability map, and registered extensions are notified of
// both enablement and teardown.
package extension

import (
	"sync"

	"github.com/chief-builder/mcp-reference-server/internal/validation"
)

// Extension is a registered capability. OnInitialize is invoked once per
// session when the extension is negotiated enabled; OnShutdown fires during
// session or server teardown, in reverse registration order.
type Extension struct {
	Name         string
	OnInitialize func(clientSettings map[string]any) error
	OnShutdown   func()
}

// Registry is an insertion-ordered map of name -> Extension, generalizing
// the tool registry's map+order+RWMutex shape to extension capabilities.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]*Extension
	order      []string
}

// NewRegistry constructs an empty extension registry.
func NewRegistry() *Registry {
	return &Registry{extensions: make(map[string]*Extension)}
}

// Register adds ext to the registry. Duplicate names and malformed names
// are rejected.
func (r *Registry) Register(ext *Extension) error {
	if err := validation.ValidateExtensionName(ext.Name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.extensions[ext.Name]; exists {
		return &ErrDuplicateExtension{Name: ext.Name}
	}
	r.extensions[ext.Name] = ext
	r.order = append(r.order, ext.Name)
	return nil
}

// ErrDuplicateExtension is returned when Register is called twice for the
// same extension name.
type ErrDuplicateExtension struct{ Name string }

func (e *ErrDuplicateExtension) Error() string {
	return "extension already registered: " + e.Name
}

// Names returns all registered extension names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Negotiate compares the client's experimental capability map against the
// registry, returning the intersection (the enabled set for this session)
// in registration order. OnInitialize is invoked for each enabled
// extension with its corresponding client settings.
func (r *Registry) Negotiate(experimental map[string]any) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enabled []string
	for _, name := range r.order {
		settings, requested := experimental[name]
		if !requested {
			continue
		}
		ext := r.extensions[name]
		settingsMap, _ := settings.(map[string]any)
		if ext.OnInitialize != nil {
			if err := ext.OnInitialize(settingsMap); err != nil {
				return nil, err
			}
		}
		enabled = append(enabled, name)
	}
	return enabled, nil
}

// Shutdown fires OnShutdown for every registered extension, in reverse
// registration order.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		ext := r.extensions[r.order[i]]
		if ext.OnShutdown != nil {
			ext.OnShutdown()
		}
	}
}
