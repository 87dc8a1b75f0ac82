// Package extensions maps unique names to transformers that derive a new
// compiled form from an existing one. Registries are filled during process
// start-up and only read afterwards, so they carry no locks: call Register
// before serving requests and Seal once start-up is done.
package extensions

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formcode/pkg/compiler"
)

var (
	// ErrSealed is returned by Register after Seal.
	ErrSealed = errors.New("extensions: registry is sealed")
	// ErrDuplicate is wrapped by Register when a name is taken.
	ErrDuplicate = errors.New("extensions: name already registered")
	// ErrNotFound is wrapped by Lookup and Apply for unknown names.
	ErrNotFound = errors.New("extensions: extension not found")
)

// Extension derives a new form from a compiled one. Implementations must
// not mutate the input; compiled forms are immutable anyway.
type Extension interface {
	Extend(form *compiler.Form) (*compiler.Form, error)
}

// ExtensionFunc adapts a function to the Extension interface.
type ExtensionFunc func(form *compiler.Form) (*compiler.Form, error)

// Extend calls the wrapped function.
func (fn ExtensionFunc) Extend(form *compiler.Form) (*compiler.Form, error) {
	return fn(form)
}

// Registry stores extensions by name.
type Registry struct {
	entries map[string]Extension
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Extension)}
}

// Register adds an extension. Names are trimmed and lower-cased; a name may
// only be registered once.
func (r *Registry) Register(name string, ext Extension) error {
	if r.sealed {
		return ErrSealed
	}
	if ext == nil {
		return fmt.Errorf("extensions: extension %q is nil", name)
	}
	key := normalizeName(name)
	if key == "" {
		return errors.New("extensions: name is required")
	}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, key)
	}
	r.entries[key] = ext
	return nil
}

// MustRegister panics when registration fails.
func (r *Registry) MustRegister(name string, ext Extension) {
	if err := r.Register(name, ext); err != nil {
		panic(err)
	}
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Lookup returns the extension registered under name.
func (r *Registry) Lookup(name string) (Extension, error) {
	key := normalizeName(name)
	ext, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return ext, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the named extensions in the given order, feeding each result
// into the next one.
func (r *Registry) Apply(form *compiler.Form, names ...string) (*compiler.Form, error) {
	if form == nil {
		return nil, errors.New("extensions: form is required")
	}
	current := form
	for _, name := range names {
		ext, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		next, err := ext.Extend(current)
		if err != nil {
			return nil, fmt.Errorf("extensions: %s: %w", normalizeName(name), err)
		}
		if next == nil {
			return nil, fmt.Errorf("extensions: %s returned no form", normalizeName(name))
		}
		current = next
	}
	return current, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
