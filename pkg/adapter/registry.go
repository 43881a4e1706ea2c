package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownAdapter is matched by UnknownAdapterError.
var ErrUnknownAdapter = errors.New("unknown adapter type")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Introspector)
)

// Register adds an introspector factory to the registry.
// Called by implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Introspector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a factory by name.
func Get(name string) (func(*slog.Logger) Introspector, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// NewIntrospector creates an introspector for cfg.Type.
// The logger is passed to the constructor (nil uses a discard logger).
func NewIntrospector(cfg Config, logger *slog.Logger) (Introspector, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// ListAdapters returns all registered adapter names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an adapter type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check target.type in sqlcomplete.yaml", e.Type, e.Available)
}

// Is reports whether target is ErrUnknownAdapter.
func (e *UnknownAdapterError) Is(target error) bool {
	return target == ErrUnknownAdapter
}
