package match

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Backend names accepted by NewCorrelator.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// Factory constructs a correlator.
type Factory func() (Correlator, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]Factory{
		BackendNative: func() (Correlator, error) { return NewNativeCorrelator(), nil },
	}
)

// Register makes a correlator backend available under name.
func Register(name string, factory Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[strings.ToLower(name)] = factory
}

// NewCorrelator constructs the named backend.
func NewCorrelator(name string) (Correlator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = BackendNative
	}
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		if name == BackendOpenCV {
			return nil, fmt.Errorf("correlator backend %q not compiled in (build with -tags gocv)", name)
		}
		return nil, fmt.Errorf("unknown correlator backend %q (available: %s)", name, strings.Join(Backends(), ", "))
	}
	return factory()
}

// Backends lists the registered backend names.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
