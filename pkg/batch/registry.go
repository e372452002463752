package batch

import (
	"fmt"
	"slices"
	"sync"
)

// KeyValue is one named measurement produced by an analyzer.
type KeyValue struct {
	Key   string
	Value int
}

// Analyzer inspects the lines of a single file. Analyze is called from
// several pool workers at once and must not mutate the analyzer.
type Analyzer interface {
	Name() string
	Describe() string

	Configure(config map[string]string) error
	Validate() error

	Analyze(lines []Line) []KeyValue
}

type Factory func() Analyzer

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("analyzer already registered: %s", name))
	}
	registry[name] = factory
}

// Get returns a fresh analyzer configured with config.
func Get(name string, config map[string]string) (Analyzer, error) {
	registryMu.RLock()
	factory, exists := registry[name]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("analyzer not found: %s", name)
	}

	analyzer := factory()
	if err := analyzer.Configure(config); err != nil {
		return nil, fmt.Errorf("failed to configure %s: %w", name, err)
	}
	if err := analyzer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s configuration: %w", name, err)
	}
	return analyzer, nil
}

func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
