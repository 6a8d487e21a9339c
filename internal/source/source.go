// Package source defines where the retail relations come from.
package source

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pgEdge/pgedge-revreport/internal/config"
	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// Source loads a snapshot of the retail relations.
type Source interface {
	// Name returns the source name.
	Name() string

	// Load reads orders, order lines, products and returns. An error means
	// a relation could not be read at all; individual bad rows are left for
	// the pipeline to classify.
	Load(ctx context.Context) (*retail.Dataset, error)
}

// Factory creates a Source from configuration.
type Factory func(cfg *config.Config) (Source, error)

// Descriptor registers a source under a name.
type Descriptor struct {
	// Name is the value of the source config key.
	Name string

	// Description is a human-readable description.
	Description string

	// New creates the source.
	New Factory
}

var (
	registry = make(map[string]Descriptor)
	mu       sync.RWMutex
)

// Register adds a source to the registry.
func Register(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name] = d
}

// Get retrieves a source descriptor by name.
func Get(name string) (Descriptor, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := registry[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown source: %s", name)
	}
	return d, nil
}

// Open creates the source named by cfg.Source.
func Open(cfg *config.Config) (Source, error) {
	d, err := Get(cfg.Source)
	if err != nil {
		return nil, err
	}
	return d.New(cfg)
}

// List returns all registered sources sorted by name.
func List() []Descriptor {
	mu.RLock()
	defer mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		descriptors = append(descriptors, d)
	}
	slices.SortFunc(descriptors, func(a, b Descriptor) int {
		return strings.Compare(a.Name, b.Name)
	})
	return descriptors
}
