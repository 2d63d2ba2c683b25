// Package catalog maps hunt variant tags to their definitions. Every variant
// is compiled in; there is no runtime lookup by type name.
package catalog

import (
	"fmt"
	"sort"

	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/hunt/linear"
)

// Factory builds a hunt definition. huntFile is an optional path to a
// variant-specific hunt file; empty means the built-in layout.
type Factory func(huntFile string) (hunt.Definition, error)

var factories = map[string]Factory{
	linear.Name: newLinear,
}

// Lookup builds the definition registered under name.
func Lookup(name, huntFile string) (hunt.Definition, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown hunt %q (known: %v)", name, Names())
	}
	def, err := factory(huntFile)
	if err != nil {
		return nil, fmt.Errorf("hunt %s: %w", name, err)
	}
	return def, nil
}

// Names lists the registered variant tags in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newLinear(huntFile string) (hunt.Definition, error) {
	cfg := linear.DefaultConfig()
	if huntFile != "" {
		var err error
		if cfg, err = linear.LoadConfig(huntFile); err != nil {
			return nil, err
		}
	}
	return linear.New(cfg)
}
