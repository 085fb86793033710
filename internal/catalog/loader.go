package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk YAML layout of a catalog file.
//
//	categories:
//	  MYSTERY:
//	    - id: 1
//	      title: The Maltese Falcon
type fileFormat struct {
	Categories map[Category][]Item `yaml:"categories"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return MustNew(map[Category][]Item{
		CategoryMystery: {
			{ID: 1, Title: "The Maltese Falcon"},
			{ID: 2, Title: "Murder on the Orient Express"},
			{ID: 3, Title: "The Hound of the Baskervilles"},
		},
		CategoryScienceFiction: {
			{ID: 4, Title: "Away from the Galaxy"},
			{ID: 5, Title: "Ender's Game"},
			{ID: 6, Title: "The Dune Chronicles"},
		},
		CategorySelfHelp: {
			{ID: 7, Title: "Habbits of Effective People"},
			{ID: 8, Title: "How to Win"},
			{ID: 9, Title: "Become a Good Chef"},
		},
	})
}

// LoadFile reads and validates a YAML catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(f.Categories)
}
