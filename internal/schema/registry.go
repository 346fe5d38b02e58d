package schema

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schemas/*.graphql
var schemaFS embed.FS

// Schema represents a DefraDB collection schema.
type Schema struct {
	Name  string // Collection name (e.g., "Page")
	SDL   string // GraphQL SDL definition
	Order int    // Initialization order (lower = first)
}

// Collection names.
const (
	Book     = "Book"
	Page     = "Page"
	Progress = "Progress"
	Metric   = "Metric"
)

// Collections reference books by book_id rather than by relation, so the
// order only keeps startup logs stable.
var registry = []Schema{
	{Name: Book, Order: 1},
	{Name: Page, Order: 2},
	{Name: Progress, Order: 3},
	{Name: Metric, Order: 4},
}

// All returns all schemas in initialization order, loaded from the
// embedded .graphql files.
func All() ([]Schema, error) {
	schemas := make([]Schema, 0, len(registry))
	for _, s := range registry {
		loaded, err := load(s)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, loaded)
	}

	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Order < schemas[j].Order
	})
	return schemas, nil
}

// Get returns a single schema by name.
func Get(name string) (*Schema, error) {
	for _, s := range registry {
		if s.Name == name {
			loaded, err := load(s)
			if err != nil {
				return nil, err
			}
			return &loaded, nil
		}
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

func load(s Schema) (Schema, error) {
	filename := fmt.Sprintf("schemas/%s.graphql", strings.ToLower(s.Name))
	content, err := schemaFS.ReadFile(filename)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema %s: %w", s.Name, err)
	}
	s.SDL = string(content)
	return s, nil
}
