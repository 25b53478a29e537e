// Package collections manages the YAML mapping from logical record
// collections to storage tables.
package collections

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Logical collection names.
const (
	Products = "products"
	Views    = "views"
)

// Collection maps a logical collection to a table and its filterable fields.
type Collection struct {
	Filters     map[string]string `yaml:"filters"`
	Name        string            `yaml:"name"`
	Table       string            `yaml:"table"`
	Description string            `yaml:"description"`
}

// Config is the top-level YAML structure.
type Config struct {
	Collections []Collection `yaml:"collections"`
}

// Registry holds loaded collections, keyed by name.
type Registry struct {
	byName map[string]*Collection
	order  []string // preserves definition order
}

// defaultFilters are the logical fields a query may filter on.
func defaultFilters() map[string]string {
	return map[string]string{
		"userId":      "user_id",
		"productName": "product_name",
	}
}

// Defaults returns the built-in registry used when no file is present.
func Defaults() *Registry {
	r := &Registry{byName: make(map[string]*Collection)}
	r.add(Collection{Name: Products, Table: "skincare", Description: "Products on a user's shelf"})
	r.add(Collection{Name: Views, Table: "skincare_views", Description: "Detail lookup history"})
	return r
}

// Load reads the YAML file at path and returns a Registry.
// Collections absent from the file keep their defaults. If the file does not
// exist, Load returns the defaults (not an error).
func Load(path string) (*Registry, error) {
	r := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	for _, c := range cfg.Collections {
		if c.Name == "" {
			return nil, fmt.Errorf("collection without name in %s", path)
		}
		if c.Table == "" {
			if existing, ok := r.byName[c.Name]; ok {
				c.Table = existing.Table
			} else {
				return nil, fmt.Errorf("collection %q has no table", c.Name)
			}
		}
		r.add(c)
	}
	return r, nil
}

func (r *Registry) add(c Collection) {
	if c.Filters == nil {
		c.Filters = defaultFilters()
	}
	if _, ok := r.byName[c.Name]; !ok {
		r.order = append(r.order, c.Name)
	}
	r.byName[c.Name] = &c
}

// Get returns a collection by name. Returns (nil, false) if not found.
func (r *Registry) Get(name string) (*Collection, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Table returns the table backing name, or name itself when unknown.
func (r *Registry) Table(name string) string {
	if c, ok := r.byName[name]; ok {
		return c.Table
	}
	return name
}

// All returns all collections in definition order.
func (r *Registry) All() []*Collection {
	result := make([]*Collection, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.byName[name])
	}
	return result
}

// Names returns a sorted list of collection names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Column resolves a logical filter field to its column.
func (c *Collection) Column(field string) (string, bool) {
	if c == nil {
		return "", false
	}
	col, ok := c.Filters[field]
	return col, ok
}
