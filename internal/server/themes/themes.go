// Package themes exposes the catalog of built-in profile themes.
package themes

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Catalog is a read-only set of named themes.
type Catalog struct {
	themes map[string]models.Theme
}

// Parse reads a YAML map of theme name to theme.
func Parse(b []byte) (*Catalog, error) {
	var m map[string]models.Theme
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}
	for name, t := range m {
		if t.Name == "" {
			t.Name = name
		}
		if t.ButtonStyle != "" && !models.ValidButtonStyle(t.ButtonStyle) {
			return nil, fmt.Errorf("theme %q: bad button style %q", name, t.ButtonStyle)
		}
		m[name] = t
	}
	return &Catalog{themes: m}, nil
}

// Builtin loads the embedded catalog.
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Names lists the themes alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.themes))
	for n := range c.themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns copies so callers cannot alter the catalog.
func (c *Catalog) All() map[string]*models.Theme {
	out := make(map[string]*models.Theme, len(c.themes))
	for n, t := range c.themes {
		t := t
		out[n] = &t
	}
	return out
}

// Get returns common.ErrorNotFound for unknown names.
func (c *Catalog) Get(name string) (*models.Theme, error) {
	t, ok := c.themes[name]
	if !ok {
		return nil, fmt.Errorf("%w: theme %q", common.ErrorNotFound, name)
	}
	return &t, nil
}
