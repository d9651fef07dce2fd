// Package catalog holds an in-memory snapshot of the rule metadata that the
// dashboard maintains. It is loaded once per run and read-only afterward, so
// URL tasks can share it without synchronization.
package catalog

import (
	"context"
	"fmt"

	"github.com/proximodev/releasepass/internal/qa"
)

// Catalog maps rule codes to their configured metadata.
type Catalog struct {
	rules map[string]qa.Rule
}

// New builds a Catalog from an already-loaded rule map.
func New(rules map[string]qa.Rule) *Catalog {
	if rules == nil {
		rules = make(map[string]qa.Rule)
	}
	return &Catalog{rules: rules}
}

// Load reads the full catalog from the store.
func Load(ctx context.Context, store qa.CatalogStore) (*Catalog, error) {
	rules, err := store.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rule catalog: %w", err)
	}
	return New(rules), nil
}

// Rule returns the catalog entry for a code.
func (c *Catalog) Rule(code string) (qa.Rule, bool) {
	r, ok := c.rules[code]
	return r, ok
}

// Severity resolves a FAIL's severity: catalog entry first, the hard-coded
// fallback when the catalog has no entry. Keeps behavior sane even when the
// catalog is empty.
func (c *Catalog) Severity(code string, fallback qa.Severity) qa.Severity {
	if r, ok := c.rules[code]; ok && r.Severity != "" {
		return r.Severity
	}
	return fallback
}

// DisplayName resolves a finding's display name with the same
// catalog-first/fallback policy as Severity.
func (c *Catalog) DisplayName(code, fallback string) string {
	if r, ok := c.rules[code]; ok && r.Name != "" {
		return r.Name
	}
	return fallback
}

// Len reports how many rules the snapshot holds.
func (c *Catalog) Len() int {
	return len(c.rules)
}
