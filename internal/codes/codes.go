// Package codes maps 3-digit KSD business codes to human-readable labels.
package codes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Undefined is the label returned for any code without a mapping.
const Undefined = "undefined business"

// Table is an immutable code-to-label mapping injected into the aggregator.
type Table struct {
	labels map[string]string
}

// Default returns the built-in table covering codes 631-640.
func Default() Table {
	return Table{labels: map[string]string{
		"631": "equity purchase",
		"632": "equity sale",
		"633": "balance inquiry",
		"634": "account inquiry",
		"635": "price inquiry",
		"636": "execution confirm",
		"637": "deposit inquiry",
		"638": "trade history inquiry",
		"639": "account transfer",
		"640": "margin trading",
	}}
}

// Load reads a YAML code-to-label file and merges it over the defaults.
// An empty path returns the default table unchanged.
func Load(path string) (Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read codes file: %w", err)
	}
	overrides := map[string]string{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return Table{}, fmt.Errorf("parse codes file %s: %w", path, err)
	}
	for code, label := range overrides {
		t.labels[code] = label
	}
	return t, nil
}

// Lookup returns the label for code, or Undefined when unmapped.
func (t Table) Lookup(code string) string {
	if label, ok := t.labels[code]; ok {
		return label
	}
	return Undefined
}

// Len reports the number of mapped codes.
func (t Table) Len() int { return len(t.labels) }
