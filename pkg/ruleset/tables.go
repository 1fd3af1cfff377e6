// Package ruleset holds the static lookup tables that drive scoring and
// readiness validation: canonical factor definitions, per-industry driver
// weights, and per-survey-type module requirements. Tables are embedded in
// the binary, parsed once at startup, and passed explicitly to the services
// that consume them so tests can substitute their own.
package ruleset

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

//go:embed tables.yaml
var tablesYAML []byte

// Factor is one canonical scoring factor. Pillar factors are always scored;
// non-pillar factors are occupancy drivers selected by industry weights.
type Factor struct {
	Key    string `yaml:"key"`
	Label  string `yaml:"label"`
	Pillar bool   `yaml:"pillar"`
}

// Industry carries the driver weight table for one industry classification.
type Industry struct {
	Key     string         `yaml:"key"`
	Label   string         `yaml:"label"`
	Weights map[string]int `yaml:"weights"`
}

// ModuleDef defines one required survey section. Scopes, when non-empty,
// restricts the module to surveys with a matching scope type.
type ModuleDef struct {
	Key    string   `yaml:"key"`
	Label  string   `yaml:"label"`
	Scopes []string `yaml:"scopes"`
}

// Tables is the parsed, immutable rule configuration.
type Tables struct {
	Factors []Factor

	industries map[string]Industry
	modules    map[models.DocumentType][]ModuleDef
	labels     map[string]string
}

type rawTables struct {
	Factors    []Factor                            `yaml:"factors"`
	Industries []Industry                          `yaml:"industries"`
	Modules    map[models.DocumentType][]ModuleDef `yaml:"modules"`
}

// Load parses the embedded tables. It validates that exactly four pillar
// factors exist and that every industry weight references a known driver key.
func Load() (*Tables, error) {
	return Parse(tablesYAML)
}

// Parse builds Tables from YAML. Exposed so tests can load substitute tables.
func Parse(data []byte) (*Tables, error) {
	var raw rawTables
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rule tables: %w", err)
	}

	t := &Tables{
		Factors:    raw.Factors,
		industries: make(map[string]Industry, len(raw.Industries)),
		modules:    raw.Modules,
		labels:     make(map[string]string, len(raw.Factors)),
	}

	driverKeys := make(map[string]bool)
	pillars := 0
	for _, f := range raw.Factors {
		t.labels[f.Key] = f.Label
		if f.Pillar {
			pillars++
		} else {
			driverKeys[f.Key] = true
		}
	}
	if pillars != 4 {
		return nil, fmt.Errorf("rule tables must define exactly 4 pillar factors, got %d", pillars)
	}

	for _, ind := range raw.Industries {
		for key := range ind.Weights {
			if !driverKeys[key] {
				return nil, fmt.Errorf("industry %q weights unknown driver factor %q", ind.Key, key)
			}
		}
		t.industries[ind.Key] = ind
	}

	return t, nil
}

// PillarKeys returns the four global pillar factor keys in canonical order.
func (t *Tables) PillarKeys() []string {
	keys := make([]string, 0, 4)
	for _, f := range t.Factors {
		if f.Pillar {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// DriverFactors returns all non-pillar factors in canonical order.
func (t *Tables) DriverFactors() []Factor {
	var out []Factor
	for _, f := range t.Factors {
		if !f.Pillar {
			out = append(out, f)
		}
	}
	return out
}

// Industry looks up the weight table for an industry key.
func (t *Tables) Industry(key string) (Industry, bool) {
	ind, ok := t.industries[key]
	return ind, ok
}

// DriverWeight returns the weight of a driver factor for an industry.
// Unknown industries and unweighted drivers both yield 0, which excludes the
// driver from scoring.
func (t *Tables) DriverWeight(industryKey, factorKey string) int {
	ind, ok := t.industries[industryKey]
	if !ok {
		return 0
	}
	return ind.Weights[factorKey]
}

// Modules returns the module definitions for a survey type, in order.
func (t *Tables) Modules(dt models.DocumentType) []ModuleDef {
	return t.modules[dt]
}

// FactorLabel returns the display label for a factor key, falling back to the
// key itself.
func (t *Tables) FactorLabel(key string) string {
	if label, ok := t.labels[key]; ok {
		return label
	}
	return key
}

// RequiredForScope reports whether the module applies to the given scope
// type. Modules with no scope restriction are always required.
func (d ModuleDef) RequiredForScope(scopeType string) bool {
	if len(d.Scopes) == 0 {
		return true
	}
	for _, s := range d.Scopes {
		if s == scopeType {
			return true
		}
	}
	return false
}
