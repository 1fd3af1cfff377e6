package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedTables(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"construction_and_combustibility",
		"fire_protection",
		"exposure",
		"management_systems",
	}, tables.PillarKeys())

	drivers := tables.DriverFactors()
	assert.Len(t, drivers, 8)
	for _, d := range drivers {
		assert.False(t, d.Pillar, "driver %s must not be a pillar", d.Key)
		assert.NotEmpty(t, d.Label)
	}
}

func TestParse_RejectsMalformedTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing pillars",
			yaml: `
factors:
  - key: fire_protection
    label: Fire Protection
    pillar: true
`,
		},
		{
			name: "unknown driver weight",
			yaml: `
factors:
  - key: construction_and_combustibility
    label: Construction
    pillar: true
  - key: fire_protection
    label: Fire Protection
    pillar: true
  - key: exposure
    label: Exposure
    pillar: true
  - key: management_systems
    label: Management Systems
    pillar: true
industries:
  - key: care_home
    label: Residential Care
    weights:
      not_a_factor: 5
`,
		},
		{
			name: "not yaml",
			yaml: `{{{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDriverWeight(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, tables.DriverWeight("care_home", "sleeping_occupancy"))
	assert.Equal(t, 0, tables.DriverWeight("care_home", "process_hazards"))
	assert.Equal(t, 0, tables.DriverWeight("unknown_industry", "sleeping_occupancy"))
	assert.Equal(t, 0, tables.DriverWeight("care_home", "unknown_driver"))
}

func TestModules_ScopeFiltering(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	fra := tables.Modules("FRA")
	require.Len(t, fra, 10)

	var scopeLimitations ModuleDef
	for _, m := range fra {
		if m.Key == "RE09_SCOPE_LIMITATIONS" {
			scopeLimitations = m
		}
	}
	require.NotEmpty(t, scopeLimitations.Key)

	assert.False(t, scopeLimitations.RequiredForScope("full"))
	assert.True(t, scopeLimitations.RequiredForScope("limited"))
	assert.True(t, scopeLimitations.RequiredForScope("desktop"))

	// Unrestricted modules apply to every scope.
	assert.True(t, fra[0].RequiredForScope("full"))
	assert.True(t, fra[0].RequiredForScope("desktop"))
}

func TestModules_SharedKeysAcrossTypes(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	fsd := tables.Modules("FSD")
	require.Len(t, fsd, 5)
	assert.Equal(t, "RE01_GENERAL_INFO", fsd[0].Key)

	dsear := tables.Modules("DSEAR")
	require.Len(t, dsear, 4)
	assert.Equal(t, "RE01_GENERAL_INFO", dsear[0].Key)

	assert.Empty(t, tables.Modules("NOPE"))
}
