package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

func TestDeriveSeverity_Cascade(t *testing.T) {
	engine := NewSeverityEngine()

	sleeping := models.SurveyContext{OccupancyRisk: models.OccupancySleeping, Storeys: 1}
	nonSleeping := models.SurveyContext{OccupancyRisk: models.OccupancyNonSleeping, Storeys: 1}

	tests := []struct {
		name        string
		finding     models.Finding
		ctx         models.SurveyContext
		wantTrigger string
		wantTier    models.SeverityTier
		wantBand    models.PriorityBand
	}{
		{
			name:        "locked final exit",
			finding:     models.Finding{Hazards: models.HazardFlags{FinalExitLocked: true}},
			ctx:         nonSleeping,
			wantTrigger: "MOE-P1-01",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "obstructed final exit",
			finding:     models.Finding{Hazards: models.HazardFlags{FinalExitObstructed: true}},
			ctx:         nonSleeping,
			wantTrigger: "MOE-P1-02",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "no detection with sleeping occupants",
			finding:     models.Finding{Hazards: models.HazardFlags{NoFireDetection: true}},
			ctx:         sleeping,
			wantTrigger: "DA-P1-01",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "no detection with vulnerable occupants",
			finding:     models.Finding{Hazards: models.HazardFlags{NoFireDetection: true}},
			ctx:         models.SurveyContext{OccupancyRisk: models.OccupancyVulnerable},
			wantTrigger: "DA-P1-01",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "no detection without sleeping downgrades to T3",
			finding:     models.Finding{Hazards: models.HazardFlags{NoFireDetection: true}},
			ctx:         nonSleeping,
			wantTrigger: "DA-P2-01",
			wantTier:    models.TierT3,
			wantBand:    models.PriorityP2,
		},
		{
			name:        "no emergency lighting multi-storey",
			finding:     models.Finding{Hazards: models.HazardFlags{NoEmergencyLighting: true}},
			ctx:         models.SurveyContext{OccupancyRisk: models.OccupancyNonSleeping, Storeys: 2},
			wantTrigger: "EL-P1-01",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "no emergency lighting single storey falls through to default",
			finding:     models.Finding{Hazards: models.HazardFlags{NoEmergencyLighting: true}},
			ctx:         nonSleeping,
			wantTrigger: "GEN-P4-01",
			wantTier:    models.TierT1,
			wantBand:    models.PriorityP4,
		},
		{
			name:        "single stair compromised at four storeys",
			finding:     models.Finding{Hazards: models.HazardFlags{SingleStairCompromised: true}},
			ctx:         models.SurveyContext{OccupancyRisk: models.OccupancyNonSleeping, Storeys: 4},
			wantTrigger: "MOE-P1-03",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "single stair compromised at two storeys is T3",
			finding:     models.Finding{Hazards: models.HazardFlags{SingleStairCompromised: true}},
			ctx:         models.SurveyContext{OccupancyRisk: models.OccupancyNonSleeping, Storeys: 2},
			wantTrigger: "MOE-P2-01",
			wantTier:    models.TierT3,
			wantBand:    models.PriorityP2,
		},
		{
			name:        "compartmentation failure with sleeping occupants",
			finding:     models.Finding{Hazards: models.HazardFlags{SeriousCompartmentationFailure: true}},
			ctx:         sleeping,
			wantTrigger: "COMP-P1-01",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "compartmentation failure without sleeping is T3",
			finding:     models.Finding{Hazards: models.HazardFlags{SeriousCompartmentationFailure: true}},
			ctx:         nonSleeping,
			wantTrigger: "COMP-P2-01",
			wantTier:    models.TierT3,
			wantBand:    models.PriorityP2,
		},
		{
			name:        "high-risk room on escape route",
			finding:     models.Finding{Hazards: models.HazardFlags{HighRiskRoomOnEscapeRoute: true}},
			ctx:         nonSleeping,
			wantTrigger: "COMP-P1-03",
			wantTier:    models.TierT4,
			wantBand:    models.PriorityP1,
		},
		{
			name:        "inadequate detection coverage",
			finding:     models.Finding{Hazards: models.HazardFlags{InadequateDetectionCoverage: true}},
			ctx:         nonSleeping,
			wantTrigger: "DA-P2-02",
			wantTier:    models.TierT3,
			wantBand:    models.PriorityP2,
		},
		{
			name:        "no FRA evidence",
			finding:     models.Finding{Hazards: models.HazardFlags{NoFRAEvidence: true}},
			ctx:         nonSleeping,
			wantTrigger: "MGMT-P2-01",
			wantTier:    models.TierT3,
			wantBand:    models.PriorityP2,
		},
		{
			name:        "housekeeping category",
			finding:     models.Finding{Category: models.CategoryHousekeeping},
			ctx:         nonSleeping,
			wantTrigger: "GEN-P3-01",
			wantTier:    models.TierT2,
			wantBand:    models.PriorityP3,
		},
		{
			name:        "management category",
			finding:     models.Finding{Category: models.CategoryManagement},
			ctx:         nonSleeping,
			wantTrigger: "GEN-P3-01",
			wantTier:    models.TierT2,
			wantBand:    models.PriorityP3,
		},
		{
			name:        "nothing set yields good practice",
			finding:     models.Finding{Category: models.CategoryFireDoors},
			ctx:         nonSleeping,
			wantTrigger: "GEN-P4-01",
			wantTier:    models.TierT1,
			wantBand:    models.PriorityP4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.DeriveSeverity(tt.finding, tt.ctx)
			assert.Equal(t, tt.wantTrigger, result.TriggerID)
			assert.Equal(t, tt.wantTier, result.Tier)
			assert.Equal(t, tt.wantBand, result.Priority)
			assert.NotEmpty(t, result.TriggerText)
		})
	}
}

func TestDeriveSeverity_FirstMatchWins(t *testing.T) {
	engine := NewSeverityEngine()

	// Everything at once: the locked exit rule is first in the cascade and
	// must win over every other trigger.
	finding := models.Finding{
		Category: models.CategoryHousekeeping,
		Hazards: models.HazardFlags{
			FinalExitLocked:                true,
			FinalExitObstructed:            true,
			NoFireDetection:                true,
			NoEmergencyLighting:            true,
			SingleStairCompromised:         true,
			SeriousCompartmentationFailure: true,
			HighRiskRoomOnEscapeRoute:      true,
			NoFRAEvidence:                  true,
		},
	}
	ctx := models.SurveyContext{OccupancyRisk: models.OccupancySleeping, Storeys: 6}

	result := engine.DeriveSeverity(finding, ctx)
	assert.Equal(t, "MOE-P1-01", result.TriggerID)
}

func TestDeriveSeverity_ContextDefaults(t *testing.T) {
	engine := NewSeverityEngine()

	// Empty occupancy defaults to non-sleeping: no detection alone is T3.
	result := engine.DeriveSeverity(
		models.Finding{Hazards: models.HazardFlags{NoFireDetection: true}},
		models.SurveyContext{})
	assert.Equal(t, "DA-P2-01", result.TriggerID)

	// Negative storeys clamp to 0: no emergency lighting is not T4.
	result = engine.DeriveSeverity(
		models.Finding{Hazards: models.HazardFlags{NoEmergencyLighting: true}},
		models.SurveyContext{Storeys: -3})
	assert.Equal(t, "GEN-P4-01", result.TriggerID)
}

func TestMapTierToPriority(t *testing.T) {
	engine := NewSeverityEngine()

	assert.Equal(t, models.PriorityP1, engine.MapTierToPriority(models.TierT4))
	assert.Equal(t, models.PriorityP2, engine.MapTierToPriority(models.TierT3))
	assert.Equal(t, models.PriorityP3, engine.MapTierToPriority(models.TierT2))
	assert.Equal(t, models.PriorityP4, engine.MapTierToPriority(models.TierT1))
	assert.Equal(t, models.PriorityP4, engine.MapTierToPriority(models.SeverityTier("bogus")))
}

func TestCheckMaterialDeficiency(t *testing.T) {
	engine := NewSeverityEngine()

	actions := []*models.Action{
		{Title: "Fix signage", SeverityTier: models.TierT1, PriorityBand: models.PriorityP4},
		{Title: "Unlock exit", SeverityTier: models.TierT4, PriorityBand: models.PriorityP1, TriggerText: "A final exit is locked shut while the premises are occupied, preventing escape."},
	}

	found, explanations := engine.CheckMaterialDeficiency(actions, models.SurveyContext{})
	require.True(t, found)
	require.Len(t, explanations, 1)
	assert.Equal(t, "A final exit is locked shut while the premises are occupied, preventing escape.", explanations[0])

	// Vulnerable occupancy appends the escalation sentence.
	found, explanations = engine.CheckMaterialDeficiency(actions,
		models.SurveyContext{OccupancyRisk: models.OccupancyVulnerable})
	require.True(t, found)
	assert.Contains(t, explanations[0], "unable to escape unaided")

	// Title stands in when no trigger text was recorded.
	bare := []*models.Action{{Title: "Blocked stair", SeverityTier: models.TierT4, PriorityBand: models.PriorityP1}}
	_, explanations = engine.CheckMaterialDeficiency(bare, models.SurveyContext{})
	assert.Equal(t, "Blocked stair", explanations[0])

	found, explanations = engine.CheckMaterialDeficiency(nil, models.SurveyContext{})
	assert.False(t, found)
	assert.Empty(t, explanations)
}

func TestDeriveExecutiveOutcome(t *testing.T) {
	engine := NewSeverityEngine()

	p1 := &models.Action{PriorityBand: models.PriorityP1}
	p2 := &models.Action{PriorityBand: models.PriorityP2}
	p3 := &models.Action{PriorityBand: models.PriorityP3}

	tests := []struct {
		name    string
		actions []*models.Action
		want    models.ExecutiveOutcome
	}{
		{"no actions", nil, models.OutcomeSatisfactory},
		{"only P3", []*models.Action{p3, p3}, models.OutcomeSatisfactory},
		{"single P2", []*models.Action{p2}, models.OutcomeImprovementsRequired},
		{"two P2", []*models.Action{p2, p2}, models.OutcomeImprovementsRequired},
		{"three P2 crosses threshold", []*models.Action{p2, p2, p2}, models.OutcomeSignificantDeficiency},
		{"any P1 dominates", []*models.Action{p3, p2, p1}, models.OutcomeMaterialLifeSafetyRisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.DeriveExecutiveOutcome(tt.actions))
		})
	}
}
