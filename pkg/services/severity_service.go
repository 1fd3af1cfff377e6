package services

import (
	"fmt"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

// SeverityEngine derives severity classifications for findings. Derivation is
// a pure, total function: every well-formed finding yields a result and there
// is no error path.
type SeverityEngine interface {
	// DeriveSeverity maps a finding plus building context to a severity tier,
	// priority band, and the trigger that fired.
	DeriveSeverity(f models.Finding, ctx models.SurveyContext) models.SeverityResult

	// MapTierToPriority returns the fixed priority band for a tier without
	// re-deriving. Unknown tiers map to P4.
	MapTierToPriority(tier models.SeverityTier) models.PriorityBand

	// CheckMaterialDeficiency reports whether any action carries a P1/T4
	// classification, with the trigger explanations of those that do.
	CheckMaterialDeficiency(actions []*models.Action, ctx models.SurveyContext) (bool, []string)

	// DeriveExecutiveOutcome rolls the action set up into a qualitative
	// outcome for the executive summary.
	DeriveExecutiveOutcome(actions []*models.Action) models.ExecutiveOutcome
}

// severityRule is one (predicate, result) pair in the derivation cascade.
// Rules are evaluated in declaration order; the first match wins.
type severityRule struct {
	triggerID string
	tier      models.SeverityTier
	text      string
	match     func(f models.Finding, ctx models.SurveyContext) bool
}

func sleepingOrVulnerable(risk models.OccupancyRisk) bool {
	return risk == models.OccupancySleeping || risk == models.OccupancyVulnerable
}

// severityRules is the ordered derivation cascade. T4 life-safety-critical
// triggers come first, then the T3 forms of the same deficiencies without
// their occupancy/storey qualifiers, then the T2 category fallback. Order is
// load-bearing: reordering changes results.
var severityRules = []severityRule{
	// Tier T4 / Priority P1
	{
		triggerID: "MOE-P1-01",
		tier:      models.TierT4,
		text:      "A final exit is locked shut while the premises are occupied, preventing escape.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.FinalExitLocked
		},
	},
	{
		triggerID: "MOE-P1-02",
		tier:      models.TierT4,
		text:      "A final exit is obstructed and cannot be used for escape.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.FinalExitObstructed
		},
	},
	{
		triggerID: "DA-P1-01",
		tier:      models.TierT4,
		text:      "There is no automatic fire detection in premises with sleeping or vulnerable occupants.",
		match: func(f models.Finding, ctx models.SurveyContext) bool {
			return f.Hazards.NoFireDetection && sleepingOrVulnerable(ctx.OccupancyRisk)
		},
	},
	{
		triggerID: "EL-P1-01",
		tier:      models.TierT4,
		text:      "There is no emergency escape lighting in a multi-storey building.",
		match: func(f models.Finding, ctx models.SurveyContext) bool {
			return f.Hazards.NoEmergencyLighting && ctx.Storeys >= 2
		},
	},
	{
		triggerID: "MOE-P1-03",
		tier:      models.TierT4,
		text:      "The single escape stair is compromised in a building of four or more storeys.",
		match: func(f models.Finding, ctx models.SurveyContext) bool {
			return f.Hazards.SingleStairCompromised && ctx.Storeys >= 4
		},
	},
	{
		triggerID: "COMP-P1-01",
		tier:      models.TierT4,
		text:      "Serious compartmentation failure in premises with sleeping or vulnerable occupants.",
		match: func(f models.Finding, ctx models.SurveyContext) bool {
			return f.Hazards.SeriousCompartmentationFailure && sleepingOrVulnerable(ctx.OccupancyRisk)
		},
	},
	{
		triggerID: "COMP-P1-03",
		tier:      models.TierT4,
		text:      "A high-risk room opens directly onto an escape route.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.HighRiskRoomOnEscapeRoute
		},
	},

	// Tier T3 / Priority P2
	{
		triggerID: "DA-P2-01",
		tier:      models.TierT3,
		text:      "There is no automatic fire detection in the premises.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.NoFireDetection
		},
	},
	{
		triggerID: "DA-P2-02",
		tier:      models.TierT3,
		text:      "Automatic fire detection coverage is inadequate for the risk profile.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.InadequateDetectionCoverage
		},
	},
	{
		triggerID: "COMP-P2-01",
		tier:      models.TierT3,
		text:      "Serious compartmentation failure identified.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.SeriousCompartmentationFailure
		},
	},
	{
		triggerID: "MOE-P2-01",
		tier:      models.TierT3,
		text:      "The single escape stair is compromised.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.SingleStairCompromised
		},
	},
	{
		triggerID: "MGMT-P2-01",
		tier:      models.TierT3,
		text:      "No evidence of a current fire risk assessment or review.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			return f.Hazards.NoFRAEvidence
		},
	},

	// Tier T2 / Priority P3
	{
		triggerID: "GEN-P3-01",
		tier:      models.TierT2,
		text:      "Management, housekeeping, or fire-fighting provision deficiency requiring improvement.",
		match: func(f models.Finding, _ models.SurveyContext) bool {
			switch f.Category {
			case models.CategoryManagement, models.CategoryHousekeeping, models.CategoryFireFighting:
				return true
			}
			return false
		},
	},
}

// defaultRule is the T1/P4 fallback when nothing in the cascade fires.
var defaultRule = severityRule{
	triggerID: "GEN-P4-01",
	tier:      models.TierT1,
	text:      "Good practice recommendation.",
}

type severityEngine struct{}

// NewSeverityEngine creates the severity rule engine.
func NewSeverityEngine() SeverityEngine {
	return &severityEngine{}
}

var _ SeverityEngine = (*severityEngine)(nil)

// normalizeContext centralizes defaulting of optional context fields: unset
// occupancy risk means non-sleeping and negative storey counts clamp to 0.
func normalizeContext(ctx models.SurveyContext) models.SurveyContext {
	if ctx.OccupancyRisk == "" {
		ctx.OccupancyRisk = models.OccupancyNonSleeping
	}
	if ctx.Storeys < 0 {
		ctx.Storeys = 0
	}
	return ctx
}

func (e *severityEngine) DeriveSeverity(f models.Finding, ctx models.SurveyContext) models.SeverityResult {
	ctx = normalizeContext(ctx)

	for _, rule := range severityRules {
		if rule.match(f, ctx) {
			return models.SeverityResult{
				Tier:        rule.tier,
				Priority:    e.MapTierToPriority(rule.tier),
				TriggerID:   rule.triggerID,
				TriggerText: rule.text,
			}
		}
	}

	return models.SeverityResult{
		Tier:        defaultRule.tier,
		Priority:    e.MapTierToPriority(defaultRule.tier),
		TriggerID:   defaultRule.triggerID,
		TriggerText: defaultRule.text,
	}
}

func (e *severityEngine) MapTierToPriority(tier models.SeverityTier) models.PriorityBand {
	switch tier {
	case models.TierT4:
		return models.PriorityP1
	case models.TierT3:
		return models.PriorityP2
	case models.TierT2:
		return models.PriorityP3
	default:
		return models.PriorityP4
	}
}

func (e *severityEngine) CheckMaterialDeficiency(actions []*models.Action, ctx models.SurveyContext) (bool, []string) {
	ctx = normalizeContext(ctx)

	var explanations []string
	for _, a := range actions {
		if a.PriorityBand != models.PriorityP1 && a.SeverityTier != models.TierT4 {
			continue
		}
		text := a.TriggerText
		if text == "" {
			text = a.Title
		}
		if ctx.OccupancyRisk == models.OccupancyVulnerable {
			text = fmt.Sprintf("%s Occupants are vulnerable and may be unable to escape unaided.", text)
		}
		explanations = append(explanations, text)
	}
	return len(explanations) > 0, explanations
}

// DeriveExecutiveOutcome applies inclusive thresholds in order: any P1, then
// three or more P2, then any P2, then satisfactory. First match wins.
func (e *severityEngine) DeriveExecutiveOutcome(actions []*models.Action) models.ExecutiveOutcome {
	p1, p2 := 0, 0
	for _, a := range actions {
		switch a.PriorityBand {
		case models.PriorityP1:
			p1++
		case models.PriorityP2:
			p2++
		}
	}

	switch {
	case p1 >= 1:
		return models.OutcomeMaterialLifeSafetyRisk
	case p2 >= 3:
		return models.OutcomeSignificantDeficiency
	case p2 >= 1:
		return models.OutcomeImprovementsRequired
	default:
		return models.OutcomeSatisfactory
	}
}
