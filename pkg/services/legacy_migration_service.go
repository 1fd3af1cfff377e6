package services

import (
	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

// LegacyScoreMigrator adapts pre-tier actions, which carried only a numeric
// likelihood x impact risk score, into the tier/priority/trigger model.
// Migration is idempotent: fully classified actions pass through unchanged.
type LegacyScoreMigrator interface {
	// NeedsMigration reports whether any of the three derived fields is
	// missing. Callers use it to batch only unmigrated records.
	NeedsMigration(a *models.Action) bool

	// MigrateAction returns the classified form of the action. Already
	// classified actions are returned unchanged. The input is not mutated.
	MigrateAction(a *models.Action, ctx models.SurveyContext) *models.Action

	// MigrateActions migrates each record independently. A malformed record
	// cannot halt the batch: migration is a total map, not a fallible
	// pipeline.
	MigrateActions(actions []*models.Action, ctx models.SurveyContext) []*models.Action
}

// LegacyScoreTrigger marks records whose classification came from a numeric
// legacy score rather than fresh derivation.
const LegacyScoreTrigger = "LEGACY-SCORE"

const legacyScoreTriggerText = "Classification migrated from a legacy numeric risk score; review against current findings at next survey."

type legacyScoreMigrator struct {
	engine SeverityEngine
}

// NewLegacyScoreMigrator creates a migrator that delegates flag-based
// reconstruction to the given severity engine.
func NewLegacyScoreMigrator(engine SeverityEngine) LegacyScoreMigrator {
	return &legacyScoreMigrator{engine: engine}
}

var _ LegacyScoreMigrator = (*legacyScoreMigrator)(nil)

func (m *legacyScoreMigrator) NeedsMigration(a *models.Action) bool {
	return a.SeverityTier == "" || a.PriorityBand == "" || a.TriggerID == ""
}

func (m *legacyScoreMigrator) MigrateAction(a *models.Action, ctx models.SurveyContext) *models.Action {
	if !m.NeedsMigration(a) {
		return a
	}

	migrated := *a

	if a.LegacyRiskScore != nil {
		tier := tierFromLegacyScore(*a.LegacyRiskScore)
		migrated.SeverityTier = tier
		migrated.PriorityBand = m.engine.MapTierToPriority(tier)
		migrated.TriggerID = LegacyScoreTrigger
		migrated.TriggerText = legacyScoreTriggerText
		return &migrated
	}

	// No legacy score: reconstruct a finding from whatever boolean fields the
	// record carries and derive fresh. Missing flags are already false on the
	// zero value.
	result := m.engine.DeriveSeverity(a.Finding(), ctx)
	migrated.SeverityTier = result.Tier
	migrated.PriorityBand = result.Priority
	migrated.TriggerID = result.TriggerID
	migrated.TriggerText = result.TriggerText
	return &migrated
}

func (m *legacyScoreMigrator) MigrateActions(actions []*models.Action, ctx models.SurveyContext) []*models.Action {
	out := make([]*models.Action, len(actions))
	for i, a := range actions {
		out[i] = m.MigrateAction(a, ctx)
	}
	return out
}

// tierFromLegacyScore maps legacy score bands to tiers: >=20 T4, >=12 T3,
// >=6 T2, else T1.
func tierFromLegacyScore(score int) models.SeverityTier {
	switch {
	case score >= 20:
		return models.TierT4
	case score >= 12:
		return models.TierT3
	case score >= 6:
		return models.TierT2
	default:
		return models.TierT1
	}
}
