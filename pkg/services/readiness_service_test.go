package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

func newReadiness(t *testing.T) ReadinessService {
	t.Helper()
	return NewReadinessService(loadTables(t), zap.NewNop())
}

// completeModules marks every listed module key complete.
func completeModules(keys ...string) map[string]string {
	progress := make(map[string]string, len(keys))
	for _, k := range keys {
		progress[k] = models.ModuleComplete
	}
	return progress
}

var fraFullScopeModules = []string{
	"RE01_GENERAL_INFO", "RE02_CONSTRUCTION", "RE03_OCCUPANCY",
	"RE04_MEANS_OF_ESCAPE", "RE05_DETECTION_ALARM", "RE06_EMERGENCY_LIGHTING",
	"RE07_COMPARTMENTATION", "RE08_MANAGEMENT", "RE10_ACTION_PLAN",
}

func TestValidateEligibility_FRAFullScopeEligible(t *testing.T) {
	svc := newReadiness(t)

	openAction := &models.Action{Status: models.ActionStatusOpen}

	result := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA},
		models.SurveyContext{ScopeType: models.ScopeTypeFull},
		models.AnswerMap{},
		completeModules(fraFullScopeModules...),
		[]*models.Action{openAction},
	)

	assert.True(t, result.Eligible)
	assert.Empty(t, result.Blockers)
	assert.Equal(t, 9, result.RequiredModules, "scope-limited module excluded on full scope")
	assert.Equal(t, 9, result.CompleteModules)
}

func TestValidateEligibility_NoDocumentTypes(t *testing.T) {
	svc := newReadiness(t)

	// Zero survey types must never be vacuously eligible: with no types
	// there are no module or conditional rules to pass, only a typeless
	// document that cannot be issued.
	for _, types := range [][]models.DocumentType{nil, {}} {
		result := svc.ValidateEligibility(
			types,
			models.SurveyContext{ScopeType: models.ScopeTypeFull},
			models.AnswerMap{"no_significant_findings": true},
			completeModules(fraFullScopeModules...),
			nil,
		)

		assert.False(t, result.Eligible)
		require.Len(t, result.Blockers, 1)
		assert.Equal(t, models.BlockerFieldRequired, result.Blockers[0].Type)
		assert.Contains(t, result.Blockers[0].Message, "survey type")
	}
}

func TestValidateEligibility_IncompleteModules(t *testing.T) {
	svc := newReadiness(t)

	result := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA},
		models.SurveyContext{ScopeType: models.ScopeTypeFull},
		models.AnswerMap{"no_significant_findings": true},
		completeModules("RE01_GENERAL_INFO", "RE02_CONSTRUCTION"),
		nil,
	)

	assert.False(t, result.Eligible)
	assert.Equal(t, 9, result.RequiredModules)
	assert.Equal(t, 2, result.CompleteModules)
	require.Len(t, result.Blockers, 7)
	for _, b := range result.Blockers {
		assert.Equal(t, models.BlockerModuleIncomplete, b.Type)
		assert.NotEmpty(t, b.ModuleKey)
		assert.Contains(t, b.Message, "incomplete")
	}
}

func TestValidateEligibility_LimitedScopeRequiresLimitations(t *testing.T) {
	svc := newReadiness(t)

	modules := append([]string{"RE09_SCOPE_LIMITATIONS"}, fraFullScopeModules...)

	for _, scope := range []string{models.ScopeTypeLimited, models.ScopeTypeDesktop} {
		t.Run(scope, func(t *testing.T) {
			result := svc.ValidateEligibility(
				[]models.DocumentType{models.DocumentTypeFRA},
				models.SurveyContext{ScopeType: scope},
				models.AnswerMap{"no_significant_findings": true},
				completeModules(modules...),
				nil,
			)

			assert.False(t, result.Eligible)
			assert.Equal(t, 10, result.RequiredModules)
			require.Len(t, result.Blockers, 1)
			b := result.Blockers[0]
			assert.Equal(t, models.BlockerFieldRequired, b.Type)
			assert.Equal(t, "RE09_SCOPE_LIMITATIONS", b.ModuleKey)
			assert.Equal(t, "scope_limitations", b.FieldKey)
			assert.Equal(t, "Scope & Limitations must describe what the survey did not cover.", b.Message)

			// Filling the field clears the blocker.
			result = svc.ValidateEligibility(
				[]models.DocumentType{models.DocumentTypeFRA},
				models.SurveyContext{ScopeType: scope},
				models.AnswerMap{
					"no_significant_findings": true,
					"scope_limitations":       "Roof void not accessed.",
				},
				completeModules(modules...),
				nil,
			)
			assert.True(t, result.Eligible)
		})
	}
}

func TestValidateEligibility_FRANoFindingsConfirmation(t *testing.T) {
	svc := newReadiness(t)
	progress := completeModules(fraFullScopeModules...)
	ctx := models.SurveyContext{ScopeType: models.ScopeTypeFull}

	// No actions and no confirmation: blocked.
	result := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA}, ctx, models.AnswerMap{}, progress, nil)
	assert.False(t, result.Eligible)
	require.Len(t, result.Blockers, 1)
	assert.Equal(t, models.BlockerConfirmationRequired, result.Blockers[0].Type)
	assert.Equal(t, "no_significant_findings", result.Blockers[0].FieldKey)

	// A closed action does not count as an open one.
	closed := &models.Action{Status: models.ActionStatusClosed}
	result = svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA}, ctx, models.AnswerMap{}, progress,
		[]*models.Action{closed})
	assert.False(t, result.Eligible)

	// An in-progress action does.
	inProgress := &models.Action{Status: models.ActionStatusInProgress}
	result = svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA}, ctx, models.AnswerMap{}, progress,
		[]*models.Action{inProgress})
	assert.True(t, result.Eligible)

	// So does the explicit confirmation.
	result = svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA}, ctx,
		models.AnswerMap{"no_significant_findings": true}, progress, nil)
	assert.True(t, result.Eligible)
}

func TestValidateEligibility_FSDEngineeredSolutions(t *testing.T) {
	svc := newReadiness(t)

	fsdModules := completeModules(
		"RE01_GENERAL_INFO", "RE02_CONSTRUCTION",
		"FS01_STRATEGY_OVERVIEW", "FS02_ENGINEERED_SOLUTIONS", "FS03_MANAGEMENT_ASSUMPTIONS")

	// Without engineered solutions the conditional rules stay silent.
	result := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFSD},
		models.SurveyContext{},
		models.AnswerMap{},
		fsdModules,
		nil,
	)
	assert.True(t, result.Eligible)

	// With them, both narrative fields become mandatory.
	result = svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFSD},
		models.SurveyContext{EngineeredSolutionsUsed: true},
		models.AnswerMap{},
		fsdModules,
		nil,
	)
	assert.False(t, result.Eligible)
	require.Len(t, result.Blockers, 2)
	assert.Equal(t, "limitations_text", result.Blockers[0].FieldKey)
	assert.Equal(t, "FS02_ENGINEERED_SOLUTIONS", result.Blockers[0].ModuleKey)
	assert.Equal(t, "management_assumptions_text", result.Blockers[1].FieldKey)

	result = svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFSD},
		models.SurveyContext{EngineeredSolutionsUsed: true},
		models.AnswerMap{
			"limitations_text":            "Smoke control relies on maintained dampers.",
			"management_assumptions_text": "Dampers serviced quarterly.",
		},
		fsdModules,
		nil,
	)
	assert.True(t, result.Eligible)
}

func TestValidateEligibility_DSEARRules(t *testing.T) {
	svc := newReadiness(t)

	dsearModules := completeModules(
		"RE01_GENERAL_INFO", "DS01_SUBSTANCE_INVENTORY", "DS02_ZONING", "DS03_CONTROL_MEASURES")

	result := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeDSEAR},
		models.SurveyContext{},
		models.AnswerMap{},
		dsearModules,
		nil,
	)
	assert.False(t, result.Eligible)
	require.Len(t, result.Blockers, 3)
	assert.Equal(t, "substances", result.Blockers[0].FieldKey)
	assert.Equal(t, "zones", result.Blockers[1].FieldKey)
	assert.Equal(t, "controls_adequate_confirmed", result.Blockers[2].FieldKey)

	// Inventory entries or the explicit negations clear each rule.
	result = svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeDSEAR},
		models.SurveyContext{},
		models.AnswerMap{
			"substances":                  []any{map[string]any{"name": "IPA"}},
			"no_zoned_areas":              true,
			"controls_adequate_confirmed": true,
		},
		dsearModules,
		nil,
	)
	assert.True(t, result.Eligible)
}

func TestValidateEligibility_CombinedTypesDedupAndPrefix(t *testing.T) {
	svc := newReadiness(t)

	// FRA+FSD share RE01 and RE02: the denominator counts them once.
	result := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA, models.DocumentTypeFSD},
		models.SurveyContext{ScopeType: models.ScopeTypeFull, EngineeredSolutionsUsed: true},
		models.AnswerMap{},
		nil,
		nil,
	)
	assert.Equal(t, 12, result.RequiredModules, "9 FRA full-scope + 3 FSD-only")

	// Conditional messages carry their owning type when combined.
	var sawFRA, sawFSD bool
	for _, b := range result.Blockers {
		if b.Type == models.BlockerModuleIncomplete {
			continue
		}
		switch {
		case b.FieldKey == "no_significant_findings":
			assert.Contains(t, b.Message, "[FRA] ")
			sawFRA = true
		case b.FieldKey == "limitations_text":
			assert.Contains(t, b.Message, "[FSD] ")
			sawFSD = true
		}
	}
	assert.True(t, sawFRA)
	assert.True(t, sawFSD)

	// A single-type document carries no prefix.
	single := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA},
		models.SurveyContext{ScopeType: models.ScopeTypeFull},
		models.AnswerMap{},
		completeModules(fraFullScopeModules...),
		nil,
	)
	require.Len(t, single.Blockers, 1)
	assert.NotContains(t, single.Blockers[0].Message, "[FRA]")

	// Duplicate type entries behave like one.
	duped := svc.ValidateEligibility(
		[]models.DocumentType{models.DocumentTypeFRA, models.DocumentTypeFRA},
		models.SurveyContext{ScopeType: models.ScopeTypeFull},
		models.AnswerMap{},
		completeModules(fraFullScopeModules...),
		nil,
	)
	assert.Equal(t, 9, duped.RequiredModules)
	require.Len(t, duped.Blockers, 1)
	assert.NotContains(t, duped.Blockers[0].Message, "[FRA]")
}

func TestSafeValidate_FailsClosed(t *testing.T) {
	svc := newReadiness(t)

	// A nil survey panics inside validation; the wrapper must degrade to an
	// ineligible result instead of propagating.
	result := svc.SafeValidate(nil, nil)
	require.NotNil(t, result)
	assert.False(t, result.Eligible)
	require.Len(t, result.Blockers, 1)
	assert.Equal(t, models.BlockerModuleIncomplete, result.Blockers[0].Type)
	assert.Equal(t, "Validation error occurred", result.Blockers[0].Message)
}

func TestSafeValidate_PassesThroughOnSuccess(t *testing.T) {
	svc := newReadiness(t)

	survey := &models.Survey{
		DocumentTypes:  []models.DocumentType{models.DocumentTypeFRA},
		Context:        models.SurveyContext{ScopeType: models.ScopeTypeFull},
		Answers:        models.AnswerMap{"no_significant_findings": true},
		ModuleProgress: completeModules(fraFullScopeModules...),
	}

	result := svc.SafeValidate(survey, nil)
	assert.True(t, result.Eligible)
}
