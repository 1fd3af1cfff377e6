package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/ruleset"
)

// ReadinessService decides whether a document may be issued. It never fails
// for well-formed input: readiness problems are data (blockers), not errors.
type ReadinessService interface {
	// ValidateEligibility runs required-module completeness and the
	// per-survey-type conditional rules. Eligible is true exactly when no
	// blocker was emitted.
	ValidateEligibility(
		surveyTypes []models.DocumentType,
		ctx models.SurveyContext,
		answers models.AnswerMap,
		moduleProgress map[string]string,
		actions []*models.Action,
	) *models.EligibilityResult

	// ValidateSurvey is the aggregate-root convenience form of
	// ValidateEligibility.
	ValidateSurvey(survey *models.Survey, actions []*models.Action) *models.EligibilityResult

	// SafeValidate wraps ValidateSurvey and fails closed: any panic from
	// unexpected input degrades to an ineligible result rather than allowing
	// issuance.
	SafeValidate(survey *models.Survey, actions []*models.Action) *models.EligibilityResult
}

type readinessService struct {
	tables *ruleset.Tables
	logger *zap.Logger
}

// NewReadinessService creates a readiness validator over the given rule
// tables.
func NewReadinessService(tables *ruleset.Tables, logger *zap.Logger) ReadinessService {
	return &readinessService{tables: tables, logger: logger}
}

var _ ReadinessService = (*readinessService)(nil)

func (s *readinessService) ValidateSurvey(survey *models.Survey, actions []*models.Action) *models.EligibilityResult {
	return s.ValidateEligibility(survey.DocumentTypes, survey.Context, survey.Answers, survey.ModuleProgress, actions)
}

func (s *readinessService) SafeValidate(survey *models.Survey, actions []*models.Action) (result *models.EligibilityResult) {
	defer func() {
		if r := recover(); r != nil {
			surveyID := "unknown"
			if survey != nil {
				surveyID = survey.ID.String()
			}
			s.logger.Error("Readiness validation panicked; failing closed",
				zap.String("survey_id", surveyID),
				zap.Any("panic", r))
			result = &models.EligibilityResult{
				Eligible: false,
				Blockers: []models.Blocker{{
					Type:    models.BlockerModuleIncomplete,
					Message: "Validation error occurred",
				}},
			}
		}
	}()
	return s.ValidateSurvey(survey, actions)
}

func (s *readinessService) ValidateEligibility(
	surveyTypes []models.DocumentType,
	ctx models.SurveyContext,
	answers models.AnswerMap,
	moduleProgress map[string]string,
	actions []*models.Action,
) *models.EligibilityResult {
	if answers == nil {
		answers = models.AnswerMap{}
	}

	types := dedupTypes(surveyTypes)

	// A document with no survey type has nothing to validate against; it can
	// never be ready, not vacuously ready.
	if len(types) == 0 {
		return &models.EligibilityResult{
			Eligible: false,
			Blockers: []models.Blocker{{
				Type:    models.BlockerFieldRequired,
				Message: "Select at least one survey type before issuing.",
			}},
		}
	}

	required := s.requiredModules(types, ctx)

	result := &models.EligibilityResult{
		RequiredModules: len(required),
	}

	for _, mod := range required {
		if moduleProgress[mod.Key] == models.ModuleComplete {
			result.CompleteModules++
			continue
		}
		result.Blockers = append(result.Blockers, models.Blocker{
			Type:      models.BlockerModuleIncomplete,
			Message:   fmt.Sprintf("%s is incomplete.", mod.Label),
			ModuleKey: mod.Key,
		})
	}

	// Conditional business rules, evaluated per survey type present. When
	// several types are combined in one document, each rule's message is
	// labeled with its owning type.
	combined := len(types) > 1
	for _, dt := range types {
		switch dt {
		case models.DocumentTypeFRA:
			result.Blockers = append(result.Blockers, s.fraRules(ctx, answers, actions, combined)...)
		case models.DocumentTypeFSD:
			result.Blockers = append(result.Blockers, s.fsdRules(ctx, answers, combined)...)
		case models.DocumentTypeDSEAR:
			result.Blockers = append(result.Blockers, s.dsearRules(answers, actions, combined)...)
		}
	}

	result.Eligible = len(result.Blockers) == 0
	return result
}

// requiredModules unions the module requirements of all enabled survey types,
// filtered by scope, deduplicated by module key. A key shared by two types
// counts once; first-seen order is kept.
func (s *readinessService) requiredModules(types []models.DocumentType, ctx models.SurveyContext) []ruleset.ModuleDef {
	var out []ruleset.ModuleDef
	seen := make(map[string]bool)
	for _, dt := range types {
		for _, mod := range s.tables.Modules(dt) {
			if seen[mod.Key] || !mod.RequiredForScope(ctx.ScopeType) {
				continue
			}
			seen[mod.Key] = true
			out = append(out, mod)
		}
	}
	return out
}

func typePrefix(dt models.DocumentType, combined bool) string {
	if !combined {
		return ""
	}
	return fmt.Sprintf("[%s] ", dt)
}

func (s *readinessService) fraRules(ctx models.SurveyContext, answers models.AnswerMap, actions []*models.Action, combined bool) []models.Blocker {
	prefix := typePrefix(models.DocumentTypeFRA, combined)
	var blockers []models.Blocker

	if ctx.ScopeType == models.ScopeTypeLimited || ctx.ScopeType == models.ScopeTypeDesktop {
		if answers.Text("scope_limitations") == "" {
			blockers = append(blockers, models.Blocker{
				Type:      models.BlockerFieldRequired,
				Message:   prefix + "Scope & Limitations must describe what the survey did not cover.",
				ModuleKey: "RE09_SCOPE_LIMITATIONS",
				FieldKey:  "scope_limitations",
			})
		}
	}

	if !hasOpenAction(actions) && !answers.Bool("no_significant_findings") {
		blockers = append(blockers, models.Blocker{
			Type:     models.BlockerConfirmationRequired,
			Message:  prefix + "Record at least one action, or confirm that no significant findings were identified.",
			FieldKey: "no_significant_findings",
		})
	}

	return blockers
}

func (s *readinessService) fsdRules(ctx models.SurveyContext, answers models.AnswerMap, combined bool) []models.Blocker {
	if !ctx.EngineeredSolutionsUsed {
		return nil
	}
	prefix := typePrefix(models.DocumentTypeFSD, combined)
	var blockers []models.Blocker

	if answers.Text("limitations_text") == "" {
		blockers = append(blockers, models.Blocker{
			Type:      models.BlockerFieldRequired,
			Message:   prefix + "Engineered solutions are in use: document their limitations.",
			ModuleKey: "FS02_ENGINEERED_SOLUTIONS",
			FieldKey:  "limitations_text",
		})
	}
	if answers.Text("management_assumptions_text") == "" {
		blockers = append(blockers, models.Blocker{
			Type:      models.BlockerFieldRequired,
			Message:   prefix + "Engineered solutions are in use: document the management assumptions they rely on.",
			ModuleKey: "FS03_MANAGEMENT_ASSUMPTIONS",
			FieldKey:  "management_assumptions_text",
		})
	}

	return blockers
}

func (s *readinessService) dsearRules(answers models.AnswerMap, actions []*models.Action, combined bool) []models.Blocker {
	prefix := typePrefix(models.DocumentTypeDSEAR, combined)
	var blockers []models.Blocker

	if !answers.NonEmpty("substances") && !answers.Bool("no_dangerous_substances") {
		blockers = append(blockers, models.Blocker{
			Type:      models.BlockerFieldRequired,
			Message:   prefix + "Record the dangerous substances present, or confirm there are none.",
			ModuleKey: "DS01_SUBSTANCE_INVENTORY",
			FieldKey:  "substances",
		})
	}

	if !answers.NonEmpty("zones") && !answers.Bool("no_zoned_areas") {
		blockers = append(blockers, models.Blocker{
			Type:      models.BlockerFieldRequired,
			Message:   prefix + "Record the hazardous area zones, or confirm there are no zoned areas.",
			ModuleKey: "DS02_ZONING",
			FieldKey:  "zones",
		})
	}

	if !hasOpenAction(actions) && !answers.Bool("controls_adequate_confirmed") {
		blockers = append(blockers, models.Blocker{
			Type:      models.BlockerConfirmationRequired,
			Message:   prefix + "Record at least one action, or confirm the existing control measures are adequate.",
			ModuleKey: "DS03_CONTROL_MEASURES",
			FieldKey:  "controls_adequate_confirmed",
		})
	}

	return blockers
}

func hasOpenAction(actions []*models.Action) bool {
	for _, a := range actions {
		if a.IsOpen() {
			return true
		}
	}
	return false
}

func dedupTypes(types []models.DocumentType) []models.DocumentType {
	var out []models.DocumentType
	seen := make(map[models.DocumentType]bool)
	for _, dt := range types {
		if seen[dt] {
			continue
		}
		seen[dt] = true
		out = append(out, dt)
	}
	return out
}
