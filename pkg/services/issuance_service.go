package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/repositories"
)

// RenderPayload is the finalized document snapshot handed to the renderer:
// the survey, its fully classified action list, the score breakdown, and the
// executive rollup.
type RenderPayload struct {
	Survey         *models.Survey          `json:"survey"`
	Actions        []*models.Action        `json:"actions"`
	ScoreBreakdown *models.ScoreBreakdown  `json:"score_breakdown"`
	Outcome        models.ExecutiveOutcome `json:"outcome"`

	// MaterialDeficiency flags a P1/T4 finding; DeficiencyNotes carries the
	// per-finding statements, escalated for vulnerable occupancies.
	MaterialDeficiency bool     `json:"material_deficiency"`
	DeficiencyNotes    []string `json:"deficiency_notes,omitempty"`

	OrgLogo []byte `json:"-"`
}

// DocumentRenderer produces the issued document bytes. Implementations must
// never fail: a missing organisation logo falls back to the bundled default
// asset, and any render problem still yields valid bytes.
type DocumentRenderer interface {
	Render(payload *RenderPayload) []byte
}

// ArtifactStore persists rendered documents and returns a stable location.
type ArtifactStore interface {
	Save(ctx context.Context, surveyID uuid.UUID, version int, data []byte) (string, error)
}

// IssueResult reports what issuance did.
type IssueResult struct {
	Survey             *models.Survey            `json:"survey"`
	Eligibility        *models.EligibilityResult `json:"eligibility"`
	MigratedActions    int                       `json:"migrated_actions"`
	ReferencesAssigned int                       `json:"references_assigned"`
	ArtifactPath       string                    `json:"artifact_path,omitempty"`
}

// IssuanceService runs the issue pipeline: readiness gate, legacy migration,
// reference-number assignment, document render, immutability flip. Every
// failure before the final status flip leaves the document editable; the gate
// fails closed on any fetch error.
type IssuanceService interface {
	Issue(ctx context.Context, surveyID, issuedBy uuid.UUID) (*IssueResult, error)
}

type issuanceService struct {
	surveyRepo   repositories.SurveyRepository
	actionRepo   repositories.ActionRepository
	buildingRepo repositories.BuildingRepository
	refRepo      repositories.ReferenceRepository
	readiness    ReadinessService
	migrator     LegacyScoreMigrator
	scoring      ScoringService
	engine       SeverityEngine
	renderer     DocumentRenderer
	store        ArtifactStore
	logger       *zap.Logger
}

// NewIssuanceService creates the issuance orchestrator.
func NewIssuanceService(
	surveyRepo repositories.SurveyRepository,
	actionRepo repositories.ActionRepository,
	buildingRepo repositories.BuildingRepository,
	refRepo repositories.ReferenceRepository,
	readiness ReadinessService,
	migrator LegacyScoreMigrator,
	scoring ScoringService,
	engine SeverityEngine,
	renderer DocumentRenderer,
	store ArtifactStore,
	logger *zap.Logger,
) IssuanceService {
	return &issuanceService{
		surveyRepo:   surveyRepo,
		actionRepo:   actionRepo,
		buildingRepo: buildingRepo,
		refRepo:      refRepo,
		readiness:    readiness,
		migrator:     migrator,
		scoring:      scoring,
		engine:       engine,
		renderer:     renderer,
		store:        store,
		logger:       logger,
	}
}

var _ IssuanceService = (*issuanceService)(nil)

func (s *issuanceService) Issue(ctx context.Context, surveyID, issuedBy uuid.UUID) (*IssueResult, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		// Fetch failure means we cannot prove readiness: fail closed.
		return nil, fmt.Errorf("failed to load survey for issuance: %w", err)
	}
	if !survey.Mutable() {
		return nil, apperrors.ErrImmutable
	}

	actions, err := s.actionRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions for issuance: %w", err)
	}

	eligibility := s.readiness.SafeValidate(survey, actions)
	result := &IssueResult{Survey: survey, Eligibility: eligibility}
	if !eligibility.Eligible {
		return result, apperrors.ErrNotEligible
	}

	// Classify any straggling legacy records so the rendered document never
	// shows an unclassified action.
	for i, a := range actions {
		if !s.migrator.NeedsMigration(a) {
			continue
		}
		migrated := s.migrator.MigrateAction(a, survey.Context)
		if err := s.actionRepo.Update(ctx, migrated); err != nil {
			return result, fmt.Errorf("failed to persist migrated action %s: %w", a.ID, err)
		}
		actions[i] = migrated
		result.MigratedActions++
	}

	issuedAt := time.Now()
	if err := s.assignReferences(ctx, survey, actions, issuedAt, result); err != nil {
		return result, err
	}

	buildings, err := s.buildingRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return result, fmt.Errorf("failed to load buildings for issuance: %w", err)
	}

	material, notes := s.engine.CheckMaterialDeficiency(actions, survey.Context)
	payload := &RenderPayload{
		Survey:             survey,
		Actions:            actions,
		ScoreBreakdown:     s.scoring.BuildScoreBreakdown(survey, buildings),
		Outcome:            s.engine.DeriveExecutiveOutcome(actions),
		MaterialDeficiency: material,
		DeficiencyNotes:    notes,
	}

	data := s.renderer.Render(payload)
	path, err := s.store.Save(ctx, surveyID, survey.Version, data)
	if err != nil {
		return result, fmt.Errorf("failed to store issued document: %w", err)
	}
	result.ArtifactPath = path

	if err := s.surveyRepo.MarkIssued(ctx, surveyID, issuedBy, issuedAt); err != nil {
		return result, fmt.Errorf("failed to mark survey issued: %w", err)
	}

	survey.Status = models.SurveyStatusIssued
	survey.IssuedAt = &issuedAt
	survey.IssuedBy = &issuedBy

	s.logger.Info("Survey issued",
		zap.String("survey_id", surveyID.String()),
		zap.String("issued_by", issuedBy.String()),
		zap.Int("migrated_actions", result.MigratedActions),
		zap.Int("references_assigned", result.ReferencesAssigned),
		zap.String("artifact", path))

	return result, nil
}

// assignReferences gives every unnumbered action a sequential reference of
// the form TYPE-YEAR-NNNN. Actions that already carry a number keep it, so
// re-running issuance after a downstream failure never renumbers.
func (s *issuanceService) assignReferences(
	ctx context.Context,
	survey *models.Survey,
	actions []*models.Action,
	issuedAt time.Time,
	result *IssueResult,
) error {
	docType := survey.DocumentTypes[0]
	year := issuedAt.Year()

	for _, a := range actions {
		if a.ReferenceNumber != "" {
			continue
		}
		seq, err := s.refRepo.NextSequence(ctx, survey.OrgID, docType, year)
		if err != nil {
			return fmt.Errorf("failed to allocate reference for action %s: %w", a.ID, err)
		}
		a.ReferenceNumber = fmt.Sprintf("%s-%d-%04d", docType, year, seq)
		if err := s.actionRepo.Update(ctx, a); err != nil {
			return fmt.Errorf("failed to persist reference for action %s: %w", a.ID, err)
		}
		result.ReferencesAssigned++
	}
	return nil
}
