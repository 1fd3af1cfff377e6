package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/repositories"
)

// SurveyService manages survey documents and their lifecycle. Issued and
// superseded documents are immutable; the only ways out are the explicit
// ReturnToDraft and NewVersion transitions.
type SurveyService interface {
	Create(ctx context.Context, survey *models.Survey) error
	Get(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*models.Survey, error)
	Update(ctx context.Context, survey *models.Survey) error

	// Transition moves the document between editable lifecycle states.
	// Transitions into issued or superseded are rejected here; issuance goes
	// through the IssuanceService and superseding through NewVersion.
	Transition(ctx context.Context, id uuid.UUID, to models.SurveyStatus) (*models.Survey, error)

	// ReturnToDraft is the admin escape hatch that reopens an issued
	// document for editing.
	ReturnToDraft(ctx context.Context, id uuid.UUID) (*models.Survey, error)

	// NewVersion creates a draft copy of an issued document with the version
	// incremented, and marks the original superseded.
	NewVersion(ctx context.Context, id uuid.UUID) (*models.Survey, error)
}

// allowedTransitions maps each editable state to the states it may move to
// via Transition.
var allowedTransitions = map[models.SurveyStatus][]models.SurveyStatus{
	models.SurveyStatusDraft:    {models.SurveyStatusInReview},
	models.SurveyStatusInReview: {models.SurveyStatusDraft, models.SurveyStatusApproved},
	models.SurveyStatusApproved: {models.SurveyStatusDraft, models.SurveyStatusInReview},
}

type surveyService struct {
	surveyRepo repositories.SurveyRepository
	logger     *zap.Logger
}

// NewSurveyService creates a new SurveyService.
func NewSurveyService(surveyRepo repositories.SurveyRepository, logger *zap.Logger) SurveyService {
	return &surveyService{
		surveyRepo: surveyRepo,
		logger:     logger,
	}
}

var _ SurveyService = (*surveyService)(nil)

func (s *surveyService) Create(ctx context.Context, survey *models.Survey) error {
	if len(survey.DocumentTypes) == 0 {
		return fmt.Errorf("%w: at least one document type is required", apperrors.ErrUnknownType)
	}
	for _, dt := range survey.DocumentTypes {
		if !models.ValidDocumentType(dt) {
			return fmt.Errorf("%w: %q", apperrors.ErrUnknownType, dt)
		}
	}

	survey.Status = models.SurveyStatusDraft
	survey.Version = 1
	if survey.Answers == nil {
		survey.Answers = models.AnswerMap{}
	}
	if survey.ModuleProgress == nil {
		survey.ModuleProgress = map[string]string{}
	}
	if survey.Ratings == nil {
		survey.Ratings = map[string]int{}
	}

	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return fmt.Errorf("failed to create survey: %w", err)
	}

	s.logger.Info("Survey created",
		zap.String("survey_id", survey.ID.String()),
		zap.String("org_id", survey.OrgID.String()))
	return nil
}

func (s *surveyService) Get(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	return s.surveyRepo.GetByID(ctx, id)
}

func (s *surveyService) List(ctx context.Context, orgID uuid.UUID) ([]*models.Survey, error) {
	return s.surveyRepo.ListByOrg(ctx, orgID)
}

func (s *surveyService) Update(ctx context.Context, survey *models.Survey) error {
	current, err := s.surveyRepo.GetByID(ctx, survey.ID)
	if err != nil {
		return err
	}
	if !current.Mutable() {
		return apperrors.ErrImmutable
	}

	if len(survey.DocumentTypes) == 0 {
		return fmt.Errorf("%w: at least one document type is required", apperrors.ErrUnknownType)
	}
	for _, dt := range survey.DocumentTypes {
		if !models.ValidDocumentType(dt) {
			return fmt.Errorf("%w: %q", apperrors.ErrUnknownType, dt)
		}
	}

	return s.surveyRepo.Update(ctx, survey)
}

func (s *surveyService) Transition(ctx context.Context, id uuid.UUID, to models.SurveyStatus) (*models.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !survey.Mutable() {
		return nil, apperrors.ErrImmutable
	}

	if !transitionAllowed(survey.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, survey.Status, to)
	}

	if err := s.surveyRepo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}

	s.logger.Info("Survey transitioned",
		zap.String("survey_id", id.String()),
		zap.String("from", string(survey.Status)),
		zap.String("to", string(to)))

	survey.Status = to
	return survey, nil
}

func (s *surveyService) ReturnToDraft(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey.Status != models.SurveyStatusIssued {
		return nil, fmt.Errorf("%w: only issued documents can return to draft", apperrors.ErrInvalidTransition)
	}

	if err := s.surveyRepo.UpdateStatus(ctx, id, models.SurveyStatusDraft); err != nil {
		return nil, err
	}

	s.logger.Warn("Issued survey returned to draft",
		zap.String("survey_id", id.String()))

	survey.Status = models.SurveyStatusDraft
	return survey, nil
}

func (s *surveyService) NewVersion(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	original, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != models.SurveyStatusIssued {
		return nil, fmt.Errorf("%w: only issued documents can be versioned", apperrors.ErrInvalidTransition)
	}

	next := &models.Survey{
		OrgID:          original.OrgID,
		Title:          original.Title,
		DocumentTypes:  original.DocumentTypes,
		Status:         models.SurveyStatusDraft,
		Version:        original.Version + 1,
		IndustryKey:    original.IndustryKey,
		Context:        original.Context,
		Answers:        original.Answers,
		ModuleProgress: original.ModuleProgress,
		Ratings:        original.Ratings,
		SectionGrades:  original.SectionGrades,
	}

	if err := s.surveyRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create new version: %w", err)
	}

	if err := s.surveyRepo.MarkSuperseded(ctx, original.ID, next.ID); err != nil {
		return nil, fmt.Errorf("failed to supersede original: %w", err)
	}

	s.logger.Info("New survey version created",
		zap.String("original_id", original.ID.String()),
		zap.String("new_id", next.ID.String()),
		zap.Int("version", next.Version))

	return next, nil
}

func transitionAllowed(from, to models.SurveyStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
