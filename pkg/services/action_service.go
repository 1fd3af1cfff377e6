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

// ActionService manages survey actions: severity is derived when a finding is
// recorded, never silently re-derived afterwards, and closure history
// survives a reopen.
type ActionService interface {
	Create(ctx context.Context, action *models.Action) error
	Get(ctx context.Context, id uuid.UUID) (*models.Action, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Action, error)
	Update(ctx context.Context, action *models.Action) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Start moves an open action to in_progress.
	Start(ctx context.Context, id uuid.UUID) (*models.Action, error)

	// Close closes an open or in-progress action with a closure note.
	Close(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, note string) (*models.Action, error)

	// Reopen reopens a closed action, preserving the closure history and
	// stamping the reopen fields.
	Reopen(ctx context.Context, id uuid.UUID, reopenedBy uuid.UUID, note string) (*models.Action, error)
}

type actionService struct {
	actionRepo repositories.ActionRepository
	surveyRepo repositories.SurveyRepository
	engine     SeverityEngine
	logger     *zap.Logger
}

// NewActionService creates a new ActionService.
func NewActionService(
	actionRepo repositories.ActionRepository,
	surveyRepo repositories.SurveyRepository,
	engine SeverityEngine,
	logger *zap.Logger,
) ActionService {
	return &actionService{
		actionRepo: actionRepo,
		surveyRepo: surveyRepo,
		engine:     engine,
		logger:     logger,
	}
}

var _ ActionService = (*actionService)(nil)

func (s *actionService) Create(ctx context.Context, action *models.Action) error {
	if !models.ValidCategory(action.Category) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidCategory, action.Category)
	}

	survey, err := s.surveyRepo.GetByID(ctx, action.SurveyID)
	if err != nil {
		return err
	}
	if !survey.Mutable() {
		return apperrors.ErrImmutable
	}

	action.Status = models.ActionStatusOpen

	// Derive severity at creation unless the caller supplied a complete
	// classification (e.g. imports of pre-classified records).
	if action.SeverityTier == "" || action.PriorityBand == "" || action.TriggerID == "" {
		result := s.engine.DeriveSeverity(action.Finding(), survey.Context)
		action.SeverityTier = result.Tier
		action.PriorityBand = result.Priority
		action.TriggerID = result.TriggerID
		action.TriggerText = result.TriggerText
	}

	if err := s.actionRepo.Create(ctx, action); err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}

	s.logger.Info("Action created",
		zap.String("action_id", action.ID.String()),
		zap.String("survey_id", action.SurveyID.String()),
		zap.String("trigger_id", action.TriggerID),
		zap.String("priority", string(action.PriorityBand)))
	return nil
}

func (s *actionService) Get(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	return s.actionRepo.GetByID(ctx, id)
}

func (s *actionService) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Action, error) {
	return s.actionRepo.ListBySurvey(ctx, surveyID)
}

func (s *actionService) Update(ctx context.Context, action *models.Action) error {
	if !models.ValidCategory(action.Category) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidCategory, action.Category)
	}

	if err := s.requireMutableSurvey(ctx, action.SurveyID); err != nil {
		return err
	}
	return s.actionRepo.Update(ctx, action)
}

func (s *actionService) Delete(ctx context.Context, id uuid.UUID) error {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireMutableSurvey(ctx, action.SurveyID); err != nil {
		return err
	}
	return s.actionRepo.Delete(ctx, id)
}

func (s *actionService) Start(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if action.Status != models.ActionStatusOpen {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, action.Status, models.ActionStatusInProgress)
	}
	if err := s.requireMutableSurvey(ctx, action.SurveyID); err != nil {
		return nil, err
	}

	action.Status = models.ActionStatusInProgress
	if err := s.actionRepo.Update(ctx, action); err != nil {
		return nil, err
	}
	return action, nil
}

func (s *actionService) Close(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, note string) (*models.Action, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !action.IsOpen() {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, action.Status, models.ActionStatusClosed)
	}
	if err := s.requireMutableSurvey(ctx, action.SurveyID); err != nil {
		return nil, err
	}

	now := time.Now()
	action.Status = models.ActionStatusClosed
	action.ClosedAt = &now
	action.ClosedBy = &closedBy
	action.ClosureNote = note

	if err := s.actionRepo.Update(ctx, action); err != nil {
		return nil, err
	}

	s.logger.Info("Action closed",
		zap.String("action_id", id.String()),
		zap.String("closed_by", closedBy.String()))
	return action, nil
}

func (s *actionService) Reopen(ctx context.Context, id uuid.UUID, reopenedBy uuid.UUID, note string) (*models.Action, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if action.Status != models.ActionStatusClosed {
		return nil, fmt.Errorf("%w: only closed actions can be reopened", apperrors.ErrInvalidTransition)
	}
	if err := s.requireMutableSurvey(ctx, action.SurveyID); err != nil {
		return nil, err
	}

	// Closure history (closed_at/closed_by/closure_note) is deliberately
	// retained: the reopen stamps its own fields alongside.
	now := time.Now()
	action.Status = models.ActionStatusOpen
	action.ReopenedAt = &now
	action.ReopenedBy = &reopenedBy
	action.ReopenNote = note

	if err := s.actionRepo.Update(ctx, action); err != nil {
		return nil, err
	}

	s.logger.Info("Action reopened",
		zap.String("action_id", id.String()),
		zap.String("reopened_by", reopenedBy.String()))
	return action, nil
}

func (s *actionService) requireMutableSurvey(ctx context.Context, surveyID uuid.UUID) error {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return err
	}
	if !survey.Mutable() {
		return apperrors.ErrImmutable
	}
	return nil
}
