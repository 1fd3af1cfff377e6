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

// BuildingService manages the buildings attached to a survey. Buildings feed
// the construction pillar of the score breakdown.
type BuildingService interface {
	Create(ctx context.Context, building *models.Building) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Building, error)
	Update(ctx context.Context, building *models.Building) error
	Delete(ctx context.Context, surveyID, id uuid.UUID) error
}

type buildingService struct {
	buildingRepo repositories.BuildingRepository
	surveyRepo   repositories.SurveyRepository
	logger       *zap.Logger
}

// NewBuildingService creates a new BuildingService.
func NewBuildingService(
	buildingRepo repositories.BuildingRepository,
	surveyRepo repositories.SurveyRepository,
	logger *zap.Logger,
) BuildingService {
	return &buildingService{
		buildingRepo: buildingRepo,
		surveyRepo:   surveyRepo,
		logger:       logger,
	}
}

var _ BuildingService = (*buildingService)(nil)

func (s *buildingService) Create(ctx context.Context, building *models.Building) error {
	if err := validateBuilding(building); err != nil {
		return err
	}
	if err := s.requireMutableSurvey(ctx, building.SurveyID); err != nil {
		return err
	}
	return s.buildingRepo.Create(ctx, building)
}

func (s *buildingService) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Building, error) {
	return s.buildingRepo.ListBySurvey(ctx, surveyID)
}

func (s *buildingService) Update(ctx context.Context, building *models.Building) error {
	if err := validateBuilding(building); err != nil {
		return err
	}
	if err := s.requireMutableSurvey(ctx, building.SurveyID); err != nil {
		return err
	}
	return s.buildingRepo.Update(ctx, building)
}

func (s *buildingService) Delete(ctx context.Context, surveyID, id uuid.UUID) error {
	if err := s.requireMutableSurvey(ctx, surveyID); err != nil {
		return err
	}
	return s.buildingRepo.Delete(ctx, id)
}

func validateBuilding(b *models.Building) error {
	if b.Name == "" {
		return fmt.Errorf("building name is required")
	}
	if b.CombustibleAreaPercent < 0 || b.CombustibleAreaPercent > 100 {
		return fmt.Errorf("combustible area percent must be between 0 and 100")
	}
	return nil
}

func (s *buildingService) requireMutableSurvey(ctx context.Context, surveyID uuid.UUID) error {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return err
	}
	if !survey.Mutable() {
		return apperrors.ErrImmutable
	}
	return nil
}
