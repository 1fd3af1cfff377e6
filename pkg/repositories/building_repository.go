package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/database"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

// BuildingRepository provides data access for surveyed buildings.
type BuildingRepository interface {
	Create(ctx context.Context, building *models.Building) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Building, error)
	Update(ctx context.Context, building *models.Building) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type buildingRepository struct{}

// NewBuildingRepository creates a new BuildingRepository.
func NewBuildingRepository() BuildingRepository {
	return &buildingRepository{}
}

var _ BuildingRepository = (*buildingRepository)(nil)

func (r *buildingRepository) Create(ctx context.Context, building *models.Building) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO engine_buildings (
			survey_id, name, frame_material, roof_combustible,
			walls_combustible, combustible_area_percent, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		building.SurveyID,
		building.Name,
		building.FrameMaterial,
		building.RoofCombustible,
		building.WallsCombustible,
		building.CombustibleAreaPercent,
		now,
		now,
	).Scan(&building.ID, &building.CreatedAt, &building.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create building: %w", err)
	}

	return nil
}

func (r *buildingRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Building, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, survey_id, name, frame_material, roof_combustible,
		       walls_combustible, combustible_area_percent, created_at, updated_at
		FROM engine_buildings
		WHERE survey_id = $1
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []*models.Building
	for rows.Next() {
		var b models.Building
		if err := rows.Scan(
			&b.ID, &b.SurveyID, &b.Name, &b.FrameMaterial, &b.RoofCombustible,
			&b.WallsCombustible, &b.CombustibleAreaPercent, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, &b)
	}
	return buildings, rows.Err()
}

func (r *buildingRepository) Update(ctx context.Context, building *models.Building) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_buildings
		SET name = $2, frame_material = $3, roof_combustible = $4,
		    walls_combustible = $5, combustible_area_percent = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		building.ID,
		building.Name,
		building.FrameMaterial,
		building.RoofCombustible,
		building.WallsCombustible,
		building.CombustibleAreaPercent,
	).Scan(&building.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update building: %w", err)
	}
	return nil
}

func (r *buildingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM engine_buildings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete building: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
