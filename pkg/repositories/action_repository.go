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

// ActionRepository provides data access for survey actions.
type ActionRepository interface {
	Create(ctx context.Context, action *models.Action) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Action, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Action, error)
	Update(ctx context.Context, action *models.Action) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type actionRepository struct{}

// NewActionRepository creates a new ActionRepository.
func NewActionRepository() ActionRepository {
	return &actionRepository{}
}

var _ ActionRepository = (*actionRepository)(nil)

const actionColumns = `
	id, survey_id, module_key, title, description, category, hazards,
	status, severity_tier, priority_band, trigger_id, trigger_text,
	legacy_risk_score, reference_number, closed_at, closed_by, closure_note,
	reopened_at, reopened_by, reopen_note, created_at, updated_at`

func (r *actionRepository) Create(ctx context.Context, action *models.Action) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO engine_actions (
			survey_id, module_key, title, description, category, hazards,
			status, severity_tier, priority_band, trigger_id, trigger_text,
			legacy_risk_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		action.SurveyID,
		nullString(action.ModuleKey),
		action.Title,
		nullString(action.Description),
		action.Category,
		jsonbValue(action.Hazards),
		action.Status,
		nullString(string(action.SeverityTier)),
		nullString(string(action.PriorityBand)),
		nullString(action.TriggerID),
		nullString(action.TriggerText),
		action.LegacyRiskScore,
		now,
		now,
	).Scan(&action.ID, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}

	return nil
}

func (r *actionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + actionColumns + ` FROM engine_actions WHERE id = $1`

	action, err := scanAction(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return action, nil
}

func (r *actionRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Action, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + actionColumns + `
		FROM engine_actions
		WHERE survey_id = $1
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func (r *actionRepository) Update(ctx context.Context, action *models.Action) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_actions
		SET module_key = $2, title = $3, description = $4, category = $5,
		    hazards = $6, status = $7, severity_tier = $8, priority_band = $9,
		    trigger_id = $10, trigger_text = $11, reference_number = $12,
		    closed_at = $13, closed_by = $14, closure_note = $15,
		    reopened_at = $16, reopened_by = $17, reopen_note = $18,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		action.ID,
		nullString(action.ModuleKey),
		action.Title,
		nullString(action.Description),
		action.Category,
		jsonbValue(action.Hazards),
		action.Status,
		nullString(string(action.SeverityTier)),
		nullString(string(action.PriorityBand)),
		nullString(action.TriggerID),
		nullString(action.TriggerText),
		nullString(action.ReferenceNumber),
		action.ClosedAt,
		action.ClosedBy,
		nullString(action.ClosureNote),
		action.ReopenedAt,
		action.ReopenedBy,
		nullString(action.ReopenNote),
	).Scan(&action.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update action: %w", err)
	}
	return nil
}

func (r *actionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM engine_actions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanAction(row pgx.Row) (*models.Action, error) {
	var (
		a            models.Action
		moduleKey    *string
		description  *string
		hazards      []byte
		severityTier *string
		priorityBand *string
		triggerID    *string
		triggerText  *string
		reference    *string
		closureNote  *string
		reopenNote   *string
	)

	err := row.Scan(
		&a.ID, &a.SurveyID, &moduleKey, &a.Title, &description, &a.Category,
		&hazards, &a.Status, &severityTier, &priorityBand, &triggerID,
		&triggerText, &a.LegacyRiskScore, &reference, &a.ClosedAt, &a.ClosedBy,
		&closureNote, &a.ReopenedAt, &a.ReopenedBy, &reopenNote,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if moduleKey != nil {
		a.ModuleKey = *moduleKey
	}
	if description != nil {
		a.Description = *description
	}
	if severityTier != nil {
		a.SeverityTier = models.SeverityTier(*severityTier)
	}
	if priorityBand != nil {
		a.PriorityBand = models.PriorityBand(*priorityBand)
	}
	if triggerID != nil {
		a.TriggerID = *triggerID
	}
	if triggerText != nil {
		a.TriggerText = *triggerText
	}
	if reference != nil {
		a.ReferenceNumber = *reference
	}
	if closureNote != nil {
		a.ClosureNote = *closureNote
	}
	if reopenNote != nil {
		a.ReopenNote = *reopenNote
	}
	if err := scanJSON(hazards, &a.Hazards); err != nil {
		return nil, fmt.Errorf("failed to decode hazards: %w", err)
	}

	return &a, nil
}
