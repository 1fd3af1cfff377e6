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

// SurveyRepository provides data access for survey documents.
type SurveyRepository interface {
	Create(ctx context.Context, survey *models.Survey) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Survey, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Survey, error)
	Update(ctx context.Context, survey *models.Survey) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SurveyStatus) error
	MarkIssued(ctx context.Context, id uuid.UUID, issuedBy uuid.UUID, issuedAt time.Time) error
	MarkSuperseded(ctx context.Context, id, supersededBy uuid.UUID) error
}

type surveyRepository struct{}

// NewSurveyRepository creates a new SurveyRepository.
func NewSurveyRepository() SurveyRepository {
	return &surveyRepository{}
}

var _ SurveyRepository = (*surveyRepository)(nil)

const surveyColumns = `
	id, org_id, title, document_types, status, version, industry_key,
	context, answers, module_progress, ratings, section_grades,
	issued_at, issued_by, superseded_by, created_at, updated_at`

func (r *surveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO engine_surveys (
			org_id, title, document_types, status, version, industry_key,
			context, answers, module_progress, ratings, section_grades,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		survey.OrgID,
		survey.Title,
		jsonbValue(survey.DocumentTypes),
		survey.Status,
		survey.Version,
		nullString(survey.IndustryKey),
		jsonbValue(survey.Context),
		jsonbValue(survey.Answers),
		jsonbValue(survey.ModuleProgress),
		jsonbValue(survey.Ratings),
		jsonbValue(survey.SectionGrades),
		now,
		now,
	).Scan(&survey.ID, &survey.CreatedAt, &survey.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create survey: %w", err)
	}

	return nil
}

func (r *surveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + surveyColumns + ` FROM engine_surveys WHERE id = $1`

	survey, err := scanSurvey(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	return survey, nil
}

func (r *surveyRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Survey, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + surveyColumns + `
		FROM engine_surveys
		WHERE org_id = $1
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	var surveys []*models.Survey
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		surveys = append(surveys, survey)
	}
	return surveys, rows.Err()
}

func (r *surveyRepository) Update(ctx context.Context, survey *models.Survey) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE engine_surveys
		SET title = $2, document_types = $3, industry_key = $4, context = $5,
		    answers = $6, module_progress = $7, ratings = $8,
		    section_grades = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		survey.ID,
		survey.Title,
		jsonbValue(survey.DocumentTypes),
		nullString(survey.IndustryKey),
		jsonbValue(survey.Context),
		jsonbValue(survey.Answers),
		jsonbValue(survey.ModuleProgress),
		jsonbValue(survey.Ratings),
		jsonbValue(survey.SectionGrades),
	).Scan(&survey.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update survey: %w", err)
	}
	return nil
}

func (r *surveyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SurveyStatus) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE engine_surveys SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update survey status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *surveyRepository) MarkIssued(ctx context.Context, id uuid.UUID, issuedBy uuid.UUID, issuedAt time.Time) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE engine_surveys
		SET status = $2, issued_at = $3, issued_by = $4, updated_at = NOW()
		WHERE id = $1 AND status != $2`,
		id, models.SurveyStatusIssued, issuedAt, issuedBy)
	if err != nil {
		return fmt.Errorf("failed to mark survey issued: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *surveyRepository) MarkSuperseded(ctx context.Context, id, supersededBy uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE engine_surveys
		SET status = $2, superseded_by = $3, updated_at = NOW()
		WHERE id = $1`,
		id, models.SurveyStatusSuperseded, supersededBy)
	if err != nil {
		return fmt.Errorf("failed to mark survey superseded: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// scanSurvey reads one survey row. JSONB columns arrive as raw bytes and are
// unmarshalled here.
func scanSurvey(row pgx.Row) (*models.Survey, error) {
	var (
		s             models.Survey
		docTypes      []byte
		contextJSON   []byte
		answers       []byte
		progress      []byte
		ratings       []byte
		sectionGrades []byte
		industryKey   *string
	)

	err := row.Scan(
		&s.ID, &s.OrgID, &s.Title, &docTypes, &s.Status, &s.Version,
		&industryKey, &contextJSON, &answers, &progress, &ratings,
		&sectionGrades, &s.IssuedAt, &s.IssuedBy, &s.SupersededBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if industryKey != nil {
		s.IndustryKey = *industryKey
	}
	if err := scanJSON(docTypes, &s.DocumentTypes); err != nil {
		return nil, fmt.Errorf("failed to decode document_types: %w", err)
	}
	if err := scanJSON(contextJSON, &s.Context); err != nil {
		return nil, fmt.Errorf("failed to decode context: %w", err)
	}
	if err := scanJSON(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	if err := scanJSON(progress, &s.ModuleProgress); err != nil {
		return nil, fmt.Errorf("failed to decode module_progress: %w", err)
	}
	if err := scanJSON(ratings, &s.Ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}
	if err := scanJSON(sectionGrades, &s.SectionGrades); err != nil {
		return nil, fmt.Errorf("failed to decode section_grades: %w", err)
	}

	return &s, nil
}
