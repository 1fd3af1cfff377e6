package handlers

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ezirisk/ezirisk-engine/pkg/auth"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

// withClaims injects authenticated claims into the request context the way
// the auth middleware would.
func withClaims(r *http.Request, orgID, userID uuid.UUID) *http.Request {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		OrgID:            orgID.String(),
	}
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimsKey, claims))
}

// mockSurveyServiceForHandler implements services.SurveyService for handler tests.
type mockSurveyServiceForHandler struct {
	survey  *models.Survey
	surveys []*models.Survey

	createErr     error
	getErr        error
	updateErr     error
	transitionErr error
}

func (m *mockSurveyServiceForHandler) Create(ctx context.Context, survey *models.Survey) error {
	if m.createErr != nil {
		return m.createErr
	}
	survey.ID = uuid.New()
	survey.Status = models.SurveyStatusDraft
	survey.Version = 1
	return nil
}
func (m *mockSurveyServiceForHandler) Get(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.survey, nil
}
func (m *mockSurveyServiceForHandler) List(ctx context.Context, orgID uuid.UUID) ([]*models.Survey, error) {
	return m.surveys, nil
}
func (m *mockSurveyServiceForHandler) Update(ctx context.Context, survey *models.Survey) error {
	return m.updateErr
}
func (m *mockSurveyServiceForHandler) Transition(ctx context.Context, id uuid.UUID, to models.SurveyStatus) (*models.Survey, error) {
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	m.survey.Status = to
	return m.survey, nil
}
func (m *mockSurveyServiceForHandler) ReturnToDraft(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	m.survey.Status = models.SurveyStatusDraft
	return m.survey, nil
}
func (m *mockSurveyServiceForHandler) NewVersion(ctx context.Context, id uuid.UUID) (*models.Survey, error) {
	if m.transitionErr != nil {
		return nil, m.transitionErr
	}
	next := *m.survey
	next.ID = uuid.New()
	next.Status = models.SurveyStatusDraft
	next.Version = m.survey.Version + 1
	return &next, nil
}

// mockActionServiceForHandler implements services.ActionService for handler tests.
type mockActionServiceForHandler struct {
	action  *models.Action
	actions []*models.Action

	createErr error
	getErr    error
	listErr   error
	updateErr error
	deleteErr error
	lifeErr   error

	closedBy   uuid.UUID
	reopenedBy uuid.UUID
}

func (m *mockActionServiceForHandler) Create(ctx context.Context, action *models.Action) error {
	if m.createErr != nil {
		return m.createErr
	}
	action.ID = uuid.New()
	action.Status = models.ActionStatusOpen
	return nil
}
func (m *mockActionServiceForHandler) Get(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.action, nil
}
func (m *mockActionServiceForHandler) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Action, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.actions, nil
}
func (m *mockActionServiceForHandler) Update(ctx context.Context, action *models.Action) error {
	return m.updateErr
}
func (m *mockActionServiceForHandler) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteErr
}
func (m *mockActionServiceForHandler) Start(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	if m.lifeErr != nil {
		return nil, m.lifeErr
	}
	m.action.Status = models.ActionStatusInProgress
	return m.action, nil
}
func (m *mockActionServiceForHandler) Close(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, note string) (*models.Action, error) {
	if m.lifeErr != nil {
		return nil, m.lifeErr
	}
	m.closedBy = closedBy
	m.action.Status = models.ActionStatusClosed
	m.action.ClosureNote = note
	return m.action, nil
}
func (m *mockActionServiceForHandler) Reopen(ctx context.Context, id uuid.UUID, reopenedBy uuid.UUID, note string) (*models.Action, error) {
	if m.lifeErr != nil {
		return nil, m.lifeErr
	}
	m.reopenedBy = reopenedBy
	m.action.Status = models.ActionStatusOpen
	m.action.ReopenNote = note
	return m.action, nil
}

// mockBuildingServiceForHandler implements services.BuildingService for handler tests.
type mockBuildingServiceForHandler struct {
	buildings []*models.Building

	createErr error
	listErr   error
	updateErr error
	deleteErr error
}

func (m *mockBuildingServiceForHandler) Create(ctx context.Context, building *models.Building) error {
	if m.createErr != nil {
		return m.createErr
	}
	building.ID = uuid.New()
	return nil
}
func (m *mockBuildingServiceForHandler) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]*models.Building, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.buildings, nil
}
func (m *mockBuildingServiceForHandler) Update(ctx context.Context, building *models.Building) error {
	return m.updateErr
}
func (m *mockBuildingServiceForHandler) Delete(ctx context.Context, surveyID, id uuid.UUID) error {
	return m.deleteErr
}

// mockReadinessServiceForHandler implements services.ReadinessService for handler tests.
type mockReadinessServiceForHandler struct {
	result *models.EligibilityResult
}

func (m *mockReadinessServiceForHandler) ValidateEligibility(
	surveyTypes []models.DocumentType,
	ctx models.SurveyContext,
	answers models.AnswerMap,
	moduleProgress map[string]string,
	actions []*models.Action,
) *models.EligibilityResult {
	return m.result
}
func (m *mockReadinessServiceForHandler) ValidateSurvey(survey *models.Survey, actions []*models.Action) *models.EligibilityResult {
	return m.result
}
func (m *mockReadinessServiceForHandler) SafeValidate(survey *models.Survey, actions []*models.Action) *models.EligibilityResult {
	return m.result
}

// mockScoringServiceForHandler implements services.ScoringService for handler tests.
type mockScoringServiceForHandler struct {
	breakdown *models.ScoreBreakdown
}

func (m *mockScoringServiceForHandler) BuildScoreBreakdown(survey *models.Survey, buildings []*models.Building) *models.ScoreBreakdown {
	return m.breakdown
}

// mockIssuanceServiceForHandler implements services.IssuanceService for handler tests.
type mockIssuanceServiceForHandler struct {
	result   *services.IssueResult
	issueErr error

	issuedBy uuid.UUID
}

func (m *mockIssuanceServiceForHandler) Issue(ctx context.Context, surveyID, issuedBy uuid.UUID) (*services.IssueResult, error) {
	m.issuedBy = issuedBy
	return m.result, m.issueErr
}
