package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

// fakeSurveyRepo is an in-memory SurveyRepository for service tests.
type fakeSurveyRepo struct {
	surveys map[uuid.UUID]*models.Survey

	createErr error
	getErr    error
	updateErr error
}

func newFakeSurveyRepo(surveys ...*models.Survey) *fakeSurveyRepo {
	repo := &fakeSurveyRepo{surveys: make(map[uuid.UUID]*models.Survey)}
	for _, s := range surveys {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		repo.surveys[s.ID] = s
	}
	return repo
}

func (r *fakeSurveyRepo) Create(_ context.Context, survey *models.Survey) error {
	if r.createErr != nil {
		return r.createErr
	}
	if survey.ID == uuid.Nil {
		survey.ID = uuid.New()
	}
	survey.CreatedAt = time.Now()
	survey.UpdatedAt = survey.CreatedAt
	r.surveys[survey.ID] = survey
	return nil
}

func (r *fakeSurveyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Survey, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.surveys[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (r *fakeSurveyRepo) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*models.Survey, error) {
	var out []*models.Survey
	for _, s := range r.surveys {
		if s.OrgID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSurveyRepo) Update(_ context.Context, survey *models.Survey) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.surveys[survey.ID]; !ok {
		return apperrors.ErrNotFound
	}
	survey.UpdatedAt = time.Now()
	r.surveys[survey.ID] = survey
	return nil
}

func (r *fakeSurveyRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.SurveyStatus) error {
	s, ok := r.surveys[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeSurveyRepo) MarkIssued(_ context.Context, id uuid.UUID, issuedBy uuid.UUID, issuedAt time.Time) error {
	s, ok := r.surveys[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if s.Status == models.SurveyStatusIssued {
		return apperrors.ErrConflict
	}
	s.Status = models.SurveyStatusIssued
	s.IssuedBy = &issuedBy
	s.IssuedAt = &issuedAt
	return nil
}

func (r *fakeSurveyRepo) MarkSuperseded(_ context.Context, id, supersededBy uuid.UUID) error {
	s, ok := r.surveys[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	s.Status = models.SurveyStatusSuperseded
	s.SupersededBy = &supersededBy
	return nil
}

// fakeActionRepo is an in-memory ActionRepository for service tests.
type fakeActionRepo struct {
	actions map[uuid.UUID]*models.Action
	order   []uuid.UUID

	listErr   error
	updateErr error
}

func newFakeActionRepo(actions ...*models.Action) *fakeActionRepo {
	repo := &fakeActionRepo{actions: make(map[uuid.UUID]*models.Action)}
	for _, a := range actions {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		repo.actions[a.ID] = a
		repo.order = append(repo.order, a.ID)
	}
	return repo
}

func (r *fakeActionRepo) Create(_ context.Context, action *models.Action) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	action.CreatedAt = time.Now()
	action.UpdatedAt = action.CreatedAt
	r.actions[action.ID] = action
	r.order = append(r.order, action.ID)
	return nil
}

func (r *fakeActionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Action, error) {
	a, ok := r.actions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return a, nil
}

func (r *fakeActionRepo) ListBySurvey(_ context.Context, surveyID uuid.UUID) ([]*models.Action, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Action
	for _, id := range r.order {
		if a, ok := r.actions[id]; ok && a.SurveyID == surveyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeActionRepo) Update(_ context.Context, action *models.Action) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.actions[action.ID]; !ok {
		return apperrors.ErrNotFound
	}
	action.UpdatedAt = time.Now()
	r.actions[action.ID] = action
	return nil
}

func (r *fakeActionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.actions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.actions, id)
	return nil
}

// fakeBuildingRepo is an in-memory BuildingRepository for service tests.
type fakeBuildingRepo struct {
	buildings map[uuid.UUID]*models.Building
}

func newFakeBuildingRepo(buildings ...*models.Building) *fakeBuildingRepo {
	repo := &fakeBuildingRepo{buildings: make(map[uuid.UUID]*models.Building)}
	for _, b := range buildings {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		repo.buildings[b.ID] = b
	}
	return repo
}

func (r *fakeBuildingRepo) Create(_ context.Context, building *models.Building) error {
	if building.ID == uuid.Nil {
		building.ID = uuid.New()
	}
	r.buildings[building.ID] = building
	return nil
}

func (r *fakeBuildingRepo) ListBySurvey(_ context.Context, surveyID uuid.UUID) ([]*models.Building, error) {
	var out []*models.Building
	for _, b := range r.buildings {
		if b.SurveyID == surveyID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBuildingRepo) Update(_ context.Context, building *models.Building) error {
	if _, ok := r.buildings[building.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.buildings[building.ID] = building
	return nil
}

func (r *fakeBuildingRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.buildings, id)
	return nil
}

// fakeReferenceRepo hands out sequential reference numbers per key.
type fakeReferenceRepo struct {
	counters map[string]int
	err      error
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{counters: make(map[string]int)}
}

func (r *fakeReferenceRepo) NextSequence(_ context.Context, orgID uuid.UUID, docType models.DocumentType, year int) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	key := fmt.Sprintf("%s/%s/%d", orgID, docType, year)
	r.counters[key]++
	return r.counters[key], nil
}

// fakeRenderer records the payload it was asked to render.
type fakeRenderer struct {
	lastPayload *RenderPayload
}

func (r *fakeRenderer) Render(payload *RenderPayload) []byte {
	r.lastPayload = payload
	return []byte("rendered")
}

// fakeArtifactStore records saves and can be forced to fail.
type fakeArtifactStore struct {
	saved map[uuid.UUID][]byte
	err   error
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{saved: make(map[uuid.UUID][]byte)}
}

func (s *fakeArtifactStore) Save(_ context.Context, surveyID uuid.UUID, version int, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved[surveyID] = data
	return "artifacts/" + surveyID.String(), nil
}
