package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/auth"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// SurveyListResponse for GET /surveys
type SurveyListResponse struct {
	Surveys []*models.Survey `json:"surveys"`
	Total   int              `json:"total"`
}

// CreateSurveyRequest for POST /surveys
type CreateSurveyRequest struct {
	Title         string                `json:"title"`
	DocumentTypes []models.DocumentType `json:"document_types"`
	IndustryKey   string                `json:"industry_key,omitempty"`
	Context       models.SurveyContext  `json:"context"`
}

// UpdateSurveyRequest for PUT /surveys/{sid}
type UpdateSurveyRequest struct {
	Title          string                `json:"title"`
	DocumentTypes  []models.DocumentType `json:"document_types"`
	IndustryKey    string                `json:"industry_key,omitempty"`
	Context        models.SurveyContext  `json:"context"`
	Answers        models.AnswerMap      `json:"answers"`
	ModuleProgress map[string]string     `json:"module_progress"`
	Ratings        map[string]int        `json:"ratings"`
	SectionGrades  map[string]int        `json:"section_grades,omitempty"`
}

// TransitionRequest for POST /surveys/{sid}/transition
type TransitionRequest struct {
	Status models.SurveyStatus `json:"status"`
}

// ============================================================================
// Handler
// ============================================================================

// SurveyHandler handles survey document HTTP requests.
type SurveyHandler struct {
	surveyService services.SurveyService
	logger        *zap.Logger
}

// NewSurveyHandler creates a new survey handler.
func NewSurveyHandler(surveyService services.SurveyService, logger *zap.Logger) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService, logger: logger}
}

// RegisterRoutes registers the survey handler's routes on the given mux.
func (h *SurveyHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/orgs/{oid}/surveys"

	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.List)))
	mux.HandleFunc("POST "+base,
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Create)))
	mux.HandleFunc("GET "+base+"/{sid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Get)))
	mux.HandleFunc("PUT "+base+"/{sid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Update)))
	mux.HandleFunc("POST "+base+"/{sid}/transition",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Transition)))
	mux.HandleFunc("POST "+base+"/{sid}/return-to-draft",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.ReturnToDraft)))
	mux.HandleFunc("POST "+base+"/{sid}/versions",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.NewVersion)))
}

// List handles GET /api/orgs/{oid}/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := ParseOrgID(w, r, h.logger)
	if !ok {
		return
	}

	surveys, err := h.surveyService.List(r.Context(), orgID)
	if err != nil {
		h.logger.Error("Failed to list surveys",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_surveys_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := SurveyListResponse{Surveys: surveys, Total: len(surveys)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/orgs/{oid}/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := ParseOrgID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	survey := &models.Survey{
		OrgID:         orgID,
		Title:         req.Title,
		DocumentTypes: req.DocumentTypes,
		IndustryKey:   req.IndustryKey,
		Context:       req.Context,
	}

	if err := h.surveyService.Create(r.Context(), survey); err != nil {
		h.logger.Error("Failed to create survey",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "create_survey_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: survey}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/orgs/{oid}/surveys/{sid}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	survey, err := h.surveyService.Get(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to get survey",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "get_survey_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: survey}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/orgs/{oid}/surveys/{sid}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	survey, err := h.surveyService.Get(r.Context(), surveyID)
	if err != nil {
		h.writeServiceError(w, err, "get_survey_failed")
		return
	}

	survey.Title = req.Title
	survey.DocumentTypes = req.DocumentTypes
	survey.IndustryKey = req.IndustryKey
	survey.Context = req.Context
	survey.Answers = req.Answers
	survey.ModuleProgress = req.ModuleProgress
	survey.Ratings = req.Ratings
	survey.SectionGrades = req.SectionGrades

	if err := h.surveyService.Update(r.Context(), survey); err != nil {
		h.logger.Error("Failed to update survey",
			zap.String("org_id", orgID.String()),
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "update_survey_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: survey}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Transition handles POST /api/orgs/{oid}/surveys/{sid}/transition
func (h *SurveyHandler) Transition(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	survey, err := h.surveyService.Transition(r.Context(), surveyID, req.Status)
	if err != nil {
		h.logger.Error("Failed to transition survey",
			zap.String("survey_id", surveyID.String()),
			zap.String("to", string(req.Status)),
			zap.Error(err))
		h.writeServiceError(w, err, "transition_survey_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: survey}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ReturnToDraft handles POST /api/orgs/{oid}/surveys/{sid}/return-to-draft
func (h *SurveyHandler) ReturnToDraft(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	survey, err := h.surveyService.ReturnToDraft(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to return survey to draft",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "return_to_draft_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: survey}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// NewVersion handles POST /api/orgs/{oid}/surveys/{sid}/versions
func (h *SurveyHandler) NewVersion(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	survey, err := h.surveyService.NewVersion(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to create survey version",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "new_version_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: survey}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeServiceError maps service-layer sentinel errors to HTTP statuses.
func (h *SurveyHandler) writeServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var (
		status = http.StatusInternalServerError
		code   = fallbackCode
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "survey_not_found"
	case errors.Is(err, apperrors.ErrImmutable):
		status, code = http.StatusConflict, "survey_immutable"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, apperrors.ErrUnknownType):
		status, code = http.StatusBadRequest, "unknown_document_type"
	case errors.Is(err, apperrors.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	}
	if werr := ErrorResponse(w, status, code, err.Error()); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
