package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/auth"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

// ReadinessResponse for GET /readiness. Blockers come grouped by module for
// display alongside the flat list.
type ReadinessResponse struct {
	Eligibility *models.EligibilityResult `json:"eligibility"`
	Grouped     []models.BlockerGroup     `json:"grouped"`
}

// ReportHandler handles readiness, scoring, and issuance endpoints.
type ReportHandler struct {
	surveyService   services.SurveyService
	actionService   services.ActionService
	buildingService services.BuildingService
	readiness       services.ReadinessService
	scoring         services.ScoringService
	issuance        services.IssuanceService
	logger          *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(
	surveyService services.SurveyService,
	actionService services.ActionService,
	buildingService services.BuildingService,
	readiness services.ReadinessService,
	scoring services.ScoringService,
	issuance services.IssuanceService,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		surveyService:   surveyService,
		actionService:   actionService,
		buildingService: buildingService,
		readiness:       readiness,
		scoring:         scoring,
		issuance:        issuance,
		logger:          logger,
	}
}

// RegisterRoutes registers the report handler's routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/orgs/{oid}/surveys/{sid}"

	mux.HandleFunc("GET "+base+"/readiness",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Readiness)))
	mux.HandleFunc("GET "+base+"/score",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Score)))
	mux.HandleFunc("POST "+base+"/issue",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Issue)))
}

// Readiness handles GET /api/orgs/{oid}/surveys/{sid}/readiness
func (h *ReportHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	survey, err := h.surveyService.Get(r.Context(), surveyID)
	if err != nil {
		h.writeServiceError(w, err, "get_survey_failed")
		return
	}

	actions, err := h.actionService.ListBySurvey(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to list actions for readiness",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "list_actions_failed")
		return
	}

	eligibility := h.readiness.SafeValidate(survey, actions)
	response := ReadinessResponse{
		Eligibility: eligibility,
		Grouped:     models.GroupBlockers(eligibility.Blockers),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Score handles GET /api/orgs/{oid}/surveys/{sid}/score
func (h *ReportHandler) Score(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	survey, err := h.surveyService.Get(r.Context(), surveyID)
	if err != nil {
		h.writeServiceError(w, err, "get_survey_failed")
		return
	}

	buildings, err := h.buildingService.ListBySurvey(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to list buildings for scoring",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "list_buildings_failed")
		return
	}

	breakdown := h.scoring.BuildScoreBreakdown(survey, buildings)
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: breakdown}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Issue handles POST /api/orgs/{oid}/surveys/{sid}/issue
func (h *ReportHandler) Issue(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	_, userID, err := auth.ExtractClaimsFromContext(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.issuance.Issue(r.Context(), surveyID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotEligible) {
			// The blocker list is the useful part of this failure.
			if werr := WriteJSON(w, http.StatusUnprocessableEntity, ApiResponse{
				Success: false,
				Error:   "not_eligible",
				Message: "Survey is not eligible for issue",
				Data:    result,
			}); werr != nil {
				h.logger.Error("Failed to write response", zap.Error(werr))
			}
			return
		}

		h.logger.Error("Failed to issue survey",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "issue_survey_failed")
		return
	}

	h.logger.Info("Survey issued via API",
		zap.String("survey_id", surveyID.String()),
		zap.String("issued_by", userID.String()))

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ReportHandler) writeServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var (
		status = http.StatusInternalServerError
		code   = fallbackCode
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "survey_not_found"
	case errors.Is(err, apperrors.ErrImmutable):
		status, code = http.StatusConflict, "survey_immutable"
	case errors.Is(err, apperrors.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	}
	if werr := ErrorResponse(w, status, code, err.Error()); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
