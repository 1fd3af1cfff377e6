package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/apperrors"
	"github.com/ezirisk/ezirisk-engine/pkg/auth"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ActionListResponse for GET /actions
type ActionListResponse struct {
	Actions []*models.Action `json:"actions"`
	Total   int              `json:"total"`
}

// CreateActionRequest for POST /actions
type CreateActionRequest struct {
	ModuleKey   string                `json:"module_key,omitempty"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Category    models.ActionCategory `json:"category"`
	Hazards     models.HazardFlags    `json:"hazards"`

	// Optional pre-classified fields for imports of historical records.
	SeverityTier    models.SeverityTier `json:"severity_tier,omitempty"`
	PriorityBand    models.PriorityBand `json:"priority_band,omitempty"`
	TriggerID       string              `json:"trigger_id,omitempty"`
	TriggerText     string              `json:"trigger_text,omitempty"`
	LegacyRiskScore *int                `json:"legacy_risk_score,omitempty"`
}

// UpdateActionRequest for PUT /actions/{aid}
type UpdateActionRequest struct {
	ModuleKey   string                `json:"module_key,omitempty"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Category    models.ActionCategory `json:"category"`
	Hazards     models.HazardFlags    `json:"hazards"`
}

// CloseActionRequest for POST /actions/{aid}/close
type CloseActionRequest struct {
	Note string `json:"note"`
}

// ReopenActionRequest for POST /actions/{aid}/reopen
type ReopenActionRequest struct {
	Note string `json:"note"`
}

// ============================================================================
// Handler
// ============================================================================

// ActionHandler handles remedial action HTTP requests.
type ActionHandler struct {
	actionService services.ActionService
	logger        *zap.Logger
}

// NewActionHandler creates a new action handler.
func NewActionHandler(actionService services.ActionService, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{actionService: actionService, logger: logger}
}

// RegisterRoutes registers the action handler's routes on the given mux.
func (h *ActionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/orgs/{oid}/surveys/{sid}/actions"

	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.List)))
	mux.HandleFunc("POST "+base,
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Create)))
	mux.HandleFunc("GET "+base+"/{aid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Get)))
	mux.HandleFunc("PUT "+base+"/{aid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Update)))
	mux.HandleFunc("DELETE "+base+"/{aid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Delete)))
	mux.HandleFunc("POST "+base+"/{aid}/start",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Start)))
	mux.HandleFunc("POST "+base+"/{aid}/close",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Close)))
	mux.HandleFunc("POST "+base+"/{aid}/reopen",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Reopen)))
}

// List handles GET /api/orgs/{oid}/surveys/{sid}/actions
func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	actions, err := h.actionService.ListBySurvey(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to list actions",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "list_actions_failed")
		return
	}

	response := ActionListResponse{Actions: actions, Total: len(actions)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/orgs/{oid}/surveys/{sid}/actions
func (h *ActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	action := &models.Action{
		SurveyID:        surveyID,
		ModuleKey:       req.ModuleKey,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Hazards:         req.Hazards,
		SeverityTier:    req.SeverityTier,
		PriorityBand:    req.PriorityBand,
		TriggerID:       req.TriggerID,
		TriggerText:     req.TriggerText,
		LegacyRiskScore: req.LegacyRiskScore,
	}

	if err := h.actionService.Create(r.Context(), action); err != nil {
		h.logger.Error("Failed to create action",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "create_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: action}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/orgs/{oid}/surveys/{sid}/actions/{aid}
func (h *ActionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actionID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	action, err := h.actionService.Get(r.Context(), actionID)
	if err != nil {
		h.logger.Error("Failed to get action",
			zap.String("action_id", actionID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "get_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: action}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/orgs/{oid}/surveys/{sid}/actions/{aid}
func (h *ActionHandler) Update(w http.ResponseWriter, r *http.Request) {
	actionID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	var req UpdateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	action, err := h.actionService.Get(r.Context(), actionID)
	if err != nil {
		h.writeServiceError(w, err, "get_action_failed")
		return
	}

	action.ModuleKey = req.ModuleKey
	action.Title = req.Title
	action.Description = req.Description
	action.Category = req.Category
	action.Hazards = req.Hazards

	if err := h.actionService.Update(r.Context(), action); err != nil {
		h.logger.Error("Failed to update action",
			zap.String("action_id", actionID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "update_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: action}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/orgs/{oid}/surveys/{sid}/actions/{aid}
func (h *ActionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actionID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	if err := h.actionService.Delete(r.Context(), actionID); err != nil {
		h.logger.Error("Failed to delete action",
			zap.String("action_id", actionID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "delete_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Start handles POST /api/orgs/{oid}/surveys/{sid}/actions/{aid}/start
func (h *ActionHandler) Start(w http.ResponseWriter, r *http.Request) {
	actionID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	action, err := h.actionService.Start(r.Context(), actionID)
	if err != nil {
		h.logger.Error("Failed to start action",
			zap.String("action_id", actionID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "start_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: action}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Close handles POST /api/orgs/{oid}/surveys/{sid}/actions/{aid}/close
func (h *ActionHandler) Close(w http.ResponseWriter, r *http.Request) {
	actionID, ok := h.parseIDs(w, r)
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

	var req CloseActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	action, err := h.actionService.Close(r.Context(), actionID, userID, req.Note)
	if err != nil {
		h.logger.Error("Failed to close action",
			zap.String("action_id", actionID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "close_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: action}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reopen handles POST /api/orgs/{oid}/surveys/{sid}/actions/{aid}/reopen
func (h *ActionHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	actionID, ok := h.parseIDs(w, r)
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

	var req ReopenActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	action, err := h.actionService.Reopen(r.Context(), actionID, userID, req.Note)
	if err != nil {
		h.logger.Error("Failed to reopen action",
			zap.String("action_id", actionID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "reopen_action_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: action}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ActionHandler) parseIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if _, _, ok := ParseOrgAndSurveyIDs(w, r, h.logger); !ok {
		return uuid.Nil, false
	}
	return ParseActionID(w, r, h.logger)
}

// writeServiceError maps service-layer sentinel errors to HTTP statuses.
func (h *ActionHandler) writeServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var (
		status = http.StatusInternalServerError
		code   = fallbackCode
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "action_not_found"
	case errors.Is(err, apperrors.ErrImmutable):
		status, code = http.StatusConflict, "survey_immutable"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, apperrors.ErrInvalidCategory):
		status, code = http.StatusBadRequest, "invalid_category"
	}
	if werr := ErrorResponse(w, status, code, err.Error()); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
