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

// BuildingListResponse for GET /buildings
type BuildingListResponse struct {
	Buildings []*models.Building `json:"buildings"`
	Total     int                `json:"total"`
}

// BuildingRequest for POST and PUT building endpoints.
type BuildingRequest struct {
	Name                   string               `json:"name"`
	FrameMaterial          models.FrameMaterial `json:"frame_material"`
	RoofCombustible        bool                 `json:"roof_combustible"`
	WallsCombustible       bool                 `json:"walls_combustible"`
	CombustibleAreaPercent float64              `json:"combustible_area_percent"`
}

// BuildingHandler handles survey building HTTP requests.
type BuildingHandler struct {
	buildingService services.BuildingService
	logger          *zap.Logger
}

// NewBuildingHandler creates a new building handler.
func NewBuildingHandler(buildingService services.BuildingService, logger *zap.Logger) *BuildingHandler {
	return &BuildingHandler{buildingService: buildingService, logger: logger}
}

// RegisterRoutes registers the building handler's routes on the given mux.
func (h *BuildingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/orgs/{oid}/surveys/{sid}/buildings"

	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.List)))
	mux.HandleFunc("POST "+base,
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Create)))
	mux.HandleFunc("PUT "+base+"/{bid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Update)))
	mux.HandleFunc("DELETE "+base+"/{bid}",
		authMiddleware.RequireAuthWithPathValidation("oid")(tenantMiddleware(h.Delete)))
}

// List handles GET /api/orgs/{oid}/surveys/{sid}/buildings
func (h *BuildingHandler) List(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	buildings, err := h.buildingService.ListBySurvey(r.Context(), surveyID)
	if err != nil {
		h.logger.Error("Failed to list buildings",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "list_buildings_failed")
		return
	}

	response := BuildingListResponse{Buildings: buildings, Total: len(buildings)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/orgs/{oid}/surveys/{sid}/buildings
func (h *BuildingHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req BuildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	building := &models.Building{
		SurveyID:               surveyID,
		Name:                   req.Name,
		FrameMaterial:          req.FrameMaterial,
		RoofCombustible:        req.RoofCombustible,
		WallsCombustible:       req.WallsCombustible,
		CombustibleAreaPercent: req.CombustibleAreaPercent,
	}

	if err := h.buildingService.Create(r.Context(), building); err != nil {
		h.logger.Error("Failed to create building",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "create_building_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: building}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/orgs/{oid}/surveys/{sid}/buildings/{bid}
func (h *BuildingHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	buildingID, ok := ParseBuildingID(w, r, h.logger)
	if !ok {
		return
	}

	var req BuildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	building := &models.Building{
		ID:                     buildingID,
		SurveyID:               surveyID,
		Name:                   req.Name,
		FrameMaterial:          req.FrameMaterial,
		RoofCombustible:        req.RoofCombustible,
		WallsCombustible:       req.WallsCombustible,
		CombustibleAreaPercent: req.CombustibleAreaPercent,
	}

	if err := h.buildingService.Update(r.Context(), building); err != nil {
		h.logger.Error("Failed to update building",
			zap.String("building_id", buildingID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "update_building_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: building}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/orgs/{oid}/surveys/{sid}/buildings/{bid}
func (h *BuildingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, surveyID, ok := ParseOrgAndSurveyIDs(w, r, h.logger)
	if !ok {
		return
	}

	buildingID, ok := ParseBuildingID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.buildingService.Delete(r.Context(), surveyID, buildingID); err != nil {
		h.logger.Error("Failed to delete building",
			zap.String("building_id", buildingID.String()),
			zap.Error(err))
		h.writeServiceError(w, err, "delete_building_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *BuildingHandler) writeServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var (
		status = http.StatusInternalServerError
		code   = fallbackCode
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrImmutable):
		status, code = http.StatusConflict, "survey_immutable"
	}
	if werr := ErrorResponse(w, status, code, err.Error()); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
