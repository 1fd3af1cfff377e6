package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseOrgID extracts and validates the organisation ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: oid
func ParseOrgID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "oid", "invalid_org_id", "Invalid organisation ID format", logger)
}

// ParseSurveyID extracts and validates the survey ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: sid
func ParseSurveyID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "sid", "invalid_survey_id", "Invalid survey ID format", logger)
}

// ParseActionID extracts and validates the action ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: aid
func ParseActionID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "aid", "invalid_action_id", "Invalid action ID format", logger)
}

// ParseBuildingID extracts and validates the building ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: bid
func ParseBuildingID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "bid", "invalid_building_id", "Invalid building ID format", logger)
}

// ParseOrgAndSurveyIDs extracts and validates both organisation and survey IDs.
// Returns both UUIDs and true on success, or uuid.Nil values and false on error.
// Expects path parameters: oid, sid
func ParseOrgAndSurveyIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, uuid.UUID, bool) {
	orgID, ok := ParseOrgID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	surveyID, ok := ParseSurveyID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return orgID, surveyID, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
