package models

import (
	"time"

	"github.com/google/uuid"
)

// FrameMaterial is the primary structural frame of a surveyed building.
type FrameMaterial string

const (
	FrameConcrete FrameMaterial = "concrete"
	FrameMasonry  FrameMaterial = "masonry"
	FrameSteel    FrameMaterial = "steel"
	FrameTimber   FrameMaterial = "timber"
	FrameUnknown  FrameMaterial = "unknown"
)

// Building is one structure within a surveyed site. Its construction facts
// feed the worst-case construction pillar rating.
// Stored in the engine_buildings table.
type Building struct {
	ID       uuid.UUID `json:"id"`
	SurveyID uuid.UUID `json:"survey_id"`

	Name          string        `json:"name"`
	FrameMaterial FrameMaterial `json:"frame_material"`

	RoofCombustible  bool `json:"roof_combustible"`
	WallsCombustible bool `json:"walls_combustible"`

	// CombustibleAreaPercent is the share of floor area holding combustible
	// contents, 0-100.
	CombustibleAreaPercent float64 `json:"combustible_area_percent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
