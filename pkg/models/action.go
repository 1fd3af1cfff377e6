package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionCategory identifies which survey discipline a finding belongs to.
type ActionCategory string

// Action categories. Unknown categories are rejected at the API boundary,
// never silently defaulted.
const (
	CategoryMeansOfEscape     ActionCategory = "means_of_escape"
	CategoryDetectionAlarm    ActionCategory = "detection_alarm"
	CategoryEmergencyLighting ActionCategory = "emergency_lighting"
	CategoryCompartmentation  ActionCategory = "compartmentation"
	CategoryFireDoors         ActionCategory = "fire_doors"
	CategoryFireFighting      ActionCategory = "fire_fighting"
	CategoryManagement        ActionCategory = "management"
	CategoryHousekeeping      ActionCategory = "housekeeping"
	CategoryOther             ActionCategory = "other"
)

// ValidCategory reports whether c is one of the nine known categories.
func ValidCategory(c ActionCategory) bool {
	switch c {
	case CategoryMeansOfEscape, CategoryDetectionAlarm, CategoryEmergencyLighting,
		CategoryCompartmentation, CategoryFireDoors, CategoryFireFighting,
		CategoryManagement, CategoryHousekeeping, CategoryOther:
		return true
	}
	return false
}

// SeverityTier is the internal severity classification. T4 is most severe.
type SeverityTier string

const (
	TierT1 SeverityTier = "T1"
	TierT2 SeverityTier = "T2"
	TierT3 SeverityTier = "T3"
	TierT4 SeverityTier = "T4"
)

// PriorityBand is the external-facing urgency band. P1 is most urgent.
type PriorityBand string

const (
	PriorityP1 PriorityBand = "P1"
	PriorityP2 PriorityBand = "P2"
	PriorityP3 PriorityBand = "P3"
	PriorityP4 PriorityBand = "P4"
)

// ActionStatus is the lifecycle state of an action.
type ActionStatus string

const (
	ActionStatusOpen       ActionStatus = "open"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusClosed     ActionStatus = "closed"
	ActionStatusSuperseded ActionStatus = "superseded"
)

// HazardFlags are the boolean deficiency indicators recorded against a
// finding. Absent flags are false; there is no tri-state.
type HazardFlags struct {
	FinalExitLocked                bool `json:"final_exit_locked,omitempty"`
	FinalExitObstructed            bool `json:"final_exit_obstructed,omitempty"`
	NoFireDetection                bool `json:"no_fire_detection,omitempty"`
	InadequateDetectionCoverage    bool `json:"inadequate_detection_coverage,omitempty"`
	NoEmergencyLighting            bool `json:"no_emergency_lighting,omitempty"`
	SingleStairCompromised         bool `json:"single_stair_compromised,omitempty"`
	SeriousCompartmentationFailure bool `json:"serious_compartmentation_failure,omitempty"`
	HighRiskRoomOnEscapeRoute      bool `json:"high_risk_room_on_escape_route,omitempty"`
	NoFRAEvidence                  bool `json:"no_fra_evidence,omitempty"`
}

// Finding is the rule-engine input: a categorised deficiency plus its hazard
// flags. It is the derivation-relevant projection of an Action.
type Finding struct {
	Category ActionCategory `json:"category"`
	Hazards  HazardFlags    `json:"hazards"`
}

// Action is a recorded deficiency tied to a survey module, with its derived
// severity classification and remediation lifecycle.
// Stored in the engine_actions table.
type Action struct {
	ID        uuid.UUID `json:"id"`
	SurveyID  uuid.UUID `json:"survey_id"`
	ModuleKey string    `json:"module_key,omitempty"`

	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Category    ActionCategory `json:"category"`
	Hazards     HazardFlags    `json:"hazards"`

	Status ActionStatus `json:"status"`

	// Derived classification. All three are populated together, either at
	// creation or by the legacy migrator. Once populated they are never
	// silently overwritten.
	SeverityTier SeverityTier `json:"severity_tier,omitempty"`
	PriorityBand PriorityBand `json:"priority_band,omitempty"`
	TriggerID    string       `json:"trigger_id,omitempty"`
	TriggerText  string       `json:"trigger_text,omitempty"`

	// LegacyRiskScore is the old likelihood x impact product, present only on
	// records created before tier/priority derivation existed.
	LegacyRiskScore *int `json:"legacy_risk_score,omitempty"`

	// ReferenceNumber is assigned once at issuance and never reassigned.
	ReferenceNumber string `json:"reference_number,omitempty"`

	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	ClosedBy    *uuid.UUID `json:"closed_by,omitempty"`
	ClosureNote string     `json:"closure_note,omitempty"`

	ReopenedAt *time.Time `json:"reopened_at,omitempty"`
	ReopenedBy *uuid.UUID `json:"reopened_by,omitempty"`
	ReopenNote string     `json:"reopen_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Finding returns the rule-engine projection of the action.
func (a *Action) Finding() Finding {
	return Finding{Category: a.Category, Hazards: a.Hazards}
}

// IsOpen reports whether the action still requires attention.
func (a *Action) IsOpen() bool {
	return a.Status == ActionStatusOpen || a.Status == ActionStatusInProgress
}

// SeverityResult is the output of severity derivation.
type SeverityResult struct {
	Tier        SeverityTier `json:"tier"`
	Priority    PriorityBand `json:"priority"`
	TriggerID   string       `json:"trigger_id"`
	TriggerText string       `json:"trigger_text"`
}

// ExecutiveOutcome is the qualitative rollup of a survey's action set.
type ExecutiveOutcome string

const (
	OutcomeMaterialLifeSafetyRisk ExecutiveOutcome = "material_life_safety_risk_present"
	OutcomeSignificantDeficiency  ExecutiveOutcome = "significant_deficiencies"
	OutcomeImprovementsRequired   ExecutiveOutcome = "improvements_required"
	OutcomeSatisfactory           ExecutiveOutcome = "satisfactory_with_improvements"
)
