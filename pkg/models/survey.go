package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies the survey discipline a document covers. A combined
// document carries more than one type.
type DocumentType string

const (
	DocumentTypeFRA   DocumentType = "FRA"   // fire risk assessment
	DocumentTypeFSD   DocumentType = "FSD"   // fire strategy document
	DocumentTypeDSEAR DocumentType = "DSEAR" // dangerous substances assessment
)

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypeFRA, DocumentTypeFSD, DocumentTypeDSEAR:
		return true
	}
	return false
}

// SurveyStatus is the document lifecycle state.
type SurveyStatus string

const (
	SurveyStatusDraft      SurveyStatus = "draft"
	SurveyStatusInReview   SurveyStatus = "in_review"
	SurveyStatusApproved   SurveyStatus = "approved"
	SurveyStatusIssued     SurveyStatus = "issued"
	SurveyStatusSuperseded SurveyStatus = "superseded"
)

// OccupancyRisk classifies the building occupancy for rule evaluation.
type OccupancyRisk string

const (
	OccupancyNonSleeping OccupancyRisk = "non_sleeping"
	OccupancySleeping    OccupancyRisk = "sleeping"
	OccupancyVulnerable  OccupancyRisk = "vulnerable"
)

// Scope types for FRA surveys.
const (
	ScopeTypeFull    = "full"
	ScopeTypeLimited = "limited"
	ScopeTypeDesktop = "desktop"
)

// Module completion states recorded in the progress map.
const (
	ModuleComplete   = "complete"
	ModuleIncomplete = "incomplete"
)

// SurveyContext carries the per-survey occupancy and structural facts that
// feed rule evaluation. It is owned by the survey and read-only to the
// engines.
type SurveyContext struct {
	OccupancyRisk           OccupancyRisk `json:"occupancy_risk,omitempty"`
	Storeys                 int           `json:"storeys,omitempty"`
	ScopeType               string        `json:"scope_type,omitempty"`
	EngineeredSolutionsUsed bool          `json:"engineered_solutions_used,omitempty"`
}

// AnswerMap holds free-form survey answers keyed by field key. Values are
// whatever the form captured: strings, booleans, numbers, lists.
type AnswerMap map[string]any

// Bool reports whether the answer under key is boolean true.
func (m AnswerMap) Bool(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Text returns the trimmed-nothing string value under key, or "" when the
// answer is absent or not a string.
func (m AnswerMap) Text(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// NonEmpty reports whether an answer exists under key and carries content:
// a non-empty string, a non-empty list or map, a true boolean, or any number.
func (m AnswerMap) NonEmpty(key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case bool:
		return t
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// Survey is the aggregate root for a risk survey document.
// Stored in the engine_surveys table.
type Survey struct {
	ID    uuid.UUID `json:"id"`
	OrgID uuid.UUID `json:"org_id"`

	Title string `json:"title"`

	// DocumentTypes lists the survey types this document covers. Combined
	// documents (e.g. FRA+FSD) carry more than one entry.
	DocumentTypes []DocumentType `json:"document_types"`

	Status  SurveyStatus `json:"status"`
	Version int          `json:"version"`

	IndustryKey string        `json:"industry_key,omitempty"`
	Context     SurveyContext `json:"context"`

	Answers        AnswerMap         `json:"answers"`
	ModuleProgress map[string]string `json:"module_progress"`

	// Ratings maps canonical factor key to an integer rating 1-5.
	Ratings map[string]int `json:"ratings"`

	// SectionGrades holds explicit per-pillar grades that override computed
	// pillar ratings.
	SectionGrades map[string]int `json:"section_grades,omitempty"`

	IssuedAt *time.Time `json:"issued_at,omitempty"`
	IssuedBy *uuid.UUID `json:"issued_by,omitempty"`

	// SupersededBy links to the document version that replaced this one.
	SupersededBy *uuid.UUID `json:"superseded_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Mutable reports whether the survey still accepts edits. Issued and
// superseded documents are immutable except via ReturnToDraft or NewVersion.
func (s *Survey) Mutable() bool {
	return s.Status != SurveyStatusIssued && s.Status != SurveyStatusSuperseded
}

// HasType reports whether the document covers the given survey type.
func (s *Survey) HasType(t DocumentType) bool {
	for _, dt := range s.DocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}
