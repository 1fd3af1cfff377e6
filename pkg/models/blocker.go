package models

// Blocker types.
const (
	BlockerModuleIncomplete     = "module_incomplete"
	BlockerFieldRequired        = "field_required"
	BlockerConfirmationRequired = "confirmation_required"
)

// GeneralGroupKey is the synthetic group for blockers that carry no module key.
const GeneralGroupKey = "general"

// Blocker is a structured reason preventing document issuance. The JSON shape
// is stable; it is consumed directly by the notification/modal layer.
type Blocker struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ModuleKey string `json:"moduleKey,omitempty"`
	FieldKey  string `json:"fieldKey,omitempty"`
}

// EligibilityResult is the issue-readiness verdict for a document.
// Eligible is true exactly when Blockers is empty.
type EligibilityResult struct {
	Eligible bool      `json:"eligible"`
	Blockers []Blocker `json:"blockers"`

	// RequiredModules and CompleteModules give the deduplicated
	// "X / Y complete" ratio across all enabled survey types.
	RequiredModules int `json:"required_modules"`
	CompleteModules int `json:"complete_modules"`
}

// BlockerGroup is a presentation grouping of blockers by module key.
type BlockerGroup struct {
	Key      string    `json:"key"`
	Blockers []Blocker `json:"blockers"`
}

// GroupBlockers groups blockers by module key, with module-less blockers in
// the synthetic "general" group. Group order is the insertion order of each
// group's first-seen blocker.
func GroupBlockers(blockers []Blocker) []BlockerGroup {
	var groups []BlockerGroup
	index := make(map[string]int)
	for _, b := range blockers {
		key := b.ModuleKey
		if key == "" {
			key = GeneralGroupKey
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, BlockerGroup{Key: key})
		}
		groups[i].Blockers = append(groups[i].Blockers, b)
	}
	return groups
}
