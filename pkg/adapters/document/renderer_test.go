package document

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

func renderPayload() *services.RenderPayload {
	return &services.RenderPayload{
		Survey: &models.Survey{
			ID:            uuid.New(),
			Title:         "Riverside Care Home",
			DocumentTypes: []models.DocumentType{models.DocumentTypeFRA},
			Status:        models.SurveyStatusApproved,
			Version:       2,
			IndustryKey:   "care_home",
		},
		Actions: []*models.Action{
			{
				ID:              uuid.New(),
				Title:           "Replace damaged fire door",
				Category:        models.CategoryFireDoors,
				Status:          models.ActionStatusOpen,
				SeverityTier:    models.TierT3,
				PriorityBand:    models.PriorityP2,
				TriggerID:       "COMP-P2-01",
				ReferenceNumber: "FRA-2026-0001",
			},
		},
		ScoreBreakdown: &models.ScoreBreakdown{
			IndustryKey: "care_home",
			GlobalPillars: []models.ScoreFactor{
				{Key: "construction", Label: "Construction", Rating: 4, Weight: 3, Score: 12, MaxScore: 15},
			},
			TotalScore: 12,
			MaxScore:   15,
		},
		Outcome: models.OutcomeImprovementsRequired,
	}
}

func TestRenderer_Render(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	out := renderer.Render(renderPayload())
	require.NotEmpty(t, out)

	html := string(out)
	assert.Contains(t, html, "Riverside Care Home")
	assert.Contains(t, html, "FRA-2026-0001")
	assert.Contains(t, html, "Replace damaged fire door")
	assert.Contains(t, html, "data:image/svg+xml;base64,")
}

func TestRenderer_Render_MaterialDeficiencyStatement(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	payload := renderPayload()
	payload.MaterialDeficiency = true
	payload.DeficiencyNotes = []string{
		"A final exit is locked or obstructed. Occupants are vulnerable and may be unable to escape unaided.",
	}
	html := string(renderer.Render(payload))

	assert.Contains(t, html, "A material deficiency affecting life safety was identified")
	assert.Contains(t, html, "unable to escape unaided")

	// Without the flag the statement stays out of the document.
	clean := string(renderer.Render(renderPayload()))
	assert.NotContains(t, clean, "material deficiency")
}

func TestRenderer_Render_UsesOrgLogoWhenProvided(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	payload := renderPayload()
	payload.OrgLogo = []byte("<svg>org-logo</svg>")
	withOrg := string(renderer.Render(payload))

	payload.OrgLogo = nil
	withDefault := string(renderer.Render(payload))

	// Different logo bytes produce different data URIs.
	orgURI := extractLogoURI(t, withOrg)
	defaultURI := extractLogoURI(t, withDefault)
	assert.NotEqual(t, orgURI, defaultURI)
}

func extractLogoURI(t *testing.T, html string) string {
	t.Helper()
	start := strings.Index(html, "data:image/svg+xml;base64,")
	require.GreaterOrEqual(t, start, 0)
	end := strings.IndexByte(html[start:], '"')
	require.Greater(t, end, 0)
	return html[start : start+end]
}

func TestRenderer_Render_EscapesTitle(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	payload := renderPayload()
	payload.Survey.Title = `<script>alert("x")</script>`
	html := string(renderer.Render(payload))

	assert.NotContains(t, html, "<script>alert")
}
