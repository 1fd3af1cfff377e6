// Package document renders issued survey reports as self-contained HTML.
package document

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

//go:embed logo.svg
var defaultLogo []byte

//go:embed report.html.tmpl
var reportTemplate string

// Renderer produces the issued document. It never fails: a broken
// organisation logo falls back to the bundled default, and a template error
// degrades to a minimal placeholder document rather than blocking issuance.
type Renderer struct {
	tmpl   *template.Template
	logger *zap.Logger
}

var _ services.DocumentRenderer = (*Renderer)(nil)

// NewRenderer creates a document renderer.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{
		tmpl:   template.Must(template.New("report").Parse(reportTemplate)),
		logger: logger,
	}
}

type reportData struct {
	Payload    *services.RenderPayload
	LogoURI    template.URL
	RenderedAt string
}

func (r *Renderer) Render(payload *services.RenderPayload) []byte {
	logo := payload.OrgLogo
	if len(logo) == 0 {
		logo = defaultLogo
	}

	data := reportData{
		Payload:    payload,
		LogoURI:    template.URL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(logo)),
		RenderedAt: time.Now().UTC().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		r.logger.Error("Report template execution failed, emitting placeholder document",
			zap.String("survey_id", payload.Survey.ID.String()),
			zap.Error(err))
		return r.placeholder(payload)
	}
	return buf.Bytes()
}

func (r *Renderer) placeholder(payload *services.RenderPayload) []byte {
	return fmt.Appendf(nil,
		"<!DOCTYPE html><html><body><h1>%s</h1><p>Report generation encountered a problem; contact support quoting survey %s.</p></body></html>",
		template.HTMLEscapeString(payload.Survey.Title), payload.Survey.ID)
}
