// internal/clarify/renderer.go
package clarify

import (
	"context"
	"fmt"
	"strings"

	"intent-resolver/internal/models"
)

// Renderer turns a clarification request into user-facing text. The
// collaborator owns only the phrasing around the options: the option
// labels themselves must appear verbatim and in order, so a later reply
// can be matched back against what the user actually saw.
type Renderer interface {
	Render(ctx context.Context, req *models.ClarificationRequest) (string, error)
}

// TemplateRenderer renders from a fixed template table keyed by the
// request's template key.
type TemplateRenderer struct {
	prompts map[string]string
}

func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{prompts: map[string]string{
		models.TemplateAskSelection: "Which one did you mean?",
		models.TemplateAskEndDate:   "What end date did you have in mind?",
		models.TemplateAskTime:      "What time works for you?",
	}}
}

func (r *TemplateRenderer) Render(_ context.Context, req *models.ClarificationRequest) (string, error) {
	prompt, ok := r.prompts[req.TemplateKey]
	if !ok {
		return "", fmt.Errorf("unknown clarification template: %q", req.TemplateKey)
	}
	if len(req.Options) == 0 {
		return prompt, nil
	}

	var b strings.Builder
	b.WriteString(prompt)
	for i, opt := range req.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt.Label)
	}
	return b.String(), nil
}
