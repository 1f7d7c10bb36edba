package letter

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.md
var promptFS embed.FS

const (
	composePrompt          = "compose.md"
	adequacyCheckPrompt    = "adequacy_check.md"
	adequacyFixPrompt      = "adequacy_fix.md"
	punctuationCheckPrompt = "punctuation_check.md"
	punctuationFixPrompt   = "punctuation_fix.md"
	rewritePrompt          = "rewrite.md"
)

// Prompts are the parsed templates every backend request is rendered from.
// Repair requests are layered: a property-specific wish is rendered first and
// then embedded into the generic rewrite template.
type Prompts struct {
	templates *template.Template
}

// LoadPrompts parses the embedded prompt templates.
func LoadPrompts() (*Prompts, error) {
	templates, err := template.ParseFS(promptFS, "prompts/*.md")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}

	return &Prompts{templates: templates}, nil
}

func (p *Prompts) Compose(candidate *Candidate, vacancy string) (string, error) {
	return p.render(composePrompt, map[string]string{
		"About":   candidate.About,
		"Skills":  candidate.Skills,
		"Vacancy": vacancy,
	})
}

func (p *Prompts) AdequacyCheck(text, skills, vacancy string) (string, error) {
	return p.render(adequacyCheckPrompt, map[string]string{
		"Text":    text,
		"Skills":  skills,
		"Vacancy": vacancy,
	})
}

func (p *Prompts) AdequacyFixWish(skills, vacancy string) (string, error) {
	return p.render(adequacyFixPrompt, map[string]string{
		"Skills":  skills,
		"Vacancy": vacancy,
	})
}

func (p *Prompts) PunctuationCheck(text string) (string, error) {
	return p.render(punctuationCheckPrompt, map[string]string{
		"Text": text,
	})
}

func (p *Prompts) PunctuationFixWish() (string, error) {
	return p.render(punctuationFixPrompt, nil)
}

func (p *Prompts) Rewrite(wish, text string) (string, error) {
	return p.render(rewritePrompt, map[string]string{
		"Wish": wish,
		"Text": text,
	})
}

func (p *Prompts) render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := p.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}

	return sb.String(), nil
}
