package letter

import (
	"fmt"
	"strings"

	"github.com/spigell/hh-covergen/internal/headhunter"
)

// Candidate is the applicant data interpolated into prompts.
type Candidate struct {
	About  string
	Skills string
}

// VacancyContext is the vacancy summary interpolated into prompts. It merges
// the short search snippet with the detail record.
type VacancyContext struct {
	Title          string
	Employer       string
	Requirements   string
	Responsibility string
	KeySkills      []string
	Description    string
}

// NewVacancyContext builds the prompt context from a search item and its
// detail record. The detail may be nil when the fetch failed; the snippet
// fields still give the model something to work with.
func NewVacancyContext(item, detail *headhunter.Vacancy) *VacancyContext {
	vc := &VacancyContext{
		Title:          item.Name,
		Employer:       item.Employer.Name,
		Requirements:   headhunter.HTMLToText(item.Snippet.Requirement),
		Responsibility: headhunter.HTMLToText(item.Snippet.Responsibility),
	}

	if detail != nil {
		vc.Description = detail.PlainDescription()
		for _, skill := range detail.KeySkills {
			if skill.Name != "" {
				vc.KeySkills = append(vc.KeySkills, skill.Name)
			}
		}
	}

	return vc
}

// Render formats the context as the labelled block the prompt templates
// expect. Empty fields are left out.
func (vc *VacancyContext) Render() string {
	var lines []string

	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", label, value))
		}
	}

	add("Название", vc.Title)
	add("Компания", vc.Employer)
	add("Требования", vc.Requirements)
	add("Обязанности", vc.Responsibility)
	add("Ключевые навыки", strings.Join(vc.KeySkills, ", "))
	add("Описание", vc.Description)

	return strings.Join(lines, "\n")
}
