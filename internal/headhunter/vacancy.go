package headhunter

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

const (
	VacancyIDField         = "ID"
	VacancyEmployerIDField = "EmployerID"

	// HH timestamps come with a zone offset and no colon, e.g. 2024-01-25T12:00:00+0300.
	publishedAtLayout = "2006-01-02T15:04:05-0700"
)

type Vacancies struct {
	Items []*Vacancy
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	URL          string `json:"url,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted,omitempty"`
}

type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	HasTest bool `json:"has_test,omitempty"`
	Salary  struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Schedule struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"schedule,omitempty"`
	Employer     Employer `json:"employer,omitempty"`
	AlternateURL string   `json:"alternate_url,omitempty"`
	Employment   struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employment,omitempty"`
	// Description is filled by the detail endpoint only and arrives as HTML.
	Description string `json:"description,omitempty"`
	KeySkills   []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Archived    bool    `json:"archived,omitempty"`
	Snippet     Snippet `json:"snippet,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
}

func (va *Vacancy) GetStringField(name string) string {
	switch name {
	case VacancyIDField:
		return va.ID
	case VacancyEmployerIDField:
		return va.Employer.ID

	default:
		return ""
	}
}

// PublishedTime parses the publication timestamp. The zero time is returned
// for missing or malformed values so that such vacancies sort last.
func (va *Vacancy) PublishedTime() time.Time {
	t, err := time.Parse(publishedAtLayout, va.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PlainDescription returns the detail-endpoint description with HTML markup
// flattened to plain text.
func (va *Vacancy) PlainDescription() string {
	return HTMLToText(va.Description)
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// DedupeByID drops repeated records keeping the first occurrence. Sub-searches
// for different frameworks and experience values overlap heavily.
func (v *Vacancies) DedupeByID() {
	seen := make(map[string]struct{}, len(v.Items))
	unique := make([]*Vacancy, 0, len(v.Items))

	for _, vacancy := range v.Items {
		if _, ok := seen[vacancy.ID]; ok {
			continue
		}
		seen[vacancy.ID] = struct{}{}
		unique = append(unique, vacancy)
	}

	v.Items = unique
}

// SortByPublishedDesc orders vacancies newest first, so an interrupted run has
// already attempted the most recent postings.
func (v *Vacancies) SortByPublishedDesc() {
	sort.SliceStable(v.Items, func(i, j int) bool {
		return v.Items[i].PublishedTime().After(v.Items[j].PublishedTime())
	})
}

// ExcludeWithTest removes vacancies that require an employer test.
func (v *Vacancies) ExcludeWithTest() []string {
	var excluded []string
	kept := v.Items[:0]
	for _, vacancy := range v.Items {
		if vacancy.HasTest {
			excluded = append(excluded, vacancy.ID)
			continue
		}
		kept = append(kept, vacancy)
	}
	v.Items = kept
	return excluded
}

// Exclude removes vacancies whose field value matches one of the targets and
// returns the removed ids.
func (v *Vacancies) Exclude(name string, targets []string) []string {
	drop := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		drop[target] = struct{}{}
	}

	var excluded []string
	kept := v.Items[:0]
	for _, vacancy := range v.Items {
		if _, ok := drop[vacancy.GetStringField(name)]; ok {
			excluded = append(excluded, vacancy.ID)
			continue
		}
		kept = append(kept, vacancy)
	}
	v.Items = kept
	return excluded
}

func (v *Vacancies) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "vacancies_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Report by employer.
func (v *Vacancies) ReportByEmployer() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, vacancy := range v.Items {
		key := fmt.Sprintf("%s (%s)", vacancy.Employer.Name, vacancy.Employer.ID)
		report[key] = append(report[key], map[string]string{
			"name":                 vacancy.Name,
			"url":                  vacancy.AlternateURL,
			"area":                 vacancy.Area.Name,
			"published_at":         vacancy.PublishedAt,
			"salary":               fmt.Sprintf("%d-%d %s", vacancy.Salary.From, vacancy.Salary.To, vacancy.Salary.Currency),
			"brief requirement":    vacancy.Snippet.Requirement,
			"brief responsibility": vacancy.Snippet.Responsibility,
		})
	}
	return report
}
