package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/headhunter"
)

type seenFilter struct{}

// NewSeen creates a filter that removes vacancies a letter already exists
// for. It is the only gate against re-generating a letter, so it must stay
// first in the pipeline order.
func NewSeen() Filter {
	return &seenFilter{}
}

func (f *seenFilter) Name() string { return "seen" }

func (f *seenFilter) Disable(string) {}

func (f *seenFilter) IsEnabled() bool { return true }

func (f *seenFilter) Validate(*Config) error { return nil }

func (f *seenFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	if deps.Cache == nil {
		return v, Step{}, fmt.Errorf("letter cache is required")
	}

	var excluded []string
	kept := v.Items[:0]
	for _, vacancy := range v.Items {
		fresh, err := deps.Cache.IsNew(vacancy)
		if err != nil {
			return v, Step{}, fmt.Errorf("check vacancy %s: %w", vacancy.ID, err)
		}
		if !fresh {
			excluded = append(excluded, vacancy.ID)
			continue
		}
		kept = append(kept, vacancy)
	}
	v.Items = kept

	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding vacancies with an existing letter",
			zap.Strings("excluded_vacancies", excluded),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *seenFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type withTestFilter struct {
	disabled bool
	reason   string
}

// NewWithTest creates a filter that removes vacancies requiring an employer
// test. A test cannot be passed by a generated letter alone.
func NewWithTest() Filter {
	return &withTestFilter{}
}

func (f *withTestFilter) Name() string { return "with_test" }

func (f *withTestFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *withTestFilter) IsEnabled() bool { return !f.disabled }

func (f *withTestFilter) Validate(*Config) error { return nil }

func (f *withTestFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	excluded := v.ExcludeWithTest()
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding vacancies with tests",
			zap.Strings("excluded_vacancies", excluded),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *withTestFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type keywordsFilter struct {
	exclude []string
	include []string
}

// NewKeywords creates a filter that matches vacancy names and snippets
// against the configured keyword lists. A vacancy is dropped when it matches
// an exclude keyword, or when include keywords are set and it matches none.
func NewKeywords() Filter {
	return &keywordsFilter{}
}

func (f *keywordsFilter) Name() string { return "keywords" }

func (f *keywordsFilter) Disable(string) {}

func (f *keywordsFilter) IsEnabled() bool { return true }

func (f *keywordsFilter) Validate(cfg *Config) error {
	f.exclude = nil
	f.include = nil
	if cfg != nil {
		f.exclude = append(f.exclude, cfg.ExcludeKeywords...)
		f.include = append(f.include, cfg.IncludeKeywords...)
	}
	return nil
}

func (f *keywordsFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	if len(f.exclude) == 0 && len(f.include) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	var excluded []string
	kept := v.Items[:0]
	for _, vacancy := range v.Items {
		haystack := strings.ToLower(strings.Join([]string{
			vacancy.Name,
			vacancy.Snippet.Requirement,
			vacancy.Snippet.Responsibility,
		}, "\n"))

		if matchesAny(haystack, f.exclude) || (len(f.include) > 0 && !matchesAny(haystack, f.include)) {
			excluded = append(excluded, vacancy.ID)
			continue
		}
		kept = append(kept, vacancy)
	}
	v.Items = kept

	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding vacancies by keywords",
			zap.Strings("excluded_vacancies", excluded),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *keywordsFilter) Status() Status {
	details := map[string]string{}
	if len(f.exclude) > 0 {
		details["exclude"] = strings.Join(f.exclude, ",")
	}
	if len(f.include) > 0 {
		details["include"] = strings.Join(f.include, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

func matchesAny(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

type employersFilter struct {
	employers []string
}

// NewEmployers creates a filter that removes vacancies by employers configured in the config.
func NewEmployers() Filter {
	return &employersFilter{}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Disable(string) {}

func (f *employersFilter) IsEnabled() bool { return true }

func (f *employersFilter) Validate(cfg *Config) error {
	f.employers = nil
	if cfg != nil {
		f.employers = append(f.employers, cfg.Employers...)
	}
	return nil
}

func (f *employersFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	if len(f.employers) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded := v.Exclude(headhunter.VacancyEmployerIDField, f.employers)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding vacancies by employers",
			zap.Strings("excluded_employers", f.employers),
			zap.Strings("excluded_vacancies", excluded),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
