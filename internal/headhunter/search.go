package headhunter

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SearchPath = "/vacancies"

	orderByPublication = "publication_time"
)

// SearchRequest describes one batch search. It expands into one sub-search
// per framework and experience value; results are merged, deduplicated and
// sorted newest first.
type SearchRequest struct {
	Text       string   `mapstructure:"text"`
	Frameworks []string `mapstructure:"frameworks"`
	Experience []string `mapstructure:"experience"`
	Salary     uint     `mapstructure:"salary"`
	WithTest   bool     `mapstructure:"with-test"`
	Limit      int      `mapstructure:"limit"`
	WorkFormat string   `mapstructure:"work-format"`
}

// SearchParams mirrors the query of a single /vacancies request.
type SearchParams struct {
	Text string `yaml:"text"`
	// hhparam is custom tag for reflect. Please see buildParams.
	OredClusters bool   `hhparam:"ored_clusters"`
	WorkFormat   string `hhparam:"work_format"`
	Salary       uint   `yaml:"salary"`
	HasTest      bool   `hhparam:"has_test"`
	OrderBy      string `hhparam:"order_by"`
	Experience   string `yaml:"experience"`
	PerPage      string `hhparam:"per_page"`
}

// Search runs all sub-searches concurrently, best effort: a failing
// sub-search is logged and skipped so one bad framework query cannot sink
// the batch. It fails only when every sub-search failed.
func (c *Client) Search(req *SearchRequest) (*Vacancies, error) {
	subs := req.subSearches()
	maxPages := pageBudget(req.Limit)

	var g errgroup.Group
	results := make(chan []*Vacancy, len(subs))
	failures := make(chan error, len(subs))

	for _, params := range subs {
		params := params

		g.Go(func() error {
			found, err := c.search(params, maxPages)
			if err != nil {
				c.logger.Warn("sub-search failed",
					zap.String("text", params.Text),
					zap.String("experience", params.Experience),
					zap.Error(err),
				)
				failures <- err
				return nil
			}

			results <- found.Items
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	close(failures)

	if len(failures) > 0 && len(failures) == len(subs) {
		return nil, fmt.Errorf("all %d sub-searches failed, last error: %w", len(subs), <-failures)
	}

	merged := &Vacancies{}
	for items := range results {
		merged.Items = append(merged.Items, items...)
	}

	merged.DedupeByID()
	merged.SortByPublishedDesc()

	return merged, nil
}

// GetVacancy fetches the detail record for one vacancy. The detail endpoint
// carries the full description and key skills missing from search items.
func (c *Client) GetVacancy(id VacancyID) (*Vacancy, error) {
	var vacancy *Vacancy
	if err := c.getJSON(fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	if vacancy == nil || vacancy.ID == "" {
		return nil, fmt.Errorf("get vacancy %s: empty detail record", id)
	}

	return vacancy, nil
}

func (r *SearchRequest) subSearches() []*SearchParams {
	texts := []string{strings.TrimSpace(r.Text)}
	if len(r.Frameworks) > 0 {
		texts = texts[:0]
		for _, framework := range r.Frameworks {
			texts = append(texts, strings.TrimSpace(r.Text+" "+framework))
		}
	}

	experience := r.Experience
	if len(experience) == 0 {
		experience = []string{""}
	}

	perPage := r.Limit
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	subs := make([]*SearchParams, 0, len(texts)*len(experience))
	for _, text := range texts {
		for _, exp := range experience {
			subs = append(subs, &SearchParams{
				Text:         text,
				OredClusters: true,
				WorkFormat:   r.WorkFormat,
				Salary:       r.Salary,
				HasTest:      r.WithTest,
				OrderBy:      orderByPublication,
				Experience:   exp,
				PerPage:      strconv.Itoa(perPage),
			})
		}
	}

	return subs
}

// pageBudget converts the configured result limit of one sub-search into a
// page count, per_page being capped by the API at 100.
func pageBudget(limit int) int {
	if limit <= 0 {
		return 1
	}

	return (limit + maxPerPage - 1) / maxPerPage
}

func (c *Client) search(params *SearchParams, maxPages int) (*Vacancies, error) {
	var vacancies []*Vacancy

	// Set per_page max as possible. It should be faster.
	if params.PerPage == "" {
		params.PerPage = strconv.Itoa(maxPerPage)
	}

	q := buildParams(params)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(apiURLSearch, q, maxPages)
	if err != nil {
		return nil, err
	}

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &vacancies,
		TagName:  "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	decoder.Decode(items)

	return &Vacancies{
		Items: vacancies,
	}, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("hhparam")
		if key == "" {
			// Failover to default tag if our tag do not exist.
			key = field.Tag.Get("yaml")
		}
		kind := field.Type.Kind()
		switch kind {
		case reflect.Slice:

			s := reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface()
			switch v := s.(type) {
			case []int:
				for _, value := range v {
					q.Add(key, strconv.Itoa(value))
				}

			case []string:
				for _, value := range v {
					q.Add(key, value)
				}
			}

		default:
			value := fmt.Sprintf("%v", reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface())
			if value != "" && value != "0" {
				q.Set(key, value)
			}
		}
	}

	return q
}
