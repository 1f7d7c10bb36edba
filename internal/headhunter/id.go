package headhunter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// VacancyID is the canonical form of a vacancy identifier. Every external
// representation (query results, file names, config values) is normalized
// into it through ParseVacancyID before reaching the cache or the letter
// pipeline.
type VacancyID string

func (id VacancyID) String() string { return string(id) }

var errEmptyVacancyID = errors.New("vacancy id is empty")

// UnsupportedIDError reports a value of a shape that cannot carry a vacancy
// identifier. It signals a programming or configuration mistake, not bad data.
type UnsupportedIDError struct {
	Value any
}

func (e *UnsupportedIDError) Error() string {
	return fmt.Sprintf("unsupported vacancy id input %T: expected a string, a number, a Vacancy or a VacancyID", e.Value)
}

// ParseVacancyID normalizes any accepted representation of a vacancy
// identifier. Strings and numbers come from the API and from file names,
// Vacancy values from search results.
func ParseVacancyID(v any) (VacancyID, error) {
	switch value := v.(type) {
	case VacancyID:
		return nonEmpty(string(value))
	case string:
		return nonEmpty(value)
	case int:
		return VacancyID(strconv.Itoa(value)), nil
	case int64:
		return VacancyID(strconv.FormatInt(value, 10)), nil
	case uint64:
		return VacancyID(strconv.FormatUint(value, 10)), nil
	case float64:
		// JSON numbers decode as float64.
		return VacancyID(strconv.FormatFloat(value, 'f', -1, 64)), nil
	case Vacancy:
		return nonEmpty(value.ID)
	case *Vacancy:
		if value == nil {
			return "", &UnsupportedIDError{Value: v}
		}
		return nonEmpty(value.ID)
	default:
		return "", &UnsupportedIDError{Value: v}
	}
}

func nonEmpty(raw string) (VacancyID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", errEmptyVacancyID
	}

	return VacancyID(id), nil
}
