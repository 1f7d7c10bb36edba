package letterstore

import (
	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/headhunter"
)

type idScanner interface {
	ProcessedIDs() (map[headhunter.VacancyID]struct{}, error)
}

// Cache answers "was a letter for this vacancy already written?" from the
// letter file names. It holds a snapshot taken at Load time; a letter saved
// mid-run enters the cache only through another Load.
type Cache struct {
	scanner idScanner
	ids     map[headhunter.VacancyID]struct{}
	logger  *zap.Logger
}

func NewCache(scanner idScanner, logger *zap.Logger) *Cache {
	return &Cache{
		scanner: scanner,
		ids:     make(map[headhunter.VacancyID]struct{}),
		logger:  logger,
	}
}

// Load scans the letter files and replaces the snapshot.
func (c *Cache) Load() error {
	ids, err := c.scanner.ProcessedIDs()
	if err != nil {
		return err
	}

	c.ids = ids
	c.logger.Debug("letter cache loaded", zap.Int("known_vacancies", len(ids)))

	return nil
}

// IsNew reports whether no letter exists yet for the vacancy. It accepts any
// identifier shape ParseVacancyID accepts; anything else fails with an
// UnsupportedIDError.
func (c *Cache) IsNew(v any) (bool, error) {
	id, err := headhunter.ParseVacancyID(v)
	if err != nil {
		return false, err
	}

	_, known := c.ids[id]

	return !known, nil
}

// Len reports the number of known vacancies.
func (c *Cache) Len() int { return len(c.ids) }
