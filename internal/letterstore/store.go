package letterstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/headhunter"
)

const (
	defectiveSubdir = "defective"
	letterExt       = ".txt"
	dateLayout      = "2006-01-02"
)

// Store keeps finished letters as plain text files. The file name doubles as
// the processed-vacancies index: `{id}-{date}.txt`, so the vacancy id must
// stay recoverable as the prefix before the first dash.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates the letters directory layout when missing.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("letters dir is required")
	}

	if err := os.MkdirAll(filepath.Join(dir, defectiveSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create letters dir: %w", err)
	}

	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// SaveAccepted stores a letter that passed validation and returns its path.
func (s *Store) SaveAccepted(id headhunter.VacancyID, text string) (string, error) {
	path := filepath.Join(s.dir, fileName(id))
	if err := atomicWrite(path, text); err != nil {
		return "", fmt.Errorf("save letter for vacancy %s: %w", id, err)
	}

	s.logger.Info("saved letter", zap.String("path", path))

	return path, nil
}

// SaveDefective stores a letter that failed validation under the defective
// subdirectory, out of reach of the export bundle.
func (s *Store) SaveDefective(id headhunter.VacancyID, text string) (string, error) {
	path := filepath.Join(s.dir, defectiveSubdir, fileName(id))
	if err := atomicWrite(path, text); err != nil {
		return "", fmt.Errorf("save defective letter for vacancy %s: %w", id, err)
	}

	s.logger.Info("saved defective letter", zap.String("path", path))

	return path, nil
}

// ProcessedIDs walks the whole letters tree, the defective and archive
// subdirectories included, and collects the id prefix of every file name.
// Names without a dash before the id carry no id and are skipped.
func (s *Store) ProcessedIDs() (map[headhunter.VacancyID]struct{}, error) {
	ids := make(map[headhunter.VacancyID]struct{})

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		prefix, _, found := strings.Cut(name, "-")
		if !found || prefix == "" {
			s.logger.Debug("skipping file with no vacancy id prefix", zap.String("name", name))
			return nil
		}

		ids[headhunter.VacancyID(prefix)] = struct{}{}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan letters dir: %w", err)
	}

	return ids, nil
}

func fileName(id headhunter.VacancyID) string {
	return fmt.Sprintf("%s-%s%s", id, time.Now().Format(dateLayout), letterExt)
}

// atomicWrite lands content via a temp file and a rename, so an interrupted
// run never leaves a half-written letter behind. The temp name contains no
// dash and is invisible to the id scan.
func atomicWrite(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".letter*")
	if err != nil {
		return err
	}

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
