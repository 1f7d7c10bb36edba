package letterstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBundleName is where the RTF bundle lands unless overridden.
	DefaultBundleName = "cover_letters.rtf"

	archiveDateLayout = "02-01-06"

	// Word-compatible header: cp1251 charset and a Cyrillic-capable font.
	rtfHeader = "{\\rtf1\\ansi\\ansicpg1251\\deff0\n" +
		"{\\fonttbl{\\f0\\fnil\\fcharset204 Calibri;}}\n" +
		"{\\*\\generator hh-covergen}\n" +
		"\\viewkind4\\uc1\\pard\\f0\\fs24\n"
)

// ExportResult reports what one RTF export did.
type ExportResult struct {
	BundlePath string
	ArchiveDir string
	Exported   []string
}

// ExportRTF bundles every accepted top-level letter into one RTF document,
// each entry headed by its hh.ru vacancy link, and moves the bundled files
// into a dated archive subdirectory. Archived letters keep their name and so
// stay visible to the id scan. Per-file failures are logged and skipped; the
// bundle is written regardless.
func (s *Store) ExportRTF(outputPath string) (*ExportResult, error) {
	if strings.TrimSpace(outputPath) == "" {
		outputPath = filepath.Join(s.dir, DefaultBundleName)
	}

	archiveDir := filepath.Join(s.dir, time.Now().Format(archiveDateLayout))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read letters dir: %w", err)
	}

	var bundle strings.Builder
	bundle.WriteString(rtfHeader)

	result := &ExportResult{BundlePath: outputPath, ArchiveDir: archiveDir}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), letterExt) {
			continue
		}

		name := entry.Name()
		id, _, found := strings.Cut(name, "-")
		if !found || id == "" {
			continue
		}

		path := filepath.Join(s.dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("skipping letter", zap.String("name", name), zap.Error(err))
			continue
		}

		link := fmt.Sprintf("https://hh.ru/vacancy/%s", id)
		fmt.Fprintf(&bundle, "%s \\b0 %s\\par\n", rtfEscape("Вакансия:"), link)
		fmt.Fprintf(&bundle, "%s \\b0\\par\n", rtfEscape("Текст письма:"))
		bundle.WriteString(rtfEscape(strings.TrimSpace(string(content))) + "\\par\n")
		bundle.WriteString("\\line\\par\\par\n")

		if err := os.Rename(path, filepath.Join(archiveDir, name)); err != nil {
			s.logger.Error("archiving letter failed", zap.String("name", name), zap.Error(err))
			continue
		}

		result.Exported = append(result.Exported, name)
		s.logger.Info("bundled letter", zap.String("name", name))
	}

	bundle.WriteString("}")

	if err := os.WriteFile(outputPath, []byte(bundle.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write rtf bundle: %w", err)
	}

	return result, nil
}

// rtfEscape makes text safe for an RTF body. Control characters of the
// format are escaped, newlines become paragraph breaks and every non-ASCII
// rune is emitted as a `\uNNNN?` unicode escape, which keeps the bundle
// pure-ASCII regardless of the declared codepage.
func rtfEscape(text string) string {
	escaped := strings.NewReplacer(
		`\`, `\\`,
		"{", `\{`,
		"}", `\}`,
		"\n", "\\par\n",
	).Replace(text)

	var sb strings.Builder
	for _, r := range escaped {
		if r < 128 {
			sb.WriteRune(r)
		} else {
			fmt.Fprintf(&sb, "\\u%d?", r)
		}
	}

	return sb.String()
}
