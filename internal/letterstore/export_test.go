package letterstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportRTF(t *testing.T) {
	store := newTestStore(t)

	acceptedPath, err := store.SaveAccepted("111", "Привет из письма")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.SaveAccepted("222", "Second letter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defectivePath, err := store.SaveDefective("999", "Broken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bundlePath := filepath.Join(t.TempDir(), "bundle.rtf")
	result, err := store.ExportRTF(bundlePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Exported) != 2 {
		t.Fatalf("expected 2 letters bundled, got %v", result.Exported)
	}

	raw, err := os.ReadFile(bundlePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bundle := string(raw)

	if !strings.HasPrefix(bundle, "{\\rtf1\\ansi\\ansicpg1251") {
		t.Fatalf("unexpected bundle header: %.60q", bundle)
	}
	if !strings.HasSuffix(bundle, "}") {
		t.Fatalf("bundle is not closed")
	}
	if !strings.Contains(bundle, "https://hh.ru/vacancy/111") || !strings.Contains(bundle, "https://hh.ru/vacancy/222") {
		t.Fatalf("expected vacancy links in the bundle")
	}
	if strings.Contains(bundle, "999") {
		t.Fatalf("defective letter leaked into the bundle")
	}
	// "П" must arrive as a unicode escape, the bundle stays pure ASCII.
	if !strings.Contains(bundle, "\\u1055?") {
		t.Fatalf("expected escaped cyrillic in the bundle")
	}
	for _, r := range bundle {
		if r > 127 {
			t.Fatalf("bundle contains a non-ascii rune %q", r)
		}
	}

	// Bundled letters move to the archive, defective ones stay put.
	if _, err := os.Stat(acceptedPath); !os.IsNotExist(err) {
		t.Fatalf("expected the bundled letter to leave the top level")
	}
	if _, err := os.Stat(filepath.Join(result.ArchiveDir, filepath.Base(acceptedPath))); err != nil {
		t.Fatalf("expected the letter in the archive: %v", err)
	}
	if _, err := os.Stat(defectivePath); err != nil {
		t.Fatalf("expected the defective letter untouched: %v", err)
	}
}

func TestExportRTFEmptyDir(t *testing.T) {
	store := newTestStore(t)

	bundlePath := filepath.Join(t.TempDir(), "bundle.rtf")
	result, err := store.ExportRTF(bundlePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Exported) != 0 {
		t.Fatalf("expected nothing to export, got %v", result.Exported)
	}
	if _, err := os.Stat(bundlePath); err != nil {
		t.Fatalf("expected an empty bundle to be written: %v", err)
	}
}

func TestRTFEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "ascii untouched", input: "plain text", expect: "plain text"},
		{name: "backslash", input: `a\b`, expect: `a\\b`},
		{name: "braces", input: "{x}", expect: `\{x\}`},
		{name: "newline", input: "a\nb", expect: "a\\par\nb"},
		{name: "cyrillic", input: "Я", expect: "\\u1071?"},
		{name: "mixed", input: "Год: 2024", expect: "\\u1043?\\u1086?\\u1076?: 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rtfEscape(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
