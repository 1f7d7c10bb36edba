package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  s3cret \n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	got, err := Load(Source{Name: "headhunter token", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "s3cret" {
		t.Fatalf("expected trimmed secret, got %q", got)
	}
}

func TestLoadFilePrecedesValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("from-file"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	got, err := Load(Source{Name: "token", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "from-file" {
		t.Fatalf("expected file to win over inline value, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		wantErr string
	}{
		{
			name:    "not configured",
			src:     Source{Name: "api key"},
			wantErr: "api key is not configured",
		},
		{
			name:    "missing file",
			src:     Source{Name: "api key", File: filepath.Join(t.TempDir(), "absent")},
			wantErr: "reading api key from file",
		},
		{
			name:    "optional missing file still fails",
			src:     Source{Name: "token", File: filepath.Join(t.TempDir(), "absent"), Optional: true},
			wantErr: "reading token from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatalf("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestLoadOptionalUnconfigured(t *testing.T) {
	got, err := Load(Source{Name: "headhunter token", Optional: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	_, err := Load(Source{Name: "token", File: path, Optional: true})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}
