package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torontotech/meetups/internal/meetup"
)

func TestDefault(t *testing.T) {
	sources := Default()
	if err := Validate(sources); err != nil {
		t.Fatalf("built-in sources are invalid: %v", err)
	}

	// mutating the copy must not leak into the next call
	sources[0].URL = "https://changed.example.com/"
	if Default()[0].URL == "https://changed.example.com/" {
		t.Error("Default() returned shared backing storage")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing sources file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[[source]]
url = "https://www.meetup.com/go-toronto/"
platform = "meetup"
category = "meetups"

[[source]]
url = "https://builder-sundays.myshopify.com/"
platform = "other"
category = "others"
`)

	sources, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[1].Category != meetup.CategoryOthers {
		t.Errorf("sources[1].Category = %q, want others", sources[1].Category)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed toml",
			content: "[[source]\nurl = ",
			wantErr: "parsing sources file",
		},
		{
			name:    "empty",
			content: "",
			wantErr: "no sources defined",
		},
		{
			name: "duplicate",
			content: `
[[source]]
url = "https://toronto-ruby.com/"
platform = "other"
category = "meetups"

[[source]]
url = "https://toronto-ruby.com"
platform = "other"
category = "meetups"
`,
			wantErr: "duplicate source url",
		},
		{
			name: "unknown category",
			content: `
[[source]]
url = "https://toronto-ruby.com/"
platform = "other"
category = "parties"
`,
			wantErr: "unknown category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	sources, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\") error = %v", err)
	}
	if len(sources) != len(defaultSources) {
		t.Errorf("Resolve(\"\") returned %d sources, want %d", len(sources), len(defaultSources))
	}

	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Resolve() expected error for missing file")
	}
}
