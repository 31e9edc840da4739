package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveMediaURL(t *testing.T) {
	tc := []struct {
		name string
		base string
		path string
		want string
	}{
		{name: "absolute https", base: "http://api", path: "https://cdn.example.com/a.mp4", want: "https://cdn.example.com/a.mp4"},
		{name: "absolute http", base: "http://api", path: "http://cdn.example.com/a.mp4", want: "http://cdn.example.com/a.mp4"},
		{name: "relative with slash", base: "http://api/", path: "/uploads/a.mp4", want: "http://api/uploads/a.mp4"},
		{name: "relative without slash", base: "http://api", path: "uploads/a.vtt", want: "http://api/uploads/a.vtt"},
		{name: "empty", base: "http://api", path: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveMediaURL(tt.base, tt.path); got != tt.want {
				t.Errorf("ResolveMediaURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveImageURL(t *testing.T) {
	if got := ResolveImageURL("http://api", ""); got != DefaultPoster {
		t.Errorf("expected default poster, got %s", got)
	}
	if got := ResolveImageURL("http://api", "   "); got != DefaultPoster {
		t.Errorf("expected default poster for blank path, got %s", got)
	}
	if got := ResolveImageURL("http://api", "/img/p.png"); got != "http://api/img/p.png" {
		t.Errorf("unexpected resolved image %s", got)
	}
}

func TestNormalizeText(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "basic normalization", input: "The Matrix", want: "the matrix"},
		{name: "extra whitespace", input: "  The   Matrix  ", want: "the matrix"},
		{name: "mixed case", input: "ThE MaTrIx", want: "the matrix"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileHelpers(t *testing.T) {
	t.Run("VerifyAndReadFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "body.json")
		if err := os.WriteFile(path, []byte(`{"ok":true}`), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		data, err := VerifyAndReadFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `{"ok":true}` {
			t.Errorf("unexpected contents %s", data)
		}

		if _, err := VerifyAndReadFile(""); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := VerifyAndReadFile(dir); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for directory, got %v", err)
		}
	})

	t.Run("ValidateJSON", func(t *testing.T) {
		if err := ValidateJSON([]byte(`{"a":1}`)); err != nil {
			t.Errorf("expected valid JSON, got %v", err)
		}
		if err := ValidateJSON([]byte(`{a:1}`)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		compact, err := MarshalJSON(map[string]int{"a": 1}, false)
		if err != nil || string(compact) != `{"a":1}` {
			t.Errorf("unexpected compact output %s (%v)", compact, err)
		}

		pretty, err := MarshalJSON(map[string]int{"a": 1}, true)
		if err != nil || !strings.Contains(string(pretty), "\n  \"a\": 1") {
			t.Errorf("unexpected pretty output %s (%v)", pretty, err)
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	original := getRuntime
	defer func() { getRuntime = original }()

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("https://example.com"); err == nil || !strings.Contains(err.Error(), "unsupported platform") {
		t.Errorf("expected unsupported platform error, got %v", err)
	}
}
