package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/shared"
	tu "github.com/desertthunder/moovie/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			tokens := services.NewTokenStore("tok")
			api := services.NewAPIService("http://api.test", httpClient)
			catalog := services.NewMovieService(api)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Tokens:     tokens,
				API:        api,
				Catalog:    catalog,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.tokens != tokens {
				t.Error("expected token store to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.Timeout = "3s"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient == nil || runner.httpClient.Timeout.String() != "3s" {
				t.Errorf("expected 3s client timeout, got %v", runner.httpClient)
			}
		})

		t.Run("builds services from the API", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.BaseURL = "http://api.test/"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.api.BaseURL() != "http://api.test" {
				t.Errorf("unexpected base URL %q", runner.api.BaseURL())
			}
			if runner.accounts == nil || runner.catalog == nil || runner.favorites == nil || runner.media == nil {
				t.Error("expected every service to be built")
			}
			if runner.tokens == nil {
				t.Error("expected an empty token store")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with empty configPath", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "",
			})

			if runner.configPath != "config.toml" {
				t.Errorf("expected default configPath, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "movies", "favorites", "comments", "play", "media", "cache", "export", "api", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %q, got %q", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("session", func(t *testing.T) {
		t.Run("missing file is anonymous", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Session.Path = filepath.Join(t.TempDir(), "session.toml")
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

			if s := runner.session(); s != nil {
				t.Errorf("expected no session, got %+v", s)
			}
			if !runner.viewer().Anonymous() {
				t.Error("expected anonymous viewer")
			}
			if _, err := runner.requireUser(); err == nil {
				t.Error("expected requireUser to fail")
			}
		})

		t.Run("loads token and falls back to claims for the user id", func(t *testing.T) {
			srv := tu.NewFakeAPI(t)
			token := srv.IssueToken(t, "u-42")

			config := shared.DefaultConfig()
			config.Session.Path = filepath.Join(t.TempDir(), "session.toml")
			if err := shared.SaveSession(config.Session.Path, &shared.Session{Token: token, DisplayName: "Ana"}); err != nil {
				t.Fatal(err)
			}

			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})
			s, err := runner.requireUser()
			if err != nil {
				t.Fatalf("expected session, got %v", err)
			}
			if s.UserID != "u-42" {
				t.Errorf("expected user id from claims, got %q", s.UserID)
			}
			if runner.tokens.Current() != token {
				t.Error("expected token store to be seeded")
			}
			if v := runner.viewer(); v.ID != "u-42" || v.Name != "Ana" {
				t.Errorf("unexpected viewer %+v", v)
			}
		})
	})

	t.Run("openCache", func(t *testing.T) {
		t.Run("opens and migrates once", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "moovie.db")
			runner := NewRunner(RunnerOpts{Config: config})
			t.Cleanup(func() { runner.Close() })

			if !runner.openCache() {
				t.Fatal("expected cache to open")
			}
			db := runner.db
			if !runner.openCache() || runner.db != db {
				t.Error("expected the same handle on second open")
			}
			tu.AssertFileExists(t, config.Database.Path)
		})

		t.Run("empty path disables the cache", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = ""
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.openCache() {
				t.Error("expected no cache")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("close without cache: %v", err)
			}
		})

		t.Run("unopenable path is skipped", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "missing", "dir", "moovie.db")
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(&bytes.Buffer{})})

			if runner.openCache() {
				t.Error("expected cache to be unavailable")
			}
		})
	})
}
