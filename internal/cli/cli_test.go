package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wikimap/internal/config"
	"wikimap/internal/wikicache"
)

func TestWikisCommandValidatesFormat(t *testing.T) {
	t.Parallel()

	dataRoot := t.TempDir()
	cacheDirectory := filepath.Join(dataRoot, wikicache.CacheDirectoryName)
	if err := os.MkdirAll(cacheDirectory, 0o755); err != nil {
		t.Fatalf("make cache directory: %v", err)
	}
	cacheFile := filepath.Join(cacheDirectory, "deepwiki_cache_github_acme_widgets_en.json")
	if err := os.WriteFile(cacheFile, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write cache file: %v", err)
	}

	testCases := []struct {
		name        string
		format      string
		expectError bool
	}{
		{name: "raw format accepted", format: "raw"},
		{name: "json format accepted", format: "json"},
		{name: "upper-case format accepted", format: "JSON"},
		{name: "unknown format rejected", format: "yaml", expectError: true},
		{name: "codemap-only format rejected", format: "mindmap", expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			app := &application{configuration: config.ApplicationConfiguration{DataRoot: dataRoot}}
			wikisCommand := app.createWikisCommand()
			wikisCommand.SilenceUsage = true
			wikisCommand.SilenceErrors = true
			wikisCommand.SetArgs([]string{"--format", testCase.format})

			executeError := wikisCommand.Execute()
			if testCase.expectError {
				if executeError == nil {
					t.Fatalf("expected error for format %q", testCase.format)
				}
				if !strings.Contains(executeError.Error(), "invalid format") {
					t.Fatalf("error should name the invalid format: %v", executeError)
				}
				return
			}
			if executeError != nil {
				t.Fatalf("execute with format %q: %v", testCase.format, executeError)
			}
		})
	}
}
