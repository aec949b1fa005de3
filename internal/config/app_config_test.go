package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"wikimap/internal/config"
)

func boolPointer(value bool) *bool {
	return &value
}

func TestMergeOverlaysValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		base     config.ApplicationConfiguration
		override config.ApplicationConfiguration
		expected config.ApplicationConfiguration
	}{
		{
			name: "override wins on set fields",
			base: config.ApplicationConfiguration{
				DataRoot: "/data/global",
				Engine:   config.EngineConfiguration{BaseURL: "http://global:8001", Provider: "openai", TimeoutSeconds: 60},
				Codemap:  config.CodemapConfiguration{Format: "mindmap", Tokens: boolPointer(false)},
			},
			override: config.ApplicationConfiguration{
				DataRoot: "/data/local",
				Engine:   config.EngineConfiguration{Provider: "ollama"},
				Codemap:  config.CodemapConfiguration{Tokens: boolPointer(true)},
			},
			expected: config.ApplicationConfiguration{
				DataRoot: "/data/local",
				Engine:   config.EngineConfiguration{BaseURL: "http://global:8001", Provider: "ollama", TimeoutSeconds: 60},
				Codemap:  config.CodemapConfiguration{Format: "mindmap", Tokens: boolPointer(true)},
			},
		},
		{
			name: "unset override keeps base values",
			base: config.ApplicationConfiguration{
				DataRoot: "/data/global",
				Codemap:  config.CodemapConfiguration{Format: "json", Clipboard: boolPointer(true)},
				Server:   config.ToolServerConfiguration{Address: "127.0.0.1:9000"},
			},
			override: config.ApplicationConfiguration{},
			expected: config.ApplicationConfiguration{
				DataRoot: "/data/global",
				Codemap:  config.CodemapConfiguration{Format: "json", Clipboard: boolPointer(true)},
				Server:   config.ToolServerConfiguration{Address: "127.0.0.1:9000"},
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			merged := testCase.base.Merge(testCase.override)
			assertConfigurationsEqual(t, merged, testCase.expected)
		})
	}
}

func TestMergeClonesBooleanPointers(t *testing.T) {
	t.Parallel()

	overrideTokens := boolPointer(true)
	merged := config.ApplicationConfiguration{}.Merge(config.ApplicationConfiguration{
		Codemap: config.CodemapConfiguration{Tokens: overrideTokens},
	})

	*overrideTokens = false
	if merged.Codemap.Tokens == nil || !*merged.Codemap.Tokens {
		t.Fatalf("merged boolean should not alias the override pointer")
	}
}

func TestLoadApplicationConfigurationLayersFiles(t *testing.T) {
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)

	globalDirectory := filepath.Join(homeDirectory, config.GlobalConfigDirectoryName)
	if err := os.MkdirAll(globalDirectory, 0o755); err != nil {
		t.Fatalf("make global config directory: %v", err)
	}
	globalContent := "data_root: /data/global\nengine:\n  base_url: http://global:8001\n  provider: openai\ncodemap:\n  format: json\n"
	if err := os.WriteFile(filepath.Join(globalDirectory, "config.yaml"), []byte(globalContent), 0o644); err != nil {
		t.Fatalf("write global config: %v", err)
	}

	workingDirectory := t.TempDir()
	localContent := "engine:\n  provider: ollama\ncodemap:\n  tokens: true\n"
	if err := os.WriteFile(filepath.Join(workingDirectory, config.ConfigFileName), []byte(localContent), 0o644); err != nil {
		t.Fatalf("write local config: %v", err)
	}

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		t.Fatalf("load configuration: %v", loadError)
	}

	if loaded.DataRoot != "/data/global" {
		t.Fatalf("data root: got %q, want %q", loaded.DataRoot, "/data/global")
	}
	if loaded.Engine.BaseURL != "http://global:8001" {
		t.Fatalf("engine base url: got %q", loaded.Engine.BaseURL)
	}
	if loaded.Engine.Provider != "ollama" {
		t.Fatalf("engine provider: got %q, want local override %q", loaded.Engine.Provider, "ollama")
	}
	if loaded.Codemap.Format != "json" {
		t.Fatalf("codemap format: got %q, want %q", loaded.Codemap.Format, "json")
	}
	if loaded.Codemap.Tokens == nil || !*loaded.Codemap.Tokens {
		t.Fatalf("codemap tokens: expected local override to enable tokens")
	}
}

func TestLoadApplicationConfigurationDefaultsDataRoot(t *testing.T) {
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{WorkingDirectory: t.TempDir()})
	if loadError != nil {
		t.Fatalf("load configuration: %v", loadError)
	}

	expectedDataRoot := filepath.Join(homeDirectory, config.GlobalConfigDirectoryName)
	if loaded.DataRoot != expectedDataRoot {
		t.Fatalf("data root: got %q, want %q", loaded.DataRoot, expectedDataRoot)
	}
}

func TestLoadApplicationConfigurationExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	workingDirectory := t.TempDir()
	explicitPath := filepath.Join(workingDirectory, "custom.yaml")
	if err := os.WriteFile(explicitPath, []byte("data_root: /data/explicit\n"), 0o644); err != nil {
		t.Fatalf("write explicit config: %v", err)
	}

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: "custom.yaml",
	})
	if loadError != nil {
		t.Fatalf("load configuration: %v", loadError)
	}
	if loaded.DataRoot != "/data/explicit" {
		t.Fatalf("data root: got %q, want %q", loaded.DataRoot, "/data/explicit")
	}
}

func assertConfigurationsEqual(t *testing.T, got config.ApplicationConfiguration, want config.ApplicationConfiguration) {
	t.Helper()
	if got.DataRoot != want.DataRoot {
		t.Fatalf("data root: got %q, want %q", got.DataRoot, want.DataRoot)
	}
	if got.Engine != want.Engine {
		t.Fatalf("engine: got %+v, want %+v", got.Engine, want.Engine)
	}
	if got.Server != want.Server {
		t.Fatalf("server: got %+v, want %+v", got.Server, want.Server)
	}
	if got.Codemap.Format != want.Codemap.Format || got.Codemap.Model != want.Codemap.Model {
		t.Fatalf("codemap: got %+v, want %+v", got.Codemap, want.Codemap)
	}
	if !boolPointersEqual(got.Codemap.Tokens, want.Codemap.Tokens) {
		t.Fatalf("codemap tokens pointer mismatch")
	}
	if !boolPointersEqual(got.Codemap.Clipboard, want.Codemap.Clipboard) {
		t.Fatalf("codemap clipboard pointer mismatch")
	}
}

func boolPointersEqual(got *bool, want *bool) bool {
	if (got == nil) != (want == nil) {
		return false
	}
	return got == nil || *got == *want
}
