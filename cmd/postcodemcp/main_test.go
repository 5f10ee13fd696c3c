package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateClientConfig(t *testing.T) {
	tmpDir := t.TempDir()

	// Relative paths below resolve inside tmpDir.
	t.Chdir(tmpDir)

	tests := []struct {
		name     string
		path     string
		existing string
		wantErr  bool
	}{
		{
			name: "valid path",
			path: "config.json",
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: true,
		},
		{
			name:    "non-json extension",
			path:    "config.txt",
			wantErr: true,
		},
		{
			name:    "path with ..",
			path:    filepath.Join("..", "config.json"),
			wantErr: true,
		},
		{
			name: "nested directory",
			path: filepath.Join("nested", "dir", "config.json"),
		},
		{
			name:     "merge with existing",
			path:     "merge.json",
			existing: `{"existing_key":"existing_value","mcpServers":{"other":{"command":"x"},"postcode":{"command":"old","env":{"JUSO_ROAD_KEY":"secret"}}}}`,
		},
		{
			name:     "invalid existing json",
			path:     "broken.json",
			existing: `{not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.existing != "" {
				if err := os.WriteFile(tt.path, []byte(tt.existing), 0o644); err != nil {
					t.Fatalf("Failed to write existing config: %v", err)
				}
			}

			err := generateClientConfig(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("generateClientConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			info, err := os.Stat(tt.path)
			if err != nil {
				t.Fatalf("Failed to stat config file: %v", err)
			}
			if mode := info.Mode().Perm(); mode != 0o600 {
				t.Errorf("Config file has wrong permissions: %v, want 0600", mode)
			}

			data, err := os.ReadFile(tt.path)
			if err != nil {
				t.Fatalf("Failed to read config file: %v", err)
			}
			var config map[string]any
			if err := json.Unmarshal(data, &config); err != nil {
				t.Fatalf("Failed to parse config JSON: %v", err)
			}

			servers, ok := config["mcpServers"].(map[string]any)
			if !ok {
				t.Fatal("Config missing 'mcpServers' section")
			}
			entry, ok := servers[clientServerKey].(map[string]any)
			if !ok {
				t.Fatalf("Config missing %q server", clientServerKey)
			}
			if cmd, _ := entry["command"].(string); !filepath.IsAbs(cmd) {
				t.Errorf("command = %q, want absolute path", cmd)
			}

			if tt.name == "merge with existing" {
				if val, ok := config["existing_key"]; !ok || val != "existing_value" {
					t.Error("Merge failed to preserve existing content")
				}
				if _, ok := servers["other"]; !ok {
					t.Error("Merge dropped another server entry")
				}
				env, _ := entry["env"].(map[string]any)
				if env["JUSO_ROAD_KEY"] != "secret" {
					t.Errorf("env = %v, want existing key kept", env)
				}
			}
		})
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"claude_desktop_config.json", false},
		{"/tmp/claude/config.JSON", false},
		{"a/../b.json", true},
		{"   ", true},
		{"config.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if err := validateConfigPath(tt.path); (err != nil) != tt.wantErr {
				t.Errorf("validateConfigPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
