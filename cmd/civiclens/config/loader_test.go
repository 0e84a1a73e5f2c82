// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".civiclens", "civiclens.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	// Verify the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	// Read and verify the config
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg CivicLensConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	// Verify some defaults
	if cfg.Socrata.TimeoutSeconds != 90 {
		t.Errorf("Socrata.TimeoutSeconds = %d, want 90", cfg.Socrata.TimeoutSeconds)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("Cache.TTLHours = %d, want 24", cfg.Cache.TTLHours)
	}
	if cfg.History.Org != "civiclens" {
		t.Errorf("History.Org = %q, want %q", cfg.History.Org, "civiclens")
	}
	if cfg.History.Bucket != "civiclens-history" {
		t.Errorf("History.Bucket = %q, want %q", cfg.History.Bucket, "civiclens-history")
	}
}

// TestCreateDefault_DirectoryCreation verifies directory is created.
func TestCreateDefault_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()

	// Use a nested path
	configPath := filepath.Join(tempDir, "deep", "nested", "path", "civiclens.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed with nested path: %v", err)
	}

	// Verify the directories were created
	dirPath := filepath.Dir(configPath)
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		t.Fatal("nested directories were not created")
	}
}

// TestDefaultConfig verifies defaults point under the home directory.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory on this system")
	}
	if !strings.HasPrefix(cfg.Cache.Dir, home) {
		t.Errorf("Cache.Dir = %q, want a path under %q", cfg.Cache.Dir, home)
	}
	if !strings.HasPrefix(cfg.Export.Dir, home) {
		t.Errorf("Export.Dir = %q, want a path under %q", cfg.Export.Dir, home)
	}
	if cfg.History.Enabled() {
		t.Error("History should be disabled by default (no URL or token)")
	}
	if cfg.Export.GCS.Configured() {
		t.Error("GCS uploads should be unconfigured by default")
	}
}

// TestHistoryConfig_Enabled verifies both URL and token are required.
func TestHistoryConfig_Enabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  HistoryConfig
		want bool
	}{
		{"empty", HistoryConfig{}, false},
		{"url only", HistoryConfig{URL: "http://localhost:8086"}, false},
		{"token only", HistoryConfig{Token: "secret"}, false},
		{"both", HistoryConfig{URL: "http://localhost:8086", Token: "secret"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestApplyEnv verifies environment variables override file settings.
func TestApplyEnv(t *testing.T) {
	t.Setenv("SOCRATA_APP_TOKEN", "env-token")
	t.Setenv("INFLUXDB_URL", "http://influx:8086")
	t.Setenv("INFLUXDB_TOKEN", "influx-secret")
	t.Setenv("INFLUXDB_ORG", "env-org")
	t.Setenv("INFLUXDB_BUCKET", "env-bucket")
	t.Setenv("CIVICLENS_CACHE_DIR", "/tmp/env-cache")
	t.Setenv("CIVICLENS_EXPORT_DIR", "/tmp/env-exports")

	cfg := DefaultConfig()
	applyEnv(&cfg)

	if cfg.Socrata.AppToken != "env-token" {
		t.Errorf("Socrata.AppToken = %q, want %q", cfg.Socrata.AppToken, "env-token")
	}
	if cfg.History.URL != "http://influx:8086" {
		t.Errorf("History.URL = %q, want %q", cfg.History.URL, "http://influx:8086")
	}
	if cfg.History.Org != "env-org" {
		t.Errorf("History.Org = %q, want %q", cfg.History.Org, "env-org")
	}
	if cfg.History.Bucket != "env-bucket" {
		t.Errorf("History.Bucket = %q, want %q", cfg.History.Bucket, "env-bucket")
	}
	if !cfg.History.Enabled() {
		t.Error("History should be enabled after env overrides")
	}
	if cfg.Cache.Dir != "/tmp/env-cache" {
		t.Errorf("Cache.Dir = %q, want %q", cfg.Cache.Dir, "/tmp/env-cache")
	}
	if cfg.Export.Dir != "/tmp/env-exports" {
		t.Errorf("Export.Dir = %q, want %q", cfg.Export.Dir, "/tmp/env-exports")
	}
}

// TestApplyEnv_EmptyValuesIgnored verifies unset variables leave the file
// settings alone.
func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	t.Setenv("SOCRATA_APP_TOKEN", "")
	t.Setenv("INFLUXDB_ORG", "")

	cfg := CivicLensConfig{
		Socrata: SocrataConfig{AppToken: "file-token"},
		History: HistoryConfig{Org: "file-org"},
	}
	applyEnv(&cfg)

	if cfg.Socrata.AppToken != "file-token" {
		t.Errorf("AppToken = %q, want file value preserved", cfg.Socrata.AppToken)
	}
	if cfg.History.Org != "file-org" {
		t.Errorf("Org = %q, want file value preserved", cfg.History.Org)
	}
}
