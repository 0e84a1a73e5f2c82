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
)

type CivicLensConfig struct {
	// Socrata: NYC Open Data access
	Socrata SocrataConfig `yaml:"socrata"`

	// Cache: local snapshot cache settings
	Cache CacheConfig `yaml:"cache"`

	// History: optional InfluxDB trend storage
	History HistoryConfig `yaml:"history"`

	// Export: where analysis artifacts land
	Export ExportConfig `yaml:"export"`
}

type SocrataConfig struct {
	AppToken       string `yaml:"app_token"`       // empty runs unauthenticated with throttled limits
	TimeoutSeconds int    `yaml:"timeout_seconds"` // e.g. 90
}

type CacheConfig struct {
	Dir      string `yaml:"dir"`       // e.g. ~/.civiclens/snapshot-cache
	TTLHours int    `yaml:"ttl_hours"` // e.g. 24
}

type HistoryConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Enabled reports whether trend storage is configured. Both the URL and
// the token are required to reach InfluxDB.
func (h HistoryConfig) Enabled() bool {
	return h.URL != "" && h.Token != ""
}

type ExportConfig struct {
	Dir string    `yaml:"dir"` // e.g. ~/.civiclens/exports
	GCS GCSConfig `yaml:"gcs"`
}

type GCSConfig struct {
	Project string `yaml:"project"`
	Bucket  string `yaml:"bucket"`
	KeyPath string `yaml:"key_path"` // service account key, e.g. ~/.civiclens/gcs-sa.json
}

// Configured reports whether uploads have a destination bucket and a key.
func (g GCSConfig) Configured() bool {
	return g.Bucket != "" && g.KeyPath != ""
}

func DefaultConfig() CivicLensConfig {
	// Paths fall back to the working directory when the home directory
	// cannot be resolved.
	var base string
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".civiclens")
	}
	return CivicLensConfig{
		Socrata: SocrataConfig{
			AppToken:       "",
			TimeoutSeconds: 90,
		},
		Cache: CacheConfig{
			Dir:      filepath.Join(base, "snapshot-cache"),
			TTLHours: 24,
		},
		History: HistoryConfig{
			Org:    "civiclens",
			Bucket: "civiclens-history",
		},
		Export: ExportConfig{
			Dir: filepath.Join(base, "exports"),
		},
	}
}
