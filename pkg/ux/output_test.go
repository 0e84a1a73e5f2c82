// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// Helper to capture stdout
func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// Helper to capture stderr
func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// =============================================================================
// Icon.Render Tests
// =============================================================================

func TestIcon_Render_Styled(t *testing.T) {
	icons := []Icon{IconSuccess, IconWarning, IconError, IconPending}
	for _, icon := range icons {
		if icon.Render() == "" {
			t.Errorf("expected non-empty result for %q", icon)
		}
	}
}

func TestIcon_Render_Default(t *testing.T) {
	// Icons without specific styling render as themselves
	icons := []Icon{IconArrow, IconBullet}
	for _, icon := range icons {
		result := icon.Render()
		if result != string(icon) {
			t.Errorf("expected %q for %q, got %q", string(icon), icon, result)
		}
	}
}

// =============================================================================
// Title Tests
// =============================================================================

func TestTitle_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		Title("Complaint Concentration")
	})

	// In machine mode, Title should output nothing
	if output != "" {
		t.Errorf("expected no output in machine mode, got %q", output)
	}
}

func TestTitle_RichMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	output := captureStdout(func() {
		Title("Complaint Concentration")
	})

	if output == "" {
		t.Error("expected styled output in rich mode")
	}
}

// =============================================================================
// Message Helper Tests
// =============================================================================

func TestSuccess_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		Success("Snapshot loaded")
	})

	if output != "OK: Snapshot loaded\n" {
		t.Errorf("expected 'OK: Snapshot loaded', got %q", output)
	}
}

func TestSuccess_PlainMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModePlain)

	output := captureStdout(func() {
		Success("Snapshot loaded")
	})

	if !strings.Contains(output, "Snapshot loaded") {
		t.Errorf("expected message in plain mode output, got %q", output)
	}
}

func TestWarning_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStderr(func() {
		Warning("Rate limit approaching")
	})

	if output != "WARN: Rate limit approaching\n" {
		t.Errorf("expected 'WARN: Rate limit approaching', got %q", output)
	}
}

func TestError_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStderr(func() {
		Error("Fetch failed")
	})

	if output != "ERROR: Fetch failed\n" {
		t.Errorf("expected 'ERROR: Fetch failed', got %q", output)
	}
}

func TestInfo_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		Info("Using cached snapshot")
	})

	if output != "Using cached snapshot\n" {
		t.Errorf("expected plain message, got %q", output)
	}
}

func TestMuted_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		Muted("as of 2023-05-01")
	})

	if output != "" {
		t.Errorf("expected no output in machine mode, got %q", output)
	}
}

// =============================================================================
// Box Tests
// =============================================================================

func TestBox_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		Box("Summary", "4 officers")
	})

	if output != "Summary: 4 officers\n" {
		t.Errorf("expected 'Summary: 4 officers', got %q", output)
	}
}

func TestBox_RichMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	output := captureStdout(func() {
		Box("Summary", "4 officers")
	})

	if !strings.Contains(output, "Summary") || !strings.Contains(output, "4 officers") {
		t.Errorf("expected boxed title and content, got %q", output)
	}
}

func TestWarningBox_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStderr(func() {
		WarningBox("Data Quality", "non-numeric counts dropped")
	})

	if output != "WARN Data Quality: non-numeric counts dropped\n" {
		t.Errorf("unexpected warning box output: %q", output)
	}
}

// =============================================================================
// Stat Tests
// =============================================================================

func TestStat_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		Stat("gini_total", "0.250")
	})

	if output != "gini_total\t0.250\n" {
		t.Errorf("expected tab-separated stat, got %q", output)
	}
}

func TestStat_PlainMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModePlain)

	output := captureStdout(func() {
		Stat("Gini (total)", "0.250")
	})

	if !strings.Contains(output, "Gini (total)") || !strings.Contains(output, "0.250") {
		t.Errorf("expected label and value, got %q", output)
	}
}

// =============================================================================
// DatasetStatus Tests
// =============================================================================

func TestDatasetStatus_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		DatasetStatus("2fir-qns4", IconSuccess, "120000 rows")
	})

	if output != "✓\t2fir-qns4\t120000 rows\n" {
		t.Errorf("unexpected dataset status output: %q", output)
	}
}

func TestDatasetStatus_RichMode_WithDetail(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	output := captureStdout(func() {
		DatasetStatus("2fir-qns4", IconSuccess, "cached")
	})

	if !strings.Contains(output, "2fir-qns4") || !strings.Contains(output, "cached") {
		t.Errorf("expected name and detail, got %q", output)
	}
}

// =============================================================================
// FetchSummary Tests
// =============================================================================

func TestFetchSummary_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	output := captureStdout(func() {
		FetchSummary(120000, 3, "api")
	})

	if output != "SUMMARY: rows=120000 pages=3 source=api\n" {
		t.Errorf("unexpected summary output: %q", output)
	}
}

func TestFetchSummary_RichMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	output := captureStdout(func() {
		FetchSummary(500, 1, "cache")
	})

	if !strings.Contains(output, "500") || !strings.Contains(output, "cache") {
		t.Errorf("expected counts and source, got %q", output)
	}
}

// =============================================================================
// ProgressBar Tests
// =============================================================================

func TestProgressBar_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	result := ProgressBar(3, 10, 20)
	if result != "3/10" {
		t.Errorf("expected '3/10', got %q", result)
	}
}

func TestProgressBar_RichMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	result := ProgressBar(5, 10, 20)
	if !strings.Contains(result, "50%") {
		t.Errorf("expected percentage in bar, got %q", result)
	}
}

func TestProgressBar_ZeroTotal(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	result := ProgressBar(3, 0, 20)
	if result != "3/?" {
		t.Errorf("expected '3/?' for unknown total, got %q", result)
	}
}

func TestProgressBar_Complete(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	result := ProgressBar(10, 10, 20)
	if !strings.Contains(result, "100%") {
		t.Errorf("expected 100%%, got %q", result)
	}
}

// =============================================================================
// repeatChar Tests
// =============================================================================

func TestRepeatChar(t *testing.T) {
	if got := repeatChar('█', 3); got != "███" {
		t.Errorf("repeatChar('█', 3) = %q", got)
	}
	if got := repeatChar('x', 0); got != "" {
		t.Errorf("repeatChar('x', 0) = %q, want empty", got)
	}
	if got := repeatChar('x', -1); got != "" {
		t.Errorf("repeatChar('x', -1) = %q, want empty", got)
	}
}
