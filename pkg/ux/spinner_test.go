// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"errors"
	"testing"
	"time"
)

// =============================================================================
// NewSpinner Tests
// =============================================================================

func TestNewSpinner_Defaults(t *testing.T) {
	spin := NewSpinner("Loading snapshot...")
	if spin == nil {
		t.Fatal("NewSpinner returned nil")
	}
	if spin.message != "Loading snapshot..." {
		t.Errorf("expected message 'Loading snapshot...', got %q", spin.message)
	}
	if spin.spinType != SpinnerDots {
		t.Errorf("expected SpinnerDots, got %v", spin.spinType)
	}
	if spin.stop == nil || spin.done == nil {
		t.Error("channels should be initialized")
	}
}

func TestSpinner_WithType(t *testing.T) {
	cases := []SpinnerType{SpinnerLine, SpinnerCircle}
	for _, st := range cases {
		spin := NewSpinner("Loading...").WithType(st)
		if spin.spinType != st {
			t.Errorf("expected %v, got %v", st, spin.spinType)
		}
	}
}

func TestSpinnerFrames_Exist(t *testing.T) {
	for _, st := range []SpinnerType{SpinnerDots, SpinnerLine, SpinnerCircle} {
		if len(spinnerFrames[st]) == 0 {
			t.Errorf("spinner type %d has no frames", st)
		}
	}
}

// =============================================================================
// Start/Stop Tests (Machine Mode)
// =============================================================================

func TestSpinner_Start_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Fetching pages...")
	output := captureStdout(func() {
		spin.Start()
	})

	if output != "PROGRESS: Fetching pages...\n" {
		t.Errorf("expected 'PROGRESS: Fetching pages...', got %q", output)
	}
}

func TestSpinner_StartStop_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Processing...")
	spin.Start()
	spin.Stop() // Should not panic or hang
}

func TestSpinner_Start_AlreadyRunning(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Processing...")
	spin.Start()
	spin.Start() // Second start should be no-op
	spin.Stop()
}

func TestSpinner_Stop_NotRunning(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Processing...")
	spin.Stop() // Should not panic when not running
}

// =============================================================================
// Start/Stop Tests (Rich Mode - Brief)
// =============================================================================

func TestSpinner_StartStop_RichMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	spin := NewSpinner("Processing...")
	spin.Start()

	// Give it a moment to start animation
	time.Sleep(100 * time.Millisecond)

	spin.Stop()
}

// =============================================================================
// UpdateMessage Tests
// =============================================================================

func TestSpinner_UpdateMessage(t *testing.T) {
	spin := NewSpinner("Initial message")

	spin.UpdateMessage("Updated message")

	if spin.message != "Updated message" {
		t.Errorf("expected 'Updated message', got %q", spin.message)
	}
}

func TestSpinner_UpdateMessage_WhileRunning(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	spin := NewSpinner("Initial")
	spin.Start()

	spin.UpdateMessage("Updated")
	time.Sleep(100 * time.Millisecond)

	spin.Stop()
}

// =============================================================================
// StopWith Tests
// =============================================================================

func TestSpinner_StopWithSuccess_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Processing...")
	spin.Start()

	output := captureStdout(func() {
		spin.StopWithSuccess("Loaded 4 officers")
	})

	if output != "OK: Loaded 4 officers\n" {
		t.Errorf("expected success message, got %q", output)
	}
}

func TestSpinner_StopWithError_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Processing...")
	spin.Start()

	output := captureStderr(func() {
		spin.StopWithError("Fetch failed")
	})

	if output != "ERROR: Fetch failed\n" {
		t.Errorf("expected error message, got %q", output)
	}
}

func TestSpinner_StopWithWarning_MachineMode(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	spin := NewSpinner("Processing...")
	spin.Start()

	output := captureStderr(func() {
		spin.StopWithWarning("Loaded with 3 rows dropped")
	})

	if output != "WARN: Loaded with 3 rows dropped\n" {
		t.Errorf("expected warning message, got %q", output)
	}
}

// =============================================================================
// WithSpinner Tests
// =============================================================================

func TestWithSpinner_Success(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	called := false
	err := WithSpinner("Processing", func() error {
		called = true
		return nil
	})

	if !called {
		t.Error("function should have been called")
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestWithSpinner_Error(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	testErr := errors.New("test error")
	err := WithSpinner("Processing", func() error {
		return testErr
	})

	if err != testErr {
		t.Errorf("expected test error, got %v", err)
	}
}

// =============================================================================
// ProgressSpinner Tests
// =============================================================================

func TestNewProgressSpinner_Defaults(t *testing.T) {
	ps := NewProgressSpinner("Fetching pages", 10)
	if ps == nil {
		t.Fatal("NewProgressSpinner returned nil")
	}
	if ps.total != 10 {
		t.Errorf("expected total 10, got %d", ps.total)
	}
	if ps.current != 0 {
		t.Errorf("expected current 0, got %d", ps.current)
	}
	if ps.base != "Fetching pages" {
		t.Errorf("expected base 'Fetching pages', got %q", ps.base)
	}
}

func TestProgressSpinner_Increment(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	ps := NewProgressSpinner("Fetching pages", 10)

	ps.Increment()
	ps.Increment()

	if ps.current != 2 {
		t.Errorf("expected current 2, got %d", ps.current)
	}
	// The counter replaces the previous one rather than appending.
	if ps.message != "Fetching pages [2/10]" {
		t.Errorf("expected 'Fetching pages [2/10]', got %q", ps.message)
	}
}

func TestProgressSpinner_SetProgress(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeRich)

	ps := NewProgressSpinner("Fetching pages", 100)

	ps.SetProgress(50)

	if ps.current != 50 {
		t.Errorf("expected current 50, got %d", ps.current)
	}
	if ps.message != "Fetching pages [50/100]" {
		t.Errorf("expected 'Fetching pages [50/100]', got %q", ps.message)
	}
}

func TestProgressSpinner_MachineMode_MessageUntouched(t *testing.T) {
	orig := GetMode()
	defer SetMode(orig)

	SetMode(ModeMachine)

	ps := NewProgressSpinner("Fetching pages", 10)
	ps.Increment()

	if ps.message != "Fetching pages" {
		t.Errorf("machine mode should not decorate the message, got %q", ps.message)
	}
}
