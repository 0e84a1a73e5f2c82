// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// OutputMode defines the verbosity and richness of CLI output
type OutputMode string

const (
	// ModeRich enables colors, icons, boxes, and spinners
	ModeRich OutputMode = "rich"

	// ModePlain uses icons and basic formatting without color styling
	ModePlain OutputMode = "plain"

	// ModeMachine outputs tab-separated plain text suitable for
	// scripting and parsing
	ModeMachine OutputMode = "machine"
)

var (
	currentMode = ModeRich
	modeMu      sync.RWMutex
)

// GetMode returns the current output mode
func GetMode() OutputMode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode updates the current output mode
func SetMode(m OutputMode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseMode converts a string to OutputMode
func ParseMode(s string) OutputMode {
	switch strings.ToLower(s) {
	case "rich", "r":
		return ModeRich
	case "plain", "p":
		return ModePlain
	case "machine", "quiet", "m", "q":
		return ModeMachine
	default:
		return ModePlain
	}
}

// InitMode initializes the output mode from environment and terminal
// state. Resolution order: CIVICLENS_OUTPUT, NO_COLOR, then a TTY
// check so piped output degrades to machine mode automatically.
func InitMode() {
	if envMode := os.Getenv("CIVICLENS_OUTPUT"); envMode != "" {
		SetMode(ParseMode(envMode))
		return
	}

	if _, set := os.LookupEnv("NO_COLOR"); set {
		SetMode(ModePlain)
		return
	}

	if !isTerminal() {
		SetMode(ModeMachine)
		return
	}

	SetMode(ModeRich)
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive returns true if we should show interactive prompts
func IsInteractive() bool {
	return GetMode() != ModeMachine && isTerminal()
}

// ShouldShowProgress returns true if we should show progress indicators
func ShouldShowProgress() bool {
	return GetMode() != ModeMachine
}
