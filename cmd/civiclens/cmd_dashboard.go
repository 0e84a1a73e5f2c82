// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/CivicLens/cmd/civiclens/tui"
	"github.com/AleutianAI/CivicLens/pkg/ux"
	"github.com/AleutianAI/CivicLens/services/analytics"
	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/AleutianAI/CivicLens/services/snapshot"
	"github.com/spf13/cobra"
)

// runDashboard loads the snapshot, computes every panel up front, and
// hands the prebuilt views to the terminal dashboard. Panels that cannot
// be computed open empty rather than blocking the rest.
func runDashboard(cmd *cobra.Command, args []string) {
	if !ux.IsInteractive() {
		exitErr("Cannot open the dashboard", errors.New("an interactive terminal is required"))
	}

	field, err := analytics.ParseGroupField(dashboardField)
	if err != nil {
		exitErr("Invalid group field", err)
	}

	logger := newLogger()
	defer logger.Close()

	loader, cleanup, err := openLoader(logger)
	if err != nil {
		exitErr("Failed to build the snapshot loader", err)
	}
	defer cleanup()

	ctx := context.Background()
	snap, _, err := loadSnapshot(ctx, loader)
	if err != nil {
		exitErr("Failed to load the snapshot", err)
	}

	concentration := buildConcentrationPanel(snap)
	matrix, groups := buildGroupPanels(snap, field)

	cfg := tui.DefaultDashboardConfig()
	cfg.AsOfDate = snap.AsOfDate
	model := tui.NewDashboardModel(concentration, matrix, groups, cfg)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		exitErr("Dashboard terminated", err)
	}
}

// buildConcentrationPanel computes the concentration view, returning nil
// when the snapshot cannot support it.
func buildConcentrationPanel(snap *snapshot.Snapshot) *report.ConcentrationView {
	total, substantiated, err := measureColumns(snap.Table)
	if err != nil {
		ux.Warning(fmt.Sprintf("Concentration panel unavailable: %v", err))
		return nil
	}
	rep, err := analytics.Concentration(total, substantiated, analytics.DefaultTopFractions)
	if err != nil {
		ux.Warning(fmt.Sprintf("Concentration panel unavailable: %v", err))
		return nil
	}
	view, err := report.BuildConcentrationView(rep, snap.AsOfDate)
	if err != nil {
		ux.Warning(fmt.Sprintf("Concentration panel unavailable: %v", err))
		return nil
	}
	return view
}

// buildGroupPanels computes the risk matrix and group table views. Either
// may come back nil; an empty filter result keeps the table (it renders
// its own empty state) but drops the matrix.
func buildGroupPanels(snap *snapshot.Snapshot, field analytics.GroupField) (*report.RiskMatrixView, *report.GroupTable) {
	stats, err := analytics.ComputeGroupStats(snap.Table, field, minOfficers)
	if err != nil {
		ux.Warning(fmt.Sprintf("Group panels unavailable: %v", err))
		return nil, nil
	}

	matrix, err := report.BuildRiskMatrixView(stats, annotateTop)
	if err != nil && !errors.Is(err, report.ErrEmpty) {
		ux.Warning(fmt.Sprintf("Risk matrix unavailable: %v", err))
	}

	table, err := report.BuildGroupTable(stats)
	if err != nil {
		ux.Warning(fmt.Sprintf("Group table unavailable: %v", err))
	}
	return matrix, table
}
