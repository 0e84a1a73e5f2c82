// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the terminal dashboard for browsing snapshot analyses.
//
// # Description
//
// This package implements the interactive analysis dashboard using bubbletea.
// It renders the concentration panel, the risk matrix, and the group table as
// tabs over a shared scrolling viewport. All analysis runs before the program
// starts; the model only renders prebuilt report views.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the bubbletea
// event loop. Do not access TUI state from multiple goroutines.
package tui

import (
	"strings"

	"github.com/AleutianAI/CivicLens/services/report"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Tabs
// =============================================================================

// Tab selects which analysis panel is displayed.
type Tab int

const (
	// TabConcentration shows the Lorenz curve panel.
	TabConcentration Tab = iota

	// TabRiskMatrix shows the group bubble chart.
	TabRiskMatrix

	// TabGroups shows the filtered group table.
	TabGroups

	tabCount
)

// Title returns the tab bar label.
func (t Tab) Title() string {
	switch t {
	case TabConcentration:
		return "Concentration"
	case TabRiskMatrix:
		return "Risk Matrix"
	case TabGroups:
		return "Groups"
	default:
		return "Unknown"
	}
}

// =============================================================================
// Config
// =============================================================================

// DashboardConfig configures the dashboard TUI.
type DashboardConfig struct {
	// AsOfDate is the snapshot filter shown in the header, empty for the
	// full dataset.
	AsOfDate string

	// Width overrides terminal width (0 = auto-detect).
	Width int

	// Height overrides terminal height (0 = auto-detect).
	Height int
}

// DefaultDashboardConfig returns sensible defaults.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{}
}

// =============================================================================
// Model
// =============================================================================

// DashboardModel is the bubbletea model for the analysis dashboard.
//
// # Description
//
// Manages tab navigation and scrolling over the three prebuilt report
// views. The views are never mutated after construction.
type DashboardModel struct {
	// Configuration
	config DashboardConfig

	// Prebuilt report views
	concentration *report.ConcentrationView
	riskMatrix    *report.RiskMatrixView
	groups        *report.GroupTable

	// Current navigation state
	tab Tab

	// Viewport for scrolling
	viewport viewport.Model

	// Terminal dimensions
	width  int
	height int

	// State flags
	ready    bool
	quitting bool
}

// NewDashboardModel creates a new dashboard model.
//
// # Inputs
//
//   - concentration: The Lorenz panel view, may be nil when unavailable.
//   - riskMatrix: The bubble chart view, may be nil when unavailable.
//   - groups: The group table, may be nil when unavailable.
//   - config: Configuration options.
//
// # Outputs
//
//   - DashboardModel: Ready-to-use model for tea.NewProgram.
func NewDashboardModel(concentration *report.ConcentrationView, riskMatrix *report.RiskMatrixView, groups *report.GroupTable, config DashboardConfig) DashboardModel {
	return DashboardModel{
		config:        config,
		concentration: concentration,
		riskMatrix:    riskMatrix,
		groups:        groups,
		tab:           TabConcentration,
	}
}

// Init implements tea.Model.
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}

		m.updateViewportContent()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "tab", "right", "l":
			return m.nextTab()

		case "shift+tab", "left", "h":
			return m.prevTab()

		case "1":
			return m.selectTab(TabConcentration)

		case "2":
			return m.selectTab(TabRiskMatrix)

		case "3":
			return m.selectTab(TabGroups)

		case "j", "down":
			m.viewport.LineDown(1)

		case "k", "up":
			m.viewport.LineUp(1)

		case "ctrl+d":
			m.viewport.HalfViewDown()

		case "ctrl+u":
			m.viewport.HalfViewUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}
	}

	// Update viewport
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Loading dashboard...\n"
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// =============================================================================
// Navigation
// =============================================================================

func (m *DashboardModel) nextTab() (DashboardModel, tea.Cmd) {
	m.tab = (m.tab + 1) % tabCount
	m.updateViewportContent()
	m.viewport.GotoTop()
	return *m, nil
}

func (m *DashboardModel) prevTab() (DashboardModel, tea.Cmd) {
	m.tab = (m.tab - 1 + tabCount) % tabCount
	m.updateViewportContent()
	m.viewport.GotoTop()
	return *m, nil
}

func (m *DashboardModel) selectTab(t Tab) (DashboardModel, tea.Cmd) {
	if t != m.tab {
		m.tab = t
		m.updateViewportContent()
		m.viewport.GotoTop()
	}
	return *m, nil
}

// =============================================================================
// Viewport Content
// =============================================================================

func (m *DashboardModel) updateViewportContent() {
	if !m.ready {
		return
	}

	var content string
	switch m.tab {
	case TabConcentration:
		content = m.renderConcentration()
	case TabRiskMatrix:
		content = m.renderRiskMatrix()
	case TabGroups:
		content = m.renderGroups()
	}

	m.viewport.SetContent(content)
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("25")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	curveTotalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	curveSubstStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	annotatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("75"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)
