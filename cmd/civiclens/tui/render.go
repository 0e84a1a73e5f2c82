// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/CivicLens/services/report"
)

// =============================================================================
// Header Rendering
// =============================================================================

func (m DashboardModel) renderHeader() string {
	var b strings.Builder

	title := "CivicLens CCRB Analysis"
	if m.config.AsOfDate != "" {
		title += fmt.Sprintf("  (as of %s)", m.config.AsOfDate)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	tabs := make([]string, 0, int(tabCount))
	for t := Tab(0); t < tabCount; t++ {
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(t.Title()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(t.Title()))
		}
	}
	b.WriteString(strings.Join(tabs, " "))

	return b.String()
}

// =============================================================================
// Footer Rendering
// =============================================================================

func (m DashboardModel) renderFooter() string {
	keys := []string{
		"[Tab/→] Next panel", "[Shift+Tab/←] Previous", "[1-3] Jump",
		"[J/K] Scroll", "[Ctrl+D/U] Page", "[Q] Quit",
	}
	return footerStyle.Render(strings.Join(keys, "  "))
}

// =============================================================================
// Concentration Panel
// =============================================================================

func (m DashboardModel) renderConcentration() string {
	if m.concentration == nil {
		return emptyStyle.Render("Concentration panel unavailable: the snapshot had no rows.")
	}
	v := m.concentration
	width, height := m.chartSize()

	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	b.WriteString("\n\n")
	b.WriteString(axisStyle.Render(v.YLabel))
	b.WriteString("\n")
	b.WriteString(plotCurves(v.Series, width, height))
	b.WriteString(axisStyle.Render(v.XLabel))
	b.WriteString("\n\n")
	b.WriteString(captionStyle.Render(v.Caption))
	b.WriteString("\n\n")

	for i, s := range v.Series {
		marker := curveMarker(i, s.Dashed)
		line := fmt.Sprintf("  %c  %s", marker, s.Name)
		switch {
		case s.Dashed:
			b.WriteString(statsStyle.Render(line))
		case i == 0:
			b.WriteString(curveTotalStyle.Render(line))
		default:
			b.WriteString(curveSubstStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// =============================================================================
// Risk Matrix Panel
// =============================================================================

func (m DashboardModel) renderRiskMatrix() string {
	if m.riskMatrix == nil {
		return emptyStyle.Render("Risk matrix unavailable: no groups survived the size filter.")
	}
	v := m.riskMatrix
	width, height := m.chartSize()

	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	b.WriteString("\n")
	b.WriteString(captionStyle.Render(v.Subtitle))
	b.WriteString("\n\n")
	b.WriteString(axisStyle.Render(v.YLabel))
	b.WriteString("\n")
	b.WriteString(plotRiskScatter(v, width, height))
	b.WriteString(axisStyle.Render(v.XLabel))
	b.WriteString("\n\n")
	b.WriteString(statsStyle.Render("  . o O  group size (officers)   @ highest burden"))
	b.WriteString("\n\n")

	annotated := annotatedPoints(v.Points)
	if len(annotated) > 0 {
		b.WriteString(annotatedStyle.Render("Highest-burden groups:"))
		b.WriteString("\n")
		for _, p := range annotated {
			b.WriteString(fmt.Sprintf("  @ %-24s avg/officer=%s  subst/100=%s  officers=%d\n",
				p.Key, ratioText(p.AvgPerOfficer), ratioText(p.SubstPer100), p.Officers))
		}
	}

	return b.String()
}

// annotatedPoints returns the labeled points in descending burden order.
// The view carries points ascending, so the walk runs from the tail.
func annotatedPoints(points []report.RiskPoint) []report.RiskPoint {
	var out []report.RiskPoint
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Annotated {
			out = append(out, points[i])
		}
	}
	return out
}

func ratioText(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// =============================================================================
// Group Table Panel
// =============================================================================

func (m DashboardModel) renderGroups() string {
	if m.groups == nil {
		return emptyStyle.Render("Group table unavailable: no group stats were computed.")
	}
	t := m.groups

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title))
	b.WriteString("\n\n")

	widths := columnWidths(t.Columns, t.Rows)
	b.WriteString(tableHeaderStyle.Render(formatRow(t.Columns, widths)))
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(separatorRow(widths)))
	b.WriteString("\n")

	if len(t.Rows) == 0 {
		b.WriteString(emptyStyle.Render("No groups met the minimum size filter."))
		b.WriteString("\n")
		return b.String()
	}
	for _, row := range t.Rows {
		b.WriteString(formatRow(row, widths))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("%d groups, highest burden first", len(t.Rows))))
	b.WriteString("\n")

	return b.String()
}

func columnWidths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}
	const maxColumnWidth = 30
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		// The leading key column reads left-aligned, measures right-aligned.
		parts[i] = padCell(cell, w, i > 0)
	}
	return strings.Join(parts, "  ")
}

func padCell(s string, width int, rightAlign bool) string {
	runes := []rune(s)
	if len(runes) > width {
		if width > 1 {
			return string(runes[:width-1]) + "…"
		}
		return string(runes[:width])
	}
	pad := strings.Repeat(" ", width-len(runes))
	if rightAlign {
		return pad + s
	}
	return s + pad
}

func separatorRow(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// Chart Plotting
// =============================================================================

// chartSize fits the plot area to the viewport, bounded so tiny terminals
// still get a legible grid and huge ones do not stretch the curves flat.
func (m DashboardModel) chartSize() (int, int) {
	width := m.width - 8
	if width < 40 {
		width = 40
	}
	if width > 100 {
		width = 100
	}
	height := m.viewport.Height - 8
	if height < 10 {
		height = 10
	}
	if height > 24 {
		height = 24
	}
	return width, height
}

// plotCurves rasterizes normalized XY series onto a rune grid. Both axes
// run [0, 1]; points outside that range are skipped.
func plotCurves(series []report.CurveSeries, width, height int) string {
	grid := newGrid(width, height)
	for i, s := range series {
		marker := curveMarker(i, s.Dashed)
		for p := 0; p+1 < len(s.X) && p+1 < len(s.Y); p++ {
			drawSegment(grid, s.X[p], s.Y[p], s.X[p+1], s.Y[p+1], marker, s.Dashed)
		}
	}
	return renderGrid(grid)
}

func curveMarker(index int, dashed bool) rune {
	if dashed {
		return '·'
	}
	markers := []rune{'*', '+', 'x', 'o'}
	return markers[index%len(markers)]
}

func newGrid(width, height int) [][]rune {
	if width < 8 {
		width = 8
	}
	if height < 4 {
		height = 4
	}
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	return grid
}

func renderGrid(grid [][]rune) string {
	var b strings.Builder
	for _, row := range grid {
		b.WriteString("  |")
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	b.WriteString("  +")
	b.WriteString(strings.Repeat("-", len(grid[0])))
	b.WriteString("\n")
	return b.String()
}

// drawSegment steps along one line segment and marks each covered cell.
// Step count scales with the horizontal run so dense curves cost one step
// per segment while the two-point equality diagonal still draws solid.
func drawSegment(grid [][]rune, x0, y0, x1, y1 float64, marker rune, dashed bool) {
	h := len(grid)
	w := len(grid[0])
	steps := int(math.Abs(x1-x0) * float64(w) * 2)
	if steps < 1 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		if dashed && s%4 >= 2 {
			continue
		}
		t := float64(s) / float64(steps)
		x := x0 + (x1-x0)*t
		y := y0 + (y1-y0)*t
		col := int(math.Round(x * float64(w-1)))
		row := (h - 1) - int(math.Round(y*float64(h-1)))
		if col >= 0 && col < w && row >= 0 && row < h {
			grid[row][col] = marker
		}
	}
}

// plotRiskScatter draws the group bubble chart with median cross lines.
// Only points with both ratios defined are plotted; axis ranges cover the
// plotted points and the medians with a small margin.
func plotRiskScatter(v *report.RiskMatrixView, width, height int) string {
	type xy struct {
		x, y      float64
		size      float64
		annotated bool
	}
	var pts []xy
	var maxSize, xmax, ymax float64
	for _, p := range v.Points {
		if p.AvgPerOfficer == nil || p.SubstPer100 == nil {
			continue
		}
		pt := xy{x: *p.AvgPerOfficer, y: *p.SubstPer100, size: p.BubbleSize, annotated: p.Annotated}
		pts = append(pts, pt)
		if pt.x > xmax {
			xmax = pt.x
		}
		if pt.y > ymax {
			ymax = pt.y
		}
		if pt.size > maxSize {
			maxSize = pt.size
		}
	}
	if len(pts) == 0 {
		return emptyStyle.Render("No plottable groups: every retained group has undefined ratios.") + "\n"
	}
	if v.MedianAvgPerOfficer != nil && *v.MedianAvgPerOfficer > xmax {
		xmax = *v.MedianAvgPerOfficer
	}
	if v.MedianSubstPer100 != nil && *v.MedianSubstPer100 > ymax {
		ymax = *v.MedianSubstPer100
	}
	xmax *= 1.05
	ymax *= 1.05
	if xmax <= 0 {
		xmax = 1
	}
	if ymax <= 0 {
		ymax = 1
	}

	grid := newGrid(width, height)
	h := len(grid)
	w := len(grid[0])

	// Median reference lines first so bubbles draw over them.
	if v.MedianAvgPerOfficer != nil {
		col := int(math.Round(*v.MedianAvgPerOfficer / xmax * float64(w-1)))
		if col >= 0 && col < w {
			for r := 0; r < h; r++ {
				grid[r][col] = ':'
			}
		}
	}
	if v.MedianSubstPer100 != nil {
		row := (h - 1) - int(math.Round(*v.MedianSubstPer100/ymax*float64(h-1)))
		if row >= 0 && row < h {
			for c := 0; c < w; c++ {
				if grid[row][c] == ':' {
					grid[row][c] = '+'
				} else {
					grid[row][c] = '-'
				}
			}
		}
	}

	for _, p := range pts {
		col := int(math.Round(p.x / xmax * float64(w-1)))
		row := (h - 1) - int(math.Round(p.y/ymax*float64(h-1)))
		if col < 0 || col >= w || row < 0 || row >= h {
			continue
		}
		grid[row][col] = bubbleMarker(p.size, maxSize, p.annotated)
	}

	var b strings.Builder
	b.WriteString(axisStyle.Render(fmt.Sprintf("  %.1f", ymax)))
	b.WriteString("\n")
	b.WriteString(renderGrid(grid))
	xmaxLabel := fmt.Sprintf("%.1f", xmax)
	gap := w - utf8.RuneCountInString(xmaxLabel) - 1
	if gap < 1 {
		gap = 1
	}
	b.WriteString(axisStyle.Render(fmt.Sprintf("  0%s%s", strings.Repeat(" ", gap), xmaxLabel)))
	b.WriteString("\n")
	return b.String()
}

// bubbleMarker sizes a bubble into one of three glyph classes relative to
// the largest retained group. Annotated points always stand out.
func bubbleMarker(size, maxSize float64, annotated bool) rune {
	if annotated {
		return '@'
	}
	if maxSize <= 0 {
		return 'o'
	}
	ratio := size / maxSize
	switch {
	case ratio <= 0.4:
		return '.'
	case ratio <= 0.75:
		return 'o'
	default:
		return 'O'
	}
}
