// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import "strings"

// Table renders aligned columnar output for curve summaries and
// comparisons.
//
// In rich mode the header row is styled and columns are padded to their
// widest cell; in plain mode rows degrade to tab-separated values so the
// output stays pipeable into cut/awk.
type Table struct {
	headers []string
	rows    [][]string
	numeric []bool
}

// NewTable creates a table with the given header row.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		numeric: make([]bool, len(headers)),
	}
}

// Numeric marks columns (by index) as right-aligned numeric columns.
func (t *Table) Numeric(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.numeric) {
			t.numeric[c] = true
		}
	}
	return t
}

// AddRow appends a data row. Missing cells render empty; extra cells are
// dropped.
func (t *Table) AddRow(cells ...string) *Table {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Render returns the formatted table as a string, without a trailing
// newline.
func (t *Table) Render() string {
	if Plain() {
		return t.renderPlain()
	}
	return t.renderRich()
}

func (t *Table) renderPlain() string {
	lines := make([]string, 0, len(t.rows)+1)
	lines = append(lines, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}

func (t *Table) renderRich() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := len([]rune(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	for i, h := range t.headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(Styles.TableHeader.Render(t.pad(h, widths[i], t.numeric[i])))
	}
	for _, row := range t.rows {
		sb.WriteByte('\n')
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(t.pad(cell, widths[i], t.numeric[i]))
		}
	}
	return sb.String()
}

// pad aligns a cell within its column: numeric columns right, text
// columns left.
func (t *Table) pad(s string, width int, right bool) string {
	gap := width - len([]rune(s))
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// KeyValues renders label/value pairs as an aligned two-column block,
// used for scalar curve summaries.
func KeyValues(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		if w := len([]rune(p[0])); w > width {
			width = w
		}
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		label := p[0] + strings.Repeat(" ", width-len([]rune(p[0])))
		if Plain() {
			lines = append(lines, label+"  "+p[1])
			continue
		}
		lines = append(lines, Styles.Muted.Render(label)+"  "+p[1])
	}
	return strings.Join(lines, "\n")
}
