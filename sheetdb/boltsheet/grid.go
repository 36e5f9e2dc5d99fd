// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package boltsheet

import (
	"storj.io/clubsheet/sheetdb"
)

// grid is the stored cell matrix of a tab, row 1 first.
type grid [][]string

// used returns the number of rows up to the last non-empty one.
func (g grid) used() int {
	for n := len(g); n > 0; n-- {
		for _, cell := range g[n-1] {
			if cell != "" {
				return n
			}
		}
	}
	return 0
}

func (g grid) values() [][]string {
	values := make([][]string, 0, len(g))
	for _, row := range g[:g.used()] {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		values = append(values, append([]string{}, row[:end]...))
	}
	return values
}

func (g grid) appendRow(values []string) grid {
	return append(g[:g.used()], append([]string(nil), values...))
}

func (g grid) write(row, col int, values []string) (grid, error) {
	if row < 1 || col < 1 {
		return nil, sheetdb.Error.New("invalid cell %d:%d", row, col)
	}
	for len(g) < row {
		g = append(g, nil)
	}
	cells := g[row-1]
	for len(cells) < col-1+len(values) {
		cells = append(cells, "")
	}
	copy(cells[col-1:], values)
	g[row-1] = cells
	return g, nil
}

func (g grid) deleteRows(rows []int) (grid, error) {
	for _, row := range rows {
		if row < 1 {
			return nil, sheetdb.Error.New("invalid row %d", row)
		}
		if row > len(g) {
			continue
		}
		g = append(g[:row-1], g[row:]...)
	}
	return g, nil
}
