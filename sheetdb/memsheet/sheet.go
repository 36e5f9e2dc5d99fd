// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package memsheet

import (
	"context"

	"storj.io/clubsheet/sheetdb"
)

// Sheet is one in-memory tab.
type Sheet struct {
	spreadsheet *Spreadsheet
	title       string
	rows        [][]string
}

var _ sheetdb.Sheet = (*Sheet)(nil)

// Title implements sheetdb.Sheet.
func (sheet *Sheet) Title() string { return sheet.title }

// Rows returns a copy of the stored grid, header included.
func (sheet *Sheet) Rows() [][]string {
	sheet.spreadsheet.mu.Lock()
	defer sheet.spreadsheet.mu.Unlock()
	return cloneRows(sheet.rows)
}

// Values implements sheetdb.Sheet. Like the remote service it omits trailing
// empty cells and rows.
func (sheet *Sheet) Values(ctx context.Context) ([][]string, error) {
	if err := sheet.spreadsheet.begin(ctx, OpValues); err != nil {
		return nil, err
	}
	defer sheet.spreadsheet.mu.Unlock()

	values := make([][]string, 0, len(sheet.rows))
	for _, row := range sheet.rows[:sheet.used()] {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		values = append(values, append([]string{}, row[:end]...))
	}
	return values, nil
}

// AppendRow implements sheetdb.Sheet.
func (sheet *Sheet) AppendRow(ctx context.Context, values []string) error {
	if err := sheet.spreadsheet.begin(ctx, OpAppendRow); err != nil {
		return err
	}
	defer sheet.spreadsheet.mu.Unlock()

	used := sheet.used()
	sheet.rows = append(sheet.rows[:used], append([]string(nil), values...))
	return nil
}

// UpdateCell implements sheetdb.Sheet.
func (sheet *Sheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := sheet.spreadsheet.begin(ctx, OpUpdateCell); err != nil {
		return err
	}
	defer sheet.spreadsheet.mu.Unlock()

	return sheet.write(row, col, []string{value})
}

// UpdateRow implements sheetdb.Sheet.
func (sheet *Sheet) UpdateRow(ctx context.Context, row, col int, values []string) error {
	if err := sheet.spreadsheet.begin(ctx, OpUpdateRow); err != nil {
		return err
	}
	defer sheet.spreadsheet.mu.Unlock()

	return sheet.write(row, col, values)
}

// DeleteRows implements sheetdb.Sheet.
func (sheet *Sheet) DeleteRows(ctx context.Context, rows ...int) error {
	if err := sheet.spreadsheet.begin(ctx, OpDeleteRows); err != nil {
		return err
	}
	defer sheet.spreadsheet.mu.Unlock()

	for _, row := range rows {
		if row < 1 {
			return sheetdb.Error.New("invalid row %d", row)
		}
		if row > len(sheet.rows) {
			continue
		}
		sheet.rows = append(sheet.rows[:row-1], sheet.rows[row:]...)
	}
	return nil
}

func (sheet *Sheet) write(row, col int, values []string) error {
	if row < 1 || col < 1 {
		return sheetdb.Error.New("invalid cell %d:%d", row, col)
	}
	for len(sheet.rows) < row {
		sheet.rows = append(sheet.rows, nil)
	}
	cells := sheet.rows[row-1]
	for len(cells) < col-1+len(values) {
		cells = append(cells, "")
	}
	copy(cells[col-1:], values)
	sheet.rows[row-1] = cells
	return nil
}

// used returns the number of rows up to the last non-empty one.
func (sheet *Sheet) used() int {
	for n := len(sheet.rows); n > 0; n-- {
		for _, cell := range sheet.rows[n-1] {
			if cell != "" {
				return n
			}
		}
	}
	return 0
}
