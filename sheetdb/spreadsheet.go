// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

import (
	"context"
)

// Spreadsheet is an open remote spreadsheet holding one tab per table.
type Spreadsheet interface {
	// Sheet returns the tab named title. It fails with ErrSheetNotFound when
	// there is no such tab.
	Sheet(ctx context.Context, title string) (Sheet, error)
	// AddSheet creates a tab sized rows x cols.
	AddSheet(ctx context.Context, title string, rows, cols int) (Sheet, error)
}

// Sheet is a handle to one tab. Rows and columns are 1-indexed and row 1 is
// the header.
type Sheet interface {
	// Title returns the tab name.
	Title() string
	// Values returns every row of the tab including the header. Trailing
	// empty cells and rows may be omitted.
	Values(ctx context.Context) ([][]string, error)
	// AppendRow writes values as a new row after the last non-empty row.
	AppendRow(ctx context.Context, values []string) error
	// UpdateCell writes a single cell.
	UpdateCell(ctx context.Context, row, col int, value string) error
	// UpdateRow writes values to consecutive cells of row starting at col,
	// as one write.
	UpdateRow(ctx context.Context, row, col int, values []string) error
	// DeleteRows deletes rows one after another in the given order.
	DeleteRows(ctx context.Context, rows ...int) error
}
