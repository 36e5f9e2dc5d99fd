// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package sheetlogger wraps a spreadsheet so that every call is logged.
package sheetlogger

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"storj.io/clubsheet/sheetdb"
)

var mon = monkit.Package()

var id int64

// Spreadsheet implements a zap.Logger for sheetdb.Spreadsheet.
type Spreadsheet struct {
	log         *zap.Logger
	spreadsheet sheetdb.Spreadsheet
}

// New creates a new Spreadsheet logging the calls to spreadsheet.
func New(log *zap.Logger, spreadsheet sheetdb.Spreadsheet) *Spreadsheet {
	loggerid := atomic.AddInt64(&id, 1)
	name := strconv.Itoa(int(loggerid))
	return &Spreadsheet{log.Named(name), spreadsheet}
}

// Sheet opens a tab.
func (ss *Spreadsheet) Sheet(ctx context.Context, title string) (_ sheetdb.Sheet, err error) {
	defer mon.Task()(&ctx)(&err)
	ss.log.Debug("Sheet", zap.String("title", title))
	sheet, err := ss.spreadsheet.Sheet(ctx, title)
	if err != nil {
		return nil, err
	}
	return &Sheet{log: ss.log.With(zap.String("tab", title)), sheet: sheet}, nil
}

// AddSheet creates a tab.
func (ss *Spreadsheet) AddSheet(ctx context.Context, title string, rows, cols int) (_ sheetdb.Sheet, err error) {
	defer mon.Task()(&ctx)(&err)
	ss.log.Debug("AddSheet", zap.String("title", title), zap.Int("rows", rows), zap.Int("cols", cols))
	sheet, err := ss.spreadsheet.AddSheet(ctx, title, rows, cols)
	if err != nil {
		return nil, err
	}
	return &Sheet{log: ss.log.With(zap.String("tab", title)), sheet: sheet}, nil
}

// Sheet logs the calls of one tab.
type Sheet struct {
	log   *zap.Logger
	sheet sheetdb.Sheet
}

// Title returns the tab name.
func (sheet *Sheet) Title() string { return sheet.sheet.Title() }

// Values reads the tab.
func (sheet *Sheet) Values(ctx context.Context) (_ [][]string, err error) {
	defer mon.Task()(&ctx)(&err)
	values, err := sheet.sheet.Values(ctx)
	sheet.log.Debug("Values", zap.Int("rows", len(values)), zap.Error(err))
	return values, err
}

// AppendRow adds a row.
func (sheet *Sheet) AppendRow(ctx context.Context, values []string) (err error) {
	defer mon.Task()(&ctx)(&err)
	sheet.log.Debug("AppendRow", zap.Strings("values", values))
	return sheet.sheet.AppendRow(ctx, values)
}

// UpdateCell writes a cell.
func (sheet *Sheet) UpdateCell(ctx context.Context, row, col int, value string) (err error) {
	defer mon.Task()(&ctx)(&err)
	sheet.log.Debug("UpdateCell", zap.Int("row", row), zap.Int("col", col), zap.String("value", value))
	return sheet.sheet.UpdateCell(ctx, row, col, value)
}

// UpdateRow writes consecutive cells.
func (sheet *Sheet) UpdateRow(ctx context.Context, row, col int, values []string) (err error) {
	defer mon.Task()(&ctx)(&err)
	sheet.log.Debug("UpdateRow", zap.Int("row", row), zap.Int("col", col), zap.Strings("values", values))
	return sheet.sheet.UpdateRow(ctx, row, col, values)
}

// DeleteRows deletes rows.
func (sheet *Sheet) DeleteRows(ctx context.Context, rows ...int) (err error) {
	defer mon.Task()(&ctx)(&err)
	sheet.log.Debug("DeleteRows", zap.Ints("rows", rows))
	return sheet.sheet.DeleteRows(ctx, rows...)
}
