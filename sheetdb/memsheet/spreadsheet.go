// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package memsheet

import (
	"context"
	"sync"

	"storj.io/clubsheet/sheetdb"
)

// Operation names accepted by Fail and passed to hooks.
const (
	OpSheet      = "Sheet"
	OpAddSheet   = "AddSheet"
	OpValues     = "Values"
	OpAppendRow  = "AppendRow"
	OpUpdateCell = "UpdateCell"
	OpUpdateRow  = "UpdateRow"
	OpDeleteRows = "DeleteRows"
)

// CallCount counts calls per operation.
type CallCount struct {
	Sheet      int
	AddSheet   int
	Values     int
	AppendRow  int
	UpdateCell int
	UpdateRow  int
	DeleteRows int
}

// Hook is called before every operation. A non-nil error fails the call.
type Hook func(ctx context.Context, op string) error

// Spreadsheet implements an in-memory sheetdb.Spreadsheet. It is safe for
// concurrent use.
type Spreadsheet struct {
	mu       sync.Mutex
	sheets   []*Sheet
	calls    CallCount
	failures map[string][]error
	hook     Hook
}

// New creates an empty in-memory spreadsheet.
func New() *Spreadsheet {
	return &Spreadsheet{failures: map[string][]error{}}
}

// Put creates or replaces the tab title with rows, header included.
func (ss *Spreadsheet) Put(title string, rows ...[]string) *Sheet {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sheet := ss.find(title)
	if sheet == nil {
		sheet = &Sheet{spreadsheet: ss, title: title}
		ss.sheets = append(ss.sheets, sheet)
	}
	sheet.rows = cloneRows(rows)
	return sheet
}

// Titles returns the tab names in creation order.
func (ss *Spreadsheet) Titles() []string {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	titles := make([]string, len(ss.sheets))
	for i, sheet := range ss.sheets {
		titles[i] = sheet.title
	}
	return titles
}

// Calls returns the call counters.
func (ss *Spreadsheet) Calls() CallCount {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.calls
}

// Fail makes the next call of op return err.
func (ss *Spreadsheet) Fail(op string, err error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.failures[op] = append(ss.failures[op], err)
}

// SetHook installs fn to run before every operation, outside the lock.
func (ss *Spreadsheet) SetHook(fn Hook) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.hook = fn
}

// begin counts the call, runs the hook and pops a queued failure. On success
// the lock is held and must be released by the caller.
func (ss *Spreadsheet) begin(ctx context.Context, op string) error {
	ss.mu.Lock()
	ss.count(op)
	hook := ss.hook
	ss.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, op); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ss.mu.Lock()
	if queued := ss.failures[op]; len(queued) > 0 {
		ss.failures[op] = queued[1:]
		ss.mu.Unlock()
		return queued[0]
	}
	return nil
}

func (ss *Spreadsheet) count(op string) {
	switch op {
	case OpSheet:
		ss.calls.Sheet++
	case OpAddSheet:
		ss.calls.AddSheet++
	case OpValues:
		ss.calls.Values++
	case OpAppendRow:
		ss.calls.AppendRow++
	case OpUpdateCell:
		ss.calls.UpdateCell++
	case OpUpdateRow:
		ss.calls.UpdateRow++
	case OpDeleteRows:
		ss.calls.DeleteRows++
	}
}

func (ss *Spreadsheet) find(title string) *Sheet {
	for _, sheet := range ss.sheets {
		if sheet.title == title {
			return sheet
		}
	}
	return nil
}

// Sheet implements sheetdb.Spreadsheet.
func (ss *Spreadsheet) Sheet(ctx context.Context, title string) (sheetdb.Sheet, error) {
	if err := ss.begin(ctx, OpSheet); err != nil {
		return nil, err
	}
	defer ss.mu.Unlock()

	sheet := ss.find(title)
	if sheet == nil {
		return nil, sheetdb.ErrSheetNotFound.New("%q", title)
	}
	return sheet, nil
}

// AddSheet implements sheetdb.Spreadsheet.
func (ss *Spreadsheet) AddSheet(ctx context.Context, title string, rows, cols int) (sheetdb.Sheet, error) {
	if err := ss.begin(ctx, OpAddSheet); err != nil {
		return nil, err
	}
	defer ss.mu.Unlock()

	if ss.find(title) != nil {
		return nil, sheetdb.Error.New("tab %q already exists", title)
	}
	sheet := &Sheet{spreadsheet: ss, title: title}
	ss.sheets = append(ss.sheets, sheet)
	return sheet, nil
}

func cloneRows(rows [][]string) [][]string {
	clone := make([][]string, len(rows))
	for i, row := range rows {
		clone[i] = append([]string(nil), row...)
	}
	return clone
}
