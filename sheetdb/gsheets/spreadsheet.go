// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package gsheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"storj.io/clubsheet/sheetdb"
)

const (
	readRender = "FORMATTED_VALUE"
	writeInput = "RAW"
)

// Spreadsheet is an open Google spreadsheet. It implements sheetdb.Spreadsheet.
type Spreadsheet struct {
	client *Client
	id     string

	mu    sync.Mutex
	title string
	tabs  map[string]int64
}

var _ sheetdb.Spreadsheet = (*Spreadsheet)(nil)

// ID returns the spreadsheet id.
func (s *Spreadsheet) ID() string { return s.id }

// Title returns the spreadsheet title as of the last tab list refresh.
func (s *Spreadsheet) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// refresh reloads the spreadsheet title and tab list.
func (s *Spreadsheet) refresh(ctx context.Context) error {
	var resp *sheets.Spreadsheet
	err := s.client.caller.withRetries(ctx, "get", idempotent, func() (err error) {
		resp, err = s.client.service.Spreadsheets.Get(s.id).
			Fields("properties.title", "sheets.properties(sheetId,title)").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}

	tabs := make(map[string]int64, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil {
			tabs[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.Properties != nil {
		s.title = resp.Properties.Title
	}
	s.tabs = tabs
	return nil
}

func (s *Spreadsheet) tab(title string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tabs[title]
	return id, ok
}

// Sheet implements sheetdb.Spreadsheet. The tab list is refreshed once when
// title is not known yet.
func (s *Spreadsheet) Sheet(ctx context.Context, title string) (_ sheetdb.Sheet, err error) {
	defer mon.Task()(&ctx)(&err)

	id, ok := s.tab(title)
	if !ok {
		if err := s.refresh(ctx); err != nil {
			return nil, Error.Wrap(err)
		}
		id, ok = s.tab(title)
	}
	if !ok {
		return nil, sheetdb.ErrSheetNotFound.New("%q", title)
	}
	return &Sheet{spreadsheet: s, id: id, title: title}, nil
}

// AddSheet implements sheetdb.Spreadsheet.
func (s *Spreadsheet) AddSheet(ctx context.Context, title string, rows, cols int) (_ sheetdb.Sheet, err error) {
	defer mon.Task()(&ctx)(&err)

	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err = s.client.caller.withRetries(ctx, "addSheet", notIdempotent, func() (err error) {
		resp, err = s.client.service.Spreadsheets.BatchUpdate(s.id, request).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return nil, Error.New("add sheet %q: empty reply", title)
	}
	id := resp.Replies[0].AddSheet.Properties.SheetId

	s.mu.Lock()
	if s.tabs == nil {
		s.tabs = map[string]int64{}
	}
	s.tabs[title] = id
	s.mu.Unlock()

	s.client.log.Info("tab created", zap.String("title", title), zap.Int64("sheet id", id))
	return &Sheet{spreadsheet: s, id: id, title: title}, nil
}

// Sheet is one tab of a Google spreadsheet. It implements sheetdb.Sheet.
type Sheet struct {
	spreadsheet *Spreadsheet
	id          int64
	title       string
}

var _ sheetdb.Sheet = (*Sheet)(nil)

// Title implements sheetdb.Sheet.
func (sheet *Sheet) Title() string { return sheet.title }

func (sheet *Sheet) values() *sheets.SpreadsheetsValuesService {
	return sheet.spreadsheet.client.service.Spreadsheets.Values
}

func (sheet *Sheet) call(ctx context.Context, op string, kind callKind, fn func() error) error {
	return Error.Wrap(sheet.spreadsheet.client.caller.withRetries(ctx, op, kind, fn))
}

// Values implements sheetdb.Sheet.
func (sheet *Sheet) Values(ctx context.Context) (_ [][]string, err error) {
	defer mon.Task()(&ctx)(&err)

	var resp *sheets.ValueRange
	err = sheet.call(ctx, "values", idempotent, func() (err error) {
		resp, err = sheet.values().Get(sheet.spreadsheet.id, quoteTitle(sheet.title)).
			ValueRenderOption(readRender).
			MajorDimension("ROWS").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = cellString(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// AppendRow implements sheetdb.Sheet.
func (sheet *Sheet) AppendRow(ctx context.Context, values []string) (err error) {
	defer mon.Task()(&ctx)(&err)

	body := &sheets.ValueRange{Values: [][]interface{}{cells(values)}}
	return sheet.call(ctx, "append", notIdempotent, func() error {
		_, err := sheet.values().Append(sheet.spreadsheet.id, cellRange(sheet.title, 1, 1, 1), body).
			ValueInputOption(writeInput).
			Context(ctx).Do()
		return err
	})
}

// UpdateCell implements sheetdb.Sheet.
func (sheet *Sheet) UpdateCell(ctx context.Context, row, col int, value string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return sheet.update(ctx, row, col, []string{value})
}

// UpdateRow implements sheetdb.Sheet.
func (sheet *Sheet) UpdateRow(ctx context.Context, row, col int, values []string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return sheet.update(ctx, row, col, values)
}

func (sheet *Sheet) update(ctx context.Context, row, col int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	body := &sheets.ValueRange{Values: [][]interface{}{cells(values)}}
	return sheet.call(ctx, "update", idempotent, func() error {
		_, err := sheet.values().Update(sheet.spreadsheet.id, cellRange(sheet.title, row, col, len(values)), body).
			ValueInputOption(writeInput).
			Context(ctx).Do()
		return err
	})
}

// DeleteRows implements sheetdb.Sheet. All rows are removed by one batch
// request, applied in the given order.
func (sheet *Sheet) DeleteRows(ctx context.Context, rows ...int) (err error) {
	defer mon.Task()(&ctx)(&err)

	if len(rows) == 0 {
		return nil
	}
	requests := make([]*sheets.Request, len(rows))
	for i, row := range rows {
		requests[i] = &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheet.id,
					Dimension:       "ROWS",
					StartIndex:      int64(row - 1),
					EndIndex:        int64(row),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}
	}
	body := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	return sheet.call(ctx, "deleteRows", notIdempotent, func() error {
		_, err := sheet.spreadsheet.client.service.Spreadsheets.BatchUpdate(sheet.spreadsheet.id, body).
			Context(ctx).Do()
		return err
	})
}

func cells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}

func cellString(cell interface{}) string {
	switch cell := cell.(type) {
	case nil:
		return ""
	case string:
		return cell
	default:
		return fmt.Sprint(cell)
	}
}

// quoteTitle quotes a tab title for use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// cellRange returns the A1 range of n cells of row starting at col.
func cellRange(title string, row, col, n int) string {
	start := columnName(col) + strconv.Itoa(row)
	if n <= 1 {
		return quoteTitle(title) + "!" + start
	}
	return quoteTitle(title) + "!" + start + ":" + columnName(col+n-1) + strconv.Itoa(row)
}

// columnName converts a 1-based column number to its letters.
func columnName(col int) string {
	var name []byte
	for col > 0 {
		col--
		name = append([]byte{byte('A' + col%26)}, name...)
		col /= 26
	}
	return string(name)
}
