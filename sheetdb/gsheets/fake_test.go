// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package gsheets_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"unicode"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"storj.io/clubsheet/sheetdb/gsheets"
)

// fakeSheets serves the subset of the Sheets v4 API used by the adapter.
type fakeSheets struct {
	mu       sync.Mutex
	id       string
	title    string
	tabs     []*fakeTab
	nextID   int64
	failures []int
	ops      []string
}

type fakeTab struct {
	id    int64
	title string
	rows  [][]string
}

// newFakeSheets starts a fake API server and returns a dialer for it that
// counts its invocations.
func newFakeSheets(t *testing.T) (*fakeSheets, gsheets.Dialer, *int) {
	fake := &fakeSheets{id: "club-sheet", title: "Club", nextID: 1}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	dials := new(int)
	var mu sync.Mutex
	dial := func(ctx context.Context, payload []byte) (*sheets.Service, error) {
		mu.Lock()
		*dials++
		mu.Unlock()
		return sheets.NewService(ctx,
			option.WithEndpoint(server.URL+"/"),
			option.WithHTTPClient(server.Client()))
	}
	return fake, dial, dials
}

// FailNext makes the next requests fail with the given statuses.
func (f *fakeSheets) FailNext(statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, statuses...)
}

// Ops returns the operations received so far.
func (f *fakeSheets) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// Rows returns a copy of the rows of the tab title.
func (f *fakeSheets) Rows(title string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab := f.find(title)
	if tab == nil {
		return nil
	}
	rows := make([][]string, len(tab.rows))
	for i, row := range tab.rows {
		rows[i] = append([]string(nil), row...)
	}
	return rows
}

// Put creates or replaces a tab.
func (f *fakeSheets) Put(title string, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab := f.find(title)
	if tab == nil {
		tab = &fakeTab{id: f.nextID, title: title}
		f.nextID++
		f.tabs = append(f.tabs, tab)
	}
	tab.rows = rows
}

func (f *fakeSheets) find(title string) *fakeTab {
	for _, tab := range f.tabs {
		if tab.title == title {
			return tab
		}
	}
	return nil
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	id, rng, isValues := strings.Cut(path, "/values/")

	var op string
	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		op, id = "batchUpdate", strings.TrimSuffix(path, ":batchUpdate")
	case isValues && strings.HasSuffix(rng, ":append"):
		op, rng = "append", strings.TrimSuffix(rng, ":append")
	case isValues && r.Method == http.MethodPut:
		op = "update"
	case isValues:
		op = "get"
	default:
		op = "metadata"
	}
	f.ops = append(f.ops, op)

	if len(f.failures) > 0 {
		status := f.failures[0]
		f.failures = f.failures[1:]
		writeError(w, status, "injected failure")
		return
	}
	if id != f.id {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}

	switch op {
	case "metadata":
		resp := &sheets.Spreadsheet{
			SpreadsheetId: f.id,
			Properties:    &sheets.SpreadsheetProperties{Title: f.title},
		}
		for _, tab := range f.tabs {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{SheetId: tab.id, Title: tab.title},
			})
		}
		writeJSON(w, resp)

	case "get":
		title, _, _ := parseRange(rng)
		tab := f.find(title)
		if tab == nil {
			writeError(w, http.StatusBadRequest, "Unable to parse range")
			return
		}
		resp := &sheets.ValueRange{Range: rng, MajorDimension: "ROWS"}
		for _, row := range trimRows(tab.rows) {
			resp.Values = append(resp.Values, toInterfaces(row))
		}
		writeJSON(w, resp)

	case "append", "update":
		var body sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
			writeError(w, http.StatusBadRequest, "unexpected valueInputOption "+got)
			return
		}
		title, row, col := parseRange(rng)
		tab := f.find(title)
		if tab == nil {
			writeError(w, http.StatusBadRequest, "Unable to parse range")
			return
		}
		if op == "append" {
			row, col = len(trimRows(tab.rows))+1, 1
		}
		for i, value := range body.Values[0] {
			tab.set(row, col+i, fmt.Sprint(value))
		}
		writeJSON(w, map[string]string{"spreadsheetId": f.id})

	case "batchUpdate":
		var body sheets.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp := &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: f.id}
		for _, request := range body.Requests {
			reply := &sheets.Response{}
			switch {
			case request.AddSheet != nil:
				title := request.AddSheet.Properties.Title
				if f.find(title) != nil {
					writeError(w, http.StatusBadRequest, "sheet already exists")
					return
				}
				tab := &fakeTab{id: f.nextID, title: title}
				f.nextID++
				f.tabs = append(f.tabs, tab)
				reply.AddSheet = &sheets.AddSheetResponse{
					Properties: &sheets.SheetProperties{SheetId: tab.id, Title: title},
				}
			case request.DeleteDimension != nil:
				dim := request.DeleteDimension.Range
				var tab *fakeTab
				for _, candidate := range f.tabs {
					if candidate.id == dim.SheetId {
						tab = candidate
					}
				}
				if tab == nil || dim.Dimension != "ROWS" {
					writeError(w, http.StatusBadRequest, "bad delete range")
					return
				}
				if int(dim.StartIndex) < len(tab.rows) {
					end := min(int(dim.EndIndex), len(tab.rows))
					tab.rows = append(tab.rows[:dim.StartIndex], tab.rows[end:]...)
				}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		writeJSON(w, resp)
	}
}

func (tab *fakeTab) set(row, col int, value string) {
	for len(tab.rows) < row {
		tab.rows = append(tab.rows, nil)
	}
	cells := tab.rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	tab.rows[row-1] = cells
}

// parseRange splits an A1 range into its tab title and the start cell.
func parseRange(rng string) (title string, row, col int) {
	sheetPart, cellPart, _ := strings.Cut(rng, "!")
	title = strings.ReplaceAll(strings.TrimSuffix(strings.TrimPrefix(sheetPart, "'"), "'"), "''", "'")
	if cellPart == "" {
		return title, 0, 0
	}
	start, _, _ := strings.Cut(cellPart, ":")
	digits := strings.IndexFunc(start, unicode.IsDigit)
	for _, letter := range start[:digits] {
		col = col*26 + int(letter-'A'+1)
	}
	row, _ = strconv.Atoi(start[digits:])
	return title, row, col
}

func trimRows(rows [][]string) [][]string {
	var out [][]string
	for _, row := range rows {
		for len(row) > 0 && row[len(row)-1] == "" {
			row = row[:len(row)-1]
		}
		out = append(out, row)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, status, message)
}
