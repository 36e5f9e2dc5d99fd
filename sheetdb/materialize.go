// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

import (
	"context"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var mon = monkit.Package()

// newSheetRows is the row count of a freshly created tab.
const newSheetRows = 1000

// DefaultTimeout bounds remote calls when Config.Timeout is not set.
const DefaultTimeout = 30 * time.Second

// Config configures access to the remote store.
type Config struct {
	Timeout time.Duration `help:"timeout applied to every remote spreadsheet call" default:"30s"`
}

// remote applies the call timeout and error classification to store calls.
type remote struct {
	timeout time.Duration
}

func (r remote) do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return ErrRemoteStore.Wrap(fn(ctx))
}

// Materializer opens the registry tables of a spreadsheet and converts their
// rows into typed tables.
type Materializer struct {
	log         *zap.Logger
	spreadsheet Spreadsheet
	remote      remote
}

// NewMaterializer returns a Materializer for spreadsheet.
func NewMaterializer(log *zap.Logger, spreadsheet Spreadsheet, config Config) *Materializer {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Materializer{
		log:         log,
		spreadsheet: spreadsheet,
		remote:      remote{timeout: config.Timeout},
	}
}

// OpenOrCreate returns the tab for the named table. A missing tab is created
// sized to the declared columns, with the header as its first row.
func (m *Materializer) OpenOrCreate(ctx context.Context, name string) (_ Sheet, err error) {
	defer mon.Task()(&ctx)(&err)

	schema, err := lookup(name)
	if err != nil {
		return nil, err
	}

	var sheet Sheet
	err = m.remote.do(ctx, func(ctx context.Context) (err error) {
		sheet, err = m.spreadsheet.Sheet(ctx, name)
		return err
	})
	if err == nil {
		return sheet, nil
	}
	if !ErrSheetNotFound.Has(err) {
		return nil, err
	}

	m.log.Info("creating tab", zap.String("table", name), zap.Strings("columns", schema.ColumnNames()))
	err = m.remote.do(ctx, func(ctx context.Context) (err error) {
		sheet, err = m.spreadsheet.AddSheet(ctx, name, newSheetRows, len(schema.Columns))
		return err
	})
	if err != nil {
		return nil, err
	}
	err = m.remote.do(ctx, func(ctx context.Context) error {
		return sheet.AppendRow(ctx, schema.ColumnNames())
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// OpenAll opens or creates every registry table in registry order.
func (m *Materializer) OpenAll(ctx context.Context) (_ map[string]Sheet, err error) {
	defer mon.Task()(&ctx)(&err)

	sheets := make(map[string]Sheet, len(registry))
	for _, schema := range registry {
		sheet, err := m.OpenOrCreate(ctx, schema.Name)
		if err != nil {
			return nil, err
		}
		sheets[schema.Name] = sheet
	}
	return sheets, nil
}

// Load pulls every row of sheet and converts it per the named table's schema.
func (m *Materializer) Load(ctx context.Context, name string, sheet Sheet) (_ *Table, err error) {
	defer mon.Task()(&ctx)(&err)

	schema, err := lookup(name)
	if err != nil {
		return nil, err
	}

	var values [][]string
	err = m.remote.do(ctx, func(ctx context.Context) (err error) {
		values, err = sheet.Values(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decode(m.log, schema, values), nil
}

// LoadAll loads every sheet in parallel. Nothing is returned unless all loads
// succeed.
func (m *Materializer) LoadAll(ctx context.Context, sheets map[string]Sheet) (_ map[string]*Table, err error) {
	defer mon.Task()(&ctx)(&err)

	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	loaded := make([]*Table, len(names))

	group, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		group.Go(func() error {
			table, err := m.Load(gctx, name, sheets[name])
			loaded[i] = table
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[string]*Table, len(names))
	for i, name := range names {
		tables[name] = loaded[i]
	}
	return tables, nil
}

// MaterializeAll opens or creates every registry table and returns all of them typed.
func (m *Materializer) MaterializeAll(ctx context.Context) (_ map[string]*Table, err error) {
	defer mon.Task()(&ctx)(&err)

	sheets, err := m.OpenAll(ctx)
	if err != nil {
		return nil, err
	}
	return m.LoadAll(ctx, sheets)
}

// decode converts raw tab values into a typed table. Columns are matched by
// header name and the tab positions are kept in the table, so writes land in
// the same columns the reads came from.
func decode(log *zap.Logger, schema Schema, values [][]string) *Table {
	if len(values) == 0 {
		return newTable(schema, nil, nil)
	}

	header := values[0]
	names := schema.ColumnNames()
	if !sameHeader(header, names) {
		log.Warn("tab header does not match schema",
			zap.String("table", schema.Name),
			zap.Strings("header", header),
			zap.Strings("columns", names))
	}

	positions := make([]int, len(schema.Columns))
	for i, column := range schema.Columns {
		positions[i] = -1
		for p, title := range header {
			if strings.TrimSpace(title) == column.Name {
				positions[i] = p
				break
			}
		}
	}

	rows := make([]Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(Row, len(schema.Columns))
		for i, column := range schema.Columns {
			var cell string
			if p := positions[i]; p >= 0 && p < len(raw) {
				cell = raw[p]
			}
			row[i] = parseValue(column.Kind, cell)
		}
		rows = append(rows, row)
	}
	return newTable(schema, rows, positions)
}

func sameHeader(header, names []string) bool {
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	if len(header) != len(names) {
		return false
	}
	for i := range names {
		if strings.TrimSpace(header[i]) != names[i] {
			return false
		}
	}
	return true
}
