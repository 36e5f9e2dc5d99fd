// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package boltsheet implements sheetdb.Spreadsheet on a local bolt database,
// one bucket per tab.
package boltsheet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/clubsheet/sheetdb"
)

var (
	mon = monkit.Package()

	// Error is the error class for the boltsheet package.
	Error = errs.Class("boltsheet")
)

const (
	// fileMode sets permissions so owner can read and write
	fileMode = 0600

	defaultTimeout = 1 * time.Second
)

var (
	gridKey = []byte("grid")
	sizeKey = []byte("size")
)

// size is the declared grid size of a tab.
type size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Spreadsheet is a spreadsheet stored in a bolt database file.
type Spreadsheet struct {
	log  *zap.Logger
	db   *bolt.DB
	Path string
}

var _ sheetdb.Spreadsheet = (*Spreadsheet)(nil)

// Open opens or creates the spreadsheet database at path.
func Open(log *zap.Logger, path string) (*Spreadsheet, error) {
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: defaultTimeout})
	if err != nil {
		return nil, Error.Wrap(err)
	}
	log.Debug("opened bolt spreadsheet", zap.String("path", path))
	return &Spreadsheet{log: log, db: db, Path: path}, nil
}

// Close closes the database.
func (ss *Spreadsheet) Close() error {
	return Error.Wrap(ss.db.Close())
}

// Titles returns the tab names in name order.
func (ss *Spreadsheet) Titles() (titles []string, err error) {
	err = ss.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			titles = append(titles, string(name))
			return nil
		})
	})
	return titles, Error.Wrap(err)
}

// Sheet implements sheetdb.Spreadsheet.
func (ss *Spreadsheet) Sheet(ctx context.Context, title string) (_ sheetdb.Sheet, err error) {
	defer mon.Task()(&ctx)(&err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = ss.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(title)) == nil {
			return sheetdb.ErrSheetNotFound.New("%q", title)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Sheet{spreadsheet: ss, title: title}, nil
}

// AddSheet implements sheetdb.Spreadsheet.
func (ss *Spreadsheet) AddSheet(ctx context.Context, title string, rows, cols int) (_ sheetdb.Sheet, err error) {
	defer mon.Task()(&ctx)(&err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = ss.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucket([]byte(title))
		if err != nil {
			return err
		}
		declared, err := json.Marshal(size{Rows: rows, Cols: cols})
		if err != nil {
			return err
		}
		if err := bucket.Put(sizeKey, declared); err != nil {
			return err
		}
		return bucket.Put(gridKey, []byte("[]"))
	})
	if err != nil {
		return nil, Error.New("add sheet %q: %v", title, err)
	}
	ss.log.Debug("tab created", zap.String("title", title))
	return &Sheet{spreadsheet: ss, title: title}, nil
}

// Sheet is one tab of a bolt spreadsheet. Every call is one transaction.
type Sheet struct {
	spreadsheet *Spreadsheet
	title       string
}

var _ sheetdb.Sheet = (*Sheet)(nil)

// Title implements sheetdb.Sheet.
func (sheet *Sheet) Title() string { return sheet.title }

// view decodes the grid inside a read transaction.
func (sheet *Sheet) view(ctx context.Context, fn func(grid) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sheet.spreadsheet.db.View(func(tx *bolt.Tx) error {
		g, _, err := sheet.load(tx)
		if err != nil {
			return err
		}
		return fn(g)
	})
}

// update decodes the grid, lets fn change it and stores the result in the
// same transaction.
func (sheet *Sheet) update(ctx context.Context, fn func(grid) (grid, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sheet.spreadsheet.db.Update(func(tx *bolt.Tx) error {
		g, bucket, err := sheet.load(tx)
		if err != nil {
			return err
		}
		g, err = fn(g)
		if err != nil {
			return err
		}
		data, err := json.Marshal(g)
		if err != nil {
			return Error.Wrap(err)
		}
		return bucket.Put(gridKey, data)
	})
}

func (sheet *Sheet) load(tx *bolt.Tx) (grid, *bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(sheet.title))
	if bucket == nil {
		return nil, nil, sheetdb.ErrSheetNotFound.New("%q", sheet.title)
	}
	var g grid
	if err := json.Unmarshal(bucket.Get(gridKey), &g); err != nil {
		return nil, nil, Error.New("corrupt grid in %q: %v", sheet.title, err)
	}
	return g, bucket, nil
}

// Values implements sheetdb.Sheet.
func (sheet *Sheet) Values(ctx context.Context) (values [][]string, err error) {
	defer mon.Task()(&ctx)(&err)
	err = sheet.view(ctx, func(g grid) error {
		values = g.values()
		return nil
	})
	return values, err
}

// AppendRow implements sheetdb.Sheet.
func (sheet *Sheet) AppendRow(ctx context.Context, values []string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return sheet.update(ctx, func(g grid) (grid, error) {
		return g.appendRow(values), nil
	})
}

// UpdateCell implements sheetdb.Sheet.
func (sheet *Sheet) UpdateCell(ctx context.Context, row, col int, value string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return sheet.update(ctx, func(g grid) (grid, error) {
		return g.write(row, col, []string{value})
	})
}

// UpdateRow implements sheetdb.Sheet.
func (sheet *Sheet) UpdateRow(ctx context.Context, row, col int, values []string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return sheet.update(ctx, func(g grid) (grid, error) {
		return g.write(row, col, values)
	})
}

// DeleteRows implements sheetdb.Sheet.
func (sheet *Sheet) DeleteRows(ctx context.Context, rows ...int) (err error) {
	defer mon.Task()(&ctx)(&err)
	return sheet.update(ctx, func(g grid) (grid, error) {
		return g.deleteRows(rows)
	})
}
