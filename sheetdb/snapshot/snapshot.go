// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package snapshot stores session tables in a SQLite file and reads them
// back.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"storj.io/clubsheet/sheetdb"
)

var (
	mon = monkit.Package()

	// Error is the error class for the snapshot package.
	Error = errs.Class("snapshot")
)

// Metadata describes a snapshot file.
type Metadata struct {
	CreatedAt time.Time
	Tables    []string
}

// Write replaces the file at path with a snapshot of tables. Tables not in
// the registry are rejected.
func Write(ctx context.Context, path string, tables map[string]*sheetdb.Table) (err error) {
	defer mon.Task()(&ctx)(&err)

	names := make([]string, 0, len(tables))
	for _, name := range sheetdb.TableNames() {
		if _, ok := tables[name]; ok {
			names = append(names, name)
		}
	}
	if len(names) != len(tables) {
		return Error.New("unknown tables in snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Error.Wrap(err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Error.Wrap(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(db.Close())) }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() {
		if err != nil {
			err = errs.Combine(err, ignoreDone(tx.Rollback()))
		}
	}()

	_, err = tx.ExecContext(ctx, `CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return Error.Wrap(err)
	}
	for key, value := range map[string]string{
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"tables":     strings.Join(names, ","),
	} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
			return Error.Wrap(err)
		}
	}

	for _, name := range names {
		if err := writeTable(ctx, tx, tables[name]); err != nil {
			return Error.New("table %q: %v", name, err)
		}
	}
	return Error.Wrap(tx.Commit())
}

func writeTable(ctx context.Context, tx *sql.Tx, table *sheetdb.Table) error {
	schema, ok := sheetdb.Lookup(table.Name)
	if !ok {
		return Error.New("unknown table")
	}
	columns := schema.ColumnNames()

	definitions := []string{"row_index INTEGER PRIMARY KEY"}
	for _, column := range columns {
		definitions = append(definitions, quote(column)+" TEXT NOT NULL")
	}
	_, err := tx.ExecContext(ctx, "CREATE TABLE "+quote(table.Name)+" ("+strings.Join(definitions, ", ")+")")
	if err != nil {
		return err
	}

	quoted := []string{"row_index"}
	for _, column := range columns {
		quoted = append(quoted, quote(column))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(quoted)), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quote(table.Name)+" ("+strings.Join(quoted, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := range table.Rows {
		args := []interface{}{i}
		for _, column := range columns {
			args = append(args, table.Value(i, column).String())
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the snapshot at path.
func Load(ctx context.Context, path string) (_ Metadata, _ map[string]*sheetdb.Table, err error) {
	defer mon.Task()(&ctx)(&err)

	if _, err := os.Stat(path); err != nil {
		return Metadata{}, nil, Error.Wrap(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Metadata{}, nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(db.Close())) }()

	var meta Metadata
	var created, names string
	row := db.QueryRowContext(ctx, `SELECT
		(SELECT value FROM metadata WHERE key = 'created_at'),
		(SELECT value FROM metadata WHERE key = 'tables')`)
	if err := row.Scan(&created, &names); err != nil {
		return Metadata{}, nil, Error.New("reading metadata: %v", err)
	}
	meta.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return Metadata{}, nil, Error.New("invalid created_at %q", created)
	}
	if names != "" {
		meta.Tables = strings.Split(names, ",")
	}

	tables := make(map[string]*sheetdb.Table, len(meta.Tables))
	for _, name := range meta.Tables {
		table, err := loadTable(ctx, db, name)
		if err != nil {
			return Metadata{}, nil, Error.New("table %q: %v", name, err)
		}
		tables[name] = table
	}
	return meta, tables, nil
}

func loadTable(ctx context.Context, db *sql.DB, name string) (_ *sheetdb.Table, err error) {
	schema, ok := sheetdb.Lookup(name)
	if !ok {
		return nil, Error.New("unknown table")
	}
	columns := schema.ColumnNames()

	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = quote(column)
	}
	rows, err := db.QueryContext(ctx, "SELECT "+strings.Join(quoted, ", ")+" FROM "+quote(name)+" ORDER BY row_index")
	if err != nil {
		return nil, err
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var raw [][]string
	for rows.Next() {
		cells := make([]string, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		raw = append(raw, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sheetdb.NewTable(name, raw)
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
