// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// dataRowOffset converts a 0-based data row index to a remote row number.
const dataRowOffset = 2

// Append writes record as a new row, projected onto the table's columns.
// It does not check identity constraints.
func (s *Session) Append(ctx context.Context, table string, record Record) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = s.mutate(ctx, table, func(ctx context.Context, schema Schema, sheet Sheet, cached *Table) (int, error) {
		values, err := tabRow(schema, cached, record)
		if err != nil {
			return 0, err
		}
		err = s.remote.do(ctx, func(ctx context.Context) error {
			return sheet.AppendRow(ctx, values)
		})
		if err != nil {
			return 0, err
		}
		s.log.Debug("row appended", zap.String("table", schema.Name))
		return 1, nil
	})
	return err
}

// Update writes updates into the first cached row whose keyColumn stringifies
// to keyValue, one cell write per column. Later duplicates are left alone.
// It returns the number of rows updated, which is 0 when nothing matched.
func (s *Session) Update(ctx context.Context, table, keyColumn, keyValue string, updates Record) (_ int, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.mutate(ctx, table, func(ctx context.Context, schema Schema, sheet Sheet, cached *Table) (int, error) {
		if schema.Index(keyColumn) < 0 {
			return 0, Error.New("table %q has no column %q", schema.Name, keyColumn)
		}
		if err := schema.checkColumns(updates); err != nil {
			return 0, err
		}

		found := cached.Find(keyColumn, keyValue)
		if len(found) == 0 || len(updates) == 0 {
			return 0, nil
		}
		row := found[0] + dataRowOffset

		cells, err := tabCells(schema, cached, updates)
		if err != nil {
			return 0, err
		}
		for _, cell := range cells {
			err := s.remote.do(ctx, func(ctx context.Context) error {
				return sheet.UpdateCell(ctx, row, cell.col, cell.value)
			})
			if err != nil {
				return 0, err
			}
		}
		s.log.Debug("row updated", zap.String("table", schema.Name), zap.Int("row", row))
		return 1, nil
	})
}

// DeleteWhere deletes every row whose column stringifies to value. Rows are
// deleted from the bottom up so pending row numbers stay valid. It returns the
// number of rows deleted.
func (s *Session) DeleteWhere(ctx context.Context, table, column, value string) (_ int, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.mutate(ctx, table, func(ctx context.Context, schema Schema, sheet Sheet, cached *Table) (int, error) {
		if schema.Index(column) < 0 {
			return 0, Error.New("table %q has no column %q", schema.Name, column)
		}

		found := cached.Find(column, value)
		if len(found) == 0 {
			return 0, nil
		}
		rows := make([]int, len(found))
		for i, index := range found {
			rows[i] = index + dataRowOffset
		}
		sort.Sort(sort.Reverse(sort.IntSlice(rows)))

		err := s.remote.do(ctx, func(ctx context.Context) error {
			return sheet.DeleteRows(ctx, rows...)
		})
		if err != nil {
			return 0, err
		}
		s.log.Debug("rows deleted", zap.String("table", schema.Name), zap.Ints("rows", rows))
		return len(rows), nil
	})
}

// Upsert matches record on the table's key columns. The first matching row
// gets its non-key cells overwritten in place, otherwise record is appended.
// Contiguous non-key columns are written as a single range.
func (s *Session) Upsert(ctx context.Context, table string, record Record) (inserted bool, err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = s.mutate(ctx, table, func(ctx context.Context, schema Schema, sheet Sheet, cached *Table) (int, error) {
		if len(schema.Key) == 0 {
			return 0, Error.New("table %q has no key", schema.Name)
		}
		if err := schema.checkColumns(record); err != nil {
			return 0, err
		}

		key := make(Record, len(schema.Key))
		for _, column := range schema.Key {
			value, ok := record[column]
			if !ok {
				return 0, Error.New("upsert into %q is missing key column %q", schema.Name, column)
			}
			key[column] = value
		}

		index := cached.FindFirst(key)
		if index < 0 {
			values, err := tabRow(schema, cached, record)
			if err != nil {
				return 0, err
			}
			err = s.remote.do(ctx, func(ctx context.Context) error {
				return sheet.AppendRow(ctx, values)
			})
			if err != nil {
				return 0, err
			}
			inserted = true
			s.log.Debug("upsert appended", zap.String("table", schema.Name))
			return 1, nil
		}

		updates := make(Record, len(record))
		for column, value := range record {
			if _, isKey := key[column]; !isKey {
				updates[column] = value
			}
		}
		cells, err := tabCells(schema, cached, updates)
		if err != nil {
			return 0, err
		}
		if len(cells) == 0 {
			return 0, nil
		}

		row := index + dataRowOffset
		err = s.writeCells(ctx, sheet, row, cells)
		if err != nil {
			return 0, err
		}
		s.log.Debug("upsert updated", zap.String("table", schema.Name), zap.Int("row", row))
		return 1, nil
	})
	return inserted, err
}

// UpsertAvailability records a player's availability for a match, replacing
// any earlier answer for the same (match_id, pseudo) pair.
func (s *Session) UpsertAvailability(ctx context.Context, matchID, pseudo, available, comment string) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = s.Upsert(ctx, TableAvailability, Record{
		"match_id":  matchID,
		"pseudo":    pseudo,
		"available": available,
		"comment":   comment,
	})
	return err
}

// cell is one value addressed by its 1-based tab column.
type cell struct {
	col   int
	value string
}

// writeCells writes cells of row, as one range when their columns are
// contiguous. cells must be ordered by column.
func (s *Session) writeCells(ctx context.Context, sheet Sheet, row int, cells []cell) error {
	if contiguous(cells) {
		values := make([]string, len(cells))
		for i, cell := range cells {
			values[i] = cell.value
		}
		return s.remote.do(ctx, func(ctx context.Context) error {
			return sheet.UpdateRow(ctx, row, cells[0].col, values)
		})
	}

	for _, cell := range cells {
		err := s.remote.do(ctx, func(ctx context.Context) error {
			return sheet.UpdateCell(ctx, row, cell.col, cell.value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// tabRow lays record out in the column order of the cached tab. Declared
// columns missing from the tab are skipped unless record gives them a value.
func tabRow(schema Schema, table *Table, record Record) ([]string, error) {
	values := make([]string, table.width())
	for i, column := range schema.Columns {
		value := record[column.Name]
		col := table.tabColumn(i)
		if col == 0 {
			if value != "" {
				return nil, Error.New("tab %q has no %q column", schema.Name, column.Name)
			}
			continue
		}
		values[col-1] = value
	}
	return values, nil
}

// tabCells returns the cells of record addressed by tab column, ordered by column.
func tabCells(schema Schema, table *Table, record Record) ([]cell, error) {
	cells := make([]cell, 0, len(record))
	for i, column := range schema.Columns {
		value, ok := record[column.Name]
		if !ok {
			continue
		}
		col := table.tabColumn(i)
		if col == 0 {
			return nil, Error.New("tab %q has no %q column", schema.Name, column.Name)
		}
		cells = append(cells, cell{col: col, value: value})
	}
	sort.Slice(cells, func(a, b int) bool { return cells[a].col < cells[b].col })
	return cells, nil
}

func contiguous(cells []cell) bool {
	for i := 1; i < len(cells); i++ {
		if cells[i].col != cells[i-1].col+1 {
			return false
		}
	}
	return len(cells) > 0
}
