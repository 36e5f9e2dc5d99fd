// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

// Record is one row's fields keyed by column name, in the flat string form
// used on the wire.
type Record map[string]string

// Value is one typed cell.
type Value struct {
	kind Kind
	text string
	date NullDate
}

// TextValue returns a text cell.
func TextValue(s string) Value { return Value{kind: KindText, text: s} }

// DateValue returns a date cell.
func DateValue(d NullDate) Value { return Value{kind: KindDate, date: d} }

func parseValue(kind Kind, raw string) Value {
	if kind == KindDate {
		return DateValue(ParseDate(raw))
	}
	return TextValue(raw)
}

// Kind returns the kind of the cell.
func (v Value) Kind() Kind { return v.kind }

// Date returns the parsed date of a date cell.
func (v Value) Date() NullDate { return v.date }

// String returns the cell as written to the store. Every key comparison in
// this package is done on this form.
func (v Value) String() string {
	if v.kind == KindDate {
		return v.date.String()
	}
	return v.text
}

// Row holds the cells of one data row in declared column order.
type Row []Value

// Table is the in-memory typed mirror of one remote tab. Rows keep the remote
// order: Rows[i] is remote row i+2.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row

	// layout holds the 0-based tab column of each declared column, -1 when
	// the tab has no such column.
	layout []int
}

func newTable(schema Schema, rows []Row, layout []int) *Table {
	if rows == nil {
		rows = []Row{}
	}
	if layout == nil {
		layout = make([]int, len(schema.Columns))
		for i := range layout {
			layout[i] = i
		}
	}
	return &Table{
		Name:    schema.Name,
		Columns: schema.ColumnNames(),
		Rows:    rows,
		layout:  layout,
	}
}

// tabColumn returns the 1-based tab column holding declared column i, or 0
// when the tab lacks it.
func (table *Table) tabColumn(i int) int {
	if i < 0 || i >= len(table.layout) {
		return 0
	}
	return table.layout[i] + 1
}

// width returns the number of tab columns spanned by the declared columns.
func (table *Table) width() int {
	width := 0
	for _, p := range table.layout {
		width = max(width, p+1)
	}
	return width
}

// Len returns the number of data rows.
func (table *Table) Len() int { return len(table.Rows) }

// ColumnIndex returns the position of column or -1.
func (table *Table) ColumnIndex(column string) int {
	for i, name := range table.Columns {
		if name == column {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for column. Unknown columns give a zero Value.
func (table *Table) Value(row int, column string) Value {
	i := table.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(table.Rows) {
		return Value{}
	}
	return table.Rows[row][i]
}

// Record returns row as a Record.
func (table *Table) Record(row int) Record {
	record := make(Record, len(table.Columns))
	for i, column := range table.Columns {
		record[column] = table.Rows[row][i].String()
	}
	return record
}

// Records returns every row as a Record.
func (table *Table) Records() []Record {
	records := make([]Record, len(table.Rows))
	for i := range table.Rows {
		records[i] = table.Record(i)
	}
	return records
}

// Find returns the ascending indexes of rows whose column stringifies to value.
func (table *Table) Find(column, value string) []int {
	i := table.ColumnIndex(column)
	if i < 0 {
		return nil
	}
	var found []int
	for row, cells := range table.Rows {
		if cells[i].String() == value {
			found = append(found, row)
		}
	}
	return found
}

// FindFirst returns the index of the first row matching every field of match, or -1.
func (table *Table) FindFirst(match Record) int {
	positions := make(map[int]string, len(match))
	for column, value := range match {
		i := table.ColumnIndex(column)
		if i < 0 {
			return -1
		}
		positions[i] = value
	}

next:
	for row, cells := range table.Rows {
		for i, value := range positions {
			if cells[i].String() != value {
				continue next
			}
		}
		return row
	}
	return -1
}

// Clone returns a deep copy of table.
func (table *Table) Clone() *Table {
	rows := make([]Row, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = append(Row(nil), row...)
	}
	return &Table{
		Name:    table.Name,
		Columns: append([]string(nil), table.Columns...),
		Rows:    rows,
		layout:  append([]int(nil), table.layout...),
	}
}

// NewTable builds the named table from raw rows holding cells in registry
// column order, with the same typing as tabs read from a spreadsheet.
func NewTable(name string, rows [][]string) (*Table, error) {
	schema, err := lookup(name)
	if err != nil {
		return nil, err
	}
	typed := make([]Row, 0, len(rows))
	for _, raw := range rows {
		row := make(Row, len(schema.Columns))
		for i, column := range schema.Columns {
			var cell string
			if i < len(raw) {
				cell = raw[i]
			}
			row[i] = parseValue(column.Kind, cell)
		}
		typed = append(typed, row)
	}
	return newTable(schema, typed, nil), nil
}
