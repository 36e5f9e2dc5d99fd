// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

// Kind is the type a column's cells are converted to when a table is materialized.
type Kind int

const (
	// KindText cells are kept as plain strings.
	KindText Kind = iota
	// KindDate cells are parsed into calendar dates.
	KindDate
)

// Column describes a single declared column.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the shape contract of one logical table.
type Schema struct {
	Name    string
	Columns []Column
	// Key lists the identity columns. Uniqueness is a convention, not enforced.
	Key []string
}

// Table names of the registry.
const (
	TableUsers        = "users"
	TableMatches      = "matches"
	TableAvailability = "availability"
	TableSelections   = "selections"
)

var registry = []Schema{
	{
		Name: TableUsers,
		Columns: []Column{
			{Name: "pseudo"},
			{Name: "password_hash"},
			{Name: "roles"},
			{Name: "display_name"},
		},
		Key: []string{"pseudo"},
	},
	{
		Name: TableMatches,
		Columns: []Column{
			{Name: "match_id"},
			{Name: "date", Kind: KindDate},
			{Name: "competition_type"},
			{Name: "team"},
			{Name: "opponent_club"},
			{Name: "location"},
			{Name: "status"},
			{Name: "score"},
			{Name: "result"},
		},
		Key: []string{"match_id"},
	},
	{
		Name: TableAvailability,
		Columns: []Column{
			{Name: "match_id"},
			{Name: "pseudo"},
			{Name: "available"},
			{Name: "comment"},
		},
		Key: []string{"match_id", "pseudo"},
	},
	{
		Name: TableSelections,
		Columns: []Column{
			{Name: "match_id"},
			{Name: "pseudo"},
		},
		Key: []string{"match_id", "pseudo"},
	},
}

// Schemas returns every registered schema in registry order.
func Schemas() []Schema {
	schemas := make([]Schema, len(registry))
	for i, schema := range registry {
		schemas[i] = schema.clone()
	}
	return schemas
}

// TableNames returns the registered table names in registry order.
func TableNames() []string {
	names := make([]string, len(registry))
	for i, schema := range registry {
		names[i] = schema.Name
	}
	return names
}

// Lookup returns the schema registered for name.
func Lookup(name string) (Schema, bool) {
	for _, schema := range registry {
		if schema.Name == name {
			return schema.clone(), true
		}
	}
	return Schema{}, false
}

func lookup(name string) (Schema, error) {
	schema, ok := Lookup(name)
	if !ok {
		return Schema{}, Error.New("unknown table %q", name)
	}
	return schema, nil
}

// ColumnNames returns the declared column names in order.
func (schema Schema) ColumnNames() []string {
	names := make([]string, len(schema.Columns))
	for i, column := range schema.Columns {
		names[i] = column.Name
	}
	return names
}

// Index returns the 0-based position of column, or -1.
func (schema Schema) Index(column string) int {
	for i, c := range schema.Columns {
		if c.Name == column {
			return i
		}
	}
	return -1
}

// Project lays record out in column order. Undeclared fields are dropped and
// missing ones become empty strings.
func (schema Schema) Project(record Record) []string {
	values := make([]string, len(schema.Columns))
	for i, column := range schema.Columns {
		values[i] = record[column.Name]
	}
	return values
}

// checkColumns verifies that every key of record is a declared column.
func (schema Schema) checkColumns(record Record) error {
	for column := range record {
		if schema.Index(column) < 0 {
			return Error.New("table %q has no column %q", schema.Name, column)
		}
	}
	return nil
}

func (schema Schema) clone() Schema {
	return Schema{
		Name:    schema.Name,
		Columns: append([]Column(nil), schema.Columns...),
		Key:     append([]string(nil), schema.Key...),
	}
}
