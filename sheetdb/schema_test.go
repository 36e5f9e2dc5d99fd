// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/clubsheet/sheetdb"
)

func TestRegistry(t *testing.T) {
	require.Equal(t, []string{"users", "matches", "availability", "selections"}, sheetdb.TableNames())

	for _, testcase := range []struct {
		table   string
		columns []string
		key     []string
	}{
		{"users", []string{"pseudo", "password_hash", "roles", "display_name"}, []string{"pseudo"}},
		{"matches", []string{"match_id", "date", "competition_type", "team", "opponent_club", "location", "status", "score", "result"}, []string{"match_id"}},
		{"availability", []string{"match_id", "pseudo", "available", "comment"}, []string{"match_id", "pseudo"}},
		{"selections", []string{"match_id", "pseudo"}, []string{"match_id", "pseudo"}},
	} {
		schema, ok := sheetdb.Lookup(testcase.table)
		require.True(t, ok, testcase.table)
		require.Equal(t, testcase.columns, schema.ColumnNames())
		require.Equal(t, testcase.key, schema.Key)
	}

	_, ok := sheetdb.Lookup("scores")
	require.False(t, ok)
}

func TestSchemaIsolation(t *testing.T) {
	schema, _ := sheetdb.Lookup(sheetdb.TableUsers)
	schema.Columns[0].Name = "changed"

	again, _ := sheetdb.Lookup(sheetdb.TableUsers)
	require.Equal(t, "pseudo", again.Columns[0].Name)
}

func TestProject(t *testing.T) {
	schema, _ := sheetdb.Lookup(sheetdb.TableUsers)

	values := schema.Project(sheetdb.Record{
		"display_name": "Bob",
		"pseudo":       "bob",
		"nickname":     "dropped",
	})
	require.Equal(t, []string{"bob", "", "", "Bob"}, values)
	require.Equal(t, 2, schema.Index("roles"))
	require.Equal(t, -1, schema.Index("nickname"))
}
