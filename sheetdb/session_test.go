// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storj.io/common/testcontext"

	"storj.io/clubsheet/sheetdb"
	"storj.io/clubsheet/sheetdb/memsheet"
)

var (
	usersHeader        = []string{"pseudo", "password_hash", "roles", "display_name"}
	matchesHeader      = []string{"match_id", "date", "competition_type", "team", "opponent_club", "location", "status", "score", "result"}
	availabilityHeader = []string{"match_id", "pseudo", "available", "comment"}
	selectionsHeader   = []string{"match_id", "pseudo"}
)

// seeded returns a spreadsheet with every tab present and header-only.
func seeded() *memsheet.Spreadsheet {
	ss := memsheet.New()
	ss.Put("users", usersHeader)
	ss.Put("matches", matchesHeader)
	ss.Put("availability", availabilityHeader)
	ss.Put("selections", selectionsHeader)
	return ss
}

func open(ctx context.Context, t *testing.T, ss *memsheet.Spreadsheet) *sheetdb.Session {
	session, err := sheetdb.Open(ctx, zaptest.NewLogger(t), ss, sheetdb.Config{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return session
}

func column(t *testing.T, table *sheetdb.Table, name string) []string {
	var values []string
	for i := range table.Rows {
		values = append(values, table.Value(i, name).String())
	}
	return values
}

func TestOpenCreatesMissingTabs(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := memsheet.New()
	session := open(ctx, t, ss)
	defer ctx.Check(session.Close)

	require.Equal(t, []string{"users", "matches", "availability", "selections"}, ss.Titles())
	require.Equal(t, 4, ss.Calls().AddSheet)

	for _, name := range sheetdb.TableNames() {
		schema, _ := sheetdb.Lookup(name)

		sheet, err := ss.Sheet(ctx, name)
		require.NoError(t, err)
		require.Equal(t, [][]string{schema.ColumnNames()}, sheet.(*memsheet.Sheet).Rows())

		table, err := session.Table(name)
		require.NoError(t, err)
		require.Equal(t, schema.ColumnNames(), table.Columns)
		require.NotNil(t, table.Rows)
		require.Equal(t, 0, table.Len())
	}
}

func TestMaterializeAllIsIdempotent(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("matches", matchesHeader,
		[]string{"20240305_rivals", "2024-03-05", "Interclubs", "A", "Rivals", "Home", "Upcoming"},
		[]string{"20240401_tbd", "not a date", "Interclubs", "B", "TBD", "", "Upcoming"},
	)

	// the zero config still bounds every call
	ss.SetHook(func(ctx context.Context, op string) error {
		if _, ok := ctx.Deadline(); !ok {
			return fmt.Errorf("%s called without a deadline", op)
		}
		return nil
	})

	materializer := sheetdb.NewMaterializer(zaptest.NewLogger(t), ss, sheetdb.Config{})
	first, err := materializer.MaterializeAll(ctx)
	require.NoError(t, err)
	second, err := materializer.MaterializeAll(ctx)
	require.NoError(t, err)

	diff := cmp.Diff(first, second, cmp.AllowUnexported(sheetdb.Table{}, sheetdb.Value{}))
	require.Zero(t, diff)
	require.Equal(t, 0, ss.Calls().AddSheet)
	require.Len(t, first, 4)

	matches := first["matches"]
	require.Equal(t, 2, matches.Len())
	require.True(t, matches.Value(0, "date").Date().Valid)
	require.Equal(t, "2024-03-05", matches.Value(0, "date").String())
	require.False(t, matches.Value(1, "date").Date().Valid)
	require.Equal(t, "", matches.Value(0, "score").String())
}

func TestEmptyUsersScenario(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	session := open(ctx, t, seeded())

	users, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, 0, users.Len())
	require.Equal(t, usersHeader, users.Columns)

	err = session.Append(ctx, "users", sheetdb.Record{
		"pseudo":        "bob",
		"password_hash": "h",
		"roles":         "player",
		"display_name":  "Bob",
	})
	require.NoError(t, err)
	require.NoError(t, session.Reload(ctx, "users"))

	users, err = session.Table("users")
	require.NoError(t, err)
	require.Equal(t, 1, users.Len())
	require.Equal(t, usersHeader, users.Columns)
	require.Equal(t, sheetdb.Record{
		"pseudo":        "bob",
		"password_hash": "h",
		"roles":         "player",
		"display_name":  "Bob",
	}, users.Record(0))
	for i, want := range []string{"bob", "h", "player", "Bob"} {
		require.Equal(t, want, users.Rows[0][i].String())
	}
}

func TestColumnsFollowRegistry(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("users",
		[]string{"display_name", "notes", "pseudo", "roles"},
		[]string{"Alice", "likes clay", "alice", "player,captain"},
		[]string{"Bob"},
	)
	session := open(ctx, t, ss)

	users, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, usersHeader, users.Columns)
	require.Equal(t, 2, users.Len())
	require.Equal(t, sheetdb.Record{
		"pseudo":        "alice",
		"password_hash": "",
		"roles":         "player,captain",
		"display_name":  "Alice",
	}, users.Record(0))
	require.Equal(t, "", users.Value(1, "pseudo").String())
	require.Equal(t, "Bob", users.Value(1, "display_name").String())
}

func TestAppendProjectsRecord(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	session := open(ctx, t, ss)

	err := session.Append(ctx, "availability", sheetdb.Record{
		"pseudo":   "alice",
		"match_id": "M1",
		"unknown":  "dropped",
	})
	require.NoError(t, err)

	sheet, err := ss.Sheet(ctx, "availability")
	require.NoError(t, err)
	require.Equal(t, [][]string{availabilityHeader, {"M1", "alice", "", ""}}, sheet.(*memsheet.Sheet).Rows())
}

func TestUpdateFirstMatchOnly(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("users", usersHeader,
		[]string{"carol", "x", "player", "Carol"},
		[]string{"dup", "1", "player", "First"},
		[]string{"dup", "2", "player", "Second"},
	)
	session := open(ctx, t, ss)

	n, err := session.Update(ctx, "users", "pseudo", "dup", sheetdb.Record{
		"display_name": "Renamed",
		"roles":        "captain",
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 2, ss.Calls().UpdateCell)

	users, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, []string{"Carol", "Renamed", "Second"}, column(t, users, "display_name"))
	require.Equal(t, []string{"player", "captain", "player"}, column(t, users, "roles"))
}

func TestUpdateMissIsNoop(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("matches", matchesHeader,
		[]string{"M1", "2024-03-05", "Interclubs", "A", "Rivals", "Home", "Upcoming"},
	)
	session := open(ctx, t, ss)

	before, err := session.Table("matches")
	require.NoError(t, err)
	calls := ss.Calls()

	n, err := session.Update(ctx, "matches", "match_id", "doesnotexist", sheetdb.Record{"status": "Played"})
	require.NoError(t, err)
	require.Equal(t, 0, n)

	after, err := session.Table("matches")
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, calls, ss.Calls())
}

func TestUpdateUnknownColumn(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	session := open(ctx, t, ss)
	calls := ss.Calls()

	_, err := session.Update(ctx, "matches", "id", "M1", sheetdb.Record{"status": "Played"})
	require.True(t, sheetdb.Error.Has(err), err)

	_, err = session.Update(ctx, "matches", "match_id", "M1", sheetdb.Record{"winner": "us"})
	require.True(t, sheetdb.Error.Has(err), err)

	_, err = session.Update(ctx, "scores", "match_id", "M1", nil)
	require.True(t, sheetdb.Error.Has(err), err)

	require.Equal(t, calls, ss.Calls())
}

func TestDeleteWhere(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	rows := [][]string{selectionsHeader}
	for i := 0; i < 9; i++ {
		match := "keep"
		if i == 2 || i == 5 || i == 7 {
			match = "drop"
		}
		rows = append(rows, []string{match, fmt.Sprintf("p%d", i)})
	}
	ss.Put("selections", rows...)
	session := open(ctx, t, ss)

	n, err := session.DeleteWhere(ctx, "selections", "match_id", "drop")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 1, ss.Calls().DeleteRows)

	selections, err := session.Table("selections")
	require.NoError(t, err)
	require.Equal(t, []string{"p0", "p1", "p3", "p4", "p6", "p8"}, column(t, selections, "pseudo"))
	require.Equal(t, []int(nil), selections.Find("match_id", "drop"))

	n, err = session.DeleteWhere(ctx, "selections", "match_id", "drop")
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, 1, ss.Calls().DeleteRows)
}

func TestUpsertAvailability(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("availability", availabilityHeader,
		[]string{"M1", "bob", "Unavailable", ""},
	)
	session := open(ctx, t, ss)

	require.NoError(t, session.UpsertAvailability(ctx, "M1", "alice", "Available", ""))
	require.NoError(t, session.UpsertAvailability(ctx, "M1", "alice", "Maybe", "running late"))

	availability, err := session.Table("availability")
	require.NoError(t, err)
	require.Equal(t, 2, availability.Len())

	index := availability.FindFirst(sheetdb.Record{"match_id": "M1", "pseudo": "alice"})
	require.Equal(t, 1, index)
	require.Equal(t, sheetdb.Record{
		"match_id":  "M1",
		"pseudo":    "alice",
		"available": "Maybe",
		"comment":   "running late",
	}, availability.Record(index))
	require.Equal(t, "Unavailable", availability.Value(0, "available").String())

	calls := ss.Calls()
	require.Equal(t, 1, calls.AppendRow)
	require.Equal(t, 1, calls.UpdateRow)
	require.Equal(t, 0, calls.UpdateCell)
}

func TestUpsertRequiresKey(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	session := open(ctx, t, seeded())

	_, err := session.Upsert(ctx, "availability", sheetdb.Record{"match_id": "M1", "available": "Maybe"})
	require.True(t, sheetdb.Error.Has(err), err)

	inserted, err := session.Upsert(ctx, "selections", sheetdb.Record{"match_id": "M1", "pseudo": "alice"})
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = session.Upsert(ctx, "selections", sheetdb.Record{"match_id": "M1", "pseudo": "alice"})
	require.NoError(t, err)
	require.False(t, inserted)

	selections, err := session.Table("selections")
	require.NoError(t, err)
	require.Equal(t, 1, selections.Len())
}

func TestFailedMutationKeepsCache(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("users", usersHeader, []string{"alice", "h", "player", "Alice"})
	session := open(ctx, t, ss)

	before, err := session.Table("users")
	require.NoError(t, err)

	failure := errors.New("quota exceeded")
	ss.Fail(memsheet.OpAppendRow, failure)
	err = session.Append(ctx, "users", sheetdb.Record{"pseudo": "bob"})
	require.True(t, sheetdb.ErrRemoteStore.Has(err), err)
	require.ErrorIs(t, err, failure)

	ss.Fail(memsheet.OpUpdateCell, failure)
	_, err = session.Update(ctx, "users", "pseudo", "alice", sheetdb.Record{"roles": "admin"})
	require.True(t, sheetdb.ErrRemoteStore.Has(err), err)

	ss.Fail(memsheet.OpDeleteRows, failure)
	_, err = session.DeleteWhere(ctx, "users", "pseudo", "alice")
	require.True(t, sheetdb.ErrRemoteStore.Has(err), err)

	after, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, before, after)

	// the operation is safe to retry once the store recovers
	require.NoError(t, session.Append(ctx, "users", sheetdb.Record{"pseudo": "bob"}))
	after, err = session.Table("users")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, column(t, after, "pseudo"))
}

func TestRemoteCallTimeout(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	session, err := sheetdb.Open(ctx, zaptest.NewLogger(t), ss, sheetdb.Config{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	ss.SetHook(func(ctx context.Context, op string) error {
		if op != memsheet.OpAppendRow {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	})

	err = session.Append(ctx, "users", sheetdb.Record{"pseudo": "slow"})
	require.True(t, sheetdb.ErrRemoteStore.Has(err), err)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	users, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, 0, users.Len())
}

func TestConcurrentMutationsSameTable(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	session := open(ctx, t, ss)

	// widen the window between reading the cache and the write landing
	ss.SetHook(func(ctx context.Context, op string) error {
		if op == memsheet.OpAppendRow || op == memsheet.OpUpdateRow {
			time.Sleep(2 * time.Millisecond)
		}
		return nil
	})

	const writers = 16
	for i := 0; i < writers; i++ {
		comment := fmt.Sprintf("answer %02d", i)
		ctx.Go(func() error {
			return session.UpsertAvailability(ctx, "M1", "alice", "Available", comment)
		})
	}
	ctx.Wait()

	availability, err := session.Table("availability")
	require.NoError(t, err)
	require.Equal(t, 1, availability.Len())
	require.Equal(t, []int{0}, availability.Find("pseudo", "alice"))

	calls := ss.Calls()
	require.Equal(t, 1, calls.AppendRow)
	require.Equal(t, writers-1, calls.UpdateRow)
}

func TestWritesFollowTabColumns(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	reordered := []string{"display_name", "pseudo", "roles", "password_hash"}
	ss.Put("users", reordered, []string{"Alice", "alice", "player", "h1"})
	ss.Put("availability",
		[]string{"pseudo", "comment", "match_id", "available"},
		[]string{"alice", "", "M1", "Maybe"},
	)
	session := open(ctx, t, ss)

	n, err := session.Update(ctx, "users", "pseudo", "alice", sheetdb.Record{"display_name": "Queen"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	err = session.Append(ctx, "users", sheetdb.Record{
		"pseudo":        "bob",
		"password_hash": "h2",
		"roles":         "player",
		"display_name":  "Bob",
	})
	require.NoError(t, err)

	users, err := ss.Sheet(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		reordered,
		{"Queen", "alice", "player", "h1"},
		{"Bob", "bob", "player", "h2"},
	}, users.(*memsheet.Sheet).Rows())

	cached, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, "h1", cached.Value(0, "password_hash").String())
	require.Equal(t, "Queen", cached.Value(0, "display_name").String())

	// available and comment are not adjacent in this tab
	require.NoError(t, session.UpsertAvailability(ctx, "M1", "alice", "Available", "early"))
	availability, err := ss.Sheet(ctx, "availability")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "early", "M1", "Available"}, availability.(*memsheet.Sheet).Rows()[1])
	require.Equal(t, 0, ss.Calls().UpdateRow)
	require.Equal(t, 3, ss.Calls().UpdateCell)
}

func TestWriteToMissingTabColumn(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("users", []string{"pseudo", "roles", "notes"}, []string{"alice", "player", "left-handed"})
	session := open(ctx, t, ss)

	err := session.Append(ctx, "users", sheetdb.Record{"pseudo": "bob", "password_hash": "h"})
	require.True(t, sheetdb.Error.Has(err), err)
	_, err = session.Update(ctx, "users", "pseudo", "alice", sheetdb.Record{"display_name": "Alice"})
	require.True(t, sheetdb.Error.Has(err), err)
	require.Equal(t, 0, ss.Calls().AppendRow)
	require.Equal(t, 0, ss.Calls().UpdateCell)

	require.NoError(t, session.Append(ctx, "users", sheetdb.Record{"pseudo": "bob", "roles": "captain"}))
	users, err := ss.Sheet(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, []string{"bob", "captain"}, users.(*memsheet.Sheet).Rows()[2])
}

func TestReloadAll(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	session := open(ctx, t, ss)

	// changes made by another session
	ss.Put("users", usersHeader, []string{"zoe", "h", "player", "Zoe"})
	ss.Put("selections", selectionsHeader, []string{"M1", "zoe"})

	ss.Fail(memsheet.OpValues, errors.New("backend unavailable"))
	err := session.ReloadAll(ctx)
	require.True(t, sheetdb.ErrRemoteStore.Has(err), err)

	tables, err := session.Tables()
	require.NoError(t, err)
	require.Equal(t, 0, tables["users"].Len())
	require.Equal(t, 0, tables["selections"].Len())

	require.NoError(t, session.ReloadAll(ctx))
	tables, err = session.Tables()
	require.NoError(t, err)
	require.Equal(t, 1, tables["users"].Len())
	require.Equal(t, 1, tables["selections"].Len())
}

func TestClosedSession(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	session := open(ctx, t, seeded())
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	_, err := session.Table("users")
	require.True(t, sheetdb.Error.Has(err), err)
	require.Error(t, session.Reload(ctx, "users"))
	require.Error(t, session.ReloadAll(ctx))
	require.Error(t, session.Append(ctx, "users", sheetdb.Record{"pseudo": "bob"}))
}

func TestTableIsACopy(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ss := seeded()
	ss.Put("users", usersHeader, []string{"alice", "h", "player", "Alice"})
	session := open(ctx, t, ss)

	users, err := session.Table("users")
	require.NoError(t, err)
	users.Rows[0][0] = sheetdb.TextValue("mallory")

	again, err := session.Table("users")
	require.NoError(t, err)
	require.Equal(t, "alice", again.Value(0, "pseudo").String())
}
