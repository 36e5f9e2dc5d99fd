// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetlogger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storj.io/common/testcontext"

	"storj.io/clubsheet/sheetdb"
	"storj.io/clubsheet/sheetdb/memsheet"
	"storj.io/clubsheet/sheetdb/sheetlogger"
)

func TestLogsEveryCall(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	core, logs := observer.New(zap.DebugLevel)
	store := memsheet.New()
	logged := sheetlogger.New(zap.New(core), store)

	session, err := sheetdb.Open(ctx, zap.NewNop(), logged, sheetdb.Config{})
	require.NoError(t, err)
	defer ctx.Check(session.Close)

	require.Equal(t, 4, logs.FilterMessage("AddSheet").Len())
	require.Equal(t, 4, logs.FilterMessage("Values").Len())

	require.NoError(t, session.UpsertAvailability(ctx, "M1", "alice", "Available", ""))
	require.NoError(t, session.UpsertAvailability(ctx, "M1", "alice", "Maybe", ""))
	_, err = session.DeleteWhere(ctx, "availability", "pseudo", "alice")
	require.NoError(t, err)

	updates := logs.FilterMessage("UpdateRow").All()
	require.Len(t, updates, 1)
	fields := updates[0].ContextMap()
	require.Equal(t, "availability", fields["tab"])
	require.EqualValues(t, 2, fields["row"])
	require.EqualValues(t, 3, fields["col"])

	require.Equal(t, 1, logs.FilterMessage("DeleteRows").Len())
	require.Equal(t, store.Calls().DeleteRows, 1)
}
