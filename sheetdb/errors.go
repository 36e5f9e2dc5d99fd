// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

import (
	"github.com/zeebo/errs"
)

var (
	// Error is the default error class for the sheetdb package.
	Error = errs.Class("sheetdb")

	// ErrCredentialFormat is returned when credential input is missing or cannot be parsed.
	ErrCredentialFormat = errs.Class("credential format")

	// ErrConnection is returned when authentication or spreadsheet resolution fails.
	ErrConnection = errs.Class("connection")

	// ErrRemoteStore is returned for any failure while reading, writing or creating
	// remote tabs, including timeouts.
	ErrRemoteStore = errs.Class("remote store")

	// ErrSheetNotFound is returned by a Spreadsheet when the requested tab does not exist.
	ErrSheetNotFound = errs.Class("sheet not found")
)
