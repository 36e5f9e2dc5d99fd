// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package gsheets

import (
	"regexp"
	"strings"

	"storj.io/clubsheet/sheetdb"
)

var (
	urlPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	idPattern  = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
)

// SpreadsheetID extracts the spreadsheet id from a spreadsheet URL or returns
// locator itself when it already is an id.
func SpreadsheetID(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if match := urlPattern.FindStringSubmatch(locator); match != nil {
		return match[1], nil
	}
	if idPattern.MatchString(locator) {
		return locator, nil
	}
	return "", sheetdb.ErrConnection.New("cannot find a spreadsheet id in %q", locator)
}
