// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// dateLayouts are tried after plain ISO dates.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// NullDate is a calendar date that may be missing.
type NullDate struct {
	Date  civil.Date
	Valid bool
}

// DateOf wraps d, marking it invalid when d is not a real calendar date.
func DateOf(d civil.Date) NullDate {
	return NullDate{Date: d, Valid: d.IsValid()}
}

// ParseDate parses a cell. Empty or unparseable input gives a null date.
func ParseDate(s string) NullDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullDate{}
	}
	if d, err := civil.ParseDate(s); err == nil {
		return DateOf(d)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(civil.DateOf(t))
		}
	}
	return NullDate{}
}

// String returns the ISO form of the date, or "" when null.
func (d NullDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Date.String()
}

// Compare orders dates ascending with null dates after every valid one.
func (d NullDate) Compare(other NullDate) int {
	switch {
	case !d.Valid && !other.Valid:
		return 0
	case !d.Valid:
		return 1
	case !other.Valid:
		return -1
	case d.Date.Before(other.Date):
		return -1
	case d.Date.After(other.Date):
		return 1
	}
	return 0
}

// Before reports whether d sorts before other.
func (d NullDate) Before(other NullDate) bool { return d.Compare(other) < 0 }
