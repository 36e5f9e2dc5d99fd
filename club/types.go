// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package club

import (
	"strings"

	"storj.io/clubsheet/sheetdb"
)

// CompetitionType is the competition a match belongs to.
type CompetitionType string

// Competition types.
const (
	Interclubs       CompetitionType = "Interclubs"
	TeamChampionship CompetitionType = "Team Championship"
)

// CompetitionTypes lists the known competition types.
var CompetitionTypes = []CompetitionType{Interclubs, TeamChampionship}

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

// Match statuses.
const (
	StatusUpcoming  MatchStatus = "Upcoming"
	StatusPlayed    MatchStatus = "Played"
	StatusCancelled MatchStatus = "Cancelled"
)

// MatchStatuses lists the known match statuses.
var MatchStatuses = []MatchStatus{StatusUpcoming, StatusPlayed, StatusCancelled}

// Result is the outcome of a played match. The zero value means no result.
type Result string

// Results.
const (
	ResultNone Result = ""
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
	ResultDraw Result = "Draw"
)

// Results lists the known results.
var Results = []Result{ResultNone, ResultWin, ResultLoss, ResultDraw}

// AvailabilityStatus is a player's answer to an availability poll, stored
// with its marker as shown to players.
type AvailabilityStatus string

// Availability answers.
const (
	Available   AvailabilityStatus = "✅ Available"
	Unavailable AvailabilityStatus = "❌ Unavailable"
	Maybe       AvailabilityStatus = "❓ Maybe"
)

// AvailabilityStatuses lists the known availability answers.
var AvailabilityStatuses = []AvailabilityStatus{Available, Unavailable, Maybe}

// Label returns the answer without its marker.
func (status AvailabilityStatus) Label() string {
	_, label, found := strings.Cut(string(status), " ")
	if !found {
		return string(status)
	}
	return label
}

// ParseCompetitionType matches s case-insensitively against the known types.
func ParseCompetitionType(s string) (CompetitionType, error) {
	for _, known := range CompetitionTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, nil
		}
	}
	return "", ErrValidation.New("unknown competition type %q", s)
}

// ParseMatchStatus matches s case-insensitively against the known statuses.
func ParseMatchStatus(s string) (MatchStatus, error) {
	for _, known := range MatchStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, nil
		}
	}
	return "", ErrValidation.New("unknown match status %q", s)
}

// ParseResult matches s case-insensitively against the known results.
func ParseResult(s string) (Result, error) {
	for _, known := range Results {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, nil
		}
	}
	return "", ErrValidation.New("unknown result %q", s)
}

// ParseAvailability accepts an answer with or without its marker.
func ParseAvailability(s string) (AvailabilityStatus, error) {
	s = strings.TrimSpace(s)
	for _, known := range AvailabilityStatuses {
		if s == string(known) || strings.EqualFold(s, known.Label()) {
			return known, nil
		}
	}
	return "", ErrValidation.New("unknown availability %q", s)
}

// User is a club account.
type User struct {
	Pseudo       string
	PasswordHash string
	Roles        RoleSet
	DisplayName  string
}

// Name returns the display name, falling back to the pseudo.
func (user User) Name() string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Pseudo
}

// Match is a scheduled or played match.
type Match struct {
	ID              string
	Date            sheetdb.NullDate
	CompetitionType CompetitionType
	Team            string
	OpponentClub    string
	Location        string
	Status          MatchStatus
	Score           string
	Result          Result
}

// Availability is a player's answer for one match.
type Availability struct {
	MatchID string
	Pseudo  string
	Status  AvailabilityStatus
	Comment string
}

// Selection places a player in the lineup of a match.
type Selection struct {
	MatchID string
	Pseudo  string
}

func usersOf(table *sheetdb.Table) []User {
	users := make([]User, 0, table.Len())
	for i := range table.Rows {
		users = append(users, User{
			Pseudo:       table.Value(i, "pseudo").String(),
			PasswordHash: table.Value(i, "password_hash").String(),
			Roles:        rolesFromCell(table.Value(i, "roles").String()),
			DisplayName:  table.Value(i, "display_name").String(),
		})
	}
	return users
}

func (user User) record() sheetdb.Record {
	return sheetdb.Record{
		"pseudo":        user.Pseudo,
		"password_hash": user.PasswordHash,
		"roles":         user.Roles.String(),
		"display_name":  user.DisplayName,
	}
}

func matchesOf(table *sheetdb.Table) []Match {
	matches := make([]Match, 0, table.Len())
	for i := range table.Rows {
		matches = append(matches, Match{
			ID:              table.Value(i, "match_id").String(),
			Date:            table.Value(i, "date").Date(),
			CompetitionType: CompetitionType(table.Value(i, "competition_type").String()),
			Team:            table.Value(i, "team").String(),
			OpponentClub:    table.Value(i, "opponent_club").String(),
			Location:        table.Value(i, "location").String(),
			Status:          MatchStatus(table.Value(i, "status").String()),
			Score:           table.Value(i, "score").String(),
			Result:          Result(table.Value(i, "result").String()),
		})
	}
	return matches
}

func (match Match) record() sheetdb.Record {
	return sheetdb.Record{
		"match_id":         match.ID,
		"date":             match.Date.String(),
		"competition_type": string(match.CompetitionType),
		"team":             match.Team,
		"opponent_club":    match.OpponentClub,
		"location":         match.Location,
		"status":           string(match.Status),
		"score":            match.Score,
		"result":           string(match.Result),
	}
}

func availabilityOf(table *sheetdb.Table) []Availability {
	answers := make([]Availability, 0, table.Len())
	for i := range table.Rows {
		answers = append(answers, Availability{
			MatchID: table.Value(i, "match_id").String(),
			Pseudo:  table.Value(i, "pseudo").String(),
			Status:  AvailabilityStatus(table.Value(i, "available").String()),
			Comment: table.Value(i, "comment").String(),
		})
	}
	return answers
}

func selectionsOf(table *sheetdb.Table) []Selection {
	selections := make([]Selection, 0, table.Len())
	for i := range table.Rows {
		selections = append(selections, Selection{
			MatchID: table.Value(i, "match_id").String(),
			Pseudo:  table.Value(i, "pseudo").String(),
		})
	}
	return selections
}
