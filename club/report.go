// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package club

import (
	"math"
	"sort"

	"storj.io/clubsheet/sheetdb"
)

// Record counts outcomes of played matches.
type Record struct {
	Played int
	Wins   int
	Losses int
	Draws  int
}

func (record *Record) add(result Result) {
	record.Played++
	switch result {
	case ResultWin:
		record.Wins++
	case ResultLoss:
		record.Losses++
	case ResultDraw:
		record.Draws++
	}
}

// WinRate returns the share of wins in percent, rounded.
func (record Record) WinRate() int {
	if record.Played == 0 {
		return 0
	}
	return int(math.Round(float64(record.Wins) / float64(record.Played) * 100))
}

// OpponentRecord is the record against one opponent club.
type OpponentRecord struct {
	Club string
	Record
}

// PlayerCount is the number of played matches a player was selected for.
type PlayerCount struct {
	Pseudo     string
	Selections int
}

// Stats summarizes the played matches.
type Stats struct {
	Record
	ByCompetition map[CompetitionType]Record
	// Opponents is ordered by matches played, most first.
	Opponents []OpponentRecord
	// Participation is ordered by selections, most first.
	Participation []PlayerCount
}

// Stats computes the statistics over played matches.
func (service *Service) Stats() (Stats, error) {
	played, err := service.MatchesWithStatus(StatusPlayed)
	if err != nil {
		return Stats{}, err
	}
	table, err := service.session.Table(sheetdb.TableSelections)
	if err != nil {
		return Stats{}, Error.Wrap(err)
	}

	stats := Stats{ByCompetition: map[CompetitionType]Record{}}
	opponents := map[string]*Record{}
	playedIDs := map[string]bool{}
	for _, match := range played {
		stats.add(match.Result)

		byCompetition := stats.ByCompetition[match.CompetitionType]
		byCompetition.add(match.Result)
		stats.ByCompetition[match.CompetitionType] = byCompetition

		if opponents[match.OpponentClub] == nil {
			opponents[match.OpponentClub] = &Record{}
		}
		opponents[match.OpponentClub].add(match.Result)
		playedIDs[match.ID] = true
	}

	for club, record := range opponents {
		stats.Opponents = append(stats.Opponents, OpponentRecord{Club: club, Record: *record})
	}
	sort.Slice(stats.Opponents, func(i, k int) bool {
		a, b := stats.Opponents[i], stats.Opponents[k]
		if a.Played != b.Played {
			return a.Played > b.Played
		}
		return a.Club < b.Club
	})

	counts := map[string]int{}
	for _, selection := range selectionsOf(table) {
		if playedIDs[selection.MatchID] {
			counts[selection.Pseudo]++
		}
	}
	for pseudo, count := range counts {
		stats.Participation = append(stats.Participation, PlayerCount{Pseudo: pseudo, Selections: count})
	}
	sort.Slice(stats.Participation, func(i, k int) bool {
		a, b := stats.Participation[i], stats.Participation[k]
		if a.Selections != b.Selections {
			return a.Selections > b.Selections
		}
		return a.Pseudo < b.Pseudo
	})
	return stats, nil
}

// Response is a player's answer in an availability report. Status is empty
// when the player has not answered.
type Response struct {
	Pseudo  string
	Status  AvailabilityStatus
	Comment string
}

// AvailabilityReport lists every player's answer for a match.
type AvailabilityReport struct {
	Responses  []Response
	Counts     map[AvailabilityStatus]int
	NoResponse int
}

// AvailabilityReport collects the answers of all players for a match.
// Players that answered are listed Available first, then Maybe, then the
// rest, keeping tab order within each group.
func (service *Service) AvailabilityReport(matchID string) (AvailabilityReport, error) {
	players, err := service.Players()
	if err != nil {
		return AvailabilityReport{}, err
	}
	answers, err := service.Availability(matchID)
	if err != nil {
		return AvailabilityReport{}, err
	}

	byPseudo := make(map[string]Availability, len(answers))
	for _, answer := range answers {
		if _, ok := byPseudo[answer.Pseudo]; !ok {
			byPseudo[answer.Pseudo] = answer
		}
	}

	report := AvailabilityReport{Counts: map[AvailabilityStatus]int{}}
	for _, answer := range answers {
		report.Counts[answer.Status]++
	}
	for _, player := range players {
		answer, ok := byPseudo[player.Pseudo]
		if !ok {
			report.NoResponse++
		}
		report.Responses = append(report.Responses, Response{
			Pseudo:  player.Pseudo,
			Status:  answer.Status,
			Comment: answer.Comment,
		})
	}

	rank := func(status AvailabilityStatus) int {
		switch status {
		case Available:
			return 0
		case Maybe:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(report.Responses, func(i, k int) bool {
		return rank(report.Responses[i].Status) < rank(report.Responses[k].Status)
	})
	return report, nil
}

// CalendarEntry is an upcoming match seen by one player.
type CalendarEntry struct {
	Match Match
	// Status is empty when the player has not answered.
	Status   AvailabilityStatus
	Comment  string
	Selected bool
	// SelectionSize is the number of players selected so far.
	SelectionSize int
}

// Calendar returns the upcoming matches with pseudo's answers and selections.
func (service *Service) Calendar(pseudo string) ([]CalendarEntry, error) {
	upcoming, err := service.MatchesWithStatus(StatusUpcoming)
	if err != nil {
		return nil, err
	}
	availability, err := service.session.Table(sheetdb.TableAvailability)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	selections, err := service.session.Table(sheetdb.TableSelections)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	answers := availabilityOf(availability)
	selected := selectionsOf(selections)

	entries := make([]CalendarEntry, 0, len(upcoming))
	for _, match := range upcoming {
		entry := CalendarEntry{Match: match}
		for _, answer := range answers {
			if answer.MatchID == match.ID && answer.Pseudo == pseudo {
				entry.Status, entry.Comment = answer.Status, answer.Comment
				break
			}
		}
		for _, selection := range selected {
			if selection.MatchID != match.ID {
				continue
			}
			entry.SelectionSize++
			if selection.Pseudo == pseudo {
				entry.Selected = true
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
