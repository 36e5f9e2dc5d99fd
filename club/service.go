// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package club implements the club workflows (accounts, matches,
// availability polls, selections and statistics) on top of a sheetdb session.
package club

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/clubsheet/sheetdb"
)

var (
	mon = monkit.Package()

	// Error is the default error class for the club package.
	Error = errs.Class("club")

	// ErrValidation is returned for invalid input.
	ErrValidation = errs.Class("validation")

	// ErrNotFound is returned when a user or match does not exist.
	ErrNotFound = errs.Class("not found")

	// ErrUnauthenticated is returned when a login attempt fails.
	ErrUnauthenticated = errs.Class("unauthenticated")
)

// Service runs club workflows against the tables of one session.
type Service struct {
	log     *zap.Logger
	session *sheetdb.Session
}

// NewService returns a Service over session.
func NewService(log *zap.Logger, session *sheetdb.Session) *Service {
	return &Service{log: log, session: session}
}

// Users returns every account in tab order.
func (service *Service) Users() ([]User, error) {
	table, err := service.session.Table(sheetdb.TableUsers)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return usersOf(table), nil
}

// User returns the first account named pseudo.
func (service *Service) User(pseudo string) (User, error) {
	users, err := service.Users()
	if err != nil {
		return User{}, err
	}
	for _, user := range users {
		if user.Pseudo == pseudo {
			return user, nil
		}
	}
	return User{}, ErrNotFound.New("user %q", pseudo)
}

// Players returns the accounts holding the player role.
func (service *Service) Players() ([]User, error) {
	users, err := service.Users()
	if err != nil {
		return nil, err
	}
	players := users[:0]
	for _, user := range users {
		if user.Roles.Has(RolePlayer) {
			players = append(players, user)
		}
	}
	return players, nil
}

// Authenticate checks a login attempt and returns the account.
func (service *Service) Authenticate(pseudo, password string) (User, error) {
	users, err := service.Users()
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, ErrUnauthenticated.New("no users registered yet")
	}
	for _, user := range users {
		if user.Pseudo != pseudo {
			continue
		}
		if !VerifyPassword(password, user.PasswordHash) {
			return User{}, ErrUnauthenticated.New("incorrect password")
		}
		service.log.Info("user authenticated", zap.String("pseudo", pseudo), zap.Stringer("roles", user.Roles))
		return user, nil
	}
	return User{}, ErrUnauthenticated.New("unknown user")
}

// NewUser describes an account to create.
type NewUser struct {
	Pseudo      string
	Password    string
	Roles       RoleSet
	DisplayName string
}

// CreateUser adds an account. The display name defaults to the pseudo.
func (service *Service) CreateUser(ctx context.Context, create NewUser) (_ User, err error) {
	defer mon.Task()(&ctx)(&err)

	pseudo := strings.TrimSpace(create.Pseudo)
	roles := NewRoleSet(create.Roles...)
	if pseudo == "" || strings.TrimSpace(create.Password) == "" || len(roles) == 0 {
		return User{}, ErrValidation.New("pseudo, password and at least one role are required")
	}
	if _, err := service.User(pseudo); err == nil {
		return User{}, ErrValidation.New("user %q already exists", pseudo)
	} else if !ErrNotFound.Has(err) {
		return User{}, err
	}

	user := User{
		Pseudo:       pseudo,
		PasswordHash: HashPassword(create.Password),
		Roles:        roles,
		DisplayName:  strings.TrimSpace(create.DisplayName),
	}
	if user.DisplayName == "" {
		user.DisplayName = pseudo
	}
	if err := service.session.Append(ctx, sheetdb.TableUsers, user.record()); err != nil {
		return User{}, Error.Wrap(err)
	}
	service.log.Info("user created", zap.String("pseudo", pseudo), zap.Stringer("roles", user.Roles))
	return user, nil
}

// UserUpdate holds the new values of an account. A blank password keeps the
// current one.
type UserUpdate struct {
	DisplayName string
	Roles       RoleSet
	Password    string
}

// UpdateUser changes the display name and roles of an account, and its
// password when one is given.
func (service *Service) UpdateUser(ctx context.Context, pseudo string, update UserUpdate) (err error) {
	defer mon.Task()(&ctx)(&err)

	updates := sheetdb.Record{
		"display_name": strings.TrimSpace(update.DisplayName),
		"roles":        NewRoleSet(update.Roles...).String(),
	}
	if strings.TrimSpace(update.Password) != "" {
		updates["password_hash"] = HashPassword(update.Password)
	}

	n, err := service.session.Update(ctx, sheetdb.TableUsers, "pseudo", pseudo, updates)
	if err != nil {
		return Error.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound.New("user %q", pseudo)
	}
	return nil
}

// DeleteUser removes every account named pseudo. Accounts cannot delete
// themselves.
func (service *Service) DeleteUser(ctx context.Context, actor, pseudo string) (err error) {
	defer mon.Task()(&ctx)(&err)

	if actor == pseudo {
		return ErrValidation.New("you cannot delete your own account")
	}
	n, err := service.session.DeleteWhere(ctx, sheetdb.TableUsers, "pseudo", pseudo)
	if err != nil {
		return Error.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound.New("user %q", pseudo)
	}
	service.log.Info("user deleted", zap.String("pseudo", pseudo), zap.String("by", actor))
	return nil
}

// Matches returns every match by ascending date, undated matches last.
func (service *Service) Matches() ([]Match, error) {
	table, err := service.session.Table(sheetdb.TableMatches)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	matches := matchesOf(table)
	sort.SliceStable(matches, func(i, k int) bool {
		return matches[i].Date.Before(matches[k].Date)
	})
	return matches, nil
}

// MatchesWithStatus returns the matches in status by ascending date.
func (service *Service) MatchesWithStatus(status MatchStatus) ([]Match, error) {
	matches, err := service.Matches()
	if err != nil {
		return nil, err
	}
	filtered := matches[:0]
	for _, match := range matches {
		if match.Status == status {
			filtered = append(filtered, match)
		}
	}
	return filtered, nil
}

// Match returns the first match with id.
func (service *Service) Match(id string) (Match, error) {
	table, err := service.session.Table(sheetdb.TableMatches)
	if err != nil {
		return Match{}, Error.Wrap(err)
	}
	for _, match := range matchesOf(table) {
		if match.ID == id {
			return match, nil
		}
	}
	return Match{}, ErrNotFound.New("match %q", id)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]`)

// MatchID derives the id of a match from its date and opponent:
// YYYYMMDD_ followed by at most 10 lowercase letters and digits of the
// opponent name.
func MatchID(date civil.Date, opponent string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(opponent), "")
	if len(slug) > 10 {
		slug = slug[:10]
	}
	return strings.ReplaceAll(date.String(), "-", "") + "_" + slug
}

// NewMatch describes a match to schedule.
type NewMatch struct {
	Date            civil.Date
	CompetitionType CompetitionType
	Team            string
	OpponentClub    string
	Location        string
}

// CreateMatch schedules an upcoming match.
func (service *Service) CreateMatch(ctx context.Context, create NewMatch) (_ Match, err error) {
	defer mon.Task()(&ctx)(&err)

	team := strings.TrimSpace(create.Team)
	opponent := strings.TrimSpace(create.OpponentClub)
	if team == "" || opponent == "" {
		return Match{}, ErrValidation.New("opponent club and team are required")
	}
	if !create.Date.IsValid() {
		return Match{}, ErrValidation.New("invalid date %v", create.Date)
	}
	competition, err := ParseCompetitionType(string(create.CompetitionType))
	if err != nil {
		return Match{}, err
	}

	match := Match{
		ID:              MatchID(create.Date, opponent),
		Date:            sheetdb.DateOf(create.Date),
		CompetitionType: competition,
		Team:            team,
		OpponentClub:    opponent,
		Location:        strings.TrimSpace(create.Location),
		Status:          StatusUpcoming,
	}
	if _, err := service.Match(match.ID); err == nil {
		return Match{}, ErrValidation.New("a match with this date and opponent already exists")
	} else if !ErrNotFound.Has(err) {
		return Match{}, err
	}

	if err := service.session.Append(ctx, sheetdb.TableMatches, match.record()); err != nil {
		return Match{}, Error.Wrap(err)
	}
	service.log.Info("match created", zap.String("match", match.ID))
	return match, nil
}

// RecordResult stores the status, score and result of a match.
func (service *Service) RecordResult(ctx context.Context, matchID string, status MatchStatus, score string, result Result) (err error) {
	defer mon.Task()(&ctx)(&err)

	if _, err := ParseMatchStatus(string(status)); err != nil {
		return err
	}
	if _, err := ParseResult(string(result)); err != nil {
		return err
	}

	n, err := service.session.Update(ctx, sheetdb.TableMatches, "match_id", matchID, sheetdb.Record{
		"status": string(status),
		"score":  strings.TrimSpace(score),
		"result": string(result),
	})
	if err != nil {
		return Error.Wrap(err)
	}
	if n == 0 {
		return ErrNotFound.New("match %q", matchID)
	}
	return nil
}

// Availability returns the answers for a match.
func (service *Service) Availability(matchID string) ([]Availability, error) {
	table, err := service.session.Table(sheetdb.TableAvailability)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	var answers []Availability
	for _, answer := range availabilityOf(table) {
		if answer.MatchID == matchID {
			answers = append(answers, answer)
		}
	}
	return answers, nil
}

// SetAvailability records a player's answer for a match, replacing any
// earlier answer.
func (service *Service) SetAvailability(ctx context.Context, matchID, pseudo string, status AvailabilityStatus, comment string) (err error) {
	defer mon.Task()(&ctx)(&err)

	status, err = ParseAvailability(string(status))
	if err != nil {
		return err
	}
	if matchID == "" || pseudo == "" {
		return ErrValidation.New("match and player are required")
	}
	err = service.session.UpsertAvailability(ctx, matchID, pseudo, string(status), strings.TrimSpace(comment))
	return Error.Wrap(err)
}

// Selection returns the players selected for a match in tab order.
func (service *Service) Selection(matchID string) ([]string, error) {
	table, err := service.session.Table(sheetdb.TableSelections)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	var pseudos []string
	for _, selection := range selectionsOf(table) {
		if selection.MatchID == matchID {
			pseudos = append(pseudos, selection.Pseudo)
		}
	}
	return pseudos, nil
}

// SaveSelection replaces the selection of a match with pseudos.
func (service *Service) SaveSelection(ctx context.Context, matchID string, pseudos []string) (err error) {
	defer mon.Task()(&ctx)(&err)

	if _, err := service.Match(matchID); err != nil {
		return err
	}

	if _, err := service.session.DeleteWhere(ctx, sheetdb.TableSelections, "match_id", matchID); err != nil {
		return Error.Wrap(err)
	}
	seen := make(map[string]bool, len(pseudos))
	for _, pseudo := range pseudos {
		pseudo = strings.TrimSpace(pseudo)
		if pseudo == "" || seen[pseudo] {
			continue
		}
		seen[pseudo] = true
		err := service.session.Append(ctx, sheetdb.TableSelections, sheetdb.Record{
			"match_id": matchID,
			"pseudo":   pseudo,
		})
		if err != nil {
			return Error.Wrap(err)
		}
	}
	service.log.Info("selection saved", zap.String("match", matchID), zap.Int("players", len(seen)))
	return nil
}
