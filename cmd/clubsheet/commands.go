// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/clubsheet/club"
	"storj.io/clubsheet/sheetdb"
	"storj.io/clubsheet/sheetdb/boltsheet"
	"storj.io/clubsheet/sheetdb/gsheets"
	"storj.io/clubsheet/sheetdb/memsheet"
	"storj.io/clubsheet/sheetdb/sheetlogger"
	"storj.io/clubsheet/sheetdb/snapshot"
	"storj.io/common/process"
)

// openSpreadsheet opens the spreadsheet named by config.Spreadsheet. The
// returned done func releases local resources.
func openSpreadsheet(ctx context.Context, log *zap.Logger, config Config) (_ sheetdb.Spreadsheet, done func() error, err error) {
	nop := func() error { return nil }

	switch {
	case config.Spreadsheet == "":
		return nil, nil, errs.New("no spreadsheet configured")

	case strings.HasPrefix(config.Spreadsheet, "bolt://"):
		ss, err := boltsheet.Open(log.Named("bolt"), strings.TrimPrefix(config.Spreadsheet, "bolt://"))
		if err != nil {
			return nil, nil, err
		}
		return sheetlogger.New(log.Named("sheets"), ss), ss.Close, nil

	case config.Spreadsheet == "mem://":
		return sheetlogger.New(log.Named("sheets"), memsheet.New()), nop, nil

	default:
		payload, err := gsheets.ResolveCredentials(config.GSheets.Credentials)
		if err != nil {
			return nil, nil, err
		}
		provider := gsheets.NewProvider(log.Named("gsheets"), config.GSheets, nil)
		_, ss, err := provider.Connect(ctx, payload, config.Spreadsheet)
		if err != nil {
			return nil, nil, err
		}
		return sheetlogger.New(log.Named("sheets"), ss), nop, nil
	}
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	ss, closeSpreadsheet, err := openSpreadsheet(ctx, log, runCfg)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, closeSpreadsheet()) }()

	session, err := sheetdb.Open(ctx, log.Named("sheetdb"), ss, runCfg.Remote)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, session.Close()) }()

	return fn(ctx, log, session)
}

func withService(cmd *cobra.Command, fn func(ctx context.Context, service *club.Service) error) error {
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		return fn(ctx, club.NewService(log.Named("club"), session))
	})
}

// parseAssignments parses column=value arguments.
func parseAssignments(args []string) (sheetdb.Record, error) {
	record := make(sheetdb.Record, len(args))
	for _, arg := range args {
		column, value, ok := strings.Cut(arg, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, errs.New("expected column=value, got %q", arg)
		}
		record[column] = value
	}
	return record, nil
}

func printTable(w io.Writer, table *sheetdb.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Columns, "\t"))
	for i := range table.Rows {
		cells := make([]string, len(table.Columns))
		for k, column := range table.Columns {
			cells[k] = table.Value(i, column).String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func cmdTables(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TABLE\tROWS\tCOLUMNS")
		for _, name := range sheetdb.TableNames() {
			table, err := session.Table(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", name, table.Len(), strings.Join(table.Columns, ","))
		}
		return tw.Flush()
	})
}

func cmdDump(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		table, err := session.Table(args[0])
		if err != nil {
			return err
		}
		return printTable(cmd.OutOrStdout(), table)
	})
}

func cmdAppend(cmd *cobra.Command, args []string) error {
	record, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		return session.Append(ctx, args[0], record)
	})
}

func cmdUpdate(cmd *cobra.Command, args []string) error {
	updates, err := parseAssignments(args[3:])
	if err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		n, err := session.Update(ctx, args[0], args[1], args[2], updates)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) updated\n", n)
		return err
	})
}

func cmdDelete(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		n, err := session.DeleteWhere(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) deleted\n", n)
		return err
	})
}

func cmdSnapshot(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, log *zap.Logger, session *sheetdb.Session) error {
		tables, err := session.Tables()
		if err != nil {
			return err
		}
		if err := snapshot.Write(ctx, args[0], tables); err != nil {
			return err
		}
		log.Info("snapshot written", zap.String("path", args[0]))
		return nil
	})
}

func cmdLogin(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		user, err := service.Authenticate(args[0], args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", user.Name(), user.Pseudo, user.Roles)
		return err
	})
}

func cmdUserAdd(cmd *cobra.Command, args []string) error {
	roles, err := club.ParseRoles(args[2])
	if err != nil {
		return err
	}
	create := club.NewUser{Pseudo: args[0], Password: args[1], Roles: roles}
	if len(args) > 3 {
		create.DisplayName = args[3]
	}
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		_, err := service.CreateUser(ctx, create)
		return err
	})
}

func cmdUserDelete(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		return service.DeleteUser(ctx, args[0], args[1])
	})
}

func cmdMatchCreate(cmd *cobra.Command, args []string) error {
	date, err := civil.ParseDate(args[0])
	if err != nil {
		return club.ErrValidation.New("invalid date %q, expected YYYY-MM-DD", args[0])
	}
	competition, err := club.ParseCompetitionType(args[1])
	if err != nil {
		return err
	}
	create := club.NewMatch{Date: date, CompetitionType: competition, Team: args[2], OpponentClub: args[3]}
	if len(args) > 4 {
		create.Location = args[4]
	}
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		match, err := service.CreateMatch(ctx, create)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), match.ID)
		return err
	})
}

func cmdMatchResult(cmd *cobra.Command, args []string) error {
	status, err := club.ParseMatchStatus(args[1])
	if err != nil {
		return err
	}
	var result club.Result
	if len(args) > 3 {
		if result, err = club.ParseResult(args[3]); err != nil {
			return err
		}
	}
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		return service.RecordResult(ctx, args[0], status, args[2], result)
	})
}

func cmdAvailability(cmd *cobra.Command, args []string) error {
	status, err := club.ParseAvailability(args[2])
	if err != nil {
		return err
	}
	var comment string
	if len(args) > 3 {
		comment = args[3]
	}
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		return service.SetAvailability(ctx, args[0], args[1], status, comment)
	})
}

func cmdReport(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		report, err := service.AvailabilityReport(args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PLAYER\tRESPONSE\tCOMMENT")
		for _, response := range report.Responses {
			status := string(response.Status)
			if status == "" {
				status = "⏳ No response"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", response.Pseudo, status, response.Comment)
		}
		fmt.Fprintf(tw, "\navailable %d, unavailable %d, maybe %d, no response %d\n",
			report.Counts[club.Available], report.Counts[club.Unavailable], report.Counts[club.Maybe], report.NoResponse)
		return tw.Flush()
	})
}

func cmdSelect(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		return service.SaveSelection(ctx, args[0], args[1:])
	})
}

func cmdStats(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, service *club.Service) error {
		stats, err := service.Stats()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "played\t%d\nwins\t%d\nlosses\t%d\ndraws\t%d\nwin rate\t%d%%\n\n",
			stats.Played, stats.Wins, stats.Losses, stats.Draws, stats.WinRate())
		fmt.Fprintln(tw, "OPPONENT\tPLAYED\tWINS\tLOSSES\tDRAWS")
		for _, opponent := range stats.Opponents {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", opponent.Club, opponent.Played, opponent.Wins, opponent.Losses, opponent.Draws)
		}
		fmt.Fprintln(tw, "\nPLAYER\tSELECTIONS")
		for _, player := range stats.Participation {
			fmt.Fprintf(tw, "%s\t%d\n", player.Pseudo, player.Selections)
		}
		return tw.Flush()
	})
}
