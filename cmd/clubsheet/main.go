// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storj.io/clubsheet/sheetdb"
	"storj.io/clubsheet/sheetdb/gsheets"
	"storj.io/common/cfgstruct"
	"storj.io/common/fpath"
	"storj.io/common/process"
)

var (
	rootCmd = &cobra.Command{
		Use:   "clubsheet",
		Short: "Club data stored in a spreadsheet",
	}
	setupCmd = &cobra.Command{
		Use:         "setup",
		Short:       "Create config files",
		RunE:        cmdSetup,
		Annotations: map[string]string{"type": "setup"},
	}
	tablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "Create missing tabs and list every table",
		Args:  cobra.NoArgs,
		RunE:  cmdTables,
	}
	dumpCmd = &cobra.Command{
		Use:   "dump <table>",
		Short: "Print the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdDump,
	}
	appendCmd = &cobra.Command{
		Use:   "append <table> <column=value>...",
		Short: "Append a row to a table",
		Args:  cobra.MinimumNArgs(2),
		RunE:  cmdAppend,
	}
	updateCmd = &cobra.Command{
		Use:   "update <table> <key column> <key value> <column=value>...",
		Short: "Update the first row whose key column matches",
		Args:  cobra.MinimumNArgs(4),
		RunE:  cmdUpdate,
	}
	deleteCmd = &cobra.Command{
		Use:   "delete <table> <column> <value>",
		Short: "Delete every row whose column matches",
		Args:  cobra.ExactArgs(3),
		RunE:  cmdDelete,
	}
	snapshotCmd = &cobra.Command{
		Use:   "snapshot <path>",
		Short: "Write every table to a SQLite file",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdSnapshot,
	}
	loginCmd = &cobra.Command{
		Use:   "login <pseudo> <password>",
		Short: "Check a password and print the account",
		Args:  cobra.ExactArgs(2),
		RunE:  cmdLogin,
	}
	userAddCmd = &cobra.Command{
		Use:   "user-add <pseudo> <password> <roles> [display name]",
		Short: "Create an account",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  cmdUserAdd,
	}
	userDeleteCmd = &cobra.Command{
		Use:   "user-delete <actor> <pseudo>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(2),
		RunE:  cmdUserDelete,
	}
	matchCreateCmd = &cobra.Command{
		Use:   "match-create <date> <competition> <team> <opponent> [location]",
		Short: "Schedule a match",
		Args:  cobra.RangeArgs(4, 5),
		RunE:  cmdMatchCreate,
	}
	matchResultCmd = &cobra.Command{
		Use:   "match-result <match id> <status> <score> [result]",
		Short: "Record the outcome of a match",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  cmdMatchResult,
	}
	availabilityCmd = &cobra.Command{
		Use:   "availability <match id> <pseudo> <available|unavailable|maybe> [comment]",
		Short: "Record a player's availability for a match",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  cmdAvailability,
	}
	reportCmd = &cobra.Command{
		Use:   "report <match id>",
		Short: "Print the availability answers for a match",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdReport,
	}
	selectCmd = &cobra.Command{
		Use:   "select <match id> [pseudo]...",
		Short: "Replace the selection of a match",
		Args:  cobra.MinimumNArgs(1),
		RunE:  cmdSelect,
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print statistics over played matches",
		Args:  cobra.NoArgs,
		RunE:  cmdStats,
	}
	confDir string

	runCfg   Config
	setupCfg Config
)

// Config is the configuration shared by every command.
type Config struct {
	Spreadsheet string `help:"spreadsheet to use: a Google spreadsheet URL or id, bolt://<path> for a local file or mem:// for a scratch copy" default:""`
	Remote      sheetdb.Config
	GSheets     gsheets.Config
}

func cmdSetup(cmd *cobra.Command, args []string) (err error) {
	if setupCfg.Spreadsheet == "" {
		return fmt.Errorf("--spreadsheet is required")
	}

	setupDir, err := filepath.Abs(confDir)
	if err != nil {
		return err
	}

	valid, _ := fpath.IsValidSetupDir(setupDir)
	if !valid {
		return fmt.Errorf("clubsheet configuration already exists (%v)", setupDir)
	}

	err = os.MkdirAll(setupDir, 0700)
	if err != nil {
		return err
	}

	return process.SaveConfig(cmd, filepath.Join(setupDir, "config.yaml"))
}

func init() {
	defaultConfDir := fpath.ApplicationDir("storj", "clubsheet")
	cfgstruct.SetupFlag(zap.L(), rootCmd, &confDir, "config-dir", defaultConfDir, "main directory for clubsheet configuration")
	defaults := cfgstruct.DefaultsFlag(rootCmd)

	rootCmd.AddCommand(setupCmd)
	process.Bind(setupCmd, &setupCfg, defaults, cfgstruct.ConfDir(confDir), cfgstruct.SetupMode())

	for _, cmd := range []*cobra.Command{
		tablesCmd, dumpCmd, appendCmd, updateCmd, deleteCmd, snapshotCmd,
		loginCmd, userAddCmd, userDeleteCmd,
		matchCreateCmd, matchResultCmd, availabilityCmd, reportCmd, selectCmd, statsCmd,
	} {
		rootCmd.AddCommand(cmd)
		process.Bind(cmd, &runCfg, defaults, cfgstruct.ConfDir(confDir))
	}
}

func main() {
	logger, _, _ := process.NewLogger("clubsheet")
	zap.ReplaceGlobals(logger)

	process.Exec(rootCmd)
}
