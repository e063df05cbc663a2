package cmd

import (
	"fmt"
	"strconv"

	"chesswager/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.MigrateUp(databaseURL(cfg))
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid steps %q", args[0])
			}
			steps = n
		}
		return database.MigrateDown(databaseURL(cfg), steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := database.MigrateStatus(databaseURL(cfg))
		if err != nil {
			return err
		}
		if !status.Applied {
			fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d, Dirty: %t\n", status.Version, status.Dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
