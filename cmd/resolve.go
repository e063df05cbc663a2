package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"chesswager/models"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <wager-id>",
	Short: "Locate the game for a wager and settle it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wagerID, err := parseWagerID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())

		result, err := a.resolution.ResolveWager(cmd.Context(), wagerID)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var settleCmd = &cobra.Command{
	Use:       "settle <wager-id> <challenger|contender|draw>",
	Short:     "Settle a wager with an explicit outcome",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(models.OutcomeChallenger), string(models.OutcomeContender), string(models.OutcomeDraw)},
	RunE: func(cmd *cobra.Command, args []string) error {
		wagerID, err := parseWagerID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())

		receipt, err := a.settlement.SettleWager(cmd.Context(), wagerID, models.Outcome(args[1]))
		if err != nil {
			return err
		}
		return printJSON(cmd, receipt)
	},
}

func parseWagerID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid wager id %q", arg)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
