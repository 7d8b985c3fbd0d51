package cli

import (
	"fmt"

	"certprep/pkg/logger"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd shows or clears the recorded run history.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "List recorded quiz runs, best first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}
			board, closeStore, err := openLeaderboard(cmd.Context(), cfg, logger.Named("leaderboard"))
			if err != nil {
				return err
			}
			defer closeStore()
			printEntries(cmd.OutOrStdout(), board.List(cmd.Context()))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}
			board, closeStore, err := openLeaderboard(cmd.Context(), cfg, logger.Named("leaderboard"))
			if err != nil {
				return err
			}
			defer closeStore()
			if err := board.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Leaderboard cleared.")
			return nil
		},
	})
	return cmd
}
