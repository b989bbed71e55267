package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meleemajors/meleemajors/internal/startgg"
	"github.com/meleemajors/meleemajors/internal/storage"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Print the featured-players GraphQL query for the ranked player list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(flagDataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			ranked, err := store.LoadRankedPlayers()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), startgg.FeaturedPlayersQuery(ranked))
			return nil
		},
	}
}
