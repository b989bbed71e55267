package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meleemajors/meleemajors/internal/logger"
	"github.com/meleemajors/meleemajors/internal/rankings"
	"github.com/meleemajors/meleemajors/internal/storage"
)

var flagRankingsURL string

func newRankingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Refresh the ranked player list from the SSBMRank page",
		Args:  cobra.NoArgs,
		RunE:  runRankings,
	}
	cmd.Flags().StringVar(&flagRankingsURL, "url", rankings.DefaultURL, "Ranking page URL")
	return cmd
}

func runRankings(cmd *cobra.Command, args []string) error {
	log := logger.Default()

	store, err := storage.New(flagDataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	existing, err := store.LoadRankedPlayers()
	if err != nil {
		return err
	}

	fresh, err := rankings.NewFetcher(flagRankingsURL, log).Fetch(cmd.Context())
	if errors.Is(err, rankings.ErrNoRankingTable) {
		log.Warning("rankings", "no ranking table found, player list unchanged", logger.Fields{"url": flagRankingsURL})
		return nil
	}
	if err != nil {
		return err
	}

	merged := rankings.Merge(existing, fresh)
	if err := store.SaveRankedPlayers(merged); err != nil {
		return err
	}
	log.Success("rankings", "updated ranked players", logger.Fields{
		"ranked": len(fresh),
		"total":  len(merged),
	})
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s with %d ranked players (%d total)\n", store.Path(storage.PlayersFile), len(fresh), len(merged))
	return nil
}
