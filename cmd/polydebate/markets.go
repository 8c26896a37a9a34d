package main

import (
	"github.com/polydebate/frontend/internal/feed"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/spf13/cobra"
)

func newMarketsCmd(a *app) *cobra.Command {
	var (
		filter feed.Filter
		pages  int
	)
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List prediction markets",
		Long: `List markets, optionally filtered by category, tag or search term.

Categories breaking, trending and new are curated listings; a search term on
them filters the listed markets locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.markets.Feed(cliSessionID)
			f.SetFilter(filter)
			for i := 0; i < pages; i++ {
				if _, err := f.LoadMore(cmd.Context()); err != nil {
					return err
				}
				if !f.Snapshot().HasMore {
					break
				}
			}

			snap := f.Snapshot()
			items := snap.Items
			if snap.Filter.Category == polydebate.CategoryBreaking {
				items = feed.RankBreakingItems(items, a.markets.BreakingTopN)
			}
			favorites := a.favorites.Set(cmd.Context(), a.sess)
			renderMarkets(cmd.OutOrStdout(), feed.Views(items, favorites))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter.Category, "category", "c", "", "category slug (breaking, trending, new, or a tag category)")
	cmd.Flags().StringVarP(&filter.TagID, "tag", "t", "", "tag id")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search term")
	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load")
	return cmd
}

func newBreakingCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "breaking",
		Short: "Markets with the largest 24h moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			markets, err := a.markets.Breaking(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]feed.MarketView, len(markets))
			for i, m := range markets {
				views[i] = feed.NewMarketView(m, false)
			}
			renderMarkets(cmd.OutOrStdout(), views)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", feed.DefaultBreakingTopN, "number of markets")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the AI models available for debates",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := a.markets.Models(cmd.Context())
			if err != nil {
				return err
			}
			renderModels(cmd.OutOrStdout(), catalogue)
			return nil
		},
	}
}
