package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter/tw"
	"github.com/polydebate/frontend/internal/feed"
	"github.com/polydebate/frontend/internal/models"
	"github.com/spf13/cobra"
)

const favoritesPageSize = 20

func newFavoritesCmd(a *app) *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List your bookmarked markets",
		RunE: func(cmd *cobra.Command, args []string) error {
			markets, list, err := a.favorites.Markets(cmd.Context(), a.sess, favoritesPageSize, offset)
			if err != nil {
				return err
			}
			views := make([]feed.MarketView, len(markets))
			for i, m := range markets {
				views[i] = feed.NewMarketView(m, true)
			}
			out := cmd.OutOrStdout()
			renderMarkets(out, views)
			if list.Total > offset+len(list.Favorites) {
				fmt.Fprintln(out, dim(fmt.Sprintf("%d of %d shown, use --offset %d for more", offset+len(list.Favorites), list.Total, offset+favoritesPageSize)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many favorites")
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <market-id>",
		Short: "Add or remove a market bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := a.favorites.Toggle(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}
			if on {
				fmt.Fprintf(cmd.OutOrStdout(), "★ %s added to favorites\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed from favorites\n", args[0])
			}
			return nil
		},
	})
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and debate history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := a.profile.Profile(ctx, a.sess)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			u := profile.User
			fmt.Fprintf(out, "%s <%s>\n", bold(u.Name), u.Email)
			fmt.Fprintf(out, "%d tokens remaining\n\n", u.TokensRemaining)

			stats := profile.Statistics
			fmt.Fprintf(out, "Debates: %d  Favorites: %d\n", stats.TotalDebates, stats.TotalFavorites)
			renderCounts(out, "Favorite models", stats.FavoriteModels)
			renderCounts(out, "Favorite categories", stats.FavoriteCategories)

			debates, err := a.profile.Debates(ctx, a.sess, sort, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			renderDebateList(out, debates.Debates)
			return nil
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "recent", "debate order: recent or rounds")

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <name>",
		Short: "Change your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.profile.UpdateName(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Name changed to %s\n", bold(user.Name))
			return nil
		},
	})
	return cmd
}

func renderCounts(w io.Writer, title string, counts []models.NamedCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w)
	table := newTable(w, tw.AlignLeft, tw.AlignRight)
	table.Header(title, "Debates")
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Name, fmt.Sprint(c.Count)})
	}
	_ = table.Bulk(rows)
	_ = table.Render()
}
