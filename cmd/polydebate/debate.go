package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter/tw"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/spf13/cobra"
)

func newDebateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate",
		Short: "Start, inspect and control debates",
	}
	cmd.AddCommand(
		newDebateStartCmd(a),
		newDebateShowCmd(a),
		newDebateListCmd(a),
		newDebateControlCmd(a, "pause", "Pause a running debate"),
		newDebateControlCmd(a, "resume", "Resume a paused debate"),
		newDebateControlCmd(a, "stop", "Stop a debate early"),
	)
	return cmd
}

func newDebateStartCmd(a *app) *cobra.Command {
	var (
		modelIDs []string
		rounds   int
		watch    bool
	)
	cmd := &cobra.Command{
		Use:     "start <market-id>",
		Short:   "Start a debate on a market",
		Example: `  polydebate debate start 516710 --models openai/gpt-4o,anthropic/claude-3.5-sonnet --rounds 3 --watch`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debate, err := a.debates.Start(cmd.Context(), a.sess, models.StartDebateRequest{
				MarketID: args[0],
				ModelIDs: modelIDs,
				Rounds:   rounds,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Debate %s created (%s)\n", bold(debate.DebateID), debate.Status)
			if !watch {
				fmt.Fprintf(out, "Follow it with: polydebate watch %s\n", debate.DebateID)
				return nil
			}
			return a.watch(cmd, debate.DebateID)
		},
	}
	cmd.Flags().StringSliceVarP(&modelIDs, "models", "m", nil, "comma-separated model ids (at most 10)")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 3, "number of rounds (1 to 10)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "follow the debate live once created")
	_ = cmd.MarkFlagRequired("models")
	return cmd
}

func newDebateShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <debate-id>",
		Short: "Show a debate transcript or its results report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.debates.View(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}
			renderDebate(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func newDebateControlCmd(a *app, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <debate-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.debates.Control(cmd.Context(), a.sess, args[0], action)
			if err != nil {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = "status " + string(res.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.DebateID, msg)
			return nil
		},
	}
}

func newDebateListCmd(a *app) *cobra.Command {
	var marketID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent debates",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.debates.List(cmd.Context(), marketID)
			if err != nil {
				return err
			}
			renderDebateList(cmd.OutOrStdout(), list.Debates)
			return nil
		},
	}
	cmd.Flags().StringVar(&marketID, "market", "", "only debates on this market")
	return cmd
}

func renderDebateList(w io.Writer, debates []models.DebateListItem) {
	if len(debates) == 0 {
		fmt.Fprintln(w, dim("No debates yet."))
		return
	}
	table := newTable(w, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft)
	table.Header("Debate", "Market", "Status", "Models", "Rounds", "Created")
	rows := make([][]string, 0, len(debates))
	for _, d := range debates {
		rows = append(rows, []string{
			d.DebateID,
			truncate(d.MarketQuestion, 50),
			string(d.Status),
			fmt.Sprint(d.ModelsCount),
			fmt.Sprint(d.Rounds),
			d.CreatedAt,
		})
	}
	_ = table.Bulk(rows)
	_ = table.Render()
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <debate-id>",
		Short: "Follow a debate live",
		Long: `Follow a debate live as the models respond.

Opening the stream drives the debate forward on the backend, so a pending
debate starts running once it is watched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd, args[0])
		},
	}
}

func (a *app) watch(cmd *cobra.Command, id string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, dim(strings.Repeat("-", 40)))
	err := a.api.WithTokens(a.sess).StreamDebate(cmd.Context(), id, func(ev polydebate.Event) error {
		if renderEvent(out, ev) {
			return polydebate.ErrStopStream
		}
		return nil
	})
	if err != nil && cmd.Context().Err() != nil {
		fmt.Fprintln(out, dim("Stopped watching."))
		return nil
	}
	return err
}
