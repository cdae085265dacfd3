package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quailyquaily/justdoit/internal/broadcast"
)

func newBroadcastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "broadcast <flow>",
		Short:     "Run one broadcast tick now (commentary or poster)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{broadcast.CommentaryFlowName, broadcast.PosterFlowName},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newAppFromViper(cmd)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			var flow *broadcast.Flow
			for _, f := range flowsFromViper(app.logger, app.collaborators, app.content) {
				if f.Name == name {
					f := f
					flow = &f
					break
				}
			}
			if flow == nil {
				return fmt.Errorf("flow %q is unknown, disabled or missing its credentials", name)
			}

			res := app.broadcaster().Tick(ctx, *flow)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s tick %s: %s (delivered=%d failed=%d)\n",
				res.Flow, res.ID, res.Outcome, res.Delivered, res.Failed)
			switch res.Outcome {
			case broadcast.TickDelivered:
				return nil
			case broadcast.TickSkipped:
				return fmt.Errorf("skipped: %s", res.SkipReason)
			default:
				return res.Err
			}
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().StringArray("allowed-chat-id", nil, "Recipient chat id (repeatable, or comma separated).")
	return cmd
}
