package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/quailyquaily/justdoit/internal/allowlist"
	"github.com/quailyquaily/justdoit/internal/broadcast"
	"github.com/quailyquaily/justdoit/internal/channelruntime/telegram"
	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/internal/logutil"
	"github.com/quailyquaily/justdoit/tools"
)

func newTelegramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Serve bot commands and run the scheduled broadcasts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newAppFromViper(cmd)
			if err != nil {
				return err
			}
			var sched *broadcast.Scheduler
			if noBroadcast, _ := cmd.Flags().GetBool("no-broadcast"); noBroadcast {
				app.logger.Info("broadcast_disabled", "reason", "--no-broadcast")
			} else if sched, err = app.scheduler(); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return app.runtime.Run(gctx) })
			if sched != nil {
				g.Go(func() error { return sched.Run(gctx) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().StringArray("allowed-chat-id", nil, "Allowed chat id (repeatable, or comma separated).")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout.")
	cmd.Flags().Duration("telegram-task-timeout", 10*time.Minute, "Per-command timeout.")
	cmd.Flags().Bool("no-broadcast", false, "Serve commands only; do not schedule broadcasts.")
	return cmd
}

// app is everything a serving process needs, built from configuration.
type app struct {
	logger        *slog.Logger
	collaborators collaborators
	content       content.Pack
	registry      *tools.Registry
	runtime       *telegram.Runtime
}

func newAppFromViper(cmd *cobra.Command) (*app, error) {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	pack, err := contentFromViper()
	if err != nil {
		return nil, err
	}
	allowed, err := allowlist.ParseIDs(flagOrViperStringArray(cmd, "allowed-chat-id", "telegram.allowed_chat_ids"))
	if err != nil {
		return nil, fmt.Errorf("telegram.allowed_chat_ids: %w", err)
	}

	collab := collaboratorsFromViper(logger)
	reg := registryFromViper(logger, collab, pack)
	rt, err := telegram.New(telegram.Dependencies{
		Logger:   func() (*slog.Logger, error) { return logger, nil },
		Registry: func() *tools.Registry { return reg },
		Content:  func() content.Pack { return pack },
	}, telegram.RunOptions{
		BotToken:       flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"),
		BaseURL:        viper.GetString("telegram.base_url"),
		AllowedChatIDs: allowed,
		PollTimeout:    flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout"),
		TaskTimeout:    flagOrViperDuration(cmd, "telegram-task-timeout", "telegram.task_timeout"),
	})
	if err != nil {
		return nil, err
	}
	return &app{
		logger:        logger,
		collaborators: collab,
		content:       pack,
		registry:      reg,
		runtime:       rt,
	}, nil
}

func (a *app) broadcaster() *broadcast.Broadcaster {
	return broadcast.New(a.runtime.Sender(), a.runtime.Allowlist(), a.logger.With("component", "broadcast"), broadcastOptionsFromViper())
}

func (a *app) scheduler() (*broadcast.Scheduler, error) {
	loc, err := time.LoadLocation(viper.GetString("broadcast.timezone"))
	if err != nil {
		return nil, fmt.Errorf("broadcast.timezone: %w", err)
	}
	return broadcast.NewScheduler(a.broadcaster(), loc, a.logger, flowsFromViper(a.logger, a.collaborators, a.content)...)
}
