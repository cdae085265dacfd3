// Package telegram serves the bot's command surface over the Telegram Bot API
// and delivers broadcasts to chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/quailyquaily/justdoit/internal/allowlist"
	"github.com/quailyquaily/justdoit/internal/boterr"
	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/tools"
)

// Runtime owns the telebot instance and its handlers.
type Runtime struct {
	bot        *tele.Bot
	dispatcher *tools.Dispatcher
	allow      allowlist.Set
	content    content.Pack
	logger     *slog.Logger
	opts       runtimeOptions

	inflight sync.WaitGroup
	mu       sync.Mutex
	ctx      context.Context
}

// New builds the bot and registers /start, /help, one command per tool and
// the text fallback, all behind the allow-list.
func New(d Dependencies, opts RunOptions) (*Runtime, error) {
	o := resolveRuntimeOptions(opts)
	if o.BotToken == "" {
		return nil, boterr.MissingConfig("telegram.bot_token", "set BOT_TOKEN or JUSTDOIT_TELEGRAM_BOT_TOKEN")
	}
	logger, err := loggerFromDeps(d)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		dispatcher: tools.NewDispatcher(registryFromDeps(d), logger),
		allow:      allowlist.New(o.AllowedChatIDs...),
		content:    contentFromDeps(d),
		logger:     logger,
		opts:       o,
		ctx:        context.Background(),
	}
	if r.allow.Len() == 0 {
		logger.Warn("telegram_allowlist_empty", "hint", "no chat will be served; set telegram.allowed_chat_ids")
	}

	settings := tele.Settings{
		URL:         o.BaseURL,
		Token:       o.BotToken,
		Poller:      &tele.LongPoller{Timeout: o.PollTimeout},
		// Handlers are always dispatched by track, so the middleware chain
		// runs on the polling goroutine.
		Synchronous: true,
		Offline:     o.Offline,
		OnError: func(err error, c tele.Context) {
			var chatID int64
			if c != nil && c.Chat() != nil {
				chatID = c.Chat().ID
			}
			logger.Error("telegram_handler_error", "chat_id", chatID, "error", err.Error())
		},
	}
	if o.HTTPClient != nil {
		settings.Client = o.HTTPClient
	}
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	r.bot = bot

	bot.Use(r.track, allowlist.Middleware(r.allow, logger))
	bot.Handle("/start", r.handleStart)
	bot.Handle("/help", r.handleHelp)
	for _, info := range r.dispatcher.Registry().Infos() {
		if info.Name == "start" || info.Name == "help" {
			logger.Warn("telegram_command_shadowed", "tool", info.Name)
			continue
		}
		bot.Handle("/"+info.Name, r.toolHandler(info.Name))
	}
	bot.Handle(tele.OnText, r.handleFallback)

	logger.Info("telegram_runtime_ready",
		"bot", bot.Me.Username,
		"tools", r.dispatcher.Registry().ToolNames(),
		"allowed_chats", r.allow.Len(),
	)
	return r, nil
}

func (r *Runtime) Bot() *tele.Bot { return r.bot }

func (r *Runtime) Allowlist() allowlist.Set { return r.allow }

// Sender returns a broadcast deliverer that shares this runtime's bot.
func (r *Runtime) Sender() *Sender {
	return NewSender(r.bot, r.logger)
}

// HandleUpdate routes one update through the middleware and handlers.
func (r *Runtime) HandleUpdate(u tele.Update) {
	r.bot.ProcessUpdate(u)
}

// Run long-polls until ctx is done, then stops the poller and waits for
// handlers that are still running.
func (r *Runtime) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.bot.Start()
	}()
	r.logger.Info("telegram_polling_started", "poll_timeout", r.opts.PollTimeout.String())

	<-ctx.Done()
	r.bot.Stop()
	<-done
	r.inflight.Wait()
	r.logger.Info("telegram_polling_stopped")
	return nil
}

func (r *Runtime) baseContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx
}

// track counts an update as in flight before it leaves the polling
// goroutine, so Run never waits on a group that can still grow.
func (r *Runtime) track(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		r.inflight.Add(1)
		if r.opts.Synchronous {
			defer r.inflight.Done()
			return next(c)
		}
		go func() {
			defer r.inflight.Done()
			if err := next(c); err != nil {
				r.bot.OnError(err, c)
			}
		}()
		return nil
	}
}

func (r *Runtime) handleStart(c tele.Context) error {
	r.logger.Debug("telegram_start", "chat_id", c.Chat().ID, "from", senderID(c))
	return c.Send(r.content.Bot.Welcome)
}

func (r *Runtime) handleHelp(c tele.Context) error {
	r.logger.Debug("telegram_help", "chat_id", c.Chat().ID, "from", senderID(c))
	return c.Send(RenderHelp(r.content.Bot, r.dispatcher.Registry().Infos()))
}

func (r *Runtime) handleFallback(c tele.Context) error {
	r.logger.Debug("telegram_unknown_command", "chat_id", c.Chat().ID, "from", senderID(c), "text", c.Text())
	return c.Send(r.content.Bot.NotUnderstood)
}

func (r *Runtime) toolHandler(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		var specs []tools.ParameterSpec
		if tool, ok := r.dispatcher.Registry().Get(name); ok {
			specs = tool.Parameters()
		}
		params := ParseCommandParams(c.Message().Payload, specs)
		r.logger.Debug("telegram_command", "chat_id", c.Chat().ID, "from", senderID(c), "tool", name)

		ctx, cancel := context.WithTimeout(r.baseContext(), r.opts.TaskTimeout)
		defer cancel()
		stopTyping := startTypingTicker(ctx, c, r.opts.TypingInterval)
		start := time.Now()
		out, err := r.dispatcher.Invoke(ctx, name, params)
		stopTyping()

		if err != nil {
			r.logger.Warn("telegram_command_failed",
				"chat_id", c.Chat().ID,
				"tool", name,
				"duration", time.Since(start).String(),
				"error", err.Error(),
			)
			return c.Send(r.failureText(err))
		}
		r.logger.Info("telegram_command_done", "chat_id", c.Chat().ID, "tool", name, "duration", time.Since(start).String())
		if strings.TrimSpace(out) == "" {
			out = "(no output)"
		}
		return c.Send(out)
	}
}

func (r *Runtime) failureText(err error) string {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = fmt.Sprintf("timed out after %s", r.opts.TaskTimeout)
	}
	return r.content.Bot.FailurePrefix + msg
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
