// Package broadcast generates scheduled posts and fans them out to every
// allow-listed chat.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Post is one generated broadcast: either Text, or PhotoURL with Caption.
type Post struct {
	Text     string
	PhotoURL string
	Caption  string
}

func (p Post) IsPhoto() bool {
	return strings.TrimSpace(p.PhotoURL) != ""
}

func (p Post) Empty() bool {
	return strings.TrimSpace(p.Text) == "" && !p.IsPhoto()
}

// Flow is one scheduled broadcast. Generate runs once per tick, before any
// delivery.
type Flow struct {
	Name     string
	Schedule string
	Generate func(ctx context.Context) (Post, error)
}

type Deliverer interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
}

type Recipients interface {
	IDs() []int64
}

type TickOutcome int

const (
	TickDelivered TickOutcome = iota
	TickSkipped
	TickGenerateError
	TickDeliveryError
)

func (o TickOutcome) String() string {
	switch o {
	case TickDelivered:
		return "delivered"
	case TickSkipped:
		return "skipped"
	case TickGenerateError:
		return "generate_error"
	case TickDeliveryError:
		return "delivery_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type TickResult struct {
	ID           string
	Flow         string
	Outcome      TickOutcome
	SkipReason   string
	Err          error
	Delivered    int
	Failed       int
	AlertMessage string
}

var (
	ErrEmptyPost     = errors.New("generated post is empty")
	errAllDeliveries = errors.New("no recipient received the post")
)

type Options struct {
	// SendRate is outbound messages per second; <= 0 means unlimited.
	SendRate  float64
	SendBurst int
}

type Broadcaster struct {
	deliverer  Deliverer
	recipients Recipients
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu     sync.Mutex
	states map[string]*State
}

func New(deliverer Deliverer, recipients Recipients, logger *slog.Logger, opts Options) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if opts.SendRate > 0 {
		limit = rate.Limit(opts.SendRate)
	}
	burst := opts.SendBurst
	if burst <= 0 {
		burst = 1
	}
	return &Broadcaster{
		deliverer:  deliverer,
		recipients: recipients,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		states:     map[string]*State{},
	}
}

// State returns the tick state of the named flow.
func (b *Broadcaster) State(flow string) *State {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[flow]
	if !ok {
		st = &State{}
		b.states[flow] = st
	}
	return st
}

// Tick generates one post for flow and delivers it to every recipient in
// order. A failed delivery is logged and does not stop the others.
func (b *Broadcaster) Tick(ctx context.Context, flow Flow) TickResult {
	result := TickResult{ID: uuid.NewString(), Flow: flow.Name}
	logger := b.logger.With("flow", flow.Name, "tick_id", result.ID)
	if flow.Generate == nil || b.deliverer == nil {
		result.Outcome = TickSkipped
		result.SkipReason = "invalid_config"
		logger.Warn("broadcast_skipped", "reason", result.SkipReason)
		return result
	}

	state := b.State(flow.Name)
	if !state.Start() {
		result.Outcome = TickSkipped
		result.SkipReason = "already_running"
		logger.Info("broadcast_skipped", "reason", result.SkipReason)
		return result
	}

	var recipients []int64
	if b.recipients != nil {
		recipients = b.recipients.IDs()
	}
	if len(recipients) == 0 {
		state.EndSkipped()
		result.Outcome = TickSkipped
		result.SkipReason = "no_recipients"
		logger.Warn("broadcast_skipped", "reason", result.SkipReason)
		return result
	}

	start := time.Now()
	logger.Info("broadcast_tick_start", "recipients", len(recipients))
	post, err := flow.Generate(ctx)
	if err == nil && post.Empty() {
		err = ErrEmptyPost
	}
	if err != nil {
		result.Outcome = TickGenerateError
		result.Err = err
		logger.Error("broadcast_generate_failed", "error", err.Error())
		b.fail(logger, state, flow.Name, &result)
		return result
	}

	for _, chatID := range recipients {
		if err := b.limiter.Wait(ctx); err != nil {
			logger.Warn("broadcast_interrupted", "error", err.Error(), "delivered", result.Delivered)
			result.Failed += len(recipients) - result.Delivered - result.Failed
			break
		}
		if err := b.deliver(ctx, chatID, post); err != nil {
			result.Failed++
			logger.Error("broadcast_delivery_failed", "chat_id", chatID, "error", err.Error())
			continue
		}
		result.Delivered++
		logger.Debug("broadcast_delivered", "chat_id", chatID)
	}

	logger.Info("broadcast_tick_done",
		"delivered", result.Delivered,
		"failed", result.Failed,
		"duration", time.Since(start).String(),
	)
	if result.Delivered == 0 {
		result.Outcome = TickDeliveryError
		result.Err = errAllDeliveries
		b.fail(logger, state, flow.Name, &result)
		return result
	}
	state.EndSuccess(time.Now())
	result.Outcome = TickDelivered
	return result
}

func (b *Broadcaster) deliver(ctx context.Context, chatID int64, post Post) error {
	if post.IsPhoto() {
		return b.deliverer.SendPhoto(ctx, chatID, post.PhotoURL, post.Caption)
	}
	return b.deliverer.SendText(ctx, chatID, post.Text)
}

func (b *Broadcaster) fail(logger *slog.Logger, state *State, flow string, result *TickResult) {
	alert, msg := state.EndFailure(flow, result.Err)
	if alert {
		result.AlertMessage = msg
		logger.Error("broadcast_alert", "message", msg)
	}
}
