package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultTimezone = "Asia/Shanghai"

// Scheduler fires flows on their cron schedules in one timezone.
type Scheduler struct {
	cron   *cron.Cron
	b      *Broadcaster
	logger *slog.Logger
	flows  []Flow
	ids    map[string]cron.EntryID

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler registers every flow with the cron table. An invalid schedule
// or a duplicate flow name fails construction.
func NewScheduler(b *Broadcaster, loc *time.Location, logger *slog.Logger, flows ...Flow) (*Scheduler, error) {
	if b == nil {
		return nil, fmt.Errorf("broadcaster is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", DefaultTimezone, err)
		}
	}
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		b:      b,
		logger: logger,
		ctx:    context.Background(),
		ids:    map[string]cron.EntryID{},
	}
	seen := map[string]bool{}
	for _, flow := range flows {
		name := strings.TrimSpace(flow.Name)
		if name == "" {
			return nil, fmt.Errorf("flow name is required")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate flow %q", name)
		}
		seen[name] = true
		flow := flow
		id, err := s.cron.AddFunc(flow.Schedule, func() { s.fire(flow) })
		if err != nil {
			return nil, fmt.Errorf("flow %s: invalid schedule %q: %w", name, flow.Schedule, err)
		}
		s.ids[name] = id
		s.flows = append(s.flows, flow)
		logger.Info("broadcast_flow_scheduled", "flow", name, "schedule", flow.Schedule, "timezone", loc.String())
	}
	return s, nil
}

// Flow looks up a scheduled flow by name.
func (s *Scheduler) Flow(name string) (Flow, bool) {
	for _, f := range s.flows {
		if f.Name == name {
			return f, true
		}
	}
	return Flow{}, false
}

func (s *Scheduler) Flows() []Flow {
	return append([]Flow(nil), s.flows...)
}

// Next reports the next fire time of every flow, keyed by name. Times are
// zero until Run has started the cron loop.
func (s *Scheduler) Next() map[string]time.Time {
	out := make(map[string]time.Time, len(s.ids))
	for name, id := range s.ids {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

// Run starts the cron loop and blocks until ctx is done, then waits for
// running ticks to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("broadcast_scheduler_started", "flows", len(s.flows))
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("broadcast_scheduler_stopped")
	return nil
}

func (s *Scheduler) fire(flow Flow) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	s.b.Tick(ctx, flow)
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron_"+strings.ReplaceAll(msg, " ", "_"), keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]any{"error", fmt.Sprint(err)}, keysAndValues...)
	l.logger.Error("cron_"+strings.ReplaceAll(msg, " ", "_"), args...)
}
