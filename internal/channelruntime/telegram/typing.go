package telegram

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v3"
)

// startTypingTicker keeps the typing indicator visible until the returned
// func is called or ctx ends.
func startTypingTicker(ctx context.Context, c tele.Context, interval time.Duration) func() {
	if c == nil || c.Chat() == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = 4 * time.Second
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		_ = c.Notify(tele.Typing)
		for {
			select {
			case <-ticker.C:
				_ = c.Notify(tele.Typing)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
		<-stopped
	}
}
