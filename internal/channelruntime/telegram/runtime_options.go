package telegram

import (
	"net/http"
	"strings"
	"time"
)

type RunOptions struct {
	BotToken       string
	BaseURL        string
	AllowedChatIDs []int64
	PollTimeout    time.Duration
	TaskTimeout    time.Duration
	TypingInterval time.Duration
	// Offline skips the getMe handshake. Synchronous runs handlers on the
	// poller goroutine instead of one goroutine per update. Both exist for
	// tests.
	Offline     bool
	Synchronous bool
	HTTPClient  *http.Client
}

type runtimeOptions struct {
	BotToken       string
	BaseURL        string
	AllowedChatIDs []int64
	PollTimeout    time.Duration
	TaskTimeout    time.Duration
	TypingInterval time.Duration
	Offline        bool
	Synchronous    bool
	HTTPClient     *http.Client
}

const defaultBaseURL = "https://api.telegram.org"

func resolveRuntimeOptions(opts RunOptions) runtimeOptions {
	return normalizeRuntimeOptions(runtimeOptions{
		BotToken:       opts.BotToken,
		BaseURL:        opts.BaseURL,
		AllowedChatIDs: opts.AllowedChatIDs,
		PollTimeout:    opts.PollTimeout,
		TaskTimeout:    opts.TaskTimeout,
		TypingInterval: opts.TypingInterval,
		Offline:        opts.Offline,
		Synchronous:    opts.Synchronous,
		HTTPClient:     opts.HTTPClient,
	})
}

func normalizeRuntimeOptions(opts runtimeOptions) runtimeOptions {
	opts.BotToken = strings.TrimSpace(opts.BotToken)
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	opts.AllowedChatIDs = normalizeAllowedChatIDs(opts.AllowedChatIDs)

	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 10 * time.Minute
	}
	if opts.TypingInterval <= 0 {
		opts.TypingInterval = 4 * time.Second
	}
	return opts
}

func normalizeAllowedChatIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
