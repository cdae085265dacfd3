package telegram

import (
	"testing"
	"time"
)

func TestResolveRuntimeOptions(t *testing.T) {
	got := resolveRuntimeOptions(RunOptions{
		BotToken:       " token ",
		BaseURL:        " http://127.0.0.1:8081/ ",
		AllowedChatIDs: []int64{1, 0, 1, -2},
		PollTimeout:    45 * time.Second,
		TaskTimeout:    2 * time.Minute,
		Synchronous:    true,
	})
	if got.BotToken != "token" {
		t.Fatalf("bot token = %q, want token", got.BotToken)
	}
	if got.BaseURL != "http://127.0.0.1:8081" {
		t.Fatalf("base url = %q", got.BaseURL)
	}
	if len(got.AllowedChatIDs) != 2 || got.AllowedChatIDs[0] != 1 || got.AllowedChatIDs[1] != -2 {
		t.Fatalf("allowed chat ids = %#v, want [1 -2]", got.AllowedChatIDs)
	}
	if got.PollTimeout != 45*time.Second || got.TaskTimeout != 2*time.Minute {
		t.Fatalf("timeouts not preserved: %#v", got)
	}
	if !got.Synchronous || got.Offline {
		t.Fatalf("boolean run options should be preserved: %#v", got)
	}
}

func TestNormalizeRuntimeOptionsDefaults(t *testing.T) {
	got := normalizeRuntimeOptions(runtimeOptions{})
	if got.BaseURL != defaultBaseURL {
		t.Fatalf("base url = %q, want %q", got.BaseURL, defaultBaseURL)
	}
	if got.PollTimeout != 30*time.Second {
		t.Fatalf("poll timeout = %v, want 30s", got.PollTimeout)
	}
	if got.TaskTimeout != 10*time.Minute {
		t.Fatalf("task timeout = %v, want 10m", got.TaskTimeout)
	}
	if got.TypingInterval != 4*time.Second {
		t.Fatalf("typing interval = %v, want 4s", got.TypingInterval)
	}
	if got.AllowedChatIDs != nil {
		t.Fatalf("allowed chat ids = %#v, want nil", got.AllowedChatIDs)
	}
}
