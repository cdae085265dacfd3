package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/quailyquaily/justdoit/internal/boterr"
	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/providers/azureagent"
	"github.com/quailyquaily/justdoit/tools"
	"github.com/quailyquaily/justdoit/tools/builtin"
)

type apiCall struct {
	Method string
	Params map[string]any
}

// fakeBotAPI answers the Bot API methods the runtime uses and records them.
type fakeBotAPI struct {
	mu       sync.Mutex
	calls    []apiCall
	failChat string
	floods   int
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	params := map[string]any{}
	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, &params)

	if method == "getUpdates" {
		select {
		case <-r.Context().Done():
		case <-time.After(20 * time.Millisecond):
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Params: params})
	failChat := f.failChat
	flood := f.floods > 0
	if flood {
		f.floods--
	}
	f.mu.Unlock()

	if flood {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 0","parameters":{"retry_after":0}}`))
		return
	}

	chatID, _ := params["chat_id"].(string)
	if failChat != "" && chatID == failChat {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendChatAction":
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	case "sendPhoto":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{
			"message_id": 2, "date": 0, "chat": map[string]any{"id": 1, "type": "private"},
			"caption": params["caption"],
			"photo":   []any{map[string]any{"file_id": "f1", "file_unique_id": "u1", "width": 1024, "height": 1024}},
		}})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{
			"message_id": 1, "date": 0, "chat": map[string]any{"id": 1, "type": "private"},
			"text": params["text"],
		}})
	}
}

func (f *fakeBotAPI) FailChat(chatID string) {
	f.mu.Lock()
	f.failChat = chatID
	f.mu.Unlock()
}

// Flood makes the next n calls answer with a 429 flood-control error.
func (f *fakeBotAPI) Flood(n int) {
	f.mu.Lock()
	f.floods = n
	f.mu.Unlock()
}

func (f *fakeBotAPI) Calls(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeAsker struct {
	reply string
	err   error
	calls int
	// gate, when set, holds every Ask until it is closed.
	gate chan struct{}
}

func (a *fakeAsker) Ask(ctx context.Context, _ azureagent.AskRequest) (string, error) {
	a.calls++
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return a.reply, a.err
}

type testEnv struct {
	api     *fakeBotAPI
	runtime *Runtime
	asker   *fakeAsker
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T, asker *fakeAsker, allowed ...int64) *testEnv {
	t.Helper()
	return buildTestEnv(t, asker, true, allowed...)
}

func buildTestEnv(t *testing.T, asker *fakeAsker, synchronous bool, allowed ...int64) *testEnv {
	t.Helper()
	api := &fakeBotAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := tools.NewRegistry()
	reg.Discover(logger, builtin.Factories(builtin.Deps{Agent: asker, Content: content.Default()})...)

	rt, err := New(Dependencies{
		Logger:   func() (*slog.Logger, error) { return logger, nil },
		Registry: func() *tools.Registry { return reg },
	}, RunOptions{
		BotToken:       "123:abc",
		BaseURL:        srv.URL,
		AllowedChatIDs: allowed,
		Offline:        true,
		Synchronous:    synchronous,
		TypingInterval: time.Hour,
	})
	require.NoError(t, err)
	return &testEnv{api: api, runtime: rt, asker: asker, logs: &logs}
}

func textUpdate(chatID int64, text string) tele.Update {
	return tele.Update{
		ID: 1,
		Message: &tele.Message{
			ID:     10,
			Text:   text,
			Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
			Sender: &tele.User{ID: 500, Username: "alice"},
		},
	}
}

func TestEggsCommandRepliesOnce(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{reply: "keep going"}, 42)

	env.runtime.HandleUpdate(textUpdate(42, "/eggs"))

	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 1)
	assert.Equal(t, "42", sends[0].Params["chat_id"])
	assert.Equal(t, "keep going", sends[0].Params["text"])
	assert.Equal(t, 1, env.asker.calls)
	assert.NotEmpty(t, env.api.Calls("sendChatAction"))
}

func TestChatOutsideAllowlistGetsNothing(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{reply: "keep going"}, 42)

	for _, text := range []string{"/eggs", "/help", "/start", "hello"} {
		env.runtime.HandleUpdate(textUpdate(7, text))
	}

	assert.Empty(t, env.api.Calls(""))
	assert.Zero(t, env.asker.calls)
	assert.Contains(t, env.logs.String(), "telegram_chat_not_allowed")
}

func TestEmptyAllowlistAdmitsNoOne(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{reply: "x"})
	env.runtime.HandleUpdate(textUpdate(42, "/start"))
	assert.Empty(t, env.api.Calls(""))
	assert.Contains(t, env.logs.String(), "telegram_allowlist_empty")
}

func TestHelpListsEveryToolOnce(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)

	env.runtime.HandleUpdate(textUpdate(42, "/help"))

	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 1)
	help := sends[0].Params["text"].(string)
	bot := content.Default().Bot
	assert.True(t, strings.HasPrefix(help, bot.HelpHeader+"\n\n"))
	assert.Equal(t, 1, strings.Count(help, "/eggs - "))
	assert.Equal(t, 1, strings.Count(help, "/echo - "))
	assert.NotContains(t, help, "/poster")
	assert.Contains(t, help, "  "+bot.HelpParams+"\n")
	assert.Contains(t, help, "  - text: 要返回的文本 [required]")
	assert.Contains(t, help, "  - upper: 是否转为大写 [optional]")
	assert.True(t, strings.HasSuffix(help, bot.HelpExample))
}

func TestStartSendsWelcome(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)
	env.runtime.HandleUpdate(textUpdate(42, "/start"))
	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 1)
	assert.Equal(t, content.Default().Bot.Welcome, sends[0].Params["text"])
}

func TestToolFailureIsReported(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{err: errors.New("boom")}, 42)

	env.runtime.HandleUpdate(textUpdate(42, "/eggs"))
	env.runtime.HandleUpdate(textUpdate(42, "/eggs"))

	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 2)
	assert.Equal(t, "处理失败: tool execution failed: boom", sends[0].Params["text"])
	assert.Equal(t, 2, env.asker.calls)
}

func TestUnknownTextGetsFallback(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)

	env.runtime.HandleUpdate(textUpdate(42, "hello there"))
	env.runtime.HandleUpdate(textUpdate(42, "/nope"))

	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 2)
	for _, s := range sends {
		assert.Equal(t, content.Default().Bot.NotUnderstood, s.Params["text"])
	}
}

func TestEchoCommandParams(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)

	env.runtime.HandleUpdate(textUpdate(42, "/echo hello world"))
	env.runtime.HandleUpdate(textUpdate(42, "/echo upper=yes text=shout"))
	env.runtime.HandleUpdate(textUpdate(42, "/echo"))

	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 3)
	assert.Equal(t, "hello world", sends[0].Params["text"])
	assert.Equal(t, "SHOUT", sends[1].Params["text"])
	assert.Equal(t, "处理失败: tool execution failed: missing required param: text", sends[2].Params["text"])
}

func TestSenderIsolatesDeliveryErrors(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)
	env.api.FailChat("13")
	s := env.runtime.Sender()

	require.NoError(t, s.SendText(context.Background(), 42, "hourly"))
	require.NoError(t, s.SendPhoto(context.Background(), 42, "https://blob/p.png", "Daily"))

	err := s.SendText(context.Background(), 13, "hourly")
	var de *boterr.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, int64(13), de.ChatID)
	assert.Equal(t, "text", de.Kind)

	photos := env.api.Calls("sendPhoto")
	require.Len(t, photos, 1)
	assert.Equal(t, "https://blob/p.png", photos[0].Params["photo"])
	assert.Equal(t, "Daily", photos[0].Params["caption"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.SendPhoto(ctx, 42, "https://blob/p.png", ""))
	assert.Len(t, env.api.Calls("sendPhoto"), 1)
}

func TestSenderDoesNotRetryFloodControl(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)
	env.api.Flood(1)

	err := env.runtime.Sender().SendText(context.Background(), 42, "hourly")
	var de *boterr.DeliveryError
	require.ErrorAs(t, err, &de)
	var flood tele.FloodError
	assert.ErrorAs(t, err, &flood)
	assert.Len(t, env.api.Calls("sendMessage"), 1)
}

func TestAsyncHandlerCountedBeforeHandoff(t *testing.T) {
	asker := &fakeAsker{reply: "keep going", gate: make(chan struct{})}
	env := buildTestEnv(t, asker, false, 42)

	env.runtime.HandleUpdate(textUpdate(42, "/eggs"))

	drained := make(chan struct{})
	go func() {
		env.runtime.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		t.Fatal("in-flight handler was not counted when HandleUpdate returned")
	case <-time.After(50 * time.Millisecond):
	}

	close(asker.gate)
	select {
	case <-drained:
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not finish")
	}
	sends := env.api.Calls("sendMessage")
	require.Len(t, sends, 1)
	assert.Equal(t, "keep going", sends[0].Params["text"])
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Dependencies{Logger: func() (*slog.Logger, error) { return slog.Default(), nil }}, RunOptions{Offline: true})
	var cfgErr *boterr.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "telegram.bot_token", cfgErr.Key)
}

func TestRunStopsWithContext(t *testing.T) {
	env := newTestEnv(t, &fakeAsker{}, 42)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.runtime.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("runtime did not stop")
	}
	assert.Contains(t, env.logs.String(), "telegram_polling_stopped")
}

func TestParseCommandParams(t *testing.T) {
	specs := []tools.ParameterSpec{{Name: "text", Required: true}, {Name: "upper"}}

	assert.Equal(t, map[string]any{}, ParseCommandParams("", specs))
	assert.Equal(t, map[string]any{"text": "a=b c"}, ParseCommandParams("a=b c", specs))
	assert.Equal(t, map[string]any{"upper": "1", "text": "hi there"}, ParseCommandParams("upper=1 hi there", specs))
	assert.Equal(t, map[string]any{"text": "x", "upper": "hi"}, ParseCommandParams("text=x hi", specs))
	assert.Equal(t, map[string]any{}, ParseCommandParams("ignored words", nil))
}
