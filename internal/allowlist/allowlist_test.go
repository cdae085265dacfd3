package allowlist

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func TestParse(t *testing.T) {
	s, err := Parse(" -1001, 42,,42 ,0,7")
	require.NoError(t, err)
	assert.Equal(t, []int64{-1001, 42, 7}, s.IDs())
	assert.True(t, s.Contains(42))
	assert.False(t, s.Contains(0))
	assert.Equal(t, 3, s.Len())

	_, err = Parse("12,abc")
	require.EqualError(t, err, `invalid chat id "abc"`)
}

func TestParseIDsMixedItems(t *testing.T) {
	ids, err := ParseIDs([]string{"1,2", " 3 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestIDsReturnsCopy(t *testing.T) {
	s := New(1, 2)
	ids := s.IDs()
	ids[0] = 99
	assert.Equal(t, []int64{1, 2}, s.IDs())
}

func newOfflineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	require.NoError(t, err)
	return b
}

func messageUpdate(chatID int64, text string) tele.Update {
	return tele.Update{
		ID: 1,
		Message: &tele.Message{
			Text:   text,
			Chat:   &tele.Chat{ID: chatID, Type: tele.ChatGroup},
			Sender: &tele.User{ID: 500},
		},
	}
}

func TestMiddlewareGatesByChat(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	b := newOfflineBot(t)
	mw := Middleware(New(1, 2, 3), logger)

	calls := 0
	h := mw(func(tele.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(b.NewContext(messageUpdate(2, "/eggs"))))
	assert.Equal(t, 1, calls)

	require.NoError(t, h(b.NewContext(messageUpdate(4, "/eggs"))))
	assert.Equal(t, 1, calls)
	assert.Contains(t, logs.String(), "telegram_chat_not_allowed")
	assert.Contains(t, logs.String(), "chat_id=4")

	require.NoError(t, h(b.NewContext(tele.Update{ID: 9})))
	assert.Equal(t, 1, calls)
}

func TestEmptySetAdmitsNoOne(t *testing.T) {
	b := newOfflineBot(t)
	called := false
	h := Middleware(New(), slog.Default())(func(tele.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(b.NewContext(messageUpdate(1, "hi"))))
	assert.False(t, called)
}
