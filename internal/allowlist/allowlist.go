// Package allowlist holds the static set of Telegram chats the bot talks to.
// The same set gates inbound updates and lists broadcast recipients.
package allowlist

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Set is immutable after construction and safe for concurrent reads.
type Set struct {
	ids   []int64
	index map[int64]struct{}
}

// New builds a set from ids, dropping zeros and duplicates but keeping the
// first-seen order.
func New(ids ...int64) Set {
	s := Set{index: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// Parse reads a comma separated id list such as "-1001,42".
func Parse(raw string) (Set, error) {
	ids, err := ParseIDs(strings.Split(raw, ","))
	if err != nil {
		return Set{}, err
	}
	return New(ids...), nil
}

// ParseIDs accepts list items that may themselves be comma separated, which
// is how viper hands over both env strings and YAML lists.
func ParseIDs(items []string) ([]int64, error) {
	var out []int64
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid chat id %q", part)
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func (s Set) Contains(chatID int64) bool {
	_, ok := s.index[chatID]
	return ok
}

func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the ids in configuration order.
func (s Set) IDs() []int64 {
	return append([]int64(nil), s.ids...)
}

// Middleware drops every update whose chat is not in s. Dropped updates get
// no reply and no error; they are only logged.
func Middleware(s Set, logger *slog.Logger) tele.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				logger.Info("telegram_update_without_chat", "update_id", c.Update().ID)
				return nil
			}
			if !s.Contains(chat.ID) {
				attrs := []any{"chat_id", chat.ID, "chat_type", string(chat.Type)}
				if sender := c.Sender(); sender != nil {
					attrs = append(attrs, "from", sender.ID)
				}
				logger.Info("telegram_chat_not_allowed", attrs...)
				return nil
			}
			return next(c)
		}
	}
}
