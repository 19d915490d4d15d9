package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nimli/internal/adapter/telegram"
)

// ACL restricts the bot to a list of user ids. An empty list admits everyone.
type ACL struct{ allowed map[int64]struct{} }

// NewACL builds an ACL from user ids.
func NewACL(ids []int64) *ACL {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return &ACL{allowed: m}
}

// IsAllowed reports whether the user may use the bot.
func (a *ACL) IsAllowed(id int64) bool {
	if len(a.allowed) == 0 {
		return true
	}
	_, ok := a.allowed[id]
	return ok
}

// Middleware drops updates from users outside the list and tells them so.
// Updates with no sender, such as channel posts, pass.
func (a *ACL) Middleware(next telegram.HandlerFunc) telegram.HandlerFunc {
	return func(ctx context.Context, s telegram.Sender, upd *models.Update) {
		uid := telegram.UserID(upd)
		if uid == 0 || a.IsAllowed(uid) {
			next(ctx, s, upd)
			return
		}
		if chat := telegram.ChatID(upd); chat != 0 && s != nil {
			_, _ = s.SendMessage(ctx, &bot.SendMessageParams{ChatID: chat, Text: "access denied"})
		}
	}
}

// ParseAllowedIDs reads ids separated by commas, tabs or newlines.
func ParseAllowedIDs(s string) ([]int64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\t' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("allowed id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
