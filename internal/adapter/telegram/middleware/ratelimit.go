package middleware

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nimli/internal/adapter/telegram"
	"nimli/internal/platform/ratelimit"
)

// RateLimit drops updates from users over their budget and warns them.
func RateLimit(l *ratelimit.Keyed) Middleware {
	return func(next telegram.HandlerFunc) telegram.HandlerFunc {
		return func(ctx context.Context, s telegram.Sender, upd *models.Update) {
			uid := telegram.UserID(upd)
			if uid != 0 && !l.Allow(strconv.FormatInt(uid, 10)) {
				if chat := telegram.ChatID(upd); chat != 0 {
					_, _ = s.SendMessage(ctx, &bot.SendMessageParams{
						ChatID: chat,
						Text:   "too many requests, slow down",
					})
				}
				return
			}
			next(ctx, s, upd)
		}
	}
}
