// Package handlers answers bot commands with catalogue use-cases.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nimli/internal/adapter/telegram"
	"nimli/internal/usecase"
)

// Handlers routes commands to use-case calls.
type Handlers struct {
	catalog *usecase.CatalogService
	log     *slog.Logger
}

// New creates the command router.
func New(catalog *usecase.CatalogService, log *slog.Logger) *Handlers {
	return &Handlers{catalog: catalog, log: log}
}

type command struct {
	name string
	args []string
	chat int64
}

// parse splits "/cmd@botname a b" into its name and arguments.
func parse(msg *models.Message) (command, bool) {
	if !strings.HasPrefix(msg.Text, "/") {
		return command{}, false
	}
	fields := strings.Fields(msg.Text)
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	return command{name: strings.ToLower(name), args: fields[1:], chat: msg.Chat.ID}, true
}

// Handle is a telegram.HandlerFunc.
func (h *Handlers) Handle(ctx context.Context, s telegram.Sender, upd *models.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	cmd, ok := parse(msg)
	if !ok {
		return
	}
	var text string
	switch cmd.name {
	case "start", "help":
		text = Start()
	case "ping":
		text = Ping()
	case "popular":
		text = h.popular(ctx, cmd.args)
	case "tags":
		text = h.tags(ctx, cmd.args)
	case "creators":
		text = h.creators(ctx, cmd.args)
	case "creator":
		text = h.creator(ctx, cmd.args)
	default:
		text = fmt.Sprintf("unknown command /%s, see /help", cmd.name)
	}
	h.reply(ctx, s, cmd.chat, text)
}

func (h *Handlers) reply(ctx context.Context, s telegram.Sender, chat int64, text string) {
	if _, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: chat, Text: text}); err != nil {
		h.log.Warn("send reply", "chat", chat, "err", err)
	}
}

// failure turns a use-case error into a reply.
func failure(err error) string {
	var b strings.Builder
	switch usecase.KindOf(err) {
	case usecase.KindValidationFailed:
		b.WriteString("invalid request")
	case usecase.KindCreatorNotFound, usecase.KindNotFound:
		b.WriteString("not found")
	default:
		b.WriteString("something went wrong")
	}
	var ue *usecase.Error
	if errors.As(err, &ue) && ue.Message != "" && ue.Kind != usecase.KindUnknown {
		b.WriteString(": " + ue.Message)
	}
	if usecase.IsRetryable(err) {
		b.WriteString(". Please try again later.")
	}
	return b.String()
}
