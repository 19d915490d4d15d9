// Package telegram presents catalogue queries through a chat bot. Updates
// are fanned out to workers by chat so replies within a chat keep order.
package telegram

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the part of the bot API handlers reply through. *bot.Bot
// satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// HandlerFunc processes a single update.
type HandlerFunc func(ctx context.Context, s Sender, upd *models.Update)

type ctxUpdate struct {
	ctx context.Context
	upd *models.Update
}

// Dispatcher routes updates to worker goroutines keeping chat order.
type Dispatcher struct {
	sender  Sender
	handler HandlerFunc
	log     *slog.Logger
	chans   []chan ctxUpdate
	wg      sync.WaitGroup

	// mu guards closed; senders hold the read lock across the send.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// NewDispatcher starts workers goroutines, at least one.
func NewDispatcher(s Sender, workers int, h HandlerFunc, log *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sender:  s,
		handler: h,
		log:     log,
		chans:   make([]chan ctxUpdate, workers),
		done:    make(chan struct{}),
	}
	for i := range d.chans {
		d.chans[i] = make(chan ctxUpdate, 100)
		d.wg.Add(1)
		go d.worker(d.chans[i])
	}
	return d
}

// Dispatch queues upd on the worker owning its chat. Updates without a chat
// go to the first worker. It reports false when upd was dropped because ctx
// ended or the dispatcher is closed.
func (d *Dispatcher) Dispatch(ctx context.Context, upd *models.Update) bool {
	idx := 0
	if id := ChatID(upd); id != 0 {
		idx = int(abs(id) % int64(len(d.chans)))
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("update dropped", "update_id", upd.ID, "err", "dispatcher closed")
		return false
	}
	select {
	case d.chans[idx] <- ctxUpdate{ctx: ctx, upd: upd}:
		return true
	case <-ctx.Done():
		d.log.Warn("update dropped", "update_id", upd.ID, "err", ctx.Err())
	case <-d.done:
		d.log.Warn("update dropped", "update_id", upd.ID, "err", "dispatcher closed")
	}
	return false
}

// Close stops accepting updates and waits for queued ones to finish. It is
// safe to call while Dispatch is running and more than once.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.done)
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.chans {
			close(ch)
		}
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker(in <-chan ctxUpdate) {
	defer d.wg.Done()
	for item := range in {
		d.handle(item)
	}
}

func (d *Dispatcher) handle(item ctxUpdate) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic", "update_id", item.upd.ID, "panic", r)
		}
	}()
	d.handler(item.ctx, d.sender, item.upd)
}

// ChatID returns the chat an update belongs to, zero when it has none.
func ChatID(u *models.Update) int64 {
	if u.Message != nil {
		return u.Message.Chat.ID
	}
	if u.CallbackQuery != nil && u.CallbackQuery.Message.Message != nil {
		return u.CallbackQuery.Message.Message.Chat.ID
	}
	return 0
}

// UserID returns the sender of an update, zero when unknown.
func UserID(u *models.Update) int64 {
	if m := u.Message; m != nil && m.From != nil {
		return m.From.ID
	}
	if cq := u.CallbackQuery; cq != nil {
		return cq.From.ID
	}
	return 0
}

func abs(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}
