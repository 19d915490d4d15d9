package telegram

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type nopSender struct{}

func (nopSender) SendMessage(context.Context, *bot.SendMessageParams) (*models.Message, error) {
	return &models.Message{}, nil
}

func TestDispatcher_KeepsChatOrder(t *testing.T) {
	var mu sync.Mutex
	got := map[int64][]int64{}
	d := NewDispatcher(nopSender{}, 4, func(_ context.Context, _ Sender, upd *models.Update) {
		mu.Lock()
		defer mu.Unlock()
		chat := ChatID(upd)
		got[chat] = append(got[chat], upd.ID)
	}, quiet)

	ctx := context.Background()
	for i := int64(0); i < 50; i++ {
		for _, chat := range []int64{1, -2, 3} {
			d.Dispatch(ctx, &models.Update{ID: i, Message: &models.Message{Chat: models.Chat{ID: chat}}})
		}
	}
	d.Close()

	for _, chat := range []int64{1, -2, 3} {
		assert.Len(t, got[chat], 50)
		assert.IsIncreasing(t, got[chat])
	}
}

func TestDispatcher_SurvivesPanics(t *testing.T) {
	var n int
	d := NewDispatcher(nopSender{}, 1, func(_ context.Context, _ Sender, upd *models.Update) {
		n++
		if upd.ID == 1 {
			panic("boom")
		}
	}, quiet)
	for i := int64(1); i <= 3; i++ {
		d.Dispatch(context.Background(), &models.Update{ID: i})
	}
	d.Close()
	assert.Equal(t, 3, n)
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	var handled atomic.Int32
	d := NewDispatcher(nopSender{}, 2, func(context.Context, Sender, *models.Update) { handled.Add(1) }, quiet)
	assert.True(t, d.Dispatch(context.Background(), &models.Update{ID: 1}))
	d.Close()

	assert.NotPanics(t, func() {
		assert.False(t, d.Dispatch(context.Background(), &models.Update{ID: 2}))
	})
	assert.NotPanics(t, d.Close)
	assert.Equal(t, int32(1), handled.Load())
}

func TestDispatcher_CloseWhileDispatching(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(nopSender{}, 1, func(context.Context, Sender, *models.Update) { <-block }, quiet)

	var wg sync.WaitGroup
	for i := int64(0); i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := int64(0); j < 50; j++ {
				d.Dispatch(context.Background(), &models.Update{ID: i*100 + j})
			}
		}()
	}

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	close(block)

	assert.NotPanics(t, wg.Wait)
	<-closed
}

func TestUserID(t *testing.T) {
	assert.Equal(t, int64(7), UserID(&models.Update{Message: &models.Message{From: &models.User{ID: 7}}}))
	assert.Zero(t, UserID(&models.Update{}))
	assert.Zero(t, ChatID(&models.Update{}))
}
