package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nimli/internal/adapter/httpapi"
	"nimli/internal/adapter/telegram"
	"nimli/internal/adapter/telegram/handlers"
	"nimli/internal/adapter/telegram/middleware"
	"nimli/internal/platform/ratelimit"
)

// Serve runs the HTTP gateway until ctx is done. When a bot token and a
// webhook URL are configured the bot shares the gateway's listener.
func (a *App) Serve(ctx context.Context) error {
	if a.cfg.Session.Secret == "" {
		return errors.New("SESSION_SECRET is required to serve the gateway")
	}
	if a.cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := ratelimit.New(a.cfg.HTTP.RateLimitRPS, a.cfg.HTTP.RateBurst)
	if err := a.pruneLimiter("http", limiter); err != nil {
		return err
	}

	opts := httpapi.Options{
		Services: a.services,
		Sessions: httpapi.NewSessions(a.cfg.Session.Secret, a.cfg.Session.TTL),
		Logger:   a.log.With("component", "http"),
		Limiter:  limiter,
		Metrics:  a.metrics.Handler(),
		Checks:   a.checks,
	}

	var disp *telegram.Dispatcher
	if a.cfg.Telegram.Token != "" && a.cfg.Telegram.WebhookURL != "" {
		b, d, err := a.newBot()
		if err != nil {
			return err
		}
		disp = d
		if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         a.cfg.Telegram.WebhookURL,
			SecretToken: a.cfg.Telegram.WebhookSecret,
		}); err != nil {
			disp.Close()
			return err
		}
		opts.Webhook = b.WebhookHandler()

		// The bot must be stopped and awaited before the dispatcher it
		// feeds is closed.
		botCtx, stopBot := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.StartWebhook(botCtx)
		}()
		defer disp.Close()
		defer wg.Wait()
		defer stopBot()
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.sched.Start()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("gateway listening", "addr", a.cfg.HTTP.Addr, "webhook", disp != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// RunBot long-polls the chat bot until ctx is done.
func (a *App) RunBot(ctx context.Context) error {
	if a.cfg.Telegram.WebhookURL != "" {
		return errors.New("TELEGRAM_WEBHOOK_URL is set; the bot is served by the gateway")
	}
	b, disp, err := a.newBot()
	if err != nil {
		return err
	}
	defer disp.Close()

	// Polling needs the webhook gone.
	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		a.log.Warn("delete webhook", "err", err)
	}
	a.sched.Start()
	a.log.Info("bot polling")
	b.Start(ctx)
	return nil
}

func (a *App) newBot() (*bot.Bot, *telegram.Dispatcher, error) {
	if a.cfg.Telegram.Token == "" {
		return nil, nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	ids, err := middleware.ParseAllowedIDs(a.cfg.Telegram.AllowedIDs)
	if err != nil {
		return nil, nil, err
	}
	limiter := ratelimit.New(a.cfg.Telegram.RateLimitRPS, 3)
	if err := a.pruneLimiter("telegram", limiter); err != nil {
		return nil, nil, err
	}

	log := a.log.With("component", "telegram")
	h := handlers.New(a.services.Catalog, log)
	handler := middleware.Chain(h.Handle,
		middleware.NewACL(ids).Middleware,
		middleware.RateLimit(limiter),
	)

	var disp *telegram.Dispatcher
	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, upd *models.Update) {
			disp.Dispatch(ctx, upd)
		}),
		bot.WithAllowedUpdates([]string{"message"}),
		bot.WithErrorsHandler(func(err error) { log.Warn("bot api", "err", err) }),
	}
	if a.cfg.Telegram.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(a.cfg.Telegram.WebhookSecret))
	}
	b, err := bot.New(a.cfg.Telegram.Token, opts...)
	if err != nil {
		return nil, nil, err
	}
	disp = telegram.NewDispatcher(b, a.cfg.Telegram.Workers, handler, log)
	log.Info("bot ready", "workers", a.cfg.Telegram.Workers, "acl", len(ids) > 0, slog.Float64("rps", a.cfg.Telegram.RateLimitRPS))
	return b, disp, nil
}
