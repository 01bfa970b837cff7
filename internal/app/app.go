package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ykvlv/cowin-alert-bot/internal/config"
	"github.com/ykvlv/cowin-alert-bot/internal/cowin"
	"github.com/ykvlv/cowin-alert-bot/internal/metrics"
	"github.com/ykvlv/cowin-alert-bot/internal/scheduler"
	"github.com/ykvlv/cowin-alert-bot/internal/store"
	"github.com/ykvlv/cowin-alert-bot/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		reg:     reg,
		metrics: metrics.New(reg),
		httpSrv: newOpsServer(cfg.HTTPAddr, reg),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting cowin-alert-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("poll_interval", a.cfg.PollInterval),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	client := cowin.NewClient(cowin.Options{
		BaseURL:           a.cfg.ProviderBaseURL,
		Timeout:           a.cfg.ProviderTimeout,
		RequestsPerMinute: a.cfg.ProviderRate,
	}, a.log.Named("cowin"))

	a.router = telegram.NewRouter(a.bot, a.log.Named("telegram"), a.repo, client, telegram.Options{
		Maintainers: a.cfg.Maintainers(),
		Location:    a.cfg.Location(),
	})

	sched := scheduler.New(a.repo, client, a.router, a.metrics, a.log.Named("scheduler"), scheduler.Config{
		Interval:         a.cfg.PollInterval,
		Concurrency:      a.cfg.FetchConcurrency,
		Location:         a.cfg.Location(),
		RateLimitBackoff: a.cfg.RateLimitBackoff,
	})

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRestarting(ctx, a.log, "scheduler", defaultRestartPolicy, sched.Run, a.notifyDeveloper)
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()
			a.shutdown(&wg)
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.log.Warn("update channel closed")
				stop()
				continue
			}
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// shutdown waits for the in-flight cycle to drain, then releases resources.
func (a *App) shutdown(wg *sync.WaitGroup) {
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		a.log.Info("scheduler drained")
	case <-time.After(shutdownTimeout):
		a.log.Warn("scheduler did not drain in time", zap.Duration("timeout", shutdownTimeout))
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}

// notifyDeveloper reports a crashed background loop to the developer chat.
func (a *App) notifyDeveloper(name string, v any) {
	if a.router == nil || a.cfg.DeveloperChatID == 0 {
		return
	}
	text := fmt.Sprintf("%s crashed and is being restarted: %v", name, v)
	if err := a.router.SendPlain(a.cfg.DeveloperChatID, text); err != nil {
		a.log.Warn("notify developer failed", zap.Error(err))
	}
}
