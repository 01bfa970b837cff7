package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ykvlv/cowin-alert-bot/internal/cowin"
	"github.com/ykvlv/cowin-alert-bot/internal/domain"
	"github.com/ykvlv/cowin-alert-bot/internal/format"
	"github.com/ykvlv/cowin-alert-bot/internal/metrics"
)

// Sender delivers a Markdown text message to a chat.
// telegram.Router implements this.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Provider returns the current slot listing for a pincode.
// cowin.Client implements this.
type Provider interface {
	FetchCenters(ctx context.Context, pincode, date string) ([]domain.VaccinationCenter, error)
}

// Directory is the part of the user store the scheduler needs.
type Directory interface {
	DistinctPincodesWithAlerts(ctx context.Context) ([]string, error)
	UsersWithAlerts(ctx context.Context, pincode string) ([]domain.User, error)
	UpdateAlertSent(ctx context.Context, userID int64, at time.Time) error
}

// Config tunes the polling loop. Zero values fall back to defaults.
type Config struct {
	Interval         time.Duration  // default 30s
	Concurrency      int            // parallel pincode fetches, default 2
	Location         *time.Location // timezone for the provider's "today", default UTC
	RateLimitBackoff time.Duration  // cycles paused after a rate limited cycle, default 5m
}

// Report summarises one cycle.
type Report struct {
	Pincodes    int
	Fetched     int
	RateLimited int
	Invalid     int
	Sent        int
	Failed      int
}

func (r *Report) add(o Report) {
	r.Fetched += o.Fetched
	r.RateLimited += o.RateLimited
	r.Invalid += o.Invalid
	r.Sent += o.Sent
	r.Failed += o.Failed
}

var errCycleRateLimited = errors.New("cycle was rate limited")

// Scheduler polls the slot provider for every subscribed pincode and pushes
// alerts to eligible users.
type Scheduler struct {
	dir      Directory
	provider Provider
	sender   Sender
	log      *zap.Logger
	metrics  *metrics.Metrics
	cfg      Config
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time
}

// New creates a Scheduler. A nil m registers metrics on a private registry.
func New(dir Directory, provider Provider, sender Sender, m *metrics.Metrics, log *zap.Logger, cfg Config) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = 5 * time.Minute
	}

	s := &Scheduler{
		dir:      dir,
		provider: provider,
		sender:   sender,
		log:      log,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cowin-cycle",
		MaxRequests: 1,
		Timeout:     cfg.RateLimitBackoff,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn("provider back-off state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// Run starts the loop until ctx is canceled. The first cycle runs
// immediately. A cycle in progress when ctx is canceled finishes the
// pincodes it already started.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", zap.Duration("interval", s.cfg.Interval))
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one cycle unless we are backing off after a rate limited cycle.
func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		rep := s.RunCycle(ctx)
		if rep.RateLimited > 0 {
			return rep, errCycleRateLimited
		}
		return rep, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.metrics.CyclesSkipped.Inc()
		s.log.Debug("cycle skipped, provider back-off in effect")
	case errors.Is(err, errCycleRateLimited):
		s.log.Warn("provider rate limited this cycle, pausing",
			zap.Duration("backoff", s.cfg.RateLimitBackoff))
	}
}

// RunCycle performs one pass over every subscribed pincode. Failures are
// contained to the pincode or user they happen in.
func (s *Scheduler) RunCycle(ctx context.Context) Report {
	var rep Report
	if ctx.Err() != nil {
		return rep
	}

	start := time.Now()
	now := s.now().UTC()
	date := cowin.Today(now, s.cfg.Location)

	pincodes, err := s.dir.DistinctPincodesWithAlerts(ctx)
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues("distinct_pincodes").Inc()
		s.log.Error("DistinctPincodesWithAlerts failed", zap.Error(err))
		return rep
	}
	rep.Pincodes = len(pincodes)

	// Pincodes already started are drained on shutdown, so their work
	// outlives ctx; new ones are not started once ctx is done.
	work := context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)
	for _, pincode := range pincodes {
		if ctx.Err() != nil {
			s.log.Info("cycle interrupted by shutdown")
			break
		}
		pincode := pincode
		g.Go(func() error {
			// g.Go may have waited for a free slot past shutdown.
			if ctx.Err() != nil {
				return nil
			}
			r := s.safeProcessPincode(work, pincode, date, now)
			mu.Lock()
			rep.add(r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.Cycles.Inc()
	s.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	fields := []zap.Field{
		zap.Int("pincodes", rep.Pincodes),
		zap.Int("fetched", rep.Fetched),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("rate_limited", rep.RateLimited),
		zap.Duration("took", time.Since(start)),
	}
	if rep.Sent+rep.Failed+rep.RateLimited > 0 {
		s.log.Info("cycle done", fields...)
	} else {
		s.log.Debug("cycle done", fields...)
	}
	return rep
}

func (s *Scheduler) safeProcessPincode(ctx context.Context, pincode, date string, now time.Time) (rep Report) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic while processing pincode",
				zap.String("pincode", pincode),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()
	return s.processPincode(ctx, pincode, date, now)
}

func (s *Scheduler) processPincode(ctx context.Context, pincode, date string, now time.Time) Report {
	var rep Report
	log := s.log.With(zap.String("pincode", pincode))

	centers, err := s.provider.FetchCenters(ctx, pincode, date)
	switch {
	case errors.Is(err, cowin.ErrRateLimited):
		rep.RateLimited++
		s.metrics.Fetches.WithLabelValues(metrics.FetchRateLimited).Inc()
		log.Warn("provider rate limited", zap.Error(err))
		return rep
	case errors.Is(err, cowin.ErrInvalidRequest):
		rep.Invalid++
		s.metrics.Fetches.WithLabelValues(metrics.FetchInvalid).Inc()
		log.Warn("provider rejected request", zap.Error(err))
		return rep
	case err != nil:
		s.metrics.Fetches.WithLabelValues(metrics.FetchError).Inc()
		log.Error("fetch centers failed", zap.Error(err))
		return rep
	}
	rep.Fetched++

	available := domain.FilterAvailable(centers)
	if len(available) == 0 {
		s.metrics.Fetches.WithLabelValues(metrics.FetchEmpty).Inc()
		return rep
	}
	s.metrics.Fetches.WithLabelValues(metrics.FetchOK).Inc()

	users, err := s.dir.UsersWithAlerts(ctx, pincode)
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues("users_with_alerts").Inc()
		log.Error("UsersWithAlerts failed", zap.Error(err))
		return rep
	}

	for i := range users {
		switch s.notifyUser(ctx, log, &users[i], pincode, available, now) {
		case metrics.AlertSent:
			rep.Sent++
		case metrics.AlertFailed:
			rep.Failed++
		}
	}
	return rep
}

// notifyUser applies the per-user policy and delivers at most one alert.
// It returns the outcome label.
func (s *Scheduler) notifyUser(ctx context.Context, log *zap.Logger, u *domain.User, pincode string, available []domain.VaccinationCenter, now time.Time) (outcome string) {
	defer func() { s.metrics.Alerts.WithLabelValues(outcome).Inc() }()
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while notifying user",
				zap.Int64("user_id", u.UserID),
				zap.Any("panic", r),
			)
			outcome = metrics.AlertFailed
		}
	}()

	if !u.Actionable() {
		log.Debug("skipping user with incomplete preferences", zap.Int64("user_id", u.UserID))
		return metrics.AlertNotActionable
	}
	if !domain.ShouldNotify(u, now) {
		return metrics.AlertThrottled
	}

	matched := domain.FilterByAge(u.AgePreference, available)
	if len(matched) == 0 {
		return metrics.AlertNoMatch
	}

	msg := format.Alert(pincode, u.AgePreference, matched)
	if err := s.sender.SendMessage(u.ChatID, msg); err != nil {
		log.Warn("send alert failed",
			zap.Int64("user_id", u.UserID),
			zap.Int64("chat_id", u.ChatID),
			zap.Error(err),
		)
		return metrics.AlertFailed
	}

	if err := s.dir.UpdateAlertSent(ctx, u.UserID, now); err != nil {
		s.metrics.StoreErrors.WithLabelValues("update_alert_sent").Inc()
		log.Error("UpdateAlertSent failed",
			zap.Int64("user_id", u.UserID),
			zap.Error(fmt.Errorf("alert delivered but not recorded: %w", err)),
		)
	}
	return metrics.AlertSent
}
