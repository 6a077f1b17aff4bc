package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/couvoir/internal/config"
	"github.com/mamadbah2/couvoir/internal/repository/mongodb"
	notifysvc "github.com/mamadbah2/couvoir/internal/service/notify"
	"github.com/mamadbah2/couvoir/internal/service/schedule"
)

// Scheduler runs the daily reminder sweep on the configured cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	repo       mongodb.Repository
	dispatcher notifysvc.Dispatcher
	cfg        config.ReminderConfig
	location   *time.Location
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance. The sweep runs in the
// configured timezone so "today" matches the user's calendar, not UTC.
func NewScheduler(cfg config.ReminderConfig, location *time.Location, repo mongodb.Repository, dispatcher notifysvc.Dispatcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}

	c := cron.New(cron.WithLocation(location))

	return &Scheduler{
		cron:       c,
		repo:       repo,
		dispatcher: dispatcher,
		cfg:        cfg,
		location:   location,
		logger:     logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("cron", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sweepReminders)
	if err != nil {
		s.logger.Error("failed to schedule reminder sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sweepReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	today := schedule.NormalizeDate(time.Now().In(s.location))
	s.logger.Info("sweeping due reminders", zap.Time("date", today))

	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		s.logger.Error("failed to load runs for reminder sweep", zap.Error(err))
		return
	}

	reminders := schedule.DueReminders(runs, today)
	if len(reminders) == 0 {
		s.logger.Info("no reminders due today")
		return
	}

	if err := s.dispatcher.DispatchReminders(ctx, reminders); err != nil {
		s.logger.Error("failed to dispatch reminders", zap.Error(err), zap.Int("count", len(reminders)))
		return
	}

	s.logger.Info("reminders dispatched", zap.Int("count", len(reminders)))
}
