package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// Default window for due-word reminders
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Economy is the part of the progress state the periodic jobs drive
type Economy interface {
	CheckAndRestoreHearts() int
	CheckSuperMemberStatus() bool
	Snapshot() models.Progress
}

// Notifier interface for sending notifications
type Notifier interface {
	HeartsRestored(restored, hearts int) error
	MembershipExpired() error
	WordsDue(count int) error
}

// Options configures job intervals
type Options struct {
	HeartCheckInterval      time.Duration
	MembershipCheckInterval time.Duration
	ReminderInterval        time.Duration
	NotificationStartHour   int
	NotificationEndHour     int
	Location                *time.Location
}

// DefaultOptions returns the standard intervals
func DefaultOptions() Options {
	return Options{
		HeartCheckInterval:      time.Minute,
		MembershipCheckInterval: time.Hour,
		ReminderInterval:        time.Hour,
		NotificationStartHour:   DefaultNotificationStartHour,
		NotificationEndHour:     DefaultNotificationEndHour,
		Location:                time.Local,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	economy   Economy
	dueCount  func() int
	notifier  Notifier
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a new scheduler instance. dueCount and notifier may be nil.
func New(economy Economy, dueCount func() int, notifier Notifier, opts Options, logger *zap.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := gocron.NewScheduler(opts.Location)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		economy:   economy,
		dueCount:  dueCount,
		notifier:  notifier,
		opts:      opts,
		now:       time.Now,
		logger:    logger,
	}
}

// Start registers all jobs and runs them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.opts.HeartCheckInterval).Do(s.checkHearts); err != nil {
		return fmt.Errorf("failed to schedule heart check: %w", err)
	}
	if _, err := s.scheduler.Every(s.opts.MembershipCheckInterval).Do(s.checkMembership); err != nil {
		return fmt.Errorf("failed to schedule membership check: %w", err)
	}
	if s.dueCount != nil && s.notifier != nil && s.opts.ReminderInterval > 0 {
		if _, err := s.scheduler.Every(s.opts.ReminderInterval).WaitForSchedule().Do(s.remindDueWords); err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}

// checkHearts regenerates hearts and tells the reader when some came back
func (s *Scheduler) checkHearts() {
	restored := s.economy.CheckAndRestoreHearts()
	if restored == 0 || s.notifier == nil {
		return
	}
	p := s.economy.Snapshot()
	if err := s.notifier.HeartsRestored(restored, p.Hearts); err != nil {
		s.logger.Warn("Failed to send heart notification", zap.Error(err))
	}
}

// checkMembership drops an expired super membership
func (s *Scheduler) checkMembership() {
	if !s.economy.CheckSuperMemberStatus() || s.notifier == nil {
		return
	}
	if err := s.notifier.MembershipExpired(); err != nil {
		s.logger.Warn("Failed to send membership notification", zap.Error(err))
	}
}

// remindDueWords sends a reminder when words are waiting, inside the notification window
func (s *Scheduler) remindDueWords() {
	currentHour := s.now().In(s.opts.Location).Hour()
	if currentHour < s.opts.NotificationStartHour || currentHour > s.opts.NotificationEndHour {
		s.logger.Debug("Outside notification hours, skipping reminder",
			zap.Int("hour", currentHour),
			zap.Int("start", s.opts.NotificationStartHour),
			zap.Int("end", s.opts.NotificationEndHour))
		return
	}

	count := s.dueCount()
	if count == 0 {
		return
	}
	if err := s.notifier.WordsDue(count); err != nil {
		s.logger.Warn("Failed to send reminder", zap.Error(err))
	}
}

// RunManualCheck runs the heart and membership checks immediately
func (s *Scheduler) RunManualCheck() {
	s.checkHearts()
	s.checkMembership()
}
