package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/advolink/advolink/internal/config"
	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/gateway"
	"github.com/advolink/advolink/internal/jobs"
	"github.com/robfig/cron/v3"
)

// ReminderScheduler periodically finds bookings whose appointment is coming
// up and fires a reminder notification for each. It only publishes; the
// reminder job itself claims the booking with a conditional write, so
// overlapping ticks, multiple worker pods and broker redelivery all converge
// on one reminder per booking.
type ReminderScheduler struct {
	cfg      *config.Config
	bookings *database.BookingRepository
	gw       *gateway.Gateway
	cron     *cron.Cron
}

// NewReminderScheduler creates a new reminder scheduler.
func NewReminderScheduler(cfg *config.Config, bookings *database.BookingRepository, gw *gateway.Gateway) *ReminderScheduler {
	return &ReminderScheduler{
		cfg:      cfg,
		bookings: bookings,
		gw:       gw,
		cron:     cron.New(),
	}
}

// Start schedules the reminder sweep.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	if !s.cfg.ReminderEnabled {
		slog.Info("Reminder scheduler is disabled by configuration")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.ReminderCronSpec, func() { s.sweep(ctx) }); err != nil {
		return err
	}

	slog.Info("Starting reminder scheduler",
		"cron_spec", s.cfg.ReminderCronSpec,
		"window", s.cfg.ReminderWindow,
	)
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep, bounded by ctx.
func (s *ReminderScheduler) Stop(ctx context.Context) {
	if !s.cfg.ReminderEnabled {
		return
	}

	slog.Info("Stopping reminder scheduler")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		slog.Info("Reminder scheduler stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for reminder sweep to complete")
	}
}

// sweep publishes a reminder notification for every booking due in the
// window.
func (s *ReminderScheduler) sweep(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.bookings.FindDueReminders(ctx, now, s.cfg.ReminderWindow)
	if err != nil {
		slog.Error("Failed to find due reminders", "error", err)
		return
	}

	if len(due) == 0 {
		return
	}

	slog.Info("Dispatching booking reminders", "count", len(due))

	for _, booking := range due {
		s.gw.Notify(jobs.JobBookingSendReminder, jobs.BookingNotifyArgs{
			BookingID:           booking.ID.Hex(),
			AdvocateID:          booking.AdvocateID,
			AppointmentDatetime: booking.AppointmentDatetime,
		})
	}
}
