package jobs

import (
	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/task"
)

// RegisterAll binds every job handler this worker serves. It runs once at
// worker start-up; a duplicate binding fails the process before it claims
// any work.
func RegisterAll(reg *task.Registry, cases *database.CaseRepository, bookings *database.BookingRepository) error {
	if err := NewCaseJobs(cases).Register(reg); err != nil {
		return err
	}
	return NewBookingJobs(bookings).Register(reg)
}
