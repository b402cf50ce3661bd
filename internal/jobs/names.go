// Package jobs implements the handlers behind every named job this backend
// serves, and the registration that binds them into a worker's registry.
package jobs

// Job names are wire contract: callers and workers agree on them across
// deployments, and renaming one breaks every in-flight caller.
const (
	// Request-response
	JobCaseGetDetail       = "cases.get_detail"
	JobCaseGetForClient    = "cases.get_for_client"
	JobCaseGetForAdvocate  = "cases.get_for_advocate"
	JobBookingCreate       = "bookings.create"
	JobBookingGetForClient = "bookings.get_for_client"
	JobBookingGetDetail    = "bookings.get_detail"

	// Fire-and-forget
	JobCaseNotifyClient       = "cases.notify_client"
	JobCaseNotifyAdvocateTeam = "cases.notify_advocate_team"
	JobCaseNotifyUpdate       = "cases.notify_update"
	JobCaseNotifyHearingDate  = "cases.notify_hearing_date"
	JobCaseNotifyNewNote      = "cases.notify_new_note"
	JobBookingNotifyCreated   = "bookings.notify_created"
	JobBookingSendReminder    = "bookings.send_reminder"
)
