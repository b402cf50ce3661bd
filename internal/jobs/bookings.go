package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/model"
	"github.com/advolink/advolink/internal/task"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingJobs holds the handlers for booking jobs.
type BookingJobs struct {
	bookings *database.BookingRepository
}

// NewBookingJobs creates the booking job handlers.
func NewBookingJobs(bookings *database.BookingRepository) *BookingJobs {
	return &BookingJobs{bookings: bookings}
}

// Register binds all booking job handlers.
func (j *BookingJobs) Register(reg *task.Registry) error {
	handlers := map[string]task.Handler{
		JobBookingCreate:        j.Create,
		JobBookingGetForClient:  j.GetForClient,
		JobBookingGetDetail:     j.GetDetail,
		JobBookingNotifyCreated: j.NotifyCreated,
		JobBookingSendReminder:  j.SendReminder,
	}

	for name, handler := range handlers {
		if err := reg.Register(name, handler); err != nil {
			return err
		}
	}
	return nil
}

// BookingCreateArgs are the arguments for bookings.create.
type BookingCreateArgs struct {
	ClientID            string    `json:"client_id"`
	AdvocateID          string    `json:"advocate_id"`
	AppointmentDatetime time.Time `json:"appointment_datetime"`
	IdempotencyKey      string    `json:"idempotency_key,omitempty"`
}

// Create inserts a booking and returns it. With an idempotency key the
// insert converges under redelivery; without one each delivery creates a
// booking, matching the original behavior.
func (j *BookingJobs) Create(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a BookingCreateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}

	booking := &model.Booking{
		ClientID:            a.ClientID,
		AdvocateID:          a.AdvocateID,
		AppointmentDatetime: a.AppointmentDatetime,
		IdempotencyKey:      a.IdempotencyKey,
	}
	if err := booking.Validate(); err != nil {
		return nil, task.Invalid("%v", err)
	}

	stored, err := j.bookings.Create(ctx, booking)
	if err != nil {
		return nil, err
	}

	slog.Info("Booking created",
		"booking_id", stored.ID.Hex(),
		"client_id", stored.ClientID,
		"advocate_id", stored.AdvocateID,
	)
	return stored, nil
}

// BookingsForClientArgs are the arguments for bookings.get_for_client.
type BookingsForClientArgs struct {
	ClientID string `json:"client_id"`
}

// GetForClient returns a client's bookings.
func (j *BookingJobs) GetForClient(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a BookingsForClientArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}
	if a.ClientID == "" {
		return nil, task.Invalid("client_id is required")
	}

	return j.bookings.ListByClient(ctx, a.ClientID)
}

// BookingDetailArgs are the arguments for bookings.get_detail.
type BookingDetailArgs struct {
	BookingID string `json:"booking_id"`
	ClientID  string `json:"client_id"`
}

// GetDetail returns one booking, scoped to the requesting client.
func (j *BookingJobs) GetDetail(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a BookingDetailArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}
	if a.ClientID == "" {
		return nil, task.Invalid("client_id is required")
	}

	id, err := primitive.ObjectIDFromHex(a.BookingID)
	if err != nil {
		return nil, task.NotFound("booking %s not found", a.BookingID)
	}

	b, err := j.bookings.GetByIDForClient(ctx, id, a.ClientID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, task.NotFound("booking %s not found", a.BookingID)
		}
		return nil, err
	}

	return b, nil
}

// BookingNotifyArgs are the arguments for the booking notification jobs.
type BookingNotifyArgs struct {
	BookingID           string    `json:"booking_id"`
	AdvocateID          string    `json:"advocate_id,omitempty"`
	AppointmentDatetime time.Time `json:"appointment_datetime,omitempty"`
}

// NotifyCreated records that the advocate should learn about the appointment.
func (j *BookingJobs) NotifyCreated(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a BookingNotifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}

	slog.Info("Appointment created, notifying advocate",
		"booking_id", a.BookingID,
		"advocate_id", a.AdvocateID,
		"appointment_datetime", a.AppointmentDatetime,
	)
	return nil, nil
}

// SendReminder sends an appointment reminder. The claim is a conditional
// write, so a redelivered reminder job finds it already taken and skips.
func (j *BookingJobs) SendReminder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a BookingNotifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}

	id, err := primitive.ObjectIDFromHex(a.BookingID)
	if err != nil {
		return nil, task.NotFound("booking %s not found", a.BookingID)
	}

	claimed, err := j.bookings.ClaimReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		slog.Debug("Reminder already sent, skipping", "booking_id", a.BookingID)
		return nil, nil
	}

	slog.Info("Sending appointment reminder", "booking_id", a.BookingID)
	return nil, nil
}
