package model

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking statuses
const (
	BookingStatusPending   = "Pending"
	BookingStatusConfirmed = "Confirmed"
	BookingStatusCancelled = "Cancelled"
	BookingStatusCompleted = "Completed"
)

// Booking is an appointment between a client and an advocate.
//
// IdempotencyKey is optional and caller-supplied. The broker delivers create
// jobs at least once; when the key is present, a unique sparse index makes
// redelivered creates converge on a single booking. Without it, a redelivered
// create produces a second booking.
type Booking struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClientID            string             `json:"client_id" bson:"client_id"`
	AdvocateID          string             `json:"advocate_id" bson:"advocate_id"`
	AppointmentDatetime time.Time          `json:"appointment_datetime" bson:"appointment_datetime"`
	Status              string             `json:"status" bson:"status"`
	IdempotencyKey      string             `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	ReminderSent        bool               `json:"reminder_sent" bson:"reminder_sent"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"`
}

// Validate validates a booking and fills the default status.
func (b *Booking) Validate() error {
	if b.ClientID == "" {
		return errors.New("client_id is required")
	}
	if b.AdvocateID == "" {
		return errors.New("advocate_id is required")
	}
	if b.AppointmentDatetime.IsZero() {
		return errors.New("appointment_datetime is required")
	}

	if b.Status == "" {
		b.Status = BookingStatusPending
	}
	switch b.Status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
	default:
		return fmt.Errorf("invalid status: %s", b.Status)
	}

	return nil
}
