package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/advolink/advolink/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingRepository handles booking document operations
type BookingRepository struct {
	collection *mongo.Collection
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *MongoDB) *BookingRepository {
	return &BookingRepository{
		collection: db.GetCollection(CollectionBookings),
	}
}

// Create inserts a booking. When an idempotency key is present the insert is
// an upsert on that key, so a redelivered create job returns the booking the
// first delivery made instead of a duplicate. Without a key each delivery
// inserts a fresh document.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.CreatedAt = now
	b.UpdatedAt = now

	if b.IdempotencyKey == "" {
		if _, err := r.collection.InsertOne(ctxTimeout, b); err != nil {
			return nil, fmt.Errorf("failed to create booking: %w", err)
		}
		return b, nil
	}

	filter := bson.M{"idempotency_key": b.IdempotencyKey}
	update := bson.M{"$setOnInsert": b}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.Booking
	if err := r.collection.FindOneAndUpdate(ctxTimeout, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return &stored, nil
}

// GetByIDForClient retrieves a booking by ID scoped to the owning client
func (r *BookingRepository) GetByIDForClient(ctx context.Context, id primitive.ObjectID, clientID string) (*model.Booking, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b model.Booking
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id, "client_id": clientID}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &b, nil
}

// ListByClient retrieves a client's bookings, most recent appointment first
func (r *BookingRepository) ListByClient(ctx context.Context, clientID string) ([]model.Booking, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "appointment_datetime", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	bookings := make([]model.Booking, 0)
	if err := cursor.All(ctxTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// FindDueReminders retrieves unreminded bookings whose appointment falls
// within the window starting at now.
func (r *BookingRepository) FindDueReminders(ctx context.Context, now time.Time, window time.Duration) ([]model.Booking, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"reminder_sent": false,
		"status":        bson.M{"$in": []string{model.BookingStatusPending, model.BookingStatusConfirmed}},
		"appointment_datetime": bson.M{
			"$gte": now,
			"$lte": now.Add(window),
		},
	}

	cursor, err := r.collection.Find(ctxTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	bookings := make([]model.Booking, 0)
	if err := cursor.All(ctxTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode due reminders: %w", err)
	}

	return bookings, nil
}

// ClaimReminder flips reminder_sent on a booking. The conditional filter
// means exactly one of several racing schedulers or redelivered jobs wins the
// claim; the rest see false.
func (r *BookingRepository) ClaimReminder(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "reminder_sent": false}
	update := bson.M{
		"$set": bson.M{
			"reminder_sent": true,
			"updated_at":    time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}

	return result.ModifiedCount == 1, nil
}
