package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections. The unique
// indexes double as the idempotency backstop: the broker delivers jobs at
// least once, and two redelivered copies of the same write must collapse into
// one document here, not in worker memory.
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	if err := createCaseIndexes(ctx, db); err != nil {
		return err
	}

	if err := createBookingIndexes(ctx, db); err != nil {
		return err
	}

	if err := createAdvocateIndexes(ctx, db); err != nil {
		return err
	}

	slog.Info("Successfully created all MongoDB indexes")
	return nil
}

func createCaseIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionCases)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "case_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_case_number_unique"),
		},
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_client_id_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "advocate_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_advocate_id_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "hearing_date", Value: 1},
			},
			Options: options.Index().SetName("idx_status_hearing_date"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctxTimeout, indexes); err != nil {
		return err
	}

	slog.Info("Created cases indexes")
	return nil
}

func createBookingIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionBookings)

	indexes := []mongo.IndexModel{
		{
			// Sparse: only bookings created with an idempotency key take part.
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("idx_idempotency_key_unique"),
		},
		{
			Keys: bson.D{
				{Key: "client_id", Value: 1},
				{Key: "appointment_datetime", Value: -1},
			},
			Options: options.Index().SetName("idx_client_id_appointment"),
		},
		{
			Keys: bson.D{
				{Key: "advocate_id", Value: 1},
				{Key: "appointment_datetime", Value: -1},
			},
			Options: options.Index().SetName("idx_advocate_id_appointment"),
		},
		{
			Keys: bson.D{
				{Key: "reminder_sent", Value: 1},
				{Key: "status", Value: 1},
				{Key: "appointment_datetime", Value: 1},
			},
			Options: options.Index().SetName("idx_reminder_due"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctxTimeout, indexes); err != nil {
		return err
	}

	slog.Info("Created bookings indexes")
	return nil
}

func createAdvocateIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionAdvocates)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bar_council_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_bar_council_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "full_name", Value: 1}},
			Options: options.Index().SetName("idx_full_name"),
		},
		{
			Keys:    bson.D{{Key: "city", Value: 1}},
			Options: options.Index().SetName("idx_city"),
		},
		{
			Keys:    bson.D{{Key: "specializations", Value: 1}},
			Options: options.Index().SetName("idx_specializations"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctxTimeout, indexes); err != nil {
		return err
	}

	slog.Info("Created advocate_profiles indexes")
	return nil
}
