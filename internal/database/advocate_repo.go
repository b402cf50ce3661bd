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

// AdvocateRepository reads advocate profiles. Profiles are written by the
// user service into the shared database; this service only searches and
// serves them.
type AdvocateRepository struct {
	collection *mongo.Collection
}

// NewAdvocateRepository creates a new advocate repository
func NewAdvocateRepository(db *MongoDB) *AdvocateRepository {
	return &AdvocateRepository{
		collection: db.GetCollection(CollectionAdvocates),
	}
}

// GetByID retrieves a full advocate profile by ID
func (r *AdvocateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.AdvocateProfile, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var profile model.AdvocateProfile
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("advocate %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get advocate: %w", err)
	}

	return &profile, nil
}

// Search retrieves advocate summaries matching the filter, ordered by name
func (r *AdvocateRepository) Search(ctx context.Context, filter model.AdvocateSearchFilter) ([]model.AdvocateSummary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}

	if filter.Query != "" {
		query["full_name"] = bson.M{"$regex": filter.Query, "$options": "i"}
	}
	if filter.City != "" {
		query["city"] = bson.M{"$regex": filter.City, "$options": "i"}
	}
	if filter.Specialization != "" {
		query["specializations"] = bson.M{"$regex": filter.Specialization, "$options": "i"}
	}

	experience := bson.M{}
	if filter.MinExperience != nil {
		experience["$gte"] = *filter.MinExperience
	}
	if filter.MaxExperience != nil {
		experience["$lte"] = *filter.MaxExperience
	}
	if len(experience) > 0 {
		query["experience_years"] = experience
	}

	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})

	cursor, err := r.collection.Find(ctxTimeout, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search advocates: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	summaries := make([]model.AdvocateSummary, 0)
	if err := cursor.All(ctxTimeout, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode advocates: %w", err)
	}

	return summaries, nil
}
