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

// CaseRepository handles case document operations
type CaseRepository struct {
	collection *mongo.Collection
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *MongoDB) *CaseRepository {
	return &CaseRepository{
		collection: db.GetCollection(CollectionCases),
	}
}

// Create inserts a new case
func (r *CaseRepository) Create(ctx context.Context, c *model.Case) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.collection.InsertOne(ctxTimeout, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("case number %q: %w", c.CaseNumber, ErrDuplicate)
		}
		return fmt.Errorf("failed to create case: %w", err)
	}

	return nil
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Case, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c model.Case
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	return &c, nil
}

// ListByClient retrieves case summaries for a client, newest first
func (r *CaseRepository) ListByClient(ctx context.Context, clientID string) ([]model.CaseSummary, error) {
	return r.list(ctx, bson.M{"client_id": clientID})
}

// ListByAdvocate retrieves case summaries for an advocate, newest first
func (r *CaseRepository) ListByAdvocate(ctx context.Context, advocateID string) ([]model.CaseSummary, error) {
	return r.list(ctx, bson.M{"advocate_id": advocateID})
}

func (r *CaseRepository) list(ctx context.Context, filter bson.M) ([]model.CaseSummary, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	summaries := make([]model.CaseSummary, 0)
	if err := cursor.All(ctxTimeout, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode cases: %w", err)
	}

	return summaries, nil
}

// Update replaces an existing case document
func (r *CaseRepository) Update(ctx context.Context, id primitive.ObjectID, c *model.Case) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.ID = id
	c.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctxTimeout, bson.M{"_id": id}, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("case number %q: %w", c.CaseNumber, ErrDuplicate)
		}
		return fmt.Errorf("failed to update case: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}

	return nil
}

// AddTeamMember appends a team member to a case. The filter keeps a user from
// joining the same case twice, which also makes redelivered add jobs converge.
func (r *CaseRepository) AddTeamMember(ctx context.Context, id primitive.ObjectID, member model.TeamMember) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":          id,
		"team.user_id": bson.M{"$ne": member.UserID},
	}
	update := bson.M{
		"$push": bson.M{"team": member},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either the case is missing or the member is already on it.
		exists, err := r.exists(ctxTimeout, id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
		}
		return fmt.Errorf("team member %q: %w", member.UserID, ErrDuplicate)
	}

	return nil
}

// SetHearingDate sets or replaces the hearing date on a case
func (r *CaseRepository) SetHearingDate(ctx context.Context, id primitive.ObjectID, hearingDate time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"hearing_date": hearingDate,
			"updated_at":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set hearing date: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}

	return nil
}

// AddNote appends a note to a case
func (r *CaseRepository) AddNote(ctx context.Context, id primitive.ObjectID, note *model.Note) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if note.ID.IsZero() {
		note.ID = primitive.NewObjectID()
	}
	note.CreatedAt = time.Now().UTC()

	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}

	return nil
}

// AddDocument appends a document record to a case
func (r *CaseRepository) AddDocument(ctx context.Context, id primitive.ObjectID, doc *model.Document) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.UploadedAt = time.Now().UTC()

	update := bson.M{
		"$push": bson.M{"documents": doc},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("case %s: %w", id.Hex(), ErrNotFound)
	}

	return nil
}

func (r *CaseRepository) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check case existence: %w", err)
	}
	return count > 0, nil
}
