package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
	"novaengine/internal/infrastructure/metrics"
)

const usersCollection = "users"

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

// FindByID returns (nil, nil) when no user matches, so callers can map
// the miss to their own error.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	metrics.IncDBOp(usersCollection, "find_one")

	var user entity.User
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		metrics.IncError("mongodb", "find_user")
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

// AdjustCredits applies delta atomically and returns the resulting
// balance. Negative deltas are deductions.
func (r *UserRepository) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	metrics.IncDBOp(usersCollection, "update")

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc":         bson.M{"credits": delta},
		"$currentDate": bson.M{"updated_at": true},
	}

	var user entity.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("adjust credits: user %s not found", id)
	}
	if err != nil {
		metrics.IncError("mongodb", "adjust_credits")
		return 0, fmt.Errorf("adjust credits for %s: %w", id, err)
	}
	return user.Credits, nil
}
