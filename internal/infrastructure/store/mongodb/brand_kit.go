package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
	"novaengine/internal/infrastructure/metrics"
)

const brandKitsCollection = "brand_kits"

type BrandKitRepository struct {
	collection *mongo.Collection
}

// NewBrandKitRepository enforces one kit per user with a unique index.
func NewBrandKitRepository(ctx context.Context, db *mongo.Database, logger *slog.Logger) *BrandKitRepository {
	collection := db.Collection(brandKitsCollection)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Warn("brand kit index", slog.String("error", err.Error()))
	}

	return &BrandKitRepository{collection: collection}
}

var _ repository.BrandKitRepository = (*BrandKitRepository)(nil)

// FindByUser returns (nil, nil) when the user has not saved a kit yet.
func (r *BrandKitRepository) FindByUser(ctx context.Context, userID string) (*entity.BrandKit, error) {
	metrics.IncDBOp(brandKitsCollection, "find_one")

	var kit entity.BrandKit
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&kit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		metrics.IncError("mongodb", "find_brand_kit")
		return nil, fmt.Errorf("find brand kit for %s: %w", userID, err)
	}
	return &kit, nil
}

// Upsert replaces the user's kit fields, creating the document on first
// save and preserving created_at afterwards.
func (r *BrandKitRepository) Upsert(ctx context.Context, kit *entity.BrandKit) (*entity.BrandKit, error) {
	metrics.IncDBOp(brandKitsCollection, "upsert")

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"business_name":  kit.BusinessName,
			"niche":          kit.Niche,
			"tagline":        kit.Tagline,
			"tones":          kit.Tones,
			"audience":       kit.Audience,
			"offer":          kit.Offer,
			"usps":           kit.USPs,
			"claims_allowed": kit.ClaimsAllowed,
			"words_to_use":   kit.WordsToUse,
			"words_to_avoid": kit.WordsToAvoid,
			"colors":         kit.Colors,
			"style_notes":    kit.StyleNotes,
			"platforms":      kit.Platforms,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"id":         uuid.New().String(),
			"user_id":    kit.UserID,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved entity.BrandKit
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": kit.UserID}, update, opts).Decode(&saved); err != nil {
		metrics.IncError("mongodb", "upsert_brand_kit")
		return nil, fmt.Errorf("upsert brand kit for %s: %w", kit.UserID, err)
	}
	return &saved, nil
}
