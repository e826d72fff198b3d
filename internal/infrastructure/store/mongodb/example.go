package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
	"novaengine/internal/infrastructure/metrics"
)

const examplesCollection = "synthetic_examples"

type ExampleRepository struct {
	collection *mongo.Collection
}

func NewExampleRepository(ctx context.Context, db *mongo.Database, logger *slog.Logger) *ExampleRepository {
	collection := db.Collection(examplesCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "task", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("example indexes", slog.String("error", err.Error()))
	}

	return &ExampleRepository{collection: collection}
}

var _ repository.ExampleRepository = (*ExampleRepository)(nil)

func (r *ExampleRepository) FindByTask(ctx context.Context, task entity.Task, limit int) ([]*entity.SyntheticExample, error) {
	metrics.IncDBOp(examplesCollection, "find")

	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"task": string(task)}, opts)
	if err != nil {
		metrics.IncError("mongodb", "find_examples")
		return nil, fmt.Errorf("find examples for %s: %w", task, err)
	}
	defer cursor.Close(ctx)

	var examples []*entity.SyntheticExample
	if err := cursor.All(ctx, &examples); err != nil {
		metrics.IncError("mongodb", "decode_examples")
		return nil, fmt.Errorf("decode examples for %s: %w", task, err)
	}
	return examples, nil
}

// Upsert keys on external_id so re-ingesting the same dataset file is
// idempotent.
func (r *ExampleRepository) Upsert(ctx context.Context, example *entity.SyntheticExample) error {
	metrics.IncDBOp(examplesCollection, "upsert")

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"task":       example.Task,
			"niche":      example.Niche,
			"tones":      example.Tones,
			"raw":        example.Raw,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"external_id": example.ExternalID,
			"created_at":  now,
		},
	}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"external_id": example.ExternalID}, update, options.Update().SetUpsert(true)); err != nil {
		metrics.IncError("mongodb", "upsert_example")
		return fmt.Errorf("upsert example %s: %w", example.ExternalID, err)
	}
	return nil
}

func (r *ExampleRepository) Count(ctx context.Context) (int64, error) {
	metrics.IncDBOp(examplesCollection, "count")

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		metrics.IncError("mongodb", "count_examples")
		return 0, fmt.Errorf("count examples: %w", err)
	}
	return total, nil
}

func (r *ExampleRepository) CountByTask(ctx context.Context) (map[string]int64, error) {
	metrics.IncDBOp(examplesCollection, "aggregate")

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$task", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		metrics.IncError("mongodb", "count_by_task")
		return nil, fmt.Errorf("count examples by task: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Task  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		metrics.IncError("mongodb", "decode_counts")
		return nil, fmt.Errorf("decode example counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Task] = row.Count
	}
	return counts, nil
}
