package mongodb

import (
	"context"
	"errors"
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

const jobsCollection = "generation_jobs"

type JobRepository struct {
	collection *mongo.Collection
}

func NewJobRepository(ctx context.Context, db *mongo.Database, logger *slog.Logger) *JobRepository {
	collection := db.Collection(jobsCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("job indexes", slog.String("error", err.Error()))
	}

	return &JobRepository{collection: collection}
}

var _ repository.JobRepository = (*JobRepository)(nil)

func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	metrics.IncDBOp(jobsCollection, "insert")

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, job); err != nil {
		metrics.IncError("mongodb", "create_job")
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.GenerationJob) error {
	metrics.IncDBOp(jobsCollection, "replace")

	job.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"id": job.ID}, job)
	if err != nil {
		metrics.IncError("mongodb", "update_job")
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, mongo.ErrNoDocuments)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	metrics.IncDBOp(jobsCollection, "find_one")

	var job entity.GenerationJob
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		metrics.IncError("mongodb", "get_job")
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

// ListByUser returns the user's jobs newest first, at most limit.
func (r *JobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.GenerationJob, error) {
	metrics.IncDBOp(jobsCollection, "find")

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		metrics.IncError("mongodb", "list_jobs")
		return nil, fmt.Errorf("list jobs for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var jobs []*entity.GenerationJob
	if err := cursor.All(ctx, &jobs); err != nil {
		metrics.IncError("mongodb", "decode_jobs")
		return nil, fmt.Errorf("decode jobs for %s: %w", userID, err)
	}
	return jobs, nil
}
