package repository

import (
	"context"

	"novaengine/internal/domain/entity"
)

// JobRepository persists generation jobs. Jobs are append-only from the
// core's perspective: Update only ever moves a job to a terminal state.
type JobRepository interface {
	Create(ctx context.Context, job *entity.GenerationJob) error
	Update(ctx context.Context, job *entity.GenerationJob) error
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)
	// ListByUser returns the user's jobs newest first, at most limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.GenerationJob, error)
}
