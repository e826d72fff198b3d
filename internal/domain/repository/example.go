package repository

import (
	"context"

	"novaengine/internal/domain/entity"
)

// ExampleRepository is the shared read-mostly few-shot corpus.
type ExampleRepository interface {
	// FindByTask returns up to limit candidates with an exact task match,
	// in stable store order.
	FindByTask(ctx context.Context, task entity.Task, limit int) ([]*entity.SyntheticExample, error)
	Upsert(ctx context.Context, example *entity.SyntheticExample) error
	Count(ctx context.Context) (int64, error)
	CountByTask(ctx context.Context) (map[string]int64, error)
}
