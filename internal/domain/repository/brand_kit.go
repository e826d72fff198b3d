package repository

import (
	"context"

	"novaengine/internal/domain/entity"
)

// BrandKitRepository stores at most one kit per user.
// FindByUser returns (nil, nil) when the user has no kit.
type BrandKitRepository interface {
	FindByUser(ctx context.Context, userID string) (*entity.BrandKit, error)
	Upsert(ctx context.Context, kit *entity.BrandKit) (*entity.BrandKit, error)
}
