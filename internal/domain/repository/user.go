package repository

import (
	"context"

	"novaengine/internal/domain/entity"
)

// UserRepository is the slice of the user store the generation core needs.
// FindByID returns (nil, nil) when the user does not exist.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// AdjustCredits applies a delta to the user's balance in one
	// per-document write and returns the new balance.
	AdjustCredits(ctx context.Context, id string, delta int) (int, error)
}
