package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
	"novaengine/internal/infrastructure/metrics"
)

// creditPacks is the purchasable bundle table. Amounts are cents.
var creditPacks = []entity.CreditPack{
	{ID: "starter", Label: "Starter (10 credits)", Credits: 10, AmountCents: 1000, Currency: "usd"},
	{ID: "pro", Label: "Pro (50 credits)", Credits: 50, AmountCents: 5000, Currency: "usd"},
	{ID: "mega", Label: "Mega (120 credits)", Credits: 120, AmountCents: 10000, Currency: "usd"},
}

// ErrUnknownCreditPack rejects confirmations for pack ids not in the table.
var ErrUnknownCreditPack = errors.New("unknown credit pack")

type CreditsUsecase interface {
	Packs() []entity.CreditPack
	PackByID(id string) (entity.CreditPack, bool)
	Confirm(ctx context.Context, userID, packID string) (*entity.CreditGrant, error)
}

var _ CreditsUsecase = (*CreditService)(nil)

// CreditService applies the payment provider's credit-increment contract.
// Checkout and webhook signature verification live with the provider
// integration, not here; by the time Confirm runs the payment is settled.
type CreditService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewCreditService(users repository.UserRepository, logger *slog.Logger) *CreditService {
	return &CreditService{users: users, logger: logger}
}

func (s *CreditService) Packs() []entity.CreditPack {
	out := make([]entity.CreditPack, len(creditPacks))
	copy(out, creditPacks)
	return out
}

func (s *CreditService) PackByID(id string) (entity.CreditPack, bool) {
	for _, p := range creditPacks {
		if p.ID == id {
			return p, true
		}
	}
	return entity.CreditPack{}, false
}

func (s *CreditService) Confirm(ctx context.Context, userID, packID string) (*entity.CreditGrant, error) {
	pack, ok := s.PackByID(packID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCreditPack, packID)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return nil, entity.NewUserNotFound(userID)
	}

	balance, err := s.users.AdjustCredits(ctx, userID, pack.Credits)
	if err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}

	metrics.AddCreditsGranted(pack.ID, pack.Credits)
	s.logger.Info("credits granted", "user_id", userID, "pack", pack.ID, "credits", pack.Credits)

	return &entity.CreditGrant{
		PackID:       pack.ID,
		CreditsAdded: pack.Credits,
		Balance:      balance,
	}, nil
}
