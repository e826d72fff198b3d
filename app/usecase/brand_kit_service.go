package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
)

// ErrBrandKitRequiredFields rejects an upsert missing the two mandatory
// identity fields.
var ErrBrandKitRequiredFields = errors.New("businessName and niche are required")

// hexColor accepts only 6-hex-digit color codes.
var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// BrandKitInput is the caller-facing upsert body.
type BrandKitInput struct {
	BusinessName  string   `json:"businessName"`
	Niche         string   `json:"niche"`
	Tagline       string   `json:"tagline"`
	Tones         []string `json:"tones"`
	Audience      string   `json:"audience"`
	Offer         string   `json:"offer"`
	USPs          []string `json:"usps"`
	ClaimsAllowed []string `json:"claimsAllowed"`
	WordsToUse    string   `json:"wordsToUse"`
	WordsToAvoid  string   `json:"wordsToAvoid"`
	Colors        []string `json:"colors"`
	StyleNotes    string   `json:"styleNotes"`
	Platforms     []string `json:"platforms"`
}

type BrandKitUsecase interface {
	Get(ctx context.Context, userID string) (*entity.BrandKit, error)
	Upsert(ctx context.Context, userID string, in BrandKitInput) (*entity.BrandKit, error)
}

var _ BrandKitUsecase = (*BrandKitService)(nil)

// BrandKitService sanitizes and stores the per-user marketing identity so
// the generation pipeline always receives clean data.
type BrandKitService struct {
	kits   repository.BrandKitRepository
	logger *slog.Logger
}

func NewBrandKitService(kits repository.BrandKitRepository, logger *slog.Logger) *BrandKitService {
	return &BrandKitService{kits: kits, logger: logger}
}

// Get returns (nil, nil) when the user has no kit.
func (s *BrandKitService) Get(ctx context.Context, userID string) (*entity.BrandKit, error) {
	kit, err := s.kits.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load brand kit: %w", err)
	}
	return kit, nil
}

func (s *BrandKitService) Upsert(ctx context.Context, userID string, in BrandKitInput) (*entity.BrandKit, error) {
	businessName := strings.TrimSpace(in.BusinessName)
	niche := strings.TrimSpace(in.Niche)
	if businessName == "" || niche == "" {
		return nil, ErrBrandKitRequiredFields
	}

	platforms := cleanStringList(in.Platforms)
	if len(platforms) == 0 {
		platforms = append([]string{}, entity.DefaultPlatforms...)
	}

	kit := &entity.BrandKit{
		UserID:        userID,
		BusinessName:  businessName,
		Niche:         niche,
		Tagline:       strings.TrimSpace(in.Tagline),
		Tones:         cleanStringList(in.Tones),
		Audience:      strings.TrimSpace(in.Audience),
		Offer:         strings.TrimSpace(in.Offer),
		USPs:          cleanStringList(in.USPs),
		ClaimsAllowed: cleanStringList(in.ClaimsAllowed),
		WordsToUse:    strings.TrimSpace(in.WordsToUse),
		WordsToAvoid:  strings.TrimSpace(in.WordsToAvoid),
		Colors:        cleanColorList(in.Colors),
		StyleNotes:    strings.TrimSpace(in.StyleNotes),
		Platforms:     platforms,
	}

	saved, err := s.kits.Upsert(ctx, kit)
	if err != nil {
		return nil, fmt.Errorf("upsert brand kit: %w", err)
	}
	return saved, nil
}

func cleanStringList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func cleanColorList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); hexColor.MatchString(t) {
			out = append(out, t)
		}
	}
	return out
}
