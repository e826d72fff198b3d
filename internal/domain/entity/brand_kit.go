package entity

import "time"

// BrandKit is the per-user marketing identity used to condition generation.
// At most one kit exists per user.
type BrandKit struct {
	ID           string    `json:"id" bson:"id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	BusinessName string    `json:"businessName" bson:"business_name"`
	Niche        string    `json:"niche" bson:"niche"`
	Tagline      string    `json:"tagline" bson:"tagline"`
	Tones        []string  `json:"tones" bson:"tones"`
	Audience     string    `json:"audience" bson:"audience"`
	Offer        string    `json:"offer" bson:"offer"`
	USPs         []string  `json:"usps" bson:"usps"`
	ClaimsAllowed []string `json:"claimsAllowed" bson:"claims_allowed"`
	WordsToUse   string    `json:"wordsToUse" bson:"words_to_use"`
	WordsToAvoid string    `json:"wordsToAvoid" bson:"words_to_avoid"`
	Colors       []string  `json:"colors" bson:"colors"`
	StyleNotes   string    `json:"styleNotes" bson:"style_notes"`
	Platforms    []string  `json:"platforms" bson:"platforms"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultPlatforms is applied when an upserted kit names none.
var DefaultPlatforms = []string{"Meta", "TikTok", "Google", "Email"}

// FallbackBrandKit is substituted when a user has no stored kit, so
// generation never depends on a kit existing.
func FallbackBrandKit() *BrandKit {
	return &BrandKit{
		Tones:     []string{},
		USPs:      []string{},
		Colors:    []string{},
		Platforms: []string{},
	}
}
