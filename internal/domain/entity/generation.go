package entity

import "time"

// GenerateRequest is the caller-facing generation request body.
type GenerateRequest struct {
	Task        string         `json:"task"`
	Input       map[string]any `json:"input"`
	Constraints map[string]any `json:"constraints"`
}

// GenerateResponse is the success shape of a generation.
type GenerateResponse struct {
	Success          bool           `json:"success"`
	CreditsUsed      int            `json:"creditsUsed"`
	RemainingCredits int            `json:"remainingCredits"`
	JobID            string         `json:"jobId"`
	Output           map[string]any `json:"output"`
	Message          string         `json:"message"`
	UsedFallbackKit  bool           `json:"usedFallbackKit"`
}

// HistoryItem is one past job with the same canonical-output unwrap and
// human rendering applied as a fresh generation.
type HistoryItem struct {
	JobID       string         `json:"jobId"`
	Task        Task           `json:"task"`
	Status      JobStatus      `json:"status"`
	CreditsUsed int            `json:"creditsUsed"`
	Provider    string         `json:"provider"`
	Model       string         `json:"model"`
	Output      map[string]any `json:"output,omitempty"`
	Message     string         `json:"message"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CompiledPrompt is the three-artifact prompt handed to the gateway.
type CompiledPrompt struct {
	System         string
	User           map[string]any
	SchemaReminder string
	// Strict marks tasks whose output must be machine-parseable. The
	// gateway treats the schema reminder as a system-strength directive
	// only when set.
	Strict bool
}

// GenerationOptions tune a single backend call.
type GenerationOptions struct {
	Temperature float64
	MaxTokens   int
	Structured  bool
}

// GenerationResult is the raw backend answer plus its best-effort decode.
// Parsed is nil when the text could not be decoded; that is not an error
// here, shape validation is the caller's problem.
type GenerationResult struct {
	Provider string
	Model    string
	Raw      string
	Parsed   map[string]any
}

// CreditPack is a purchasable credit bundle.
type CreditPack struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Credits     int    `json:"credits"`
	AmountCents int    `json:"amountCents"`
	Currency    string `json:"currency"`
}

// CreditGrant records a payment-confirmed credit increment.
type CreditGrant struct {
	PackID       string `json:"pack"`
	CreditsAdded int    `json:"creditsAdded"`
	Balance      int    `json:"credits"`
}
