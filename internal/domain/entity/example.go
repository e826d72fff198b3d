package entity

import "time"

// SyntheticExample is a stored few-shot exemplar. The raw record is opaque
// to the core and passed through to prompts untouched. Examples are shared
// read-only reference data; re-ingestion upserts by external id.
type SyntheticExample struct {
	ExternalID string         `json:"id" bson:"external_id"`
	Task       Task           `json:"task" bson:"task"`
	Niche      string         `json:"niche" bson:"niche"`
	Tones      []string       `json:"tones" bson:"tones"`
	Raw        map[string]any `json:"raw" bson:"raw"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" bson:"updated_at"`
}

// IngestSummary reports a dataset ingestion run.
type IngestSummary struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// DatasetStats summarizes the example corpus.
type DatasetStats struct {
	Total  int64            `json:"total"`
	ByTask map[string]int64 `json:"byTask"`
}
