package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// GenerationJob is one generation attempt. It is persisted in the running
// state before the backend call so failures stay auditable, and transitions
// to done or failed exactly once. Jobs are never deleted.
type GenerationJob struct {
	ID          string         `json:"id" bson:"id"`
	UserID      string         `json:"user_id" bson:"user_id"`
	Task        Task           `json:"task" bson:"task"`
	BrandKitID  string         `json:"brand_kit_id,omitempty" bson:"brand_kit_id,omitempty"`
	Input       map[string]any `json:"input" bson:"input"`
	Constraints map[string]any `json:"constraints" bson:"constraints"`
	Status      JobStatus      `json:"status" bson:"status"`
	Error       string         `json:"error" bson:"error"`
	CreditsUsed int            `json:"creditsUsed" bson:"credits_used"`
	Provider    string         `json:"provider" bson:"provider"`
	Model       string         `json:"model" bson:"model"`
	Output      map[string]any `json:"output,omitempty" bson:"output,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

func NewGenerationJob(userID string, task Task, brandKitID string, input, constraints map[string]any, creditsUsed int) *GenerationJob {
	if input == nil {
		input = map[string]any{}
	}
	if constraints == nil {
		constraints = map[string]any{}
	}
	return &GenerationJob{
		ID:          uuid.New().String(),
		UserID:      userID,
		Task:        task,
		BrandKitID:  brandKitID,
		Input:       input,
		Constraints: constraints,
		Status:      JobStatusRunning,
		CreditsUsed: creditsUsed,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func (j *GenerationJob) MarkDone(provider, model string, output map[string]any) {
	j.Status = JobStatusDone
	j.Provider = provider
	j.Model = model
	j.Output = output
	j.Error = ""
	j.UpdatedAt = time.Now()
}

func (j *GenerationJob) MarkFailed(message string, debug map[string]any) {
	j.Status = JobStatusFailed
	j.Error = message
	if debug != nil {
		j.Output = debug
	}
	j.UpdatedAt = time.Now()
}
