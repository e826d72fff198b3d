package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
	"novaengine/internal/infrastructure/metrics"
	"novaengine/internal/infrastructure/validator"
)

// historyPageSize caps the history listing.
const historyPageSize = 30

type GenerationUsecase interface {
	Generate(ctx context.Context, userID string, req entity.GenerateRequest) (*entity.GenerateResponse, error)
	History(ctx context.Context, userID string) ([]entity.HistoryItem, error)
}

var _ GenerationUsecase = (*GenerationService)(nil)

// GenerationService is the request-level coordinator for one generation:
// task validation, credit pre-check, job lifecycle, the retrieve/compile/
// call/validate pipeline with its bounded repair pass, settlement, and
// response shaping. Everything runs synchronously inside the request.
type GenerationService struct {
	users     repository.UserRepository
	kits      repository.BrandKitRepository
	jobs      repository.JobRepository
	retriever *ExampleRetriever
	llm       repository.TextGenerator
	logger    *slog.Logger
}

func NewGenerationService(
	users repository.UserRepository,
	kits repository.BrandKitRepository,
	jobs repository.JobRepository,
	retriever *ExampleRetriever,
	llm repository.TextGenerator,
	logger *slog.Logger,
) *GenerationService {
	return &GenerationService{
		users:     users,
		kits:      kits,
		jobs:      jobs,
		retriever: retriever,
		llm:       llm,
		logger:    logger,
	}
}

func (s *GenerationService) Generate(ctx context.Context, userID string, req entity.GenerateRequest) (*entity.GenerateResponse, error) {
	startTime := time.Now()
	task := entity.Task(req.Task)

	// Rejections before this point create no job and charge nothing.
	if err := ValidateTask(task); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return nil, entity.NewUserNotFound(userID)
	}

	cost := TaskCost(task)
	if user.Credits < cost {
		return nil, entity.NewInsufficientCredits(cost, user.Credits)
	}

	kit, err := s.kits.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load brand kit: %w", err)
	}
	usedFallbackKit := kit == nil
	brandKitID := ""
	if usedFallbackKit {
		kit = entity.FallbackBrandKit()
	} else {
		brandKitID = kit.ID
	}

	job := entity.NewGenerationJob(userID, task, brandKitID, req.Input, req.Constraints, cost)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("generation started", "job_id", job.ID, "task", task, "used_fallback_kit", usedFallbackKit)

	result, parsed, err := s.runPipeline(ctx, job, task, kit, req)
	if err != nil {
		// Anything after job creation must leave an auditable failed job.
		s.failJob(ctx, job, err, parsed)
		metrics.IncGeneration(string(task), "failed")
		return nil, err
	}

	// Settlement happens strictly after validation success, so a failed
	// job can never have charged credits. A done-write failure after the
	// deduction is logged and accepted rather than rolled back.
	balance, err := s.users.AdjustCredits(ctx, userID, -cost)
	if err != nil {
		s.failJob(ctx, job, err, nil)
		metrics.IncGeneration(string(task), "failed")
		return nil, fmt.Errorf("settle credits: %w", err)
	}
	metrics.AddCreditsSpent(string(task), cost)

	job.MarkDone(result.Provider, result.Model, parsed)
	if err := s.jobs.Update(ctx, job); err != nil {
		s.logger.Error("job done-write failed after settlement", "job_id", job.ID, "err", err)
	}

	finalOutput := validator.Unwrap(string(task), parsed)
	metrics.IncGeneration(string(task), "done")
	metrics.ObserveGenerationDuration(time.Since(startTime))
	s.logger.Info("generation done", "job_id", job.ID, "task", task, "duration", time.Since(startTime))

	return &entity.GenerateResponse{
		Success:          true,
		CreditsUsed:      cost,
		RemainingCredits: balance,
		JobID:            job.ID,
		Output:           finalOutput,
		Message:          RenderHuman(task, finalOutput),
		UsedFallbackKit:  usedFallbackKit,
	}, nil
}

// runPipeline performs retrieve -> compile -> call -> normalize ->
// validate, with at most one schema-driven repair round trip.
func (s *GenerationService) runPipeline(ctx context.Context, job *entity.GenerationJob, task entity.Task, kit *entity.BrandKit, req entity.GenerateRequest) (*entity.GenerationResult, map[string]any, error) {
	examples, err := s.retriever.Retrieve(ctx, task, kit.Niche, kit.Tones, DefaultExampleCount)
	if err != nil {
		return nil, nil, err
	}

	prompt := CompilePrompt(task, kit, req.Input, req.Constraints, examples)
	result, err := s.llm.Generate(ctx, prompt, OptionsFor(task))
	if err != nil {
		return nil, nil, err
	}

	parsed := validator.Normalize(string(task), result.Parsed)
	invalid := validator.Validate(task, parsed)
	if invalid == nil {
		metrics.IncValidationRun(string(task), "pass")
		return result, parsed, nil
	}
	metrics.IncValidationRun(string(task), "fail")

	if validator.RepairAttempts(task) < 1 {
		return result, parsed, entity.NewInvalidOutputShape(task, invalid)
	}

	s.logger.Warn("output shape invalid, attempting repair", "job_id", job.ID, "task", task, "err", invalid)
	metrics.IncRepairAttempt(string(task))

	repairPrompt := CompileRepairPrompt(task, kit, req.Input, req.Constraints, examples, result.Parsed)
	repaired, err := s.llm.Generate(ctx, repairPrompt, RepairOptions(task))
	if err != nil {
		return nil, parsed, err
	}

	parsed = validator.Normalize(string(task), repaired.Parsed)
	if invalid := validator.Validate(task, parsed); invalid != nil {
		metrics.IncValidationRun(string(task), "fail")
		return repaired, parsed, entity.NewInvalidOutputShape(task, invalid)
	}
	metrics.IncValidationRun(string(task), "pass")
	return repaired, parsed, nil
}

// failJob moves the job to failed with the captured message before the
// error surfaces, so history never silently disagrees with what happened.
// Shape failures keep the offending payload as debug output.
func (s *GenerationService) failJob(ctx context.Context, job *entity.GenerationJob, cause error, debug map[string]any) {
	job.MarkFailed(cause.Error(), debug)
	if err := s.jobs.Update(ctx, job); err != nil {
		s.logger.Error("failed to persist job failure", "job_id", job.ID, "err", err)
	}
}

// History returns the user's most recent jobs, newest first, with the
// same unwrap and human rendering a fresh generation gets, regardless of
// which schema revision produced the stored output.
func (s *GenerationService) History(ctx context.Context, userID string) ([]entity.HistoryItem, error) {
	jobs, err := s.jobs.ListByUser(ctx, userID, historyPageSize)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	items := make([]entity.HistoryItem, 0, len(jobs))
	for _, job := range jobs {
		var output map[string]any
		message := ""
		if job.Output != nil {
			output = validator.Unwrap(string(job.Task), job.Output)
			message = RenderHuman(job.Task, output)
		}
		items = append(items, entity.HistoryItem{
			JobID:       job.ID,
			Task:        job.Task,
			Status:      job.Status,
			CreditsUsed: job.CreditsUsed,
			Provider:    job.Provider,
			Model:       job.Model,
			Output:      output,
			Message:     message,
			Error:       job.Error,
			CreatedAt:   job.CreatedAt,
		})
	}
	return items, nil
}
