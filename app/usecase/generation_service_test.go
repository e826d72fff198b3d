package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaengine/internal/domain/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	user      *entity.User
	adjustErr error
	adjusted  []int
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, nil
	}
	u := *f.user
	return &u, nil
}

func (f *fakeUserRepo) AdjustCredits(_ context.Context, _ string, delta int) (int, error) {
	if f.adjustErr != nil {
		return 0, f.adjustErr
	}
	f.adjusted = append(f.adjusted, delta)
	f.user.Credits += delta
	return f.user.Credits, nil
}

type fakeKitRepo struct {
	kit *entity.BrandKit
}

func (f *fakeKitRepo) FindByUser(_ context.Context, _ string) (*entity.BrandKit, error) {
	return f.kit, nil
}

func (f *fakeKitRepo) Upsert(_ context.Context, kit *entity.BrandKit) (*entity.BrandKit, error) {
	f.kit = kit
	return kit, nil
}

type fakeJobRepo struct {
	created   []*entity.GenerationJob
	updated   []*entity.GenerationJob
	listed    []*entity.GenerationJob
	updateErr error
}

func (f *fakeJobRepo) Create(_ context.Context, job *entity.GenerationJob) error {
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobRepo) Update(_ context.Context, job *entity.GenerationJob) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	snapshot := *job
	f.updated = append(f.updated, &snapshot)
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	for _, j := range f.created {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) ListByUser(_ context.Context, _ string, limit int) ([]*entity.GenerationJob, error) {
	if limit > len(f.listed) {
		limit = len(f.listed)
	}
	return f.listed[:limit], nil
}

type fakeExampleRepo struct {
	examples []*entity.SyntheticExample
}

func (f *fakeExampleRepo) FindByTask(_ context.Context, task entity.Task, limit int) ([]*entity.SyntheticExample, error) {
	out := []*entity.SyntheticExample{}
	for _, e := range f.examples {
		if e.Task == task && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExampleRepo) Upsert(_ context.Context, example *entity.SyntheticExample) error {
	f.examples = append(f.examples, example)
	return nil
}

func (f *fakeExampleRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.examples)), nil
}

func (f *fakeExampleRepo) CountByTask(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, e := range f.examples {
		counts[string(e.Task)]++
	}
	return counts, nil
}

// fakeGenerator replays queued results, recording every compiled prompt.
type fakeGenerator struct {
	results []*entity.GenerationResult
	errs    []error
	prompts []entity.CompiledPrompt
	opts    []entity.GenerationOptions
}

func (f *fakeGenerator) Generate(_ context.Context, prompt entity.CompiledPrompt, opts entity.GenerationOptions) (*entity.GenerationResult, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	i := len(f.prompts) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.results[i], nil
}

func validMetaParsed() map[string]any {
	variants := make([]any, 0, 5)
	for i := 0; i < 5; i++ {
		variants = append(variants, map[string]any{
			"primary_text": "p", "headline": "h", "description": "d", "cta": "c", "angle": "a",
		})
	}
	return map[string]any{
		"output": map[string]any{
			"format": map[string]any{"variants": variants},
			"notes":  "n",
		},
	}
}

func newTestService(users *fakeUserRepo, kits *fakeKitRepo, jobs *fakeJobRepo, gen *fakeGenerator) *GenerationService {
	retriever := NewExampleRetriever(&fakeExampleRepo{}, nil, testLogger())
	return NewGenerationService(users, kits, jobs, retriever, gen, testLogger())
}

func TestGenerateSuccessDeductsAfterValidation(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	kits := &fakeKitRepo{kit: &entity.BrandKit{ID: "k1", UserID: "u1", BusinessName: "Acme", Niche: "fitness"}}
	jobs := &fakeJobRepo{}
	gen := &fakeGenerator{results: []*entity.GenerationResult{{
		Provider: "ollama", Model: "m", Parsed: validMetaParsed(),
	}}}

	svc := newTestService(users, kits, jobs, gen)
	resp, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "meta_ad_variants"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.CreditsUsed)
	assert.Equal(t, 8, resp.RemainingCredits)
	assert.False(t, resp.UsedFallbackKit)
	assert.NotEmpty(t, resp.JobID)
	assert.Contains(t, resp.Message, "Meta Ad Variants generated (5)")

	require.Len(t, jobs.created, 1)
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entity.JobStatusDone, jobs.updated[0].Status)
	assert.Equal(t, []int{-2}, users.adjusted)
}

func TestGenerateInvalidTask(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	jobs := &fakeJobRepo{}
	svc := newTestService(users, &fakeKitRepo{}, jobs, &fakeGenerator{})

	_, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "write_novel"})

	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindInvalidTask))
	assert.Empty(t, jobs.created)
}

func TestGenerateUserNotFound(t *testing.T) {
	svc := newTestService(&fakeUserRepo{}, &fakeKitRepo{}, &fakeJobRepo{}, &fakeGenerator{})

	_, err := svc.Generate(context.Background(), "ghost", entity.GenerateRequest{Task: "meta_ad_variants"})

	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindUserNotFound))
}

func TestGenerateInsufficientCredits(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 1}}
	jobs := &fakeJobRepo{}
	svc := newTestService(users, &fakeKitRepo{}, jobs, &fakeGenerator{})

	_, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "campaign_plan"})

	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindInsufficientCredits))
	assert.Empty(t, jobs.created)
	assert.Empty(t, users.adjusted)
}

func TestGenerateGatewayFailureLeavesFailedJobUncharged(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	jobs := &fakeJobRepo{}
	gen := &fakeGenerator{
		results: []*entity.GenerationResult{nil},
		errs:    []error{entity.NewGatewayUnavailable(errors.New("connection refused"))},
	}
	svc := newTestService(users, &fakeKitRepo{}, jobs, gen)

	_, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "tiktok_script"})

	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindGatewayUnavailable))
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entity.JobStatusFailed, jobs.updated[0].Status)
	assert.Empty(t, users.adjusted)
}

func TestGenerateRepairSucceedsChargedOnce(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	jobs := &fakeJobRepo{}
	gen := &fakeGenerator{results: []*entity.GenerationResult{
		{Provider: "ollama", Model: "m", Parsed: map[string]any{"output": map[string]any{"format": map[string]any{"variants": []any{}}}}},
		{Provider: "ollama", Model: "m", Parsed: validMetaParsed()},
	}}
	svc := newTestService(users, &fakeKitRepo{}, jobs, gen)

	resp, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "meta_ad_variants"})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.CreditsUsed)
	assert.Equal(t, []int{-2}, users.adjusted)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1].User, "previous_invalid_output")
	assert.Equal(t, 0.2, gen.opts[1].Temperature)
}

func TestGenerateRepairFailsUncharged(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	jobs := &fakeJobRepo{}
	bad := func() *entity.GenerationResult {
		return &entity.GenerationResult{
			Provider: "ollama", Model: "m",
			Parsed: map[string]any{"output": map[string]any{"format": map[string]any{"variants": []any{}}}},
		}
	}
	gen := &fakeGenerator{results: []*entity.GenerationResult{bad(), bad()}}
	svc := newTestService(users, &fakeKitRepo{}, jobs, gen)

	_, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "meta_ad_variants"})

	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindInvalidOutputShape))
	assert.Len(t, gen.prompts, 2)
	assert.Empty(t, users.adjusted)
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entity.JobStatusFailed, jobs.updated[0].Status)
}

func TestGenerateNaturalTaskNoRepair(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	gen := &fakeGenerator{results: []*entity.GenerationResult{
		{Provider: "ollama", Model: "m", Parsed: nil, Raw: "not json at all"},
	}}
	svc := newTestService(users, &fakeKitRepo{}, &fakeJobRepo{}, gen)

	_, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "google_ads"})

	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindInvalidOutputShape))
	assert.Len(t, gen.prompts, 1)
}

func TestGenerateFallbackKit(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}}
	jobs := &fakeJobRepo{}
	gen := &fakeGenerator{results: []*entity.GenerationResult{
		{Provider: "ollama", Model: "m", Parsed: map[string]any{"output": map[string]any{"text": "script body"}}},
	}}
	svc := newTestService(users, &fakeKitRepo{kit: nil}, jobs, gen)

	resp, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "tiktok_script"})

	require.NoError(t, err)
	assert.True(t, resp.UsedFallbackKit)
	assert.Empty(t, jobs.created[0].BrandKitID)
	assert.Equal(t, "script body", resp.Message)
}

func TestGenerateSettlementFailureFailsJob(t *testing.T) {
	users := &fakeUserRepo{user: &entity.User{ID: "u1", Credits: 10}, adjustErr: errors.New("write conflict")}
	jobs := &fakeJobRepo{}
	gen := &fakeGenerator{results: []*entity.GenerationResult{
		{Provider: "ollama", Model: "m", Parsed: validMetaParsed()},
	}}
	svc := newTestService(users, &fakeKitRepo{}, jobs, gen)

	_, err := svc.Generate(context.Background(), "u1", entity.GenerateRequest{Task: "meta_ad_variants"})

	require.Error(t, err)
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entity.JobStatusFailed, jobs.updated[0].Status)
}

func TestHistoryRendersStoredOutput(t *testing.T) {
	job := entity.NewGenerationJob("u1", entity.TaskMetaAdVariants, "", nil, nil, 2)
	job.MarkDone("ollama", "m", validMetaParsed())
	failed := entity.NewGenerationJob("u1", entity.TaskEmailPromo, "", nil, nil, 3)
	failed.MarkFailed("backend status 502", nil)

	jobs := &fakeJobRepo{listed: []*entity.GenerationJob{job, failed}}
	svc := newTestService(&fakeUserRepo{}, &fakeKitRepo{}, jobs, &fakeGenerator{})

	items, err := svc.History(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entity.JobStatusDone, items[0].Status)
	assert.Contains(t, items[0].Message, "Meta Ad Variants generated")
	assert.Equal(t, entity.JobStatusFailed, items[1].Status)
	assert.Equal(t, "backend status 502", items[1].Error)
	assert.Empty(t, items[1].Message)
}
