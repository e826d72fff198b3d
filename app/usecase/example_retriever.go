package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
)

const (
	// examplePoolSize bounds the candidate pool loaded per retrieval.
	examplePoolSize = 200
	// DefaultExampleCount is the few-shot count when the caller has no opinion.
	DefaultExampleCount = 4
)

// PoolCache caches task candidate pools so hot tasks do not re-read the
// corpus on every request. Misses and cache failures are both "not found".
type PoolCache interface {
	GetPool(ctx context.Context, task entity.Task) ([]*entity.SyntheticExample, bool)
	SetPool(ctx context.Context, task entity.Task, examples []*entity.SyntheticExample)
}

// ExampleRetriever ranks stored synthetic examples by lexical similarity
// to the requesting brand's niche and tones. Deterministic given the same
// corpus snapshot: no learned model, just token-set overlap.
type ExampleRetriever struct {
	repo   repository.ExampleRepository
	cache  PoolCache // optional
	logger *slog.Logger
}

func NewExampleRetriever(repo repository.ExampleRepository, cache PoolCache, logger *slog.Logger) *ExampleRetriever {
	return &ExampleRetriever{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Retrieve returns the top-limit candidates for the task by descending
// Jaccard similarity, ties broken by store order. An empty corpus yields
// an empty slice, not an error.
func (r *ExampleRetriever) Retrieve(ctx context.Context, task entity.Task, niche string, tones []string, limit int) ([]*entity.SyntheticExample, error) {
	if limit <= 0 {
		limit = DefaultExampleCount
	}

	candidates, err := r.loadPool(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("load example pool for %s: %w", task, err)
	}
	if len(candidates) == 0 {
		return []*entity.SyntheticExample{}, nil
	}

	target := Tokenize(niche)
	for _, tone := range tones {
		target = append(target, Tokenize(tone)...)
	}

	type scored struct {
		example *entity.SyntheticExample
		score   float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		tokens := Tokenize(c.Niche)
		for _, tone := range c.Tones {
			tokens = append(tokens, Tokenize(tone)...)
		}
		ranked = append(ranked, scored{example: c, score: Jaccard(target, tokens)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	top := make([]*entity.SyntheticExample, 0, limit)
	for _, s := range ranked[:limit] {
		top = append(top, s.example)
	}
	return top, nil
}

func (r *ExampleRetriever) loadPool(ctx context.Context, task entity.Task) ([]*entity.SyntheticExample, error) {
	if r.cache != nil {
		if pool, ok := r.cache.GetPool(ctx, task); ok {
			return pool, nil
		}
	}
	pool, err := r.repo.FindByTask(ctx, task, examplePoolSize)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.SetPool(ctx, task, pool)
	}
	return pool, nil
}

// Tokenize lowercases, strips non-alphanumeric runes and splits on
// whitespace.
func Tokenize(s string) []string {
	lowered := strings.ToLower(s)
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}

// Jaccard is token-set intersection over union; 0 when either side is empty.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
