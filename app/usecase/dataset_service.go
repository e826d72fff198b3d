package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
)

// RecordSource opens a named dataset file for ingestion. The filesystem
// implementation confines paths to the configured dataset directory.
type RecordSource interface {
	Open(name string) (io.ReadCloser, error)
}

type DatasetUsecase interface {
	Ingest(ctx context.Context, name string) (*entity.IngestSummary, error)
	Stats(ctx context.Context) (*entity.DatasetStats, error)
}

var _ DatasetUsecase = (*DatasetService)(nil)

// DatasetService ingests JSONL synthetic-example files into the few-shot
// corpus, upserting by external id so re-ingestion is safe.
type DatasetService struct {
	examples repository.ExampleRepository
	source   RecordSource
	logger   *slog.Logger
}

func NewDatasetService(examples repository.ExampleRepository, source RecordSource, logger *slog.Logger) *DatasetService {
	return &DatasetService{examples: examples, source: source, logger: logger}
}

// Ingest reads one JSONL file line by line. Lines that fail to parse or
// lack an id/task are counted as skipped, never abort the run.
func (s *DatasetService) Ingest(ctx context.Context, name string) (*entity.IngestSummary, error) {
	f, err := s.source.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("close dataset file", "name", name, "err", err)
		}
	}()

	summary := &entity.IngestSummary{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		example, ok := parseExampleLine(line)
		if !ok {
			summary.Skipped++
			continue
		}
		if err := s.examples.Upsert(ctx, example); err != nil {
			s.logger.Warn("example upsert failed", "id", example.ExternalID, "err", err)
			summary.Skipped++
			continue
		}
		summary.Inserted++
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read dataset %s: %w", name, err)
	}

	s.logger.Info("dataset ingested", "name", name, "inserted", summary.Inserted, "skipped", summary.Skipped)
	return summary, nil
}

func (s *DatasetService) Stats(ctx context.Context) (*entity.DatasetStats, error) {
	total, err := s.examples.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count examples: %w", err)
	}
	byTask, err := s.examples.CountByTask(ctx)
	if err != nil {
		return nil, fmt.Errorf("count examples by task: %w", err)
	}
	return &entity.DatasetStats{Total: total, ByTask: byTask}, nil
}

// parseExampleLine extracts the index fields from a raw record: external
// id, task, and the brand niche/tones used for similarity ranking. The
// full record is kept opaque for prompt injection.
func parseExampleLine(line []byte) (*entity.SyntheticExample, bool) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, false
	}

	id, _ := raw["id"].(string)
	task, _ := raw["task"].(string)
	if id == "" || task == "" {
		return nil, false
	}

	niche := ""
	tones := []string{}
	if kit, ok := raw["brand_kit"].(map[string]any); ok {
		niche, _ = kit["niche"].(string)
		if rawTones, ok := kit["tones"].([]any); ok {
			for _, t := range rawTones {
				if s, ok := t.(string); ok && s != "" {
					tones = append(tones, s)
				}
			}
		}
	}

	return &entity.SyntheticExample{
		ExternalID: id,
		Task:       entity.Task(task),
		Niche:      niche,
		Tones:      tones,
		Raw:        raw,
	}, true
}
