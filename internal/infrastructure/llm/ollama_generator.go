package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"novaengine/internal/domain/entity"
	"novaengine/internal/domain/repository"
	"novaengine/internal/infrastructure/metrics"
)

// ProviderOllama is the one integrated backend. The provider switch in
// New keeps the contract open for others without pretending they exist.
const ProviderOllama = "ollama"

// New builds the configured generation backend.
func New(provider, baseURL, model string, timeout time.Duration) (repository.TextGenerator, error) {
	switch provider {
	case ProviderOllama:
		return NewOllamaGenerator(baseURL, model, timeout), nil
	default:
		return nil, entity.NewUnsupportedProvider(provider)
	}
}

type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ repository.TextGenerator = (*OllamaGenerator)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate performs one synchronous chat round trip. Message order: system
// instructions, schema reminder, user payload. The schema reminder rides
// at system strength only for structured output; for natural-language
// tasks it is a gentler user-role suggestion.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt entity.CompiledPrompt, opts entity.GenerationOptions) (*entity.GenerationResult, error) {
	metrics.IncLLMRequest(g.model)

	messages := make([]chatMessage, 0, 3)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: strings.TrimSpace(prompt.System)})
	}
	if prompt.SchemaReminder != "" {
		role := "user"
		if opts.Structured {
			role = "system"
		}
		messages = append(messages, chatMessage{Role: role, Content: strings.TrimSpace(prompt.SchemaReminder)})
	}
	if prompt.User != nil {
		messages = append(messages, chatMessage{Role: "user", Content: safeStringify(prompt.User)})
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 900
	}

	request := map[string]any{
		"model":    g.model,
		"messages": messages,
		"stream":   false,
		"options": map[string]any{
			"temperature":    opts.Temperature,
			"top_p":          0.9,
			"repeat_penalty": 1.1,
			"num_predict":    maxTokens,
		},
	}
	if opts.Structured {
		request["format"] = "json"
	}

	raw, err := g.makeRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	parsed := tryParseJSON(raw)
	if parsed == nil && !opts.Structured {
		// Natural-language answer: wrap as text so normalization has a
		// canonical place to hoist it from.
		if text := strings.TrimSpace(raw); text != "" {
			parsed = map[string]any{"output": map[string]any{"text": text}}
		}
	}

	return &entity.GenerationResult{
		Provider: ProviderOllama,
		Model:    g.model,
		Raw:      raw,
		Parsed:   parsed,
	}, nil
}

func (g *OllamaGenerator) makeRequest(ctx context.Context, request map[string]any) (string, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		metrics.IncError("llm", "marshal_request")
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		metrics.IncError("llm", "create_request")
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.IncError("llm", "http_do")
		return "", entity.NewGatewayUnavailable(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("close body err: %s", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return "", entity.NewGatewayUnavailable(fmt.Errorf("backend status %d: %s", resp.StatusCode, string(body)))
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		metrics.IncError("llm", "decode_response")
		return "", entity.NewGatewayUnavailable(fmt.Errorf("decode response: %w", err))
	}

	return response.Message.Content, nil
}

// tryParseJSON decodes best effort: the whole text first, then the first
// balanced brace-delimited substring. Returns nil when nothing decodes;
// malformed output is the caller's call, never an error here.
func tryParseJSON(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return parsed
	}

	slice, ok := firstBalancedObject(trimmed)
	if !ok {
		return nil
	}
	parsed = nil
	if err := json.Unmarshal([]byte(slice), &parsed); err == nil {
		return parsed
	}
	return nil
}

// firstBalancedObject scans for the first top-level {...} span, tracking
// string literals and escapes so braces inside strings do not count.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func safeStringify(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
