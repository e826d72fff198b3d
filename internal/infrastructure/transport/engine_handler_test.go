package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaengine/app/usecase"
	"novaengine/internal/domain/entity"
)

const testSecret = "test-secret"

type stubGeneration struct {
	resp    *entity.GenerateResponse
	err     error
	history []entity.HistoryItem
	userID  string
	req     entity.GenerateRequest
}

func (s *stubGeneration) Generate(_ context.Context, userID string, req entity.GenerateRequest) (*entity.GenerateResponse, error) {
	s.userID = userID
	s.req = req
	return s.resp, s.err
}

func (s *stubGeneration) History(context.Context, string) ([]entity.HistoryItem, error) {
	return s.history, nil
}

type stubBrandKits struct {
	kit *entity.BrandKit
	err error
}

func (s *stubBrandKits) Get(context.Context, string) (*entity.BrandKit, error) {
	return s.kit, s.err
}

func (s *stubBrandKits) Upsert(_ context.Context, userID string, in usecase.BrandKitInput) (*entity.BrandKit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.BrandKit{UserID: userID, BusinessName: in.BusinessName, Niche: in.Niche}, nil
}

type stubDataset struct {
	summary *entity.IngestSummary
	stats   *entity.DatasetStats
}

func (s *stubDataset) Ingest(context.Context, string) (*entity.IngestSummary, error) {
	return s.summary, nil
}

func (s *stubDataset) Stats(context.Context) (*entity.DatasetStats, error) {
	return s.stats, nil
}

type stubCredits struct {
	grant *entity.CreditGrant
	err   error
}

func (s *stubCredits) Packs() []entity.CreditPack {
	return []entity.CreditPack{{ID: "starter", Credits: 10}}
}

func (s *stubCredits) PackByID(id string) (entity.CreditPack, bool) {
	if id == "starter" {
		return entity.CreditPack{ID: "starter", Credits: 10}, true
	}
	return entity.CreditPack{}, false
}

func (s *stubCredits) Confirm(context.Context, string, string) (*entity.CreditGrant, error) {
	return s.grant, s.err
}

func newTestHandler(gen *stubGeneration) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(
		gen,
		&stubBrandKits{},
		&stubDataset{summary: &entity.IngestSummary{Inserted: 3, Skipped: 1}, stats: &entity.DatasetStats{Total: 4}},
		&stubCredits{grant: &entity.CreditGrant{PackID: "starter", CreditsAdded: 10, Balance: 12}},
		logger,
		testSecret, "ingest-key", "provider-key",
	)
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := GenerateToken(userID, "u@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGenerateRequiresAuth(t *testing.T) {
	h := newTestHandler(&stubGeneration{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", strings.NewReader(`{}`))

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateRejectsBadToken(t *testing.T) {
	h := newTestHandler(&stubGeneration{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-token")

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGeneratePassesUserAndBody(t *testing.T) {
	gen := &stubGeneration{resp: &entity.GenerateResponse{Success: true, JobID: "j1", CreditsUsed: 2}}
	h := newTestHandler(gen)
	rec := httptest.NewRecorder()
	body := `{"task":"meta_ad_variants","input":{"product":"mug"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, "u42"))

	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u42", gen.userID)
	assert.Equal(t, "meta_ad_variants", gen.req.Task)

	var resp entity.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "j1", resp.JobID)
}

func TestMetaAdsRoutePinsTask(t *testing.T) {
	gen := &stubGeneration{resp: &entity.GenerateResponse{Success: true}}
	h := newTestHandler(gen)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/meta-ads", strings.NewReader(`{"task":"email_promo"}`))
	req.Header.Set("Authorization", bearer(t, "u1"))

	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(entity.TaskMetaAdVariants), gen.req.Task)
}

func TestDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid task", entity.NewInvalidTask("nope", nil), http.StatusBadRequest},
		{"user not found", entity.NewUserNotFound("u1"), http.StatusNotFound},
		{"insufficient credits", entity.NewInsufficientCredits(4, 1), http.StatusForbidden},
		{"gateway unavailable", entity.NewGatewayUnavailable(nil), http.StatusBadGateway},
		{"invalid output shape", entity.NewInvalidOutputShape(entity.TaskMetaAdVariants, nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&stubGeneration{err: tc.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", strings.NewReader(`{"task":"x"}`))
			req.Header.Set("Authorization", bearer(t, "u1"))

			h.Router().ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestInsufficientCreditsDetails(t *testing.T) {
	h := newTestHandler(&stubGeneration{err: entity.NewInsufficientCredits(4, 1)})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", strings.NewReader(`{"task":"campaign_plan"}`))
	req.Header.Set("Authorization", bearer(t, "u1"))

	h.Router().ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	details := body["details"].(map[string]any)
	assert.Equal(t, float64(4), details["creditsNeeded"])
	assert.Equal(t, float64(1), details["credits"])
}

func TestIngestRequiresKey(t *testing.T) {
	h := newTestHandler(&stubGeneration{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dataset/ingest", strings.NewReader(`{"file":"batch.jsonl"}`))
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/dataset/ingest", strings.NewReader(`{"file":"batch.jsonl"}`))
	req.Header.Set("X-Ingest-Key", "ingest-key")
	h.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary entity.IngestSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Inserted)
}

func TestConfirmCreditsRequiresProviderKey(t *testing.T) {
	h := newTestHandler(&stubGeneration{})
	body := `{"userId":"u1","packId":"starter"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/credits/confirm", strings.NewReader(body))
	req.Header.Set("X-Provider-Key", "wrong")
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/credits/confirm", strings.NewReader(body))
	req.Header.Set("X-Provider-Key", "provider-key")
	h.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var grant entity.CreditGrant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grant))
	assert.Equal(t, 12, grant.Balance)
}

func TestCreditPacksIsPublic(t *testing.T) {
	h := newTestHandler(&stubGeneration{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits/packs", nil)

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "starter")
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubGeneration{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestBrandKitRequiredFields(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(
		&stubGeneration{},
		&stubBrandKits{err: usecase.ErrBrandKitRequiredFields},
		&stubDataset{},
		&stubCredits{},
		logger,
		testSecret, "", "",
	)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/brand-kit", strings.NewReader(`{"tagline":"only"}`))
	req.Header.Set("Authorization", bearer(t, "u1"))

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	h := newTestHandler(&stubGeneration{})
	token, err := GenerateToken("u1", "u@example.com", testSecret, -time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
