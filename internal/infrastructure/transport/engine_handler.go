package transport

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"novaengine/app/usecase"
	"novaengine/internal/domain/entity"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nova_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nova_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
}

// Handler wires the HTTP surface to the usecases. Authentication is a
// bearer token for user routes and shared header keys for the operational
// dataset and payment-confirmation routes.
type Handler struct {
	generation  usecase.GenerationUsecase
	brandKits   usecase.BrandKitUsecase
	dataset     usecase.DatasetUsecase
	credits     usecase.CreditsUsecase
	logger      *slog.Logger
	jwtSecret   string
	ingestKey   string
	providerKey string
}

func NewHandler(
	generation usecase.GenerationUsecase,
	brandKits usecase.BrandKitUsecase,
	dataset usecase.DatasetUsecase,
	credits usecase.CreditsUsecase,
	logger *slog.Logger,
	jwtSecret, ingestKey, providerKey string,
) *Handler {
	return &Handler{
		generation:  generation,
		brandKits:   brandKits,
		dataset:     dataset,
		credits:     credits,
		logger:      logger,
		jwtSecret:   jwtSecret,
		ingestKey:   ingestKey,
		providerKey: providerKey,
	}
}

func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/v1/health", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.withMetrics)

	api.HandleFunc("/credits/packs", h.listCreditPacks).Methods(http.MethodGet)
	api.HandleFunc("/credits/confirm", h.confirmCredits).Methods(http.MethodPost)
	api.HandleFunc("/dataset/ingest", h.ingestDataset).Methods(http.MethodPost)
	api.HandleFunc("/dataset/stats", h.datasetStats).Methods(http.MethodGet)

	user := api.NewRoute().Subrouter()
	user.Use(AuthRequired(h.jwtSecret))
	user.HandleFunc("/ai/generate", h.generate).Methods(http.MethodPost)
	user.HandleFunc("/ai/meta-ads", h.generateMetaAds).Methods(http.MethodPost)
	user.HandleFunc("/ai/history", h.history).Methods(http.MethodGet)
	user.HandleFunc("/brand-kit", h.getBrandKit).Methods(http.MethodGet)
	user.HandleFunc("/brand-kit", h.putBrandKit).Methods(http.MethodPut)

	return router
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req entity.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	h.runGeneration(w, r, req)
}

// generateMetaAds is the dedicated ad-variant route: same pipeline with
// the task pinned.
func (h *Handler) generateMetaAds(w http.ResponseWriter, r *http.Request) {
	var req entity.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	req.Task = string(entity.TaskMetaAdVariants)
	h.runGeneration(w, r, req)
}

func (h *Handler) runGeneration(w http.ResponseWriter, r *http.Request, req entity.GenerateRequest) {
	userID := UserID(r.Context())

	resp, err := h.generation.Generate(r.Context(), userID, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	items, err := h.generation.History(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) getBrandKit(w http.ResponseWriter, r *http.Request) {
	kit, err := h.brandKits.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brandKit": kit})
}

func (h *Handler) putBrandKit(w http.ResponseWriter, r *http.Request) {
	var in usecase.BrandKitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	kit, err := h.brandKits.Upsert(r.Context(), UserID(r.Context()), in)
	if err != nil {
		if errors.Is(err, usecase.ErrBrandKitRequiredFields) {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brandKit": kit})
}

func (h *Handler) ingestDataset(w http.ResponseWriter, r *http.Request) {
	if !h.checkKey(r, "X-Ingest-Key", h.ingestKey) {
		writeError(w, http.StatusUnauthorized, "invalid ingest key", nil)
		return
	}

	var req struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.File == "" {
		writeError(w, http.StatusBadRequest, "file is required", nil)
		return
	}

	summary, err := h.dataset.Ingest(r.Context(), req.File)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) datasetStats(w http.ResponseWriter, r *http.Request) {
	if !h.checkKey(r, "X-Ingest-Key", h.ingestKey) {
		writeError(w, http.StatusUnauthorized, "invalid ingest key", nil)
		return
	}

	stats, err := h.dataset.Stats(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) listCreditPacks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"packs": h.credits.Packs()})
}

// confirmCredits is called by the payment provider's webhook after a
// successful purchase, authenticated by a shared key.
func (h *Handler) confirmCredits(w http.ResponseWriter, r *http.Request) {
	if !h.checkKey(r, "X-Provider-Key", h.providerKey) {
		writeError(w, http.StatusUnauthorized, "invalid provider key", nil)
		return
	}

	var req struct {
		UserID string `json:"userId"`
		PackID string `json:"packId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.PackID == "" {
		writeError(w, http.StatusBadRequest, "userId and packId are required", nil)
		return
	}

	grant, err := h.credits.Confirm(r.Context(), req.UserID, req.PackID)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownCreditPack) {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}

func (h *Handler) checkKey(r *http.Request, header, want string) bool {
	if want == "" {
		return false
	}
	got := r.Header.Get(header)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// writeDomainError maps a domain error to its HTTP status; anything
// unclassified is a 500 with a generic message.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *entity.RequestError
	if errors.As(err, &reqErr) {
		h.logger.Warn("request failed",
			slog.String("path", r.URL.Path),
			slog.String("kind", string(reqErr.Kind)),
			slog.String("error", err.Error()),
		)
		writeError(w, reqErr.Status, reqErr.Message, reqErr.Details)
		return
	}

	h.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	body := map[string]any{"message": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
