package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"uav-log-analyzer/internal/analytics"
	"uav-log-analyzer/internal/cache"
	"uav-log-analyzer/internal/decoder"
	"uav-log-analyzer/internal/metrics"
	"uav-log-analyzer/internal/models"
	"uav-log-analyzer/internal/narrative"
	"uav-log-analyzer/internal/telemetry"
)

// Options параметры обработчика
type Options struct {
	MaxUploadBytes int64
	// MaxFormBytes ограничивает тело /chat
	MaxFormBytes int64
	MaxSamples   int
}

// Handler обработчик HTTP запросов
type Handler struct {
	sessions cache.SessionStore
	narrator narrative.Narrator
	opts     Options
	logger   zerolog.Logger
	started  time.Time
}

// NewHandler создает новый обработчик
func NewHandler(sessions cache.SessionStore, narrator narrative.Narrator, opts Options, logger zerolog.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	if opts.MaxFormBytes <= 0 {
		opts.MaxFormBytes = 1 << 20
	}
	return &Handler{
		sessions: sessions,
		narrator: narrator,
		opts:     opts,
		logger:   logger.With().Str("component", "http").Logger(),
		started:  time.Now(),
	}
}

// Register регистрирует маршруты API
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/upload", h.UploadLog)
	mux.HandleFunc("/chat", h.Chat)
	mux.HandleFunc("/risk", h.GetRisk)
	mux.HandleFunc("/anomalies", h.GetAnomalies)
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/stats", h.GetStats)
}

// UploadLog обрабатывает POST /upload
func (h *Handler) UploadLog(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/upload"
	start := time.Now()
	defer observe(r, endpoint, start)

	if r.Method != http.MethodPost {
		h.fail(w, r, endpoint, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if r.ContentLength > h.opts.MaxUploadBytes {
		metrics.LogsUploaded.WithLabelValues("rejected").Inc()
		h.fail(w, r, endpoint, http.StatusRequestEntityTooLarge, "Log file too large")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.LogsUploaded.WithLabelValues("rejected").Inc()
			h.fail(w, r, endpoint, http.StatusRequestEntityTooLarge, "Log file too large")
			return
		}
		metrics.LogsUploaded.WithLabelValues("rejected").Inc()
		h.fail(w, r, endpoint, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	log, err := decoder.Decode(file, decoder.Options{MaxSamples: h.opts.MaxSamples})
	if err != nil {
		metrics.LogsUploaded.WithLabelValues("invalid").Inc()
		h.logger.Warn().Err(err).Str("filename", header.Filename).Msg("failed to decode uploaded log")
		h.fail(w, r, endpoint, http.StatusBadRequest, "Failed to parse log: "+err.Error())
		return
	}

	sessionID := cache.NewSessionID()
	if err := h.sessions.Save(r.Context(), sessionID, log); err != nil {
		metrics.CacheOperations.WithLabelValues("save", "error").Inc()
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to store session")
		h.fail(w, r, endpoint, http.StatusInternalServerError, "Failed to store session")
		return
	}
	metrics.CacheOperations.WithLabelValues("save", "success").Inc()
	metrics.LogsUploaded.WithLabelValues("success").Inc()
	for msgType, n := range log.Summary {
		metrics.RecordsDecoded.WithLabelValues(msgType).Add(float64(n))
	}

	h.logger.Info().
		Str("session_id", sessionID).
		Str("filename", header.Filename).
		Str("size", humanize.Bytes(uint64(header.Size))).
		Int("message_types", len(log.Messages)).
		Msg("log parsed")

	h.respond(w, r, endpoint, http.StatusOK, models.UploadResponse{
		SessionID: sessionID,
		Message:   "Log parsed successfully.",
		Summary:   log.Summary,
	})
}

// Chat обрабатывает POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/chat"
	start := time.Now()
	defer observe(r, endpoint, start)

	if r.Method != http.MethodPost {
		h.fail(w, r, endpoint, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, endpoint, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.fail(w, r, endpoint, http.StatusBadRequest, "Invalid form body")
		return
	}

	sessionID := r.FormValue("session_id")
	query := r.FormValue("query")
	if sessionID == "" || query == "" {
		h.fail(w, r, endpoint, http.StatusBadRequest, "session_id and query are required")
		return
	}

	log, ok := h.loadSession(w, r, endpoint, sessionID)
	if !ok {
		return
	}

	evidence, risk, ok := h.analyze(w, r, endpoint, log.Messages, query)
	if !ok {
		return
	}

	answer, err := h.narrate(r.Context(), narrative.Request{
		Query:    query,
		Types:    log.Messages.Types(),
		Evidence: evidence,
		Risk:     &risk,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("narrative generation failed")
		h.fail(w, r, endpoint, http.StatusBadGateway, "Narrative generation failed: "+err.Error())
		return
	}

	h.respond(w, r, endpoint, http.StatusOK, models.ChatResponse{
		SessionID: sessionID,
		Response:  answer,
		Risk:      risk,
	})
}

// GetRisk обрабатывает GET /risk
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/risk"
	start := time.Now()
	defer observe(r, endpoint, start)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.fail(w, r, endpoint, http.StatusBadRequest, "session_id parameter is required")
		return
	}

	log, ok := h.loadSession(w, r, endpoint, sessionID)
	if !ok {
		return
	}

	analysisStart := time.Now()
	risk := analytics.ComputeRisk(log.Messages)
	metrics.AnalysisLatency.Observe(time.Since(analysisStart).Seconds())
	recordRisk(risk)

	h.respond(w, r, endpoint, http.StatusOK, models.RiskResponse{
		SessionID:      sessionID,
		RiskAssessment: risk,
	})
}

// GetAnomalies обрабатывает GET /anomalies
func (h *Handler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/anomalies"
	start := time.Now()
	defer observe(r, endpoint, start)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.fail(w, r, endpoint, http.StatusBadRequest, "session_id parameter is required")
		return
	}
	query := r.URL.Query().Get("query")

	log, ok := h.loadSession(w, r, endpoint, sessionID)
	if !ok {
		return
	}

	evidence, _, ok := h.analyze(w, r, endpoint, log.Messages, query)
	if !ok {
		return
	}

	h.respond(w, r, endpoint, http.StatusOK, models.AnomaliesResponse{
		SessionID: sessionID,
		Query:     query,
		Evidence:  evidence,
	})
}

// HealthCheck обрабатывает GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	cacheOK := h.sessions.Ping(r.Context()) == nil

	status := "healthy"
	httpStatus := http.StatusOK

	if !cacheOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, models.HealthStatus{
		Status:    status,
		Cache:     cacheOK,
		Timestamp: time.Now(),
	})
}

// GetStats обрабатывает GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/stats"
	start := time.Now()
	defer observe(r, endpoint, start)

	sessions, err := h.sessions.Count(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to count sessions")
	}

	h.respond(w, r, endpoint, http.StatusOK, map[string]interface{}{
		"sessions":  sessions,
		"cache":     h.sessions.Stats(),
		"uptime":    strings.TrimSpace(humanize.RelTime(h.started, time.Now(), "", "")),
		"timestamp": time.Now(),
	})
}

// loadSession пишет ответ с ошибкой сам и возвращает false, если сессия недоступна
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request, endpoint, sessionID string) (telemetry.Log, bool) {
	log, err := h.sessions.Load(r.Context(), sessionID)
	if errors.Is(err, cache.ErrSessionNotFound) {
		metrics.CacheOperations.WithLabelValues("load", "miss").Inc()
		h.fail(w, r, endpoint, http.StatusNotFound, "Invalid session ID")
		return telemetry.Log{}, false
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues("load", "error").Inc()
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		h.fail(w, r, endpoint, http.StatusInternalServerError, "Failed to load session")
		return telemetry.Log{}, false
	}
	metrics.CacheOperations.WithLabelValues("load", "success").Inc()
	return log, true
}

// analyze маршрутизирует вопрос, собирает доказательства и считает риск
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, endpoint string, store telemetry.Store, query string) (analytics.Evidence, analytics.RiskAssessment, bool) {
	analysisStart := time.Now()

	evidence, err := analytics.Gather(store, analytics.Route(query))
	if err != nil {
		h.logger.Warn().Err(err).Str("query", query).Msg("telemetry violates decoder contract")
		h.fail(w, r, endpoint, http.StatusUnprocessableEntity, "Malformed telemetry: "+err.Error())
		return analytics.Evidence{}, analytics.RiskAssessment{}, false
	}
	risk := analytics.ComputeRisk(store)

	metrics.AnalysisLatency.Observe(time.Since(analysisStart).Seconds())
	for _, f := range evidence.Findings {
		metrics.AnomaliesDetected.WithLabelValues(string(f.Kind)).Add(float64(f.Total))
	}
	recordRisk(risk)

	return evidence, risk, true
}

func (h *Handler) narrate(ctx context.Context, req narrative.Request) (string, error) {
	start := time.Now()
	answer, err := h.narrator.Narrate(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.NarrativeLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return answer, err
}

func recordRisk(risk analytics.RiskAssessment) {
	metrics.RiskScore.Observe(float64(risk.Score))
	metrics.RiskAssessments.WithLabelValues(string(risk.Level)).Inc()
}

func observe(r *http.Request, endpoint string, start time.Time) {
	metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, endpoint string, status int, body interface{}) {
	metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	writeJSON(w, status, body)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, endpoint string, status int, message string) {
	h.respond(w, r, endpoint, status, models.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
