package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// LogsUploaded загруженные логи
	LogsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flight_logs_uploaded_total",
			Help: "Total number of uploaded flight logs",
		},
		[]string{"status"},
	)

	// RecordsDecoded записи, сохраненные после декодирования, по типу сообщения
	RecordsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_records_decoded_total",
			Help: "Total number of telemetry records kept after decoding",
		},
		[]string{"message_type"},
	)

	// AnomaliesDetected обнаруженные аномалии
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"kind"},
	)

	// RiskScore распределение баллов риска
	RiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flight_risk_score",
			Help:    "Distribution of computed flight risk scores",
			Buckets: []float64{0, 20, 30, 40, 50, 60, 70, 90, 110, 140},
		},
	)

	// RiskAssessments оценки по уровням риска
	RiskAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flight_risk_assessments_total",
			Help: "Total number of risk assessments by level",
		},
		[]string{"level"},
	)

	// AnalysisLatency задержка анализа
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_seconds",
			Help:    "Analysis processing latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	// NarrativeLatency задержка ответа LLM
	NarrativeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "narrative_latency_seconds",
			Help:    "Narrative generation latency in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// ActiveSessions активные сессии
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of currently active log sessions",
		},
	)

	// CacheOperations операции с хранилищем сессий
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_cache_operations_total",
			Help: "Total number of session cache operations",
		},
		[]string{"operation", "status"},
	)
)
