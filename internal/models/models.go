package models

import (
	"time"

	"uav-log-analyzer/internal/analytics"
)

// UploadResponse ответ на загрузку лога
type UploadResponse struct {
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	Summary   map[string]int `json:"summary"`
}

// ChatResponse ответ на вопрос о полете
type ChatResponse struct {
	SessionID string                   `json:"session_id"`
	Response  string                   `json:"response"`
	Risk      analytics.RiskAssessment `json:"risk"`
}

// RiskResponse оценка риска для сессии
type RiskResponse struct {
	SessionID string `json:"session_id"`
	analytics.RiskAssessment
}

// AnomaliesResponse доказательства, отобранные маршрутизатором вопроса
type AnomaliesResponse struct {
	SessionID string             `json:"session_id"`
	Query     string             `json:"query"`
	Evidence  analytics.Evidence `json:"evidence"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Cache     bool      `json:"cache"`
	Timestamp time.Time `json:"timestamp"`
}
