package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"uav-log-analyzer/internal/telemetry"
)

// ErrSessionNotFound сессия не существует или истекла
var ErrSessionNotFound = errors.New("cache: session not found")

// SessionStore хранилище разобранных логов по идентификатору сессии
type SessionStore interface {
	Save(ctx context.Context, sessionID string, log telemetry.Log) error
	Load(ctx context.Context, sessionID string) (telemetry.Log, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}

// NewSessionID генерирует идентификатор новой сессии
func NewSessionID() string {
	return uuid.NewString()
}

func encodeLog(log telemetry.Log) ([]byte, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session log: %w", err)
	}
	return data, nil
}

// decodeLog сохраняет числа как json.Number, чтобы большие TimeUS не теряли точность
func decodeLog(data []byte) (telemetry.Log, error) {
	var log telemetry.Log
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&log); err != nil {
		return telemetry.Log{}, fmt.Errorf("failed to unmarshal session log: %w", err)
	}
	return log, nil
}
