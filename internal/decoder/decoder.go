// Package decoder принимает структурированный вывод декодера DataFlash логов
// и приводит его к telemetry.Log.
package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"uav-log-analyzer/internal/telemetry"
)

const (
	// DefaultMaxSamples сколько записей каждого типа сохраняется
	DefaultMaxSamples = 100

	badDataType = "BAD_DATA"
)

// Options параметры нормализации
type Options struct {
	MaxSamples int
}

// Decode читает JSON документ из r. Поддерживаются обертка с полем messages
// и голое отображение тип -> список записей. Нечитаемые записи пропускаются,
// тип без записей остается в логе пустым списком. Пустой лог не является ошибкой.
func Decode(r io.Reader, opts Options) (telemetry.Log, error) {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var root map[string]json.RawMessage
	if err := dec.Decode(&root); err != nil {
		return telemetry.Log{}, fmt.Errorf("decode log document: %w", err)
	}

	groups := root
	if raw, ok := root["messages"]; ok {
		groups = nil
		if err := json.Unmarshal(raw, &groups); err != nil {
			return telemetry.Log{}, fmt.Errorf("decode messages: %w", err)
		}
	}

	store := make(telemetry.Store, len(groups))
	for msgType, raw := range groups {
		if msgType == badDataType || msgType == "summary" {
			continue
		}
		store[msgType] = decodeRecords(raw, opts.MaxSamples)
	}

	return telemetry.Log{
		Messages: store,
		Summary:  store.Summary(),
	}, nil
}

// decodeRecords разбирает массив записей, пропуская элементы, не являющиеся объектами
func decodeRecords(raw json.RawMessage, limit int) []telemetry.Record {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []telemetry.Record{}
	}

	records := make([]telemetry.Record, 0, min(len(items), limit))
	for _, item := range items {
		if len(records) >= limit {
			break
		}
		var rec telemetry.Record
		if err := unmarshalNumbers(item, &rec); err != nil || rec == nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
