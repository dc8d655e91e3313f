// Package telemetry описывает разобранный лог полета: записи, сгруппированные
// по типу сообщения, и извлечение из них типизированных рядов.
package telemetry

import "sort"

// Типы сообщений ArduPilot, с которыми работает анализ
const (
	GPS  = "GPS"
	BAT  = "BAT"
	ATT  = "ATT"
	ALT  = "ALT"
	ERR  = "ERR"
	CTUN = "CTUN"
	RCIN = "RCIN"
	MODE = "MODE"
	MSG  = "MSG"
)

// Store отображение тип сообщения -> упорядоченная по TimeUS последовательность записей.
// Порядок наследуется от декодера и никогда не пересортировывается.
type Store map[string][]Record

// Log результат работы декодера лога
type Log struct {
	Messages Store          `json:"messages"`
	Summary  map[string]int `json:"summary"`
}

// Extract возвращает последовательность записей типа msgType без изменений.
// Отсутствующий тип дает пустую последовательность, а не ошибку.
func (s Store) Extract(msgType string) []Record {
	if s == nil {
		return nil
	}
	return s[msgType]
}

// Types возвращает отсортированный список присутствующих типов сообщений
func (s Store) Types() []string {
	types := make([]string, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Summary возвращает количество записей по каждому типу
func (s Store) Summary() map[string]int {
	summary := make(map[string]int, len(s))
	for t, records := range s {
		summary[t] = len(records)
	}
	return summary
}
