package telemetry

import (
	"encoding/json"

	"github.com/spf13/cast"
)

// Record одна запись лога: имя поля -> числовое, строковое значение или метка времени
type Record map[string]any

// Has сообщает, присутствует ли поле и не равно ли оно null
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Float возвращает числовое значение поля.
// false, если поля нет, оно null или не приводится к числу.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	if n, isNumber := v.(json.Number); isNumber {
		f, err := n.Float64()
		return f, err == nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatOr возвращает значение поля или def
func (r Record) FloatOr(field string, def float64) float64 {
	if f, ok := r.Float(field); ok {
		return f
	}
	return def
}

// Int64 возвращает целочисленное значение поля
func (r Record) Int64(field string) (int64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	if num, isNumber := v.(json.Number); isNumber {
		if n, err := num.Int64(); err == nil {
			return n, true
		}
		f, err := num.Float64()
		return int64(f), err == nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		// 1.5e6 и подобные значения приходят как float
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}
