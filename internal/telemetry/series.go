package telemetry

import (
	"errors"
	"fmt"
)

// Имена полей записей ArduPilot
const (
	FieldTimeUS = "TimeUS"
	FieldAlt    = "Alt"
	FieldVolt   = "Volt"
	FieldNSats  = "NSats"
	FieldHDop   = "HDop"
	FieldSubsys = "Subsys"
	FieldECode  = "ECode"
)

// ErrMissingTimestamp запись без TimeUS там, где декодер обязан его выставить
var ErrMissingTimestamp = errors.New("telemetry: record has no TimeUS")

// Значения по умолчанию для отсутствующих полей, по одной таблице на схему
var (
	altitudeDefaults = map[string]float64{FieldAlt: 0}
	voltageDefaults  = map[string]float64{FieldVolt: 0}
	gpsDefaults      = map[string]float64{FieldNSats: 8, FieldHDop: 1, FieldTimeUS: 0}
	errorDefaults    = map[string]float64{FieldSubsys: 0, FieldTimeUS: 0}
)

// AltitudeSample точка ряда высоты (CTUN или ALT)
type AltitudeSample struct {
	TimeUS int64
	Alt    float64
}

// VoltageSample точка ряда напряжения батареи
type VoltageSample struct {
	TimeUS int64
	Volt   float64
}

// GPSSample качество GPS фикса
type GPSSample struct {
	TimeUS int64
	NSats  int
	HDop   float64
	Raw    Record
}

// ErrorSample запись ERR. HasECode=false, если ECode отсутствует или null.
// ECode хранится без усечения: 0.5 остается ненулевым кодом.
type ErrorSample struct {
	TimeUS   int64
	Subsys   int
	ECode    float64
	HasECode bool
	Raw      Record
}

// AltitudeSeries строит ряд высоты. TimeUS обязателен.
func AltitudeSeries(records []Record) ([]AltitudeSample, error) {
	samples := make([]AltitudeSample, 0, len(records))
	for i, rec := range records {
		ts, ok := rec.Int64(FieldTimeUS)
		if !ok {
			return nil, fmt.Errorf("altitude record %d: %w", i, ErrMissingTimestamp)
		}
		samples = append(samples, AltitudeSample{
			TimeUS: ts,
			Alt:    rec.FloatOr(FieldAlt, altitudeDefaults[FieldAlt]),
		})
	}
	return samples, nil
}

// Altitudes возвращает только значения высоты, без требования к TimeUS
func Altitudes(records []Record) []float64 {
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.FloatOr(FieldAlt, altitudeDefaults[FieldAlt])
	}
	return values
}

// VoltageSeries строит ряд напряжения. TimeUS обязателен.
func VoltageSeries(records []Record) ([]VoltageSample, error) {
	samples := make([]VoltageSample, 0, len(records))
	for i, rec := range records {
		ts, ok := rec.Int64(FieldTimeUS)
		if !ok {
			return nil, fmt.Errorf("voltage record %d: %w", i, ErrMissingTimestamp)
		}
		samples = append(samples, VoltageSample{
			TimeUS: ts,
			Volt:   rec.FloatOr(FieldVolt, voltageDefaults[FieldVolt]),
		})
	}
	return samples, nil
}

// Voltages возвращает только значения напряжения, без требования к TimeUS
func Voltages(records []Record) []float64 {
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.FloatOr(FieldVolt, voltageDefaults[FieldVolt])
	}
	return values
}

// GPSSeries строит ряд качества GPS
func GPSSeries(records []Record) []GPSSample {
	samples := make([]GPSSample, 0, len(records))
	for _, rec := range records {
		samples = append(samples, GPSSample{
			TimeUS: timestampOr(rec, int64(gpsDefaults[FieldTimeUS])),
			NSats:  int(rec.FloatOr(FieldNSats, gpsDefaults[FieldNSats])),
			HDop:   rec.FloatOr(FieldHDop, gpsDefaults[FieldHDop]),
			Raw:    rec,
		})
	}
	return samples
}

// ErrorSeries строит ряд ошибок подсистем
func ErrorSeries(records []Record) []ErrorSample {
	samples := make([]ErrorSample, 0, len(records))
	for _, rec := range records {
		sample := ErrorSample{
			TimeUS: timestampOr(rec, int64(errorDefaults[FieldTimeUS])),
			Subsys: int(rec.FloatOr(FieldSubsys, errorDefaults[FieldSubsys])),
			Raw:    rec,
		}
		if rec.Has(FieldECode) {
			sample.HasECode = true
			code, ok := rec.Float(FieldECode)
			if !ok {
				// нечисловой код тоже считается ошибкой
				code = -1
			}
			sample.ECode = code
		}
		samples = append(samples, sample)
	}
	return samples
}

func timestampOr(rec Record, def int64) int64 {
	if ts, ok := rec.Int64(FieldTimeUS); ok {
		return ts
	}
	return def
}
