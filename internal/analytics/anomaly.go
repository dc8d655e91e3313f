package analytics

import (
	"encoding/json"
	"strconv"

	"uav-log-analyzer/internal/telemetry"
)

// Kind семейство аномалии
type Kind string

const (
	KindAltitudeSpike  Kind = "altitude_spike"
	KindVoltageDrop    Kind = "voltage_drop"
	KindGPSDegradation Kind = "gps_degradation"
	KindSubsystemError Kind = "subsystem_error"
)

// Anomaly закрытый набор записей аномалий, по одному типу на детектор.
// Реализации только в этом пакете.
type Anomaly interface {
	Kind() Kind
	anomaly()
}

// AltitudeSpike резкое изменение высоты между соседними записями
type AltitudeSpike struct {
	FromTime       int64   `json:"from_time"`
	ToTime         int64   `json:"to_time"`
	AltitudeChange float64 `json:"altitude_change"`
	DurationSec    float64 `json:"duration_sec"`
}

// VoltageDrop просадка напряжения батареи между соседними записями
type VoltageDrop struct {
	FromVolt float64 `json:"from_volt"`
	ToVolt   float64 `json:"to_volt"`
	Drop     float64 `json:"drop"`
	Time     int64   `json:"time"`
}

// GPSDegradation GPS фикс с малым числом спутников или высоким HDop
type GPSDegradation struct {
	NSats  int              `json:"nsats"`
	HDop   float64          `json:"hdop"`
	Time   int64            `json:"time"`
	Record telemetry.Record `json:"record"`
}

// SubsystemError запись ERR с ненулевым кодом
type SubsystemError struct {
	Subsys int              `json:"subsys"`
	ECode  float64          `json:"ecode"`
	Time   int64            `json:"time"`
	Record telemetry.Record `json:"record"`
}

func (AltitudeSpike) Kind() Kind  { return KindAltitudeSpike }
func (VoltageDrop) Kind() Kind    { return KindVoltageDrop }
func (GPSDegradation) Kind() Kind { return KindGPSDegradation }
func (SubsystemError) Kind() Kind { return KindSubsystemError }

func (AltitudeSpike) anomaly()  {}
func (VoltageDrop) anomaly()    {}
func (GPSDegradation) anomaly() {}
func (SubsystemError) anomaly() {}

// MarshalJSON добавляет дискриминатор kind
func (a AltitudeSpike) MarshalJSON() ([]byte, error) {
	type plain AltitudeSpike
	return marshalTagged(a.Kind(), plain(a))
}

// MarshalJSON добавляет дискриминатор kind
func (v VoltageDrop) MarshalJSON() ([]byte, error) {
	type plain VoltageDrop
	return marshalTagged(v.Kind(), plain(v))
}

// MarshalJSON добавляет дискриминатор kind
func (g GPSDegradation) MarshalJSON() ([]byte, error) {
	type plain GPSDegradation
	return marshalTagged(g.Kind(), plain(g))
}

// MarshalJSON добавляет дискриминатор kind
func (s SubsystemError) MarshalJSON() ([]byte, error) {
	type plain SubsystemError
	return marshalTagged(s.Kind(), plain(s))
}

func marshalTagged(kind Kind, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["kind"] = json.RawMessage(strconv.Quote(string(kind)))

	return json.Marshal(fields)
}
