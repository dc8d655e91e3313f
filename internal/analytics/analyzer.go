package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"uav-log-analyzer/internal/telemetry"
)

// Фиксированные пороги детекторов
const (
	AltitudeSpikeMeters    = 10.0
	AltitudeSpikeWindowSec = 2.0
	VoltageDropVolts       = 1.5
	MinSatellites          = 5
	MaxHDop                = 3.0
	noErrorCode            = 0
)

// DetectAltitudeSpikes ищет пары соседних записей с |Δalt| > 10 м за < 2 с.
// Каждая подходящая пара дает отдельную аномалию, серии не объединяются.
func DetectAltitudeSpikes(samples []telemetry.AltitudeSample) []Anomaly {
	var anomalies []Anomaly
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]

		deltaT := float64(cur.TimeUS-prev.TimeUS) / 1e6
		deltaAlt := cur.Alt - prev.Alt

		if math.Abs(deltaAlt) > AltitudeSpikeMeters && deltaT < AltitudeSpikeWindowSec {
			anomalies = append(anomalies, AltitudeSpike{
				FromTime:       prev.TimeUS,
				ToTime:         cur.TimeUS,
				AltitudeChange: deltaAlt,
				DurationSec:    deltaT,
			})
		}
	}
	return anomalies
}

// DetectVoltageDrops ищет падение напряжения больше 1.5 В между соседними записями.
// Восстановление напряжения не отмечается.
func DetectVoltageDrops(samples []telemetry.VoltageSample) []Anomaly {
	var anomalies []Anomaly
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]

		drop := prev.Volt - cur.Volt
		if drop > VoltageDropVolts {
			anomalies = append(anomalies, VoltageDrop{
				FromVolt: prev.Volt,
				ToVolt:   cur.Volt,
				Drop:     roundVolts(drop),
				Time:     cur.TimeUS,
			})
		}
	}
	return anomalies
}

// DetectGPSDegradation отбирает фиксы с NSats < 5 или HDop > 3
func DetectGPSDegradation(samples []telemetry.GPSSample) []Anomaly {
	var anomalies []Anomaly
	for _, s := range samples {
		if s.NSats < MinSatellites || s.HDop > MaxHDop {
			anomalies = append(anomalies, GPSDegradation{
				NSats:  s.NSats,
				HDop:   s.HDop,
				Time:   s.TimeUS,
				Record: s.Raw,
			})
		}
	}
	return anomalies
}

// DetectSubsystemErrors отбирает записи ERR с присутствующим ненулевым ECode.
// Отсутствующий ECode не отличим от нуля и ошибкой не считается.
func DetectSubsystemErrors(samples []telemetry.ErrorSample) []Anomaly {
	var anomalies []Anomaly
	for _, s := range samples {
		if s.HasECode && s.ECode != noErrorCode {
			anomalies = append(anomalies, SubsystemError{
				Subsys: s.Subsys,
				ECode:  s.ECode,
				Time:   s.TimeUS,
				Record: s.Raw,
			})
		}
	}
	return anomalies
}

// AltitudeSpikes запускает детектор высоты по типу сообщения msgType
func AltitudeSpikes(store telemetry.Store, msgType string) ([]Anomaly, error) {
	samples, err := telemetry.AltitudeSeries(store.Extract(msgType))
	if err != nil {
		return nil, err
	}
	return DetectAltitudeSpikes(samples), nil
}

// VoltageDrops запускает детектор напряжения по BAT
func VoltageDrops(store telemetry.Store) ([]Anomaly, error) {
	samples, err := telemetry.VoltageSeries(store.Extract(telemetry.BAT))
	if err != nil {
		return nil, err
	}
	return DetectVoltageDrops(samples), nil
}

// GPSDegradations запускает детектор качества GPS
func GPSDegradations(store telemetry.Store) []Anomaly {
	return DetectGPSDegradation(telemetry.GPSSeries(store.Extract(telemetry.GPS)))
}

// SubsystemErrors запускает детектор ошибок подсистем
func SubsystemErrors(store telemetry.Store) []Anomaly {
	return DetectSubsystemErrors(telemetry.ErrorSeries(store.Extract(telemetry.ERR)))
}

// roundVolts округляет до сотых
func roundVolts(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
