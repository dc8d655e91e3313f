package analytics

import (
	"fmt"
	"math"

	"uav-log-analyzer/internal/telemetry"
)

// RiskLevel дискретный уровень риска полета
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Веса правил и границы уровней
const (
	WeightGPS      = 40
	WeightBattery  = 30
	WeightErrors   = 50
	WeightAltitude = 20

	lowRiskMax      = 30
	moderateRiskMax = 60
)

// RiskAssessment итоговая оценка риска: балл, уровень и по строке на сработавшее правило
type RiskAssessment struct {
	Score   int       `json:"score"`
	Level   RiskLevel `json:"riskLevel"`
	Details []string  `json:"details"`
}

// ComputeRisk считает балл риска по набору независимых правил.
// Не возвращает ошибок: отсутствующие данные означают "нет аномалии" для правила.
func ComputeRisk(store telemetry.Store) RiskAssessment {
	score := 0
	details := []string{}

	if len(GPSDegradations(store)) > 0 {
		score += WeightGPS
		details = append(details, "GPS signal quality issues detected (low NSats or high HDop).")
	}

	if hasVoltageDrop(telemetry.Voltages(store.Extract(telemetry.BAT))) {
		score += WeightBattery
		details = append(details, "Significant battery voltage drop detected.")
	}

	if errs := SubsystemErrors(store); len(errs) > 0 {
		score += WeightErrors
		details = append(details, fmt.Sprintf("%d critical error messages found in ERR logs.", len(errs)))
	}

	if hasAltitudeJump(telemetry.Altitudes(store.Extract(telemetry.CTUN))) {
		score += WeightAltitude
		details = append(details, "Sudden altitude fluctuation (>10m) detected.")
	}

	return RiskAssessment{
		Score:   score,
		Level:   LevelFor(score),
		Details: details,
	}
}

// LevelFor переводит балл в уровень: <=30 Low, 31..60 Moderate, >=61 High
func LevelFor(score int) RiskLevel {
	switch {
	case score <= lowRiskMax:
		return RiskLow
	case score <= moderateRiskMax:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// hasVoltageDrop останавливается на первой паре с падением > 1.5 В
func hasVoltageDrop(volts []float64) bool {
	for i := 1; i < len(volts); i++ {
		if volts[i-1]-volts[i] > VoltageDropVolts {
			return true
		}
	}
	return false
}

// hasAltitudeJump останавливается на первой паре с |Δalt| > 10 м
func hasAltitudeJump(alts []float64) bool {
	for i := 1; i < len(alts); i++ {
		if math.Abs(alts[i]-alts[i-1]) > AltitudeSpikeMeters {
			return true
		}
	}
	return false
}
