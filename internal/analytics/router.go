package analytics

import (
	"errors"
	"fmt"
	"strings"

	"uav-log-analyzer/internal/telemetry"
)

const (
	// SampleSize количество сырых записей каждого типа, передаваемых в промпт
	SampleSize = 5
	// HintLimit максимум аномалий одного детектора в подсказке
	HintLimit = 5
)

// ErrUnknownDetector план ссылается на несуществующий детектор
var ErrUnknownDetector = errors.New("unknown detector")

// FallbackSamples типы сообщений, показываемые, если в вопросе нет ключевых слов
var FallbackSamples = []string{telemetry.GPS, telemetry.BAT, telemetry.ATT}

// Detection какой детектор запускать и по какому типу сообщений
type Detection struct {
	Kind   Kind   `json:"kind"`
	Source string `json:"source"`
}

// Plan что вычислять и какие образцы показывать для вопроса
type Plan struct {
	Detections []Detection `json:"detections"`
	Samples    []string    `json:"samples"`
	Fallback   bool        `json:"fallback"`
}

type route struct {
	keyword   string
	detection Detection
	sample    string
}

// Порядок маршрутов фиксирован и определяет порядок доказательств
var routes = []route{
	{"altitude", Detection{Kind: KindAltitudeSpike, Source: telemetry.ALT}, telemetry.CTUN},
	{"voltage", Detection{Kind: KindVoltageDrop, Source: telemetry.BAT}, telemetry.BAT},
	{"gps", Detection{Kind: KindGPSDegradation, Source: telemetry.GPS}, telemetry.GPS},
	{"error", Detection{Kind: KindSubsystemError, Source: telemetry.ERR}, telemetry.ERR},
}

// Route сопоставляет ключевые слова вопроса (без учета регистра) с детекторами и образцами
func Route(query string) Plan {
	q := strings.ToLower(query)

	var plan Plan
	for _, r := range routes {
		if !strings.Contains(q, r.keyword) {
			continue
		}
		plan.Detections = append(plan.Detections, r.detection)
		plan.Samples = append(plan.Samples, r.sample)
	}

	if len(plan.Detections) == 0 {
		plan.Samples = append([]string(nil), FallbackSamples...)
		plan.Fallback = true
	}
	return plan
}

// Finding результат одного детектора
type Finding struct {
	Detection
	Total     int       `json:"total"`
	Anomalies []Anomaly `json:"anomalies"`
}

// Evidence данные для нарративного слоя
type Evidence struct {
	Plan     Plan                          `json:"plan"`
	Findings []Finding                     `json:"findings"`
	Samples  map[string][]telemetry.Record `json:"samples"`
}

// Gather выполняет план над store. Ошибка возможна при записи без TimeUS
// или при детекторе, которого нет в Route.
func Gather(store telemetry.Store, plan Plan) (Evidence, error) {
	ev := Evidence{
		Plan:     plan,
		Findings: []Finding{},
		Samples:  make(map[string][]telemetry.Record, len(plan.Samples)),
	}

	for _, d := range plan.Detections {
		anomalies, err := Detect(store, d)
		if err != nil {
			return Evidence{}, err
		}

		hints := anomalies
		if len(hints) > HintLimit {
			hints = hints[:HintLimit]
		}
		if hints == nil {
			hints = []Anomaly{}
		}

		ev.Findings = append(ev.Findings, Finding{
			Detection: d,
			Total:     len(anomalies),
			Anomalies: hints,
		})
	}

	for _, msgType := range plan.Samples {
		ev.Samples[msgType] = head(store.Extract(msgType), SampleSize)
	}

	return ev, nil
}

// Detect запускает один детектор по указанному типу сообщений
func Detect(store telemetry.Store, d Detection) ([]Anomaly, error) {
	records := store.Extract(d.Source)

	switch d.Kind {
	case KindAltitudeSpike:
		samples, err := telemetry.AltitudeSeries(records)
		if err != nil {
			return nil, err
		}
		return DetectAltitudeSpikes(samples), nil
	case KindVoltageDrop:
		samples, err := telemetry.VoltageSeries(records)
		if err != nil {
			return nil, err
		}
		return DetectVoltageDrops(samples), nil
	case KindGPSDegradation:
		return DetectGPSDegradation(telemetry.GPSSeries(records)), nil
	case KindSubsystemError:
		return DetectSubsystemErrors(telemetry.ErrorSeries(records)), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDetector, d.Kind)
	}
}

func head(records []telemetry.Record, n int) []telemetry.Record {
	if len(records) > n {
		records = records[:n]
	}
	out := make([]telemetry.Record, len(records))
	copy(out, records)
	return out
}
