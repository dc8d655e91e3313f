package analytics

import (
	"encoding/json"
	"errors"
	"testing"

	"uav-log-analyzer/internal/telemetry"
)

func altitudeRecords(times []int64, alts []float64) []telemetry.Record {
	records := make([]telemetry.Record, len(times))
	for i := range times {
		records[i] = telemetry.Record{"TimeUS": times[i], "Alt": alts[i]}
	}
	return records
}

func TestAltitudeSpikeAdjacency(t *testing.T) {
	store := telemetry.Store{
		telemetry.CTUN: altitudeRecords(
			[]int64{0, 1_000_000, 1_500_000, 3_000_000},
			[]float64{100, 100, 160, 160},
		),
	}

	spikes, err := AltitudeSpikes(store, telemetry.CTUN)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(spikes) != 1 {
		t.Fatalf("ожидался 1 всплеск, получено %d", len(spikes))
	}

	spike, ok := spikes[0].(AltitudeSpike)
	if !ok {
		t.Fatalf("ожидался AltitudeSpike, получено %T", spikes[0])
	}
	if spike.FromTime != 1_000_000 || spike.ToTime != 1_500_000 {
		t.Fatalf("всплеск должен быть между записями 1 и 2: %+v", spike)
	}
	if spike.AltitudeChange != 60 || spike.DurationSec != 0.5 {
		t.Fatalf("неверные величины всплеска: %+v", spike)
	}
}

func TestAltitudeSpikeEdgeCases(t *testing.T) {
	cases := []struct {
		name  string
		times []int64
		alts  []float64
		want  int
	}{
		{"пусто", nil, nil, 0},
		{"одна запись", []int64{0}, []float64{500}, 0},
		{"медленный набор", []int64{0, 10_000_000}, []float64{0, 50}, 0},
		{"одинаковые метки", []int64{5, 5}, []float64{0, 20}, 1},
		{"падение", []int64{0, 1_000_000}, []float64{100, 80}, 1},
		{"ровно 10 м", []int64{0, 1_000_000}, []float64{100, 110}, 0},
		{"ровно 2 с", []int64{0, 2_000_000}, []float64{100, 150}, 0},
		{"серия не объединяется", []int64{0, 100_000, 200_000}, []float64{0, 20, 40}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			samples, err := telemetry.AltitudeSeries(altitudeRecords(tc.times, tc.alts))
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if got := len(DetectAltitudeSpikes(samples)); got != tc.want {
				t.Fatalf("ожидалось %d, получено %d", tc.want, got)
			}
		})
	}
}

func TestAltitudeSpikesMissingTimestamp(t *testing.T) {
	store := telemetry.Store{telemetry.ALT: {{"Alt": 1.0}}}
	if _, err := AltitudeSpikes(store, telemetry.ALT); !errors.Is(err, telemetry.ErrMissingTimestamp) {
		t.Fatalf("ожидалась ErrMissingTimestamp, получено %v", err)
	}
}

func TestVoltageDropThreshold(t *testing.T) {
	batteries := func(volts ...float64) telemetry.Store {
		records := make([]telemetry.Record, len(volts))
		for i, v := range volts {
			records[i] = telemetry.Record{"TimeUS": int64(i) * 1_000_000, "Volt": v}
		}
		return telemetry.Store{telemetry.BAT: records}
	}

	drops, err := VoltageDrops(batteries(12.0, 10.6))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(drops) != 0 {
		t.Fatalf("падение 1.4 В не должно отмечаться, получено %d", len(drops))
	}

	drops, err = VoltageDrops(batteries(12.0, 10.4))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(drops) != 1 {
		t.Fatalf("ожидалась 1 просадка, получено %d", len(drops))
	}
	drop := drops[0].(VoltageDrop)
	if drop.Drop != 1.6 || drop.FromVolt != 12.0 || drop.ToVolt != 10.4 || drop.Time != 1_000_000 {
		t.Fatalf("неверная просадка: %+v", drop)
	}

	// восстановление не отмечается
	drops, _ = VoltageDrops(batteries(10.0, 12.0))
	if len(drops) != 0 {
		t.Fatalf("рост напряжения не должен отмечаться, получено %d", len(drops))
	}
}

func TestGPSDegradationPointwise(t *testing.T) {
	for pos := 0; pos < 10; pos++ {
		records := make([]telemetry.Record, 10)
		for i := range records {
			records[i] = telemetry.Record{"TimeUS": i, "NSats": 12, "HDop": 0.8}
		}
		records[pos]["NSats"] = 3

		got := GPSDegradations(telemetry.Store{telemetry.GPS: records})
		if len(got) != 1 {
			t.Fatalf("позиция %d: ожидалась 1 деградация, получено %d", pos, len(got))
		}
		if g := got[0].(GPSDegradation); g.NSats != 3 || g.Time != int64(pos) {
			t.Fatalf("позиция %d: неверная запись %+v", pos, g)
		}
	}
}

func TestGPSDegradationHDopAndDefaults(t *testing.T) {
	got := GPSDegradations(telemetry.Store{telemetry.GPS: {
		{"HDop": 3.5},
		{"HDop": 3.0},
		{},
		{"NSats": 4, "HDop": 9.9},
	}})
	if len(got) != 2 {
		t.Fatalf("ожидалось 2 деградации, получено %d", len(got))
	}
}

func TestSubsystemErrors(t *testing.T) {
	got := SubsystemErrors(telemetry.Store{telemetry.ERR: {
		{"TimeUS": 1, "Subsys": 16, "ECode": 2},
		{"TimeUS": 2, "Subsys": 16, "ECode": 0},
		{"TimeUS": 3, "Subsys": 12},
		{"TimeUS": 4, "Subsys": 12, "ECode": nil},
		{"TimeUS": 5, "Subsys": 5, "ECode": 1},
	}})
	if len(got) != 2 {
		t.Fatalf("ожидалось 2 ошибки, получено %d", len(got))
	}
	first := got[0].(SubsystemError)
	if first.Subsys != 16 || first.ECode != 2 || first.Time != 1 {
		t.Fatalf("неверная первая ошибка: %+v", first)
	}
}

func TestSubsystemErrorsFractionalCode(t *testing.T) {
	got := SubsystemErrors(telemetry.Store{telemetry.ERR: {
		{"TimeUS": 1, "Subsys": 2, "ECode": json.Number("0.5")},
	}})
	if len(got) != 1 {
		t.Fatalf("код 0.5 ненулевой и должен считаться ошибкой, получено %d", len(got))
	}
	if e := got[0].(SubsystemError); e.ECode != 0.5 || e.Subsys != 2 {
		t.Fatalf("неверная ошибка: %+v", e)
	}
}

func TestAnomalyJSONCarriesKind(t *testing.T) {
	raw, err := json.Marshal([]Anomaly{VoltageDrop{FromVolt: 12, ToVolt: 10, Drop: 2, Time: 7}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[0]["kind"] != string(KindVoltageDrop) || decoded[0]["drop"] != 2.0 {
		t.Fatalf("неверный JSON: %s", raw)
	}
}
