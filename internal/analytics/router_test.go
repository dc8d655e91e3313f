package analytics

import (
	"errors"
	"reflect"
	"testing"

	"uav-log-analyzer/internal/telemetry"
)

func TestRouteKeywords(t *testing.T) {
	cases := []struct {
		query   string
		kinds   []Kind
		samples []string
	}{
		{"Were there any ALTITUDE issues?", []Kind{KindAltitudeSpike}, []string{telemetry.CTUN}},
		{"battery voltage over time", []Kind{KindVoltageDrop}, []string{telemetry.BAT}},
		{"How good was the GPS lock?", []Kind{KindGPSDegradation}, []string{telemetry.GPS}},
		{"list the errors", []Kind{KindSubsystemError}, []string{telemetry.ERR}},
		{"gps and voltage", []Kind{KindVoltageDrop, KindGPSDegradation}, []string{telemetry.BAT, telemetry.GPS}},
	}

	for _, tc := range cases {
		plan := Route(tc.query)
		if plan.Fallback {
			t.Fatalf("%q: не ожидался fallback", tc.query)
		}
		var kinds []Kind
		for _, d := range plan.Detections {
			kinds = append(kinds, d.Kind)
		}
		if !reflect.DeepEqual(kinds, tc.kinds) || !reflect.DeepEqual(plan.Samples, tc.samples) {
			t.Fatalf("%q: получено %v / %v", tc.query, kinds, plan.Samples)
		}
	}
}

func TestRouteAltitudeReadsALT(t *testing.T) {
	plan := Route("altitude")
	if plan.Detections[0].Source != telemetry.ALT {
		t.Fatalf("детектор высоты в маршруте должен читать ALT, получено %s", plan.Detections[0].Source)
	}
}

func TestRouteFallback(t *testing.T) {
	plan := Route("How was the flight?")
	if !plan.Fallback || len(plan.Detections) != 0 {
		t.Fatalf("ожидался fallback без детекторов: %+v", plan)
	}
	if !reflect.DeepEqual(plan.Samples, []string{telemetry.GPS, telemetry.BAT, telemetry.ATT}) {
		t.Fatalf("неверные образцы fallback: %v", plan.Samples)
	}

	// изменение плана не должно трогать общий список
	plan.Samples[0] = "X"
	if FallbackSamples[0] != telemetry.GPS {
		t.Fatal("FallbackSamples изменен через план")
	}
}

func TestGatherLimitsSamplesAndHints(t *testing.T) {
	var gps []telemetry.Record
	for i := 0; i < 12; i++ {
		gps = append(gps, telemetry.Record{"TimeUS": i, "NSats": 2})
	}
	store := telemetry.Store{telemetry.GPS: gps}

	ev, err := Gather(store, Route("gps"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(ev.Samples[telemetry.GPS]) != SampleSize {
		t.Fatalf("ожидалось %d образцов, получено %d", SampleSize, len(ev.Samples[telemetry.GPS]))
	}
	if len(ev.Findings) != 1 || ev.Findings[0].Total != 12 || len(ev.Findings[0].Anomalies) != HintLimit {
		t.Fatalf("неверные находки: %+v", ev.Findings)
	}
}

func TestGatherMissingSignal(t *testing.T) {
	ev, err := Gather(telemetry.Store{}, Route("altitude and error"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	for _, f := range ev.Findings {
		if f.Total != 0 || f.Anomalies == nil {
			t.Fatalf("пустой store должен давать пустые находки: %+v", f)
		}
	}
	if len(ev.Samples[telemetry.CTUN]) != 0 {
		t.Fatalf("ожидался пустой образец CTUN")
	}
}

func TestGatherPropagatesMissingTimestamp(t *testing.T) {
	store := telemetry.Store{telemetry.BAT: {{"Volt": 12.0}}}
	if _, err := Gather(store, Route("voltage")); !errors.Is(err, telemetry.ErrMissingTimestamp) {
		t.Fatalf("ожидалась ErrMissingTimestamp, получено %v", err)
	}
}

func TestDetectUnknownKind(t *testing.T) {
	_, err := Detect(telemetry.Store{}, Detection{Kind: "vibration", Source: "VIBE"})
	if !errors.Is(err, ErrUnknownDetector) {
		t.Fatalf("ожидалась ErrUnknownDetector, получено %v", err)
	}
}
