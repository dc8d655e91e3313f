// Package narrative собирает доказательства из анализа в промпт и получает
// текстовый ответ от языковой модели.
package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"uav-log-analyzer/internal/analytics"
)

// SystemPrompt роль аналитика полетных логов
const SystemPrompt = `You are a UAV flight log analyst reviewing telemetry decoded from ArduPilot DataFlash logs.
Message types include GPS, ATT (attitude), BAT (battery), CTUN (control tuning), ALT, ERR, RCIN and others;
field meanings follow https://ardupilot.org/plane/docs/logmessages.html.

Answer the operator's question using only the telemetry provided. Point out:
- sudden altitude or attitude changes,
- battery voltage sag or irregular consumption,
- degraded or lost GPS fixes,
- subsystem error codes and failsafes,
- signs of control loss or autopilot misbehaviour.

Quote the values you rely on. If the data is not sufficient to conclude, say so plainly.
Write as a short briefing for a flight safety officer.`

// Request все, что нужно для одного ответа
type Request struct {
	Query    string
	Types    []string
	Evidence analytics.Evidence
	Risk     *analytics.RiskAssessment
}

// BuildPrompt формирует пользовательский промпт
func BuildPrompt(req Request) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "User question: %s\n\n", req.Query)
	fmt.Fprintf(&b, "Available message types: %s\n", strings.Join(req.Types, ", "))

	if req.Risk != nil {
		fmt.Fprintf(&b, "\nComputed risk: score %d (%s)\n", req.Risk.Score, req.Risk.Level)
		for _, d := range req.Risk.Details {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	for _, f := range req.Evidence.Findings {
		if f.Total == 0 {
			continue
		}
		hints, err := json.MarshalIndent(f.Anomalies, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s hints: %w", f.Kind, err)
		}
		fmt.Fprintf(&b, "\nPotential %s anomalies in %s (%d total, first %d shown):\n%s\n",
			humanKind(f.Kind), f.Source, f.Total, len(f.Anomalies), hints)
	}

	for _, msgType := range req.Evidence.Plan.Samples {
		sample, err := json.MarshalIndent(req.Evidence.Samples[msgType], "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s sample: %w", msgType, err)
		}
		fmt.Fprintf(&b, "\n%s sample:\n%s\n", msgType, sample)
	}

	return b.String(), nil
}

func humanKind(k analytics.Kind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}
