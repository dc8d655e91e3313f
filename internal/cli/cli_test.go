package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uav-log-analyzer/internal/analytics"
	"uav-log-analyzer/internal/version"
)

const cliLog = `{
	"messages": {
		"GPS": [{"TimeUS": 0, "NSats": 4, "HDop": 1.0}],
		"BAT": [{"TimeUS": 0, "Volt": 12.6}, {"TimeUS": 1000000, "Volt": 10.9}],
		"CTUN": [{"TimeUS": 0, "Alt": 10}]
	}
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("FLIGHTLOG_LLM_API_KEY", "")

	appConfig = nil
	cfgFile, logLevel = "", ""
	outputJSON, showEvidence = false, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeLog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flight.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("запись лога: %v", err)
	}
	return path
}

func TestRiskCommand(t *testing.T) {
	path := writeLog(t, cliLog)

	out, err := run(t, "risk", path)
	if err != nil {
		t.Fatalf("risk: %v", err)
	}
	if !strings.HasPrefix(out, "Risk score: 70 (High)\n") {
		t.Fatalf("неожиданный вывод:\n%s", out)
	}
	if !strings.Contains(out, "- Significant battery voltage drop detected.") {
		t.Fatalf("нет детали о батарее:\n%s", out)
	}
}

func TestRiskCommandJSON(t *testing.T) {
	path := writeLog(t, cliLog)

	out, err := run(t, "risk", "--json", path)
	if err != nil {
		t.Fatalf("risk --json: %v", err)
	}
	var risk analytics.RiskAssessment
	if err := json.Unmarshal([]byte(out), &risk); err != nil {
		t.Fatalf("разбор JSON: %v\n%s", err, out)
	}
	if risk.Score != 70 || risk.Level != analytics.RiskHigh {
		t.Fatalf("ожидалось 70/High, получено %+v", risk)
	}
}

func TestRiskCommandMissingFile(t *testing.T) {
	if _, err := run(t, "risk", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("ожидалась ошибка для отсутствующего файла")
	}
}

func TestQueryCommandOffline(t *testing.T) {
	path := writeLog(t, cliLog)

	out, err := run(t, "query", path, "what happened to the voltage?")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out, "BAT") {
		t.Fatalf("офлайн-ответ должен ссылаться на BAT:\n%s", out)
	}
}

func TestQueryCommandEvidence(t *testing.T) {
	path := writeLog(t, cliLog)

	out, err := run(t, "query", "--evidence", path, "voltage")
	if err != nil {
		t.Fatalf("query --evidence: %v", err)
	}

	var ev struct {
		Findings []struct {
			Kind  string `json:"kind"`
			Total int    `json:"total"`
		} `json:"findings"`
	}
	if err := json.Unmarshal([]byte(out), &ev); err != nil {
		t.Fatalf("разбор JSON: %v\n%s", err, out)
	}
	if len(ev.Findings) != 1 || ev.Findings[0].Total != 1 {
		t.Fatalf("ожидалась одна находка по напряжению: %+v", ev.Findings)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "version: "+version.Version) {
		t.Fatalf("неожиданный вывод: %q", out)
	}
}
