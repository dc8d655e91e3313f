package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"uav-log-analyzer/internal/analytics"
	"uav-log-analyzer/internal/decoder"
	"uav-log-analyzer/internal/narrative"
	"uav-log-analyzer/internal/telemetry"
	"uav-log-analyzer/internal/version"
)

var (
	outputJSON   bool
	showEvidence bool
)

var riskCmd = &cobra.Command{
	Use:   "risk <log.json>",
	Short: "Compute the flight risk score of a decoded log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := loadLog(args[0])
		if err != nil {
			return err
		}

		risk := analytics.ComputeRisk(log.Messages)
		if outputJSON {
			return writeJSON(cmd.OutOrStdout(), risk)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Risk score: %d (%s)\n", risk.Score, risk.Level)
		for _, d := range risk.Details {
			fmt.Fprintf(out, "- %s\n", d)
		}
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <log.json> <question>",
	Short: "Answer a question about a decoded log",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := loadLog(args[0])
		if err != nil {
			return err
		}

		evidence, err := analytics.Gather(log.Messages, analytics.Route(args[1]))
		if err != nil {
			return fmt.Errorf("analyze log: %w", err)
		}
		if showEvidence {
			return writeJSON(cmd.OutOrStdout(), evidence)
		}

		risk := analytics.ComputeRisk(log.Messages)
		answer, err := newNarrator().Narrate(cmd.Context(), narrative.Request{
			Query:    args[1],
			Types:    log.Messages.Types(),
			Evidence: evidence,
			Risk:     &risk,
		})
		if err != nil {
			return fmt.Errorf("generate answer: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "version: %s\ncommit: %s\nbuilt: %s\n", version.Version, version.Commit, version.BuildDate)
	},
}

func init() {
	riskCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the assessment as JSON")
	queryCmd.Flags().BoolVar(&showEvidence, "evidence", false, "Print routed evidence as JSON instead of asking the model")
}

func loadLog(path string) (telemetry.Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return telemetry.Log{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	log, err := decoder.Decode(f, decoder.Options{MaxSamples: appConfig.Decoder.MaxSamples})
	if err != nil {
		return telemetry.Log{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if info, err := f.Stat(); err == nil {
		appLogger.Debug().
			Str("path", path).
			Str("size", humanize.Bytes(uint64(info.Size()))).
			Int("message_types", len(log.Messages)).
			Msg("log loaded")
	}
	return log, nil
}

func newNarrator() narrative.Narrator {
	llm := appConfig.LLM
	if llm.APIKey == "" {
		return narrative.EvidenceNarrator{}
	}
	return narrative.NewOpenAIClient(narrative.Options{
		APIKey:      llm.APIKey,
		BaseURL:     llm.BaseURL,
		Model:       llm.Model,
		Temperature: llm.Temperature,
		Timeout:     llm.Timeout,
	}, appLogger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
