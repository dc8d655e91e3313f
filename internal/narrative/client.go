package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"uav-log-analyzer/internal/analytics"
)

// Narrator превращает промпт в текстовый ответ
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// Options параметры OpenAI-совместимого клиента
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClient вызывает /chat/completions
type OpenAIClient struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger
}

// NewOpenAIClient создает клиента языковой модели
func NewOpenAIClient(opts Options, logger zerolog.Logger) *OpenAIClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &OpenAIClient{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With().Str("component", "narrative_openai").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Narrate отправляет промпт модели и возвращает текст первого варианта
func (c *OpenAIClient) Narrate(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && result.Error != nil {
			return "", fmt.Errorf("chat completion failed with status %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("chat completion failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug().
		Str("model", c.opts.Model).
		Int("prompt_bytes", len(prompt)).
		Msg("chat completion received")
	return result.Choices[0].Message.Content, nil
}

// EvidenceNarrator офлайн-режим без модели: пересказывает найденные аномалии
type EvidenceNarrator struct{}

// Narrate возвращает сводку доказательств
func (EvidenceNarrator) Narrate(_ context.Context, req Request) (string, error) {
	var b strings.Builder

	b.WriteString("No language model is configured; reporting detector output only.\n")
	if req.Risk != nil {
		fmt.Fprintf(&b, "Risk score %d (%s).\n", req.Risk.Score, req.Risk.Level)
		for _, d := range req.Risk.Details {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	if req.Evidence.Plan.Fallback {
		fmt.Fprintf(&b, "Question did not name a monitored signal; attached samples: %s.\n",
			strings.Join(req.Evidence.Plan.Samples, ", "))
	}
	for _, f := range req.Evidence.Findings {
		fmt.Fprintf(&b, "%s in %s: %d found.\n", humanKind(f.Kind), f.Source, f.Total)
		for _, a := range f.Anomalies {
			b.WriteString("  ")
			b.WriteString(describe(a))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func describe(a analytics.Anomaly) string {
	switch v := a.(type) {
	case analytics.AltitudeSpike:
		return fmt.Sprintf("altitude changed %+.1f m in %.2f s (TimeUS %d -> %d)", v.AltitudeChange, v.DurationSec, v.FromTime, v.ToTime)
	case analytics.VoltageDrop:
		return fmt.Sprintf("voltage dropped %.2f V (%.2f -> %.2f) at TimeUS %d", v.Drop, v.FromVolt, v.ToVolt, v.Time)
	case analytics.GPSDegradation:
		return fmt.Sprintf("GPS fix with %d satellites, HDop %.2f at TimeUS %d", v.NSats, v.HDop, v.Time)
	case analytics.SubsystemError:
		return fmt.Sprintf("subsystem %d reported error code %g at TimeUS %d", v.Subsys, v.ECode, v.Time)
	default:
		return string(a.Kind())
	}
}

var (
	_ Narrator = (*OpenAIClient)(nil)
	_ Narrator = EvidenceNarrator{}
)
