// Package report turns the record set into a natural-language site report
// through a hosted text model.
package report

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// Fixed texts returned in place of generated content.
const (
	MsgUnavailable  = "AI Service unavailable. Please check network or API Key."
	MsgEmptyReport  = "Failed to generate report, please try again."
	MsgRiskFailed   = "Analysis unavailable"
	MsgNoRiskAlerts = "No risk alerts"

	DefaultModel = "gemini-2.5-flash"
)

// Generator produces report text. Implementations never return errors; a
// failure comes back as one of the fixed messages.
type Generator interface {
	Generate(ctx context.Context, records []models.SegmentRecord) string
	AnalyzeRisk(ctx context.Context, record models.SegmentRecord) string
	Enabled() bool
}

// completeFunc sends one prompt and returns the model's text.
type completeFunc func(ctx context.Context, prompt string) (string, error)

// Gemini generates reports with Google's Gemini API.
type Gemini struct {
	model    string
	complete completeFunc
	log      *logger.Logger
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey, model string, log *logger.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	g := &Gemini{model: model, log: log.With("component", "Gemini", "model", model)}
	g.complete = func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", fmt.Errorf("GenAI generate failed: %w", err)
		}
		return resp.Text(), nil
	}
	return g, nil
}

// New returns a Gemini generator when an API key is configured and a
// Disabled one otherwise.
func New(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) Generator {
	if cfg.APIKey == "" {
		log.Warn("gemini api key missing, report generation disabled")
		return Disabled{}
	}
	g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, log)
	if err != nil {
		log.Error("report generation disabled", "error", err)
		return Disabled{}
	}
	return g
}

func (g *Gemini) Enabled() bool { return true }

// Generate writes the daily progress report for records.
func (g *Gemini) Generate(ctx context.Context, records []models.SegmentRecord) string {
	prompt, err := ReportPrompt(records)
	if err != nil {
		g.log.Error("failed to build report prompt", "error", err)
		return MsgUnavailable
	}

	text, err := g.complete(ctx, prompt)
	if err != nil {
		g.log.Error("report generation failed", "error", err)
		return MsgUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return MsgEmptyReport
	}
	return text
}

// AnalyzeRisk writes a one-sentence risk note for a single record.
func (g *Gemini) AnalyzeRisk(ctx context.Context, record models.SegmentRecord) string {
	text, err := g.complete(ctx, RiskPrompt(record))
	if err != nil {
		g.log.Warn("risk analysis failed", "id", record.ID, "error", err)
		return MsgRiskFailed
	}
	if strings.TrimSpace(text) == "" {
		return MsgNoRiskAlerts
	}
	return text
}

// Disabled is the generator used without credentials.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Generate(context.Context, []models.SegmentRecord) string { return MsgUnavailable }

func (Disabled) AnalyzeRisk(context.Context, models.SegmentRecord) string { return MsgRiskFailed }

// IsFailure reports whether text is one of the fixed failure messages rather
// than generated content.
func IsFailure(text string) bool {
	switch text {
	case MsgUnavailable, MsgEmptyReport, MsgRiskFailed:
		return true
	}
	return false
}
