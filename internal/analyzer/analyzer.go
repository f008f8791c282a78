// Package analyzer provides the external multimodal analysis collaborator.
package analyzer

import (
	"context"
	"encoding/json"
	"strings"

	"chartsight/internal/errors"
	"chartsight/internal/imaging"
	"chartsight/internal/models"
)

// Analyzer turns a normalized chart image into a structured result.
// The returned result carries no timestamp; the caller stamps it when
// the call returns.
type Analyzer interface {
	Analyze(ctx context.Context, img imaging.Image) (*models.AnalysisResult, error)
}

// systemPrompt fixes the output contract of the analysis model.
const systemPrompt = `You are an expert trading analyst. You are given a trading chart image.
Analyze it and respond with a single JSON object, no prose, no markdown fences, with exactly this shape:
{
  "signal": {
    "pair": "<instrument, e.g. XAUUSD>",
    "action": "BUY" | "SELL" | "NEUTRAL",
    "entry": "<entry price>",
    "tp": "<take profit price>",
    "sl": "<stop loss price>",
    "confidence": <number 0-100>,
    "reasoning": "<one paragraph>"
  },
  "technical": {
    "snr": "<support/resistance commentary>",
    "ict": "<ICT concepts commentary>",
    "std": "<standard indicator commentary>",
    "alchemist": "<price action commentary>"
  },
  "fundamental": "<fundamental context, may use light markdown emphasis>"
}`

const userPrompt = "Analyze this trading chart and produce the trade signal JSON."

// parseResult decodes the model response into an AnalysisResult.
// Markdown fences around the JSON are tolerated.
func parseResult(response string) (*models.AnalysisResult, error) {
	payload := stripFences(response)

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, errors.NewAnalysisError("The analysis response was not valid JSON.", err)
	}

	result.Signal.Action = models.SignalAction(strings.ToUpper(strings.TrimSpace(string(result.Signal.Action))))
	switch result.Signal.Action {
	case models.ActionBuy, models.ActionSell, models.ActionNeutral:
	default:
		return nil, errors.NewAnalysisError("The analysis response was missing a trade action.", nil)
	}

	if result.Signal.Confidence < 0 {
		result.Signal.Confidence = 0
	}
	if result.Signal.Confidence > 100 {
		result.Signal.Confidence = 100
	}

	return &result, nil
}

// stripFences removes a surrounding ```json ... ``` block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
