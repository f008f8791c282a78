package analyzer

import (
	"testing"

	"chartsight/internal/errors"
	"chartsight/internal/models"
)

const validResponse = `{
  "signal": {
    "pair": "XAUUSD",
    "action": "BUY",
    "entry": "2400.5",
    "tp": "2425.0",
    "sl": "2388.0",
    "confidence": 78,
    "reasoning": "bullish break of structure"
  },
  "technical": {
    "snr": "price reclaimed the 2395 level",
    "ict": "fair value gap below entry",
    "std": "RSI recovering from oversold",
    "alchemist": "higher lows forming"
  },
  "fundamental": "dollar softness into the session"
}`

func TestParseResult(t *testing.T) {
	result, err := parseResult(validResponse)
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}
	if result.Signal.Pair != "XAUUSD" {
		t.Errorf("pair = %q", result.Signal.Pair)
	}
	if result.Signal.Action != models.ActionBuy {
		t.Errorf("action = %q", result.Signal.Action)
	}
	if result.Signal.Confidence != 78 {
		t.Errorf("confidence = %v", result.Signal.Confidence)
	}
	if result.Technical.ICT != "fair value gap below entry" {
		t.Errorf("ict = %q", result.Technical.ICT)
	}
	if result.Timestamp != "" {
		t.Errorf("parser must not stamp a timestamp, got %q", result.Timestamp)
	}
}

func TestParseResultStripsFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	result, err := parseResult(fenced)
	if err != nil {
		t.Fatalf("parseResult on fenced input failed: %v", err)
	}
	if result.Signal.Pair != "XAUUSD" {
		t.Errorf("pair = %q", result.Signal.Pair)
	}

	bare := "```\n" + validResponse + "\n```"
	if _, err := parseResult(bare); err != nil {
		t.Fatalf("parseResult on bare-fenced input failed: %v", err)
	}
}

func TestParseResultNormalizesAction(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.SignalAction
		wantErr bool
	}{
		{"buy", models.ActionBuy, false},
		{" Sell ", models.ActionSell, false},
		{"NEUTRAL", models.ActionNeutral, false},
		{"hold", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			response := `{"signal": {"pair": "EURUSD", "action": "` + tt.raw + `", "confidence": 50}}`
			result, err := parseResult(response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("action %q must be rejected", tt.raw)
				}
				var analysisErr *errors.AnalysisError
				if !errors.As(err, &analysisErr) {
					t.Errorf("expected AnalysisError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResult failed: %v", err)
			}
			if result.Signal.Action != tt.want {
				t.Errorf("action = %q, want %q", result.Signal.Action, tt.want)
			}
		})
	}
}

func TestParseResultClampsConfidence(t *testing.T) {
	over := `{"signal": {"pair": "EURUSD", "action": "BUY", "confidence": 130}}`
	result, err := parseResult(over)
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}
	if result.Signal.Confidence != 100 {
		t.Errorf("confidence = %v, want clamped to 100", result.Signal.Confidence)
	}

	under := `{"signal": {"pair": "EURUSD", "action": "SELL", "confidence": -5}}`
	result, err = parseResult(under)
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}
	if result.Signal.Confidence != 0 {
		t.Errorf("confidence = %v, want clamped to 0", result.Signal.Confidence)
	}
}

func TestParseResultRejectsMalformedJSON(t *testing.T) {
	for _, raw := range []string{"", "not json", "{", `{"signal": "oops"}`} {
		_, err := parseResult(raw)
		if err == nil {
			t.Errorf("input %q parsed without error", raw)
			continue
		}
		var analysisErr *errors.AnalysisError
		if !errors.As(err, &analysisErr) {
			t.Errorf("input %q: expected AnalysisError, got %T", raw, err)
		} else if analysisErr.UserMessage() == "" {
			t.Errorf("input %q: empty user message", raw)
		}
	}
}
