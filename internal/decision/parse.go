package decision

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alias1177/TradeAgent/models"
)

var errNoJSON = errors.New("no JSON object found in response")

// ParseAnalysis extracts the first balanced top-level JSON object from the
// analyzer's free-form response and validates it. Missing fields are
// defaulted; an unknown action is treated as a parse failure so the caller
// falls back.
func ParseAnalysis(response string) (models.MarketAnalysis, error) {
	var analysis models.MarketAnalysis

	raw, err := extractJSON(response)
	if err != nil {
		return analysis, err
	}

	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return analysis, fmt.Errorf("parsing analyzer JSON: %w", err)
	}

	if analysis.Decision == "" {
		analysis.Decision = models.ActionHold
	}
	switch analysis.Decision {
	case models.ActionBuy, models.ActionSell, models.ActionHold:
	default:
		return models.MarketAnalysis{}, fmt.Errorf("unknown action %q", analysis.Decision)
	}

	if analysis.Confidence == 0 {
		analysis.Confidence = 0.5
	}
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 1 {
		analysis.Confidence = 1
	}
	if analysis.Reasoning == "" {
		analysis.Reasoning = "AI analysis"
	}

	return analysis, nil
}

// extractJSON returns the first balanced {...} substring. The analyzer is not
// required to answer with pure JSON; surrounding prose is ignored. Braces
// inside JSON strings are skipped.
func extractJSON(s string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}

	return "", errNoJSON
}
