package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

// ParseError reports agent output that could not be turned into a Decision.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse decision: %s: %v", e.Reason, e.Err)
	}
	return "parse decision: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// textFields are tried in order when the agent sends an object where a
// string is expected.
var textFields = []string{"instructions", "reason", "message"}

// ParseDecision repairs near-JSON agent output and validates it into a
// Decision. connected is recorded as DataSourceConnected regardless of what
// the agent claims.
func ParseDecision(content string, connected bool) (models.Decision, error) {
	repaired, err := repairJSON(content)
	if err != nil {
		return models.Decision{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return models.Decision{}, &ParseError{Reason: "malformed json", Err: err}
	}

	status := models.DecisionStatus(strings.ToLower(strings.TrimSpace(coerceText(raw["status"]))))
	switch status {
	case models.DecisionApproved, models.DecisionRejected, models.DecisionEscalate:
	default:
		return models.Decision{}, &ParseError{Reason: fmt.Sprintf("unknown status %q", status)}
	}

	d := models.Decision{
		Status:              status,
		ResolutionType:      coerceResolution(raw["resolution_type"]),
		RefundAmount:        coerceAmount(raw["refund_amount"]),
		Reason:              coerceText(raw["reason"]),
		ConfidenceScore:     coerceConfidence(raw["confidence_score"]),
		NextSteps:           coerceText(raw["next_steps"]),
		DataSourceConnected: connected,
	}
	if v, ok := raw["escalation_required"].(bool); ok {
		d.EscalationRequired = v
	} else {
		d.EscalationRequired = status == models.DecisionEscalate
	}
	return d, nil
}

// repairJSON strips markdown fences and surrounding prose, then escapes raw
// control characters that appear inside string literals.
func repairJSON(content string) (string, error) {
	s := strings.ReplaceAll(content, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", &ParseError{Reason: "no json object in response"}
	}
	s = s[start : end+1]

	var (
		b        strings.Builder
		inString bool
		escaped  bool
	)
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case escaped:
			escaped = false
			b.WriteByte(c)
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func coerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		for _, key := range textFields {
			if s, ok := t[key].(string); ok {
				return s
			}
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func coerceAmount(v any) *float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return models.Float64(f)
}

func coerceConfidence(v any) float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}

func coerceResolution(v any) models.ResolutionType {
	r := models.ResolutionType(strings.ToLower(strings.TrimSpace(coerceText(v))))
	switch r {
	case models.ResolutionFullRefund, models.ResolutionPartialRefund, models.ResolutionReplacement, models.ResolutionNone:
		return r
	}
	return models.ResolutionNone
}
