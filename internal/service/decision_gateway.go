package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/config"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

const maxAgentResponseBytes = 1 << 20

var (
	ErrRateLimited   = errors.New("agent rate limited")
	errEmptyResponse = errors.New("empty response from agent")
)

type agentStatusError struct {
	code int
}

func (e *agentStatusError) Error() string {
	return fmt.Sprintf("agent returned status %d", e.code)
}

// DecisionGateway asks the external agent for a resolution. It never fails:
// every failure path yields an escalation decision.
type DecisionGateway struct {
	url        string
	apiKey     string
	agentID    string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    func(attempt int) time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

type GatewayOption func(*DecisionGateway)

func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *DecisionGateway) { g.client = c }
}

// WithSleep replaces the wait between rate-limited attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *DecisionGateway) { g.sleep = sleep }
}

func NewDecisionGateway(cfg config.AgentConfig, opts ...GatewayOption) *DecisionGateway {
	base := cfg.Backoff
	g := &DecisionGateway{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		agentID:    cfg.AgentID,
		client:     &http.Client{},
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    func(attempt int) time.Duration { return base * time.Duration(attempt) },
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type agentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type agentRequest struct {
	AgentID  string         `json:"agent_id"`
	Messages []agentMessage `json:"messages"`
}

type agentPayload struct {
	Mode              string              `json:"mode"`
	UserInput         models.ClaimInput   `json:"user_input"`
	ValidationPayload models.OrderContext `json:"validation_payload"`
}

type agentResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// RequestDecision sends the claim and its order context to the agent.
// Rate-limited calls are retried with a linearly growing delay.
func (g *DecisionGateway) RequestDecision(ctx context.Context, input models.ClaimInput, oc models.OrderContext) models.Decision {
	ctx, span := telemetry.Tracer.Start(ctx, "decision_gateway.request")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", input.OrderID))

	connected := oc.Order != nil

	body, err := g.buildRequest(input, oc)
	if err != nil {
		return g.fallback(input, err, connected)
	}

	for attempt := 0; ; attempt++ {
		content, err := g.call(ctx, body)
		if errors.Is(err, ErrRateLimited) {
			telemetry.AgentAttempts.WithLabelValues("rate_limited").Inc()
			if attempt >= g.maxRetries {
				return g.fallback(input, err, connected)
			}
			delay := g.backoff(attempt + 1)
			telemetry.Logger.Info("Agent rate limited, retrying",
				zap.Int64("order_id", input.OrderID),
				zap.Int("retry", attempt+1),
				zap.Duration("delay", delay),
			)
			if err := g.sleep(ctx, delay); err != nil {
				return g.fallback(input, err, connected)
			}
			continue
		}
		if err != nil {
			telemetry.AgentAttempts.WithLabelValues("error").Inc()
			return g.fallback(input, err, connected)
		}

		telemetry.AgentAttempts.WithLabelValues("ok").Inc()
		decision, err := ParseDecision(content, connected)
		if err != nil {
			return g.fallback(input, err, connected)
		}
		telemetry.GatewayDecisions.WithLabelValues("agent").Inc()
		span.SetAttributes(attribute.String("decision.status", string(decision.Status)))
		return decision
	}
}

func (g *DecisionGateway) buildRequest(input models.ClaimInput, oc models.OrderContext) ([]byte, error) {
	payload, err := json.Marshal(agentPayload{Mode: "structured", UserInput: input, ValidationPayload: oc})
	if err != nil {
		return nil, err
	}
	return json.Marshal(agentRequest{
		AgentID:  g.agentID,
		Messages: []agentMessage{{Role: "user", Content: string(payload)}},
	})
}

// call performs one attempt under its own deadline and returns the message
// content of the first choice.
func (g *DecisionGateway) call(ctx context.Context, body []byte) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxAgentResponseBytes))
	if err != nil {
		return "", err
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		telemetry.Logger.Warn("Agent returned error status",
			zap.Int("status", res.StatusCode),
			zap.String("body", truncate(string(raw), 512)),
		)
		return "", &agentStatusError{code: res.StatusCode}
	}

	var resp agentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &ParseError{Reason: "malformed agent envelope", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	content := messageText(resp.Choices[0].Message.Content)
	if strings.TrimSpace(content) == "" {
		return "", errEmptyResponse
	}
	return content, nil
}

// messageText accepts content as a plain string or as a list of text chunks.
func messageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var chunks []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &chunks); err == nil {
		var b strings.Builder
		for _, c := range chunks {
			b.WriteString(c.Text)
		}
		return b.String()
	}
	return ""
}

func (g *DecisionGateway) fallback(input models.ClaimInput, cause error, connected bool) models.Decision {
	source := "fallback_error"
	if errors.Is(cause, ErrRateLimited) {
		source = "fallback_rate_limited"
	}
	telemetry.GatewayDecisions.WithLabelValues(source).Inc()
	telemetry.Logger.Warn("Agent unavailable, escalating claim",
		zap.Int64("order_id", input.OrderID),
		zap.Bool("data_source_connected", connected),
		zap.Error(cause),
	)
	return FallbackDecision(cause, connected)
}

// FallbackDecision is the escalation returned whenever the agent cannot
// produce a usable decision.
func FallbackDecision(cause error, connected bool) models.Decision {
	return models.Decision{
		Status:              models.DecisionEscalate,
		ResolutionType:      models.ResolutionNone,
		RefundAmount:        nil,
		Reason:              fmt.Sprintf("Automated analysis unavailable: %s. Flagged for human review.", describeFailure(cause)),
		ConfidenceScore:     0,
		EscalationRequired:  true,
		NextSteps:           models.NextStepsManualReview,
		DataSourceConnected: connected,
	}
}

func describeFailure(err error) string {
	var (
		parseErr  *ParseError
		statusErr *agentStatusError
	)
	switch {
	case errors.Is(err, ErrRateLimited):
		return "service capacity exceeded"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "agent timed out"
	case errors.Is(err, errEmptyResponse):
		return "agent returned an empty response"
	case errors.As(err, &parseErr):
		return "agent response was not a valid decision"
	case errors.As(err, &statusErr):
		return statusErr.Error()
	default:
		return "agent unreachable"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
