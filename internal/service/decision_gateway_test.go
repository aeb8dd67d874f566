package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/config"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

const approvedContent = `{"status":"approved","resolution_type":"full_refund","refund_amount":50.00,"reason":"Item arrived broken","confidence_score":0.92,"escalation_required":false,"next_steps":"Refund issued to original payment method."}`

var scenarioInput = models.ClaimInput{
	OrderID:             1001,
	CustomerID:          501,
	IssueDescription:    "item arrived broken",
	RequestedResolution: models.ResolutionFullRefund,
}

func connectedContext() models.OrderContext {
	return models.OrderContext{
		Order:       &models.OrderMaster{OrderID: 1001, CustomerID: 501, DeliveryStatus: "delivered", TotalAmount: 50},
		Items:       []models.OrderItem{{ProductName: "Ceramic Vase", Quantity: 1, PricePerUnit: 50}},
		PriorClaims: []models.Claim{},
	}
}

func agentReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestGateway(url string, rec *sleepRecorder) *DecisionGateway {
	cfg := config.AgentConfig{
		URL:        url,
		APIKey:     "test-key",
		AgentID:    "ag-123",
		Timeout:    time.Second,
		MaxRetries: 3,
		Backoff:    2 * time.Second,
	}
	return NewDecisionGateway(cfg, WithSleep(rec.sleep))
}

func TestRequestDecisionApproved(t *testing.T) {
	var received agentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, agentReply(approvedContent))
	}))
	defer srv.Close()

	got := newTestGateway(srv.URL, &sleepRecorder{}).RequestDecision(context.Background(), scenarioInput, connectedContext())

	want := models.Decision{
		Status:              models.DecisionApproved,
		ResolutionType:      models.ResolutionFullRefund,
		RefundAmount:        models.Float64(50),
		Reason:              "Item arrived broken",
		ConfidenceScore:     0.92,
		NextSteps:           "Refund issued to original payment method.",
		DataSourceConnected: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}

	if received.AgentID != "ag-123" || len(received.Messages) != 1 || received.Messages[0].Role != "user" {
		t.Fatalf("unexpected request envelope: %+v", received)
	}
	var payload agentPayload
	if err := json.Unmarshal([]byte(received.Messages[0].Content), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Mode != "structured" || payload.UserInput.OrderID != 1001 || payload.ValidationPayload.Order == nil {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestRequestDecisionRateLimitedExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	got := newTestGateway(srv.URL, rec).RequestDecision(context.Background(), scenarioInput, connectedContext())

	if n := hits.Load(); n != 4 {
		t.Errorf("agent called %d times, want 1 attempt plus 3 retries", n)
	}
	if diff := cmp.Diff([]time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, rec.delays); diff != "" {
		t.Errorf("backoff delays mismatch (-want +got):\n%s", diff)
	}
	if got.Status != models.DecisionEscalate || got.ConfidenceScore != 0 || !got.EscalationRequired {
		t.Errorf("expected fallback escalation, got %+v", got)
	}
	if !strings.Contains(got.Reason, "service capacity exceeded") {
		t.Errorf("Reason = %q", got.Reason)
	}
	if got.RefundAmount != nil || got.ResolutionType != models.ResolutionNone {
		t.Errorf("fallback should carry no resolution: %+v", got)
	}
	if !got.DataSourceConnected {
		t.Error("fallback must keep data_source_connected from the order lookup")
	}
}

func TestRequestDecisionRecoversAfterRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, agentReply(approvedContent))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	got := newTestGateway(srv.URL, rec).RequestDecision(context.Background(), scenarioInput, connectedContext())

	if got.Status != models.DecisionApproved {
		t.Errorf("Status = %q, want approved after retries", got.Status)
	}
	if len(rec.delays) != 3 {
		t.Errorf("slept %d times, want 3", len(rec.delays))
	}
}

func TestRequestDecisionFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantReason: "agent returned status 500",
		},
		{
			name: "malformed envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<html>")
			},
			wantReason: "agent response was not a valid decision",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"choices":[]}`)
			},
			wantReason: "agent returned an empty response",
		},
		{
			name: "prose instead of json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, agentReply("I am not sure what to do here."))
			},
			wantReason: "agent response was not a valid decision",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			rec := &sleepRecorder{}
			got := newTestGateway(srv.URL, rec).RequestDecision(context.Background(), scenarioInput, connectedContext())
			if got.Status != models.DecisionEscalate || got.ConfidenceScore != 0 {
				t.Errorf("expected fallback, got %+v", got)
			}
			if !strings.Contains(got.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to mention %q", got.Reason, tt.wantReason)
			}
			if len(rec.delays) != 0 {
				t.Errorf("non rate-limit failures must not be retried, slept %v", rec.delays)
			}
		})
	}
}

func TestRequestDecisionChunkedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":[{"type":"text","text":"{\"status\":\"rejected\","},{"type":"text","text":"\"reason\":\"Outside window\"}"}]}}]}`)
	}))
	defer srv.Close()

	got := newTestGateway(srv.URL, &sleepRecorder{}).RequestDecision(context.Background(), scenarioInput, connectedContext())
	if got.Status != models.DecisionRejected || got.Reason != "Outside window" {
		t.Errorf("unexpected decision: %+v", got)
	}
}

func TestRequestDecisionWithoutOrderData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, agentReply(`{"status":"escalate","reason":"Order not found","confidence_score":0.3,"data_source_connected":true}`))
	}))
	defer srv.Close()

	got := newTestGateway(srv.URL, &sleepRecorder{}).RequestDecision(context.Background(), scenarioInput, models.EmptyOrderContext())
	if got.DataSourceConnected {
		t.Error("data_source_connected must be false when the order was not resolved")
	}
}

func TestRequestDecisionCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, agentReply(approvedContent))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := newTestGateway(srv.URL, &sleepRecorder{}).RequestDecision(ctx, scenarioInput, connectedContext())
	if got.Status != models.DecisionEscalate || !strings.Contains(got.Reason, "request cancelled") {
		t.Errorf("expected cancelled fallback, got %+v", got)
	}
}

func TestRequestDecisionTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g := NewDecisionGateway(config.AgentConfig{URL: srv.URL, Timeout: 50 * time.Millisecond, MaxRetries: 3, Backoff: time.Second})
	got := g.RequestDecision(context.Background(), scenarioInput, connectedContext())
	if !strings.Contains(got.Reason, "agent timed out") {
		t.Errorf("Reason = %q, want timeout", got.Reason)
	}
}

func TestFallbackDecision(t *testing.T) {
	got := FallbackDecision(ErrRateLimited, false)
	want := models.Decision{
		Status:             models.DecisionEscalate,
		ResolutionType:     models.ResolutionNone,
		Reason:             "Automated analysis unavailable: service capacity exceeded. Flagged for human review.",
		EscalationRequired: true,
		NextSteps:          models.NextStepsManualReview,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}
