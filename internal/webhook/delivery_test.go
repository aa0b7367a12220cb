package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/detector"
	"github.com/medlingo/interpreter-gateway/internal/resilience"
)

// fakeClock records requested delays and releases tasks immediately
type fakeClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeClock) Now() time.Time { return time.Unix(1700000000, 0) }

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- f.Now()
	return ch
}

func (f *fakeClock) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.delays))
	copy(out, f.delays)
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		WebhookSecret:      "test-secret",
		WebhookTimeout:     5,
		WebhookMaxAttempts: 3,
		WebhookRetryBase:   2000,
	}
}

func testAction() detector.Action {
	return detector.Action{
		Type:       detector.TypeFollowUp,
		Details:    detector.FollowUpDetails{Timeframe: "in two weeks"},
		Confidence: 0.85,
		SourceText: "Follow up in two weeks",
		Context:    detector.Context{ConversationID: "conv-1", UtteranceID: "utt-1"},
	}
}

func waitDone(t *testing.T, dl *Delivery) {
	t.Helper()
	select {
	case <-dl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("delivery did not reach a terminal status")
	}
}

func TestDeliver_Success(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotHeader http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = body
		gotHeader = r.Header.Clone()
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clock := &fakeClock{}
	d := NewDeliverer(testConfig(), resilience.NewScheduler(clock))

	dl, err := d.Deliver(testAction(), "conv-1", server.URL)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	waitDone(t, dl)

	if dl.Status() != StatusSent {
		t.Errorf("Expected status sent, got %s", dl.Status())
	}
	if dl.Attempts() != 1 {
		t.Errorf("Expected 1 attempt, got %d", dl.Attempts())
	}

	mu.Lock()
	defer mu.Unlock()

	if ct := gotHeader.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json content type, got %s", ct)
	}
	if ev := gotHeader.Get("X-Webhook-Event"); ev != EventActionDetected {
		t.Errorf("Expected event header %s, got %s", EventActionDetected, ev)
	}
	if ts := gotHeader.Get("X-Webhook-Timestamp"); ts == "" {
		t.Error("Expected a timestamp header")
	}
	if !Verify("test-secret", gotHeader.Get("X-Webhook-Signature"), gotBody) {
		t.Error("Expected signature header to verify against the received body")
	}

	var payload struct {
		Event  string `json:"event"`
		Action struct {
			ID         string  `json:"id"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
		} `json:"action"`
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if payload.Event != EventActionDetected {
		t.Errorf("Expected event %s, got %s", EventActionDetected, payload.Event)
	}
	if payload.Action.Type != string(detector.TypeFollowUp) {
		t.Errorf("Expected action type follow_up, got %s", payload.Action.Type)
	}
	if payload.Action.ID != dl.ActionID {
		t.Errorf("Expected action id %s, got %s", dl.ActionID, payload.Action.ID)
	}
	if payload.Conversation.ID != "conv-1" {
		t.Errorf("Expected conversation id conv-1, got %s", payload.Conversation.ID)
	}
	if payload.Timestamp == "" {
		t.Error("Expected a payload timestamp")
	}
}

func TestDeliver_RetriesWithBackoffThenFails(t *testing.T) {
	var mu sync.Mutex
	hits := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	clock := &fakeClock{}
	d := NewDeliverer(testConfig(), resilience.NewScheduler(clock))

	dl, err := d.Deliver(testAction(), "conv-1", server.URL)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	waitDone(t, dl)

	if dl.Status() != StatusFailed {
		t.Errorf("Expected status failed, got %s", dl.Status())
	}
	if dl.Attempts() != 3 {
		t.Errorf("Expected 3 attempts, got %d", dl.Attempts())
	}
	if !strings.Contains(dl.LastError(), "500") {
		t.Errorf("Expected last error to mention status 500, got %q", dl.LastError())
	}

	mu.Lock()
	if hits != 3 {
		t.Errorf("Expected server to receive 3 requests, got %d", hits)
	}
	mu.Unlock()

	// First attempt immediately, then base*2^0 and base*2^1
	want := []time.Duration{0, 2 * time.Second, 4 * time.Second}
	got := clock.recorded()
	if len(got) != len(want) {
		t.Fatalf("Expected %d scheduled delays, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected delay %v at step %d, got %v", want[i], i, got[i])
		}
	}
}

func TestDeliver_RecoverOnLaterAttempt(t *testing.T) {
	var mu sync.Mutex
	hits := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clock := &fakeClock{}
	d := NewDeliverer(testConfig(), resilience.NewScheduler(clock))

	dl, err := d.Deliver(testAction(), "conv-1", server.URL)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	waitDone(t, dl)

	if dl.Status() != StatusSent {
		t.Errorf("Expected status sent after recovery, got %s", dl.Status())
	}
	if dl.Attempts() != 3 {
		t.Errorf("Expected 3 attempts, got %d", dl.Attempts())
	}
}

func TestDeliver_UnreachableTarget(t *testing.T) {
	clock := &fakeClock{}
	d := NewDeliverer(testConfig(), resilience.NewScheduler(clock))

	// Port 1 on loopback, nothing listens there
	dl, err := d.Deliver(testAction(), "conv-1", "http://127.0.0.1:1/hook")
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	waitDone(t, dl)

	if dl.Status() != StatusFailed {
		t.Errorf("Expected status failed, got %s", dl.Status())
	}
	if dl.LastError() == "" {
		t.Error("Expected a recorded error")
	}
}

func TestDeliver_SignatureStableAcrossRetries(t *testing.T) {
	var mu sync.Mutex
	var sigs []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sigs = append(sigs, r.Header.Get("X-Webhook-Signature"))
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	clock := &fakeClock{}
	d := NewDeliverer(testConfig(), resilience.NewScheduler(clock))

	dl, err := d.Deliver(testAction(), "conv-1", server.URL)
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	waitDone(t, dl)

	mu.Lock()
	defer mu.Unlock()
	if len(sigs) != 3 {
		t.Fatalf("Expected 3 signatures, got %d", len(sigs))
	}
	for _, s := range sigs[1:] {
		if s != sigs[0] {
			t.Error("Expected the same signature on every retry")
		}
	}
}
