package interpreter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medlingo/interpreter-gateway/internal/assist"
	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/detector"
	"github.com/medlingo/interpreter-gateway/internal/events"
	"github.com/medlingo/interpreter-gateway/internal/observability"
)

func handlerConfig(assistURL string) *config.Config {
	return &config.Config{
		PrimaryLanguage:            "en",
		SecondaryLanguage:          "es",
		AssistURL:                  assistURL,
		AssistTimeout:              5,
		CircuitBreakerMaxFailures:  3,
		CircuitBreakerResetTimeout: 30,
	}
}

func newHandlerConn(cfg *config.Config) *clientConn {
	return &clientConn{
		session: NewSession(cfg, &fakeTransport{}),
		actions: make(map[string]detector.Action),
	}
}

func TestProduceActions_RuleEngineWithoutAssist(t *testing.T) {
	cfg := handlerConfig("")
	h := NewWSHandler(cfg, detector.New(nil), nil, nil)
	cc := newHandlerConn(cfg)

	u := events.NewUtterance(events.RoleClinician, "Follow up in two weeks", "en", 1)
	actions := h.produceActions(cc, u, observability.GetLogger())

	if len(actions) != 1 {
		t.Fatalf("Expected 1 rule engine action, got %d", len(actions))
	}
	if actions[0].Type != detector.TypeFollowUp {
		t.Errorf("Expected follow_up, got %s", actions[0].Type)
	}
}

func TestProduceActions_AssistPreferred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"actions":[{"type":"referral","details":{"specialty":"cardiologist","priority":"routine"},"confidence":0.91,"sourceText":"see a cardiologist"}]}`))
	}))
	defer server.Close()

	cfg := handlerConfig(server.URL)
	h := NewWSHandler(cfg, detector.New(nil), nil, assist.NewClient(cfg))
	cc := newHandlerConn(cfg)

	// Text the rule engine would classify as follow_up; the assist result
	// must win when the service is healthy
	u := events.NewUtterance(events.RoleClinician, "Follow up in two weeks", "en", 1)
	actions := h.produceActions(cc, u, observability.GetLogger())

	if len(actions) != 1 {
		t.Fatalf("Expected 1 assist action, got %d", len(actions))
	}
	if actions[0].Type != detector.TypeReferral {
		t.Errorf("Expected the assist referral, got %s", actions[0].Type)
	}
	if actions[0].Confidence != 0.91 {
		t.Errorf("Expected assist confidence 0.91, got %f", actions[0].Confidence)
	}
	if actions[0].Context.ConversationID != cc.session.ID {
		t.Error("Expected assist action to carry the session's conversation id")
	}
}

func TestProduceActions_FallsBackWhenAssistFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := handlerConfig(server.URL)
	h := NewWSHandler(cfg, detector.New(nil), nil, assist.NewClient(cfg))
	cc := newHandlerConn(cfg)

	u := events.NewUtterance(events.RoleClinician, "Follow up in two weeks", "en", 1)
	actions := h.produceActions(cc, u, observability.GetLogger())

	if len(actions) != 1 {
		t.Fatalf("Expected the rule engine fallback to produce 1 action, got %d", len(actions))
	}
	if actions[0].Type != detector.TypeFollowUp {
		t.Errorf("Expected follow_up from the fallback, got %s", actions[0].Type)
	}
}

func TestProduceActions_SkipsMalformedAssistRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"actions":[` +
			`{"type":"summary","details":{},"confidence":0.5},` +
			`{"type":"follow_up","details":{"timeframe":"in two weeks"},"confidence":0.85}]}`))
	}))
	defer server.Close()

	cfg := handlerConfig(server.URL)
	h := NewWSHandler(cfg, detector.New(nil), nil, assist.NewClient(cfg))
	cc := newHandlerConn(cfg)

	u := events.NewUtterance(events.RoleClinician, "Follow up in two weeks", "en", 1)
	actions := h.produceActions(cc, u, observability.GetLogger())

	if len(actions) != 1 {
		t.Fatalf("Expected the malformed record to be skipped, got %d actions", len(actions))
	}
	if actions[0].Type != detector.TypeFollowUp {
		t.Errorf("Expected the valid follow_up record, got %s", actions[0].Type)
	}
}
