package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/medlingo/interpreter-gateway/internal/config"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stubProvider is a fake realtime provider: a token endpoint plus a
// WebSocket endpoint driven by the given connection script.
func stubProvider(t *testing.T, script func(conn *websocket.Conn)) (*config.Config, func()) {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"client_secret":{"value":"ephemeral-secret"}}`))
	}))

	wsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade stub connection: %v", err)
			return
		}
		script(conn)
	}))

	cfg := &config.Config{
		RealtimeAPIKey:    "test-api-key",
		RealtimeModel:     "test-model",
		RealtimeTokenURL:  tokenServer.URL,
		RealtimeWSURL:     "ws" + strings.TrimPrefix(wsServer.URL, "http"),
		PrimaryLanguage:   "en",
		SecondaryLanguage: "es",
	}
	return cfg, func() {
		tokenServer.Close()
		wsServer.Close()
	}
}

func TestClient_ConnectSendsSessionConfig(t *testing.T) {
	configured := make(chan map[string]interface{}, 1)
	cfg, cleanup := stubProvider(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]interface{}
		json.Unmarshal(data, &msg)
		configured <- msg
	})
	defer cleanup()

	c := NewClient(cfg, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected connect error: %v", err)
	}
	defer c.Close()

	select {
	case msg := <-configured:
		if msg["type"] != "session.update" {
			t.Errorf("Expected session.update as first message, got %v", msg["type"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Provider never received the session configuration")
	}
}

func TestClient_DropInvokesFailureHandler(t *testing.T) {
	cfg, cleanup := stubProvider(t, func(conn *websocket.Conn) {
		// Accept the session config, then kill the connection
		conn.ReadMessage()
		conn.Close()
	})
	defer cleanup()

	c := NewClient(cfg, nil)

	failed := make(chan error, 1)
	c.OnFailure(func(err error) { failed <- err })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected connect error: %v", err)
	}

	select {
	case err := <-failed:
		if err == nil {
			t.Error("Expected a non-nil failure cause")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Failure handler never invoked after the provider dropped the connection")
	}

	if c.IsActive() {
		t.Error("Expected client inactive after the drop")
	}
}

func TestClient_CloseDoesNotInvokeFailureHandler(t *testing.T) {
	block := make(chan struct{})
	cfg, cleanup := stubProvider(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
		<-block
	})
	defer cleanup()
	defer close(block)

	c := NewClient(cfg, nil)

	var mu sync.Mutex
	failures := 0
	c.OnFailure(func(err error) {
		mu.Lock()
		failures++
		mu.Unlock()
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected connect error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Unexpected close error: %v", err)
	}

	// Give the read loop time to observe the close
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if failures != 0 {
		t.Errorf("Expected no failure callback on deliberate close, got %d", failures)
	}
}

func TestClient_DeliversMessagesInOrder(t *testing.T) {
	cfg, cleanup := stubProvider(t, func(conn *websocket.Conn) {
		defer conn.Close()
		conn.ReadMessage()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"input_audio_buffer.speech_started"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"input_audio_buffer.speech_stopped"}`))
	})
	defer cleanup()

	received := make(chan string, 2)
	c := NewClient(cfg, func(data []byte) {
		ev, err := ParseServerEvent(data)
		if err != nil {
			t.Errorf("Unexpected parse error: %v", err)
			return
		}
		received <- ev.Type
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Unexpected connect error: %v", err)
	}
	defer c.Close()

	want := []string{EventSpeechStarted, EventSpeechStopped}
	for _, expected := range want {
		select {
		case got := <-received:
			if got != expected {
				t.Errorf("Expected event %s, got %s", expected, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Never received event %s", expected)
		}
	}
}

func TestClient_TokenFailureFailsFast(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer tokenServer.Close()

	cfg := &config.Config{
		RealtimeAPIKey:   "bad-key",
		RealtimeModel:    "test-model",
		RealtimeTokenURL: tokenServer.URL,
		RealtimeWSURL:    "ws://127.0.0.1:1",
	}

	c := NewClient(cfg, nil)
	if err := c.Connect(context.Background()); err == nil {
		t.Error("Expected connect to fail when the token endpoint rejects the request")
	}
}
