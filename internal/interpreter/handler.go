package interpreter

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/assist"
	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/detector"
	"github.com/medlingo/interpreter-gateway/internal/events"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/webhook"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// serverMessage is the JSON frame sent to the client application.
type serverMessage struct {
	Type        string                `json:"type"`
	Status      events.SessionStatus  `json:"status,omitempty"`
	Utterance   *events.Utterance     `json:"utterance,omitempty"`
	Translation *events.Translation   `json:"translation,omitempty"`
	Action      *actionMessage        `json:"action,omitempty"`
	Message     string                `json:"message,omitempty"`
}

// actionMessage is a detected action as forwarded to the client. The ID is
// assigned by the gateway and referenced back in action.validate.
type actionMessage struct {
	ID           string           `json:"id"`
	Type         detector.Type    `json:"type"`
	Details      detector.Details `json:"details"`
	Confidence   float64          `json:"confidence"`
	SourceText   string           `json:"sourceText"`
	MatchedTerms interface{}      `json:"matchedTerms,omitempty"`
}

// clientMessage is a JSON frame received from the client application.
type clientMessage struct {
	Type     string `json:"type"`
	ActionID string `json:"actionId,omitempty"`
	URL      string `json:"url,omitempty"`
}

// WSHandler serves the client-facing session WebSocket. Each connection
// gets its own session and provider transport; detected actions are held
// until the client validates them, then handed to the webhook deliverer.
// When an assist client is present, it is the preferred action producer and
// the rule engine is the fallback.
type WSHandler struct {
	config    *config.Config
	detector  *detector.Detector
	deliverer *webhook.Deliverer
	assist    *assist.Client
	logger    zerolog.Logger
}

// NewWSHandler creates the session WebSocket handler. A nil assist client
// means actions come from the rule engine alone.
func NewWSHandler(cfg *config.Config, det *detector.Detector, deliverer *webhook.Deliverer, assistClient *assist.Client) *WSHandler {
	return &WSHandler{
		config:    cfg,
		detector:  det,
		deliverer: deliverer,
		assist:    assistClient,
		logger:    observability.GetLogger().With().Str("component", "ws_handler").Logger(),
	}
}

// clientConn is the per-connection state.
type clientConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	session *Session

	actionsMu sync.Mutex
	actions   map[string]detector.Action
}

func (c *clientConn) send(msg serverMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.conn.WriteMessage(websocket.TextMessage, data)
}

// ServeHTTP upgrades the connection and runs the session until the client
// disconnects. Webhook deliveries in flight are not tied to the session and
// continue after it ends.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade session connection")
		return
	}
	defer conn.Close()

	logger := observability.WithCorrelationID("").
		With().Str("component", "ws_handler").Logger()

	session := NewSession(h.config, nil)
	cc := &clientConn{
		conn:    conn,
		session: session,
		actions: make(map[string]detector.Action),
	}

	h.subscribe(cc, logger)

	if err := session.Connect(r.Context()); err != nil {
		// Error already published to the bus and forwarded to the client
		return
	}
	defer session.Disconnect()

	h.readLoop(cc, logger)
}

// subscribe forwards every domain event to the client and runs detection on
// each utterance.
func (h *WSHandler) subscribe(cc *clientConn, logger zerolog.Logger) {
	bus := cc.session.Bus()

	bus.OnStatus(func(status events.SessionStatus) {
		cc.send(serverMessage{Type: "status", Status: status})
	})
	bus.OnUtterance(func(u *events.Utterance) {
		cc.send(serverMessage{Type: "utterance", Utterance: u})
		h.detect(cc, u, logger)
	})
	bus.OnTranslation(func(tr *events.Translation) {
		cc.send(serverMessage{Type: "translation", Translation: tr})
	})
	bus.OnSpeechStart(func() {
		cc.send(serverMessage{Type: "speech.start"})
	})
	bus.OnSpeechEnd(func() {
		cc.send(serverMessage{Type: "speech.end"})
	})
	bus.OnError(func(message string) {
		cc.send(serverMessage{Type: "error", Message: message})
	})
}

// detect runs the active action producer on one utterance and forwards any
// actions to the client for validation.
func (h *WSHandler) detect(cc *clientConn, u *events.Utterance, logger zerolog.Logger) {
	start := time.Now()
	actions := h.produceActions(cc, u, logger)

	types := make([]string, 0, len(actions))
	for _, a := range actions {
		types = append(types, string(a.Type))
	}
	cc.session.metrics.RecordDetection(types, time.Since(start))

	for _, action := range actions {
		id := uuid.New().String()

		cc.actionsMu.Lock()
		cc.actions[id] = action
		cc.actionsMu.Unlock()

		logger.Info().
			Str("action_id", id).
			Str("type", string(action.Type)).
			Float64("confidence", action.Confidence).
			Msg("Action detected")

		cc.send(serverMessage{Type: "action.detected", Action: &actionMessage{
			ID:           id,
			Type:         action.Type,
			Details:      action.Details,
			Confidence:   action.Confidence,
			SourceText:   action.SourceText,
			MatchedTerms: action.MatchedTerms,
		}})
	}
}

// produceActions asks the assist service first when one is configured; any
// assist failure falls back to the rule engine so detection never goes dark.
func (h *WSHandler) produceActions(cc *clientConn, u *events.Utterance, logger zerolog.Logger) []detector.Action {
	dctx := detector.Context{
		ConversationID: cc.session.ID,
		UtteranceID:    u.ID,
	}

	if h.assist != nil {
		records, err := h.assist.Detect(context.Background(), u.Text, u.Role, dctx)
		if err == nil {
			actions := make([]detector.Action, 0, len(records))
			for _, r := range records {
				action, convErr := r.ToAction(dctx)
				if convErr != nil {
					logger.Warn().Err(convErr).Msg("Skipping malformed assist action")
					continue
				}
				actions = append(actions, action)
			}
			return actions
		}
		logger.Warn().Err(err).Msg("Assist detection failed, falling back to rule engine")
	}

	return h.detector.Detect(u.Text, u.Role, dctx)
}

// readLoop consumes client frames: binary frames carry microphone audio,
// text frames carry control messages.
func (h *WSHandler) readLoop(cc *clientConn, logger zerolog.Logger) {
	for {
		msgType, data, err := cc.conn.ReadMessage()
		if err != nil {
			logger.Info().Err(err).Msg("Client connection closed")
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := cc.session.SendAudio(data); err != nil {
				logger.Warn().Err(err).Msg("Failed to forward audio")
			}

		case websocket.TextMessage:
			h.handleClientMessage(cc, data, logger)
		}
	}
}

// handleClientMessage dispatches one control frame from the client.
func (h *WSHandler) handleClientMessage(cc *clientConn, data []byte, logger zerolog.Logger) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn().Err(err).Msg("Dropping malformed client message")
		return
	}

	switch msg.Type {
	case "action.validate":
		cc.actionsMu.Lock()
		action, ok := cc.actions[msg.ActionID]
		if ok {
			delete(cc.actions, msg.ActionID)
		}
		cc.actionsMu.Unlock()

		if !ok {
			cc.send(serverMessage{Type: "error", Message: "unknown action id"})
			return
		}

		url := msg.URL
		if url == "" {
			url = h.config.WebhookURL
		}
		if url == "" {
			cc.send(serverMessage{Type: "error", Message: "no webhook url configured"})
			return
		}

		if _, err := h.deliverer.Deliver(action, cc.session.ID, url); err != nil {
			logger.Error().Err(err).Msg("Failed to start webhook delivery")
			cc.send(serverMessage{Type: "error", Message: "webhook delivery failed to start"})
			return
		}
		logger.Info().Str("action_id", msg.ActionID).Msg("Action validated, webhook delivery started")

	case "session.disconnect":
		cc.session.Disconnect()

	default:
		logger.Debug().Str("type", msg.Type).Msg("Ignoring unrecognized client message")
	}
}
