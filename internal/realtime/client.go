package realtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/observability"
)

// RawHandler receives every inbound provider message in arrival order.
type RawHandler func(data []byte)

// FailureHandler is notified when an established connection is lost for any
// reason other than a deliberate Close.
type FailureHandler func(err error)

// Client is one connection to the realtime provider. It fetches a
// short-lived client secret from the token endpoint, dials the provider
// WebSocket, configures the session for interpretation, and feeds every
// inbound message to the registered handler in order.
type Client struct {
	config  *config.Config
	handler RawHandler

	mu        sync.RWMutex
	isActive  bool
	conn      *websocket.Conn
	onFailure FailureHandler

	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

// NewClient creates a realtime client. The handler receives raw inbound
// messages; register it before Connect.
func NewClient(cfg *config.Config, handler RawHandler) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config:  cfg,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		logger:  observability.GetLogger().With().Str("component", "realtime").Logger(),
	}
}

// OnFailure registers the handler called when an established connection
// drops unexpectedly. Register before Connect.
func (c *Client) OnFailure(fn FailureHandler) {
	c.mu.Lock()
	c.onFailure = fn
	c.mu.Unlock()
}

type tokenResponse struct {
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

// fetchClientSecret requests a short-lived credential from the token
// endpoint.
func (c *Client) fetchClientSecret(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"model": c.config.RealtimeModel})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.RealtimeTokenURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.RealtimeAPIKey)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.ClientSecret.Value == "" {
		return "", fmt.Errorf("token response missing client secret")
	}
	return token.ClientSecret.Value, nil
}

// Connect establishes the provider connection and starts the read loop.
// Connection setup fails fast: any credential or dial error is returned
// immediately without retrying.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isActive {
		return fmt.Errorf("realtime client is already connected")
	}

	secret, err := c.fetchClientSecret(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch client secret: %w", err)
	}

	url := fmt.Sprintf("%s?model=%s", c.config.RealtimeWSURL, c.config.RealtimeModel)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+secret)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("failed to dial realtime provider: %w", err)
	}

	// Configure before the connection is visible to other writers
	if err := c.configureSession(conn); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.isActive = true

	go c.readLoop(conn)

	c.logger.Info().Str("model", c.config.RealtimeModel).Msg("Realtime provider connected")
	return nil
}

// configureSession tells the provider to act as an interpreter for the
// configured language pair, with input transcription enabled.
func (c *Client) configureSession(conn *websocket.Conn) error {
	instructions := fmt.Sprintf(
		"You are a medical interpreter. Translate everything the speaker says between %s and %s. "+
			"Respond only with the translation, preserving medical terminology exactly.",
		c.config.PrimaryLanguage, c.config.SecondaryLanguage,
	)

	update := map[string]interface{}{
		"type": "session.update",
		"session": map[string]interface{}{
			"instructions": instructions,
			"input_audio_transcription": map[string]string{
				"model": "whisper-1",
			},
		},
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal session config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send session config: %w", err)
	}
	return nil
}

// readLoop delivers inbound messages to the handler until the connection
// closes. An unexpected close reports the failure upward; a deliberate
// Close does not.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasActive := c.isActive
			c.isActive = false
			onFailure := c.onFailure
			c.mu.Unlock()

			select {
			case <-c.ctx.Done():
				return
			default:
			}

			c.logger.Warn().Err(err).Msg("Realtime connection lost")
			if wasActive && onFailure != nil {
				onFailure(err)
			}
			return
		}
		if c.handler != nil {
			c.handler(data)
		}
	}
}

// writeJSON sends one message to the provider. Writes are serialized; the
// underlying connection allows one concurrent writer.
func (c *Client) writeJSON(v interface{}) error {
	c.mu.RLock()
	active := c.isActive
	conn := c.conn
	c.mu.RUnlock()

	if !active || conn == nil {
		return fmt.Errorf("realtime client is not connected")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal client event: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send client event: %w", err)
	}
	return nil
}

// SendAudio forwards one chunk of client audio to the provider.
func (c *Client) SendAudio(audio []byte) error {
	return c.writeJSON(map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
}

// IsActive returns whether the provider connection is up.
func (c *Client) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isActive
}

// Close tears down the provider connection. Safe to call multiple times.
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isActive {
		return nil
	}
	c.isActive = false

	err := c.conn.Close()
	c.conn = nil
	c.logger.Info().Msg("Realtime provider disconnected")
	return err
}
