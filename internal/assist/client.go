package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/detector"
	"github.com/medlingo/interpreter-gateway/internal/events"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/resilience"
)

// ActionRecord is one action as returned by the assist service. It mirrors
// the rule engine's output shape so callers can treat the two producers
// interchangeably.
type ActionRecord struct {
	Type       detector.Type   `json:"type"`
	Details    json.RawMessage `json:"details"`
	Confidence float64         `json:"confidence"`
	SourceText string          `json:"sourceText"`
}

// ToAction converts a record into the rule engine's action shape, decoding
// the details payload into the variant matching the record's type.
// Confidence is clamped to [0, 1].
func (r ActionRecord) ToAction(dctx detector.Context) (detector.Action, error) {
	var details detector.Details
	var err error

	switch r.Type {
	case detector.TypePrescription:
		var d detector.PrescriptionDetails
		err = json.Unmarshal(r.Details, &d)
		details = d
	case detector.TypeLabOrder:
		var d detector.LabOrderDetails
		err = json.Unmarshal(r.Details, &d)
		details = d
	case detector.TypeReferral:
		var d detector.ReferralDetails
		err = json.Unmarshal(r.Details, &d)
		details = d
	case detector.TypeFollowUp:
		var d detector.FollowUpDetails
		err = json.Unmarshal(r.Details, &d)
		details = d
	case detector.TypeDiagnosticTest:
		var d detector.DiagnosticTestDetails
		err = json.Unmarshal(r.Details, &d)
		details = d
	default:
		return detector.Action{}, fmt.Errorf("unknown action type %q", r.Type)
	}
	if err != nil {
		return detector.Action{}, fmt.Errorf("failed to decode %s details: %w", r.Type, err)
	}

	confidence := r.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return detector.Action{
		Type:       r.Type,
		Details:    details,
		Confidence: confidence,
		SourceText: r.SourceText,
		Context:    dctx,
	}, nil
}

type detectRequest struct {
	Text           string `json:"text"`
	Role           string `json:"role"`
	ConversationID string `json:"conversationId,omitempty"`
	UtteranceID    string `json:"utteranceId,omitempty"`
}

type detectResponse struct {
	Actions []ActionRecord `json:"actions"`
}

// Client calls the LLM-backed detector service. It is an alternative
// producer of action records, not part of the rule engine; the circuit
// breaker keeps a failing service from slowing every utterance down.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     zerolog.Logger
}

// NewClient creates an assist client from config. Returns nil when no
// assist URL is configured.
func NewClient(cfg *config.Config) *Client {
	if cfg.AssistURL == "" {
		return nil
	}
	return &Client{
		baseURL: cfg.AssistURL,
		apiKey:  cfg.AssistAPIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.AssistTimeout) * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(
			"assist",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: observability.GetLogger().With().Str("component", "assist").Logger(),
	}
}

// Detect sends one utterance to the assist service and returns its action
// records. Non-clinician utterances are not sent.
func (c *Client) Detect(ctx context.Context, text string, role events.SpeakerRole, dctx detector.Context) ([]ActionRecord, error) {
	if role != events.RoleClinician {
		return nil, nil
	}

	var records []ActionRecord
	err := c.breaker.Call(func() error {
		body, err := json.Marshal(detectRequest{
			Text:           text,
			Role:           string(role),
			ConversationID: dctx.ConversationID,
			UtteranceID:    dctx.UtteranceID,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal detect request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create detect request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("assist request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("assist service returned status %d", resp.StatusCode)
		}

		var decoded detectResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("failed to decode assist response: %w", err)
		}
		records = decoded.Actions
		return nil
	})

	observability.UpdateCircuitBreakerState("assist", int(c.breaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("assist")
		c.logger.Warn().Err(err).Msg("Assist detection failed")
		return nil, err
	}
	return records, nil
}

// HealthCheck probes the assist service. Used by the readiness endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assist health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("assist health check returned status %d", resp.StatusCode)
	}
	return nil
}
