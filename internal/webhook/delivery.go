package webhook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/config"
	"github.com/medlingo/interpreter-gateway/internal/detector"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/resilience"
)

// Status is the lifecycle state of one webhook delivery.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// ErrAttemptTimeout marks an attempt that timed out, as distinct from a
// non-2xx response or a transport error.
var ErrAttemptTimeout = errors.New("webhook attempt timed out")

// Delivery tracks one signed payload on its way to a target URL. Its status
// is inspectable at any time and becomes terminal at sent or failed.
type Delivery struct {
	URL       string
	ActionID  string
	Signature string

	mu        sync.RWMutex
	status    Status
	attempts  int
	lastError string

	done chan struct{}
}

// Status returns the current delivery status.
func (d *Delivery) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Attempts returns how many attempts have run so far.
func (d *Delivery) Attempts() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.attempts
}

// LastError returns the most recent attempt error, if any.
func (d *Delivery) LastError() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastError
}

// Done is closed once the delivery reaches a terminal status.
func (d *Delivery) Done() <-chan struct{} {
	return d.done
}

func (d *Delivery) recordAttempt(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if err != nil {
		d.lastError = err.Error()
	}
}

func (d *Delivery) setStatus(s Status) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
	if s == StatusSent || s == StatusFailed {
		close(d.done)
	}
}

// Deliverer signs and POSTs detected-action payloads, retrying failures
// with exponential backoff. Deliveries run as independent tasks: retries
// for different actions never block one another, and a retry timer is not
// tied to any session's lifetime.
type Deliverer struct {
	secret      string
	maxAttempts int
	baseDelay   time.Duration
	httpClient  *http.Client
	scheduler   *resilience.Scheduler
	clock       resilience.Clock
	logger      zerolog.Logger
}

// NewDeliverer creates a deliverer from config. A nil scheduler means a
// real-clock scheduler.
func NewDeliverer(cfg *config.Config, scheduler *resilience.Scheduler) *Deliverer {
	if scheduler == nil {
		scheduler = resilience.NewScheduler(nil)
	}
	return &Deliverer{
		secret:      cfg.WebhookSecret,
		maxAttempts: cfg.WebhookMaxAttempts,
		baseDelay:   time.Duration(cfg.WebhookRetryBase) * time.Millisecond,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.WebhookTimeout) * time.Second,
		},
		scheduler: scheduler,
		clock:     scheduler.Clock(),
		logger:    observability.GetLogger().With().Str("component", "webhook").Logger(),
	}
}

// Deliver builds, signs, and asynchronously sends the payload for a
// validated action. The returned Delivery can be polled or waited on; the
// call itself never blocks on the network.
func (d *Deliverer) Deliver(action detector.Action, conversationID, url string) (*Delivery, error) {
	actionID := uuid.New().String()
	body, err := NewPayload(action, actionID, conversationID, d.clock.Now()).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	dl := &Delivery{
		URL:       url,
		ActionID:  actionID,
		Signature: Sign(d.secret, body),
		status:    StatusPending,
		done:      make(chan struct{}),
	}

	d.scheduler.Schedule(0, func() {
		d.attempt(dl, body, 1)
	})
	return dl, nil
}

// attempt runs one POST and either finishes the delivery or schedules the
// next attempt after base * 2^(n-1).
func (d *Deliverer) attempt(dl *Delivery, body []byte, n int) {
	err := d.send(dl, body)
	dl.recordAttempt(err)

	if err == nil {
		observability.RecordWebhookAttempt("success")
		observability.RecordWebhookDelivery(string(StatusSent))
		dl.setStatus(StatusSent)
		d.logger.Info().
			Str("action_id", dl.ActionID).
			Int("attempt", n).
			Msg("Webhook delivered")
		return
	}

	if errors.Is(err, ErrAttemptTimeout) {
		observability.RecordWebhookAttempt("timeout")
	} else {
		observability.RecordWebhookAttempt("error")
	}

	if n >= d.maxAttempts {
		dl.setStatus(StatusFailed)
		observability.RecordWebhookDelivery(string(StatusFailed))
		d.logger.Error().
			Err(err).
			Str("action_id", dl.ActionID).
			Int("attempts", n).
			Msg("Webhook delivery exhausted retries")
		return
	}

	delay := resilience.Backoff(d.baseDelay, n)
	d.logger.Warn().
		Err(err).
		Str("action_id", dl.ActionID).
		Int("attempt", n).
		Dur("retry_in", delay).
		Msg("Webhook attempt failed, retrying")

	d.scheduler.Schedule(delay, func() {
		d.attempt(dl, body, n+1)
	})
}

// send runs a single signed POST attempt.
func (d *Deliverer) send(dl *Delivery, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, dl.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", dl.Signature)
	req.Header.Set("X-Webhook-Event", EventActionDetected)
	req.Header.Set("X-Webhook-Timestamp", d.clock.Now().UTC().Format(time.RFC3339))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrAttemptTimeout, err)
		}
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
