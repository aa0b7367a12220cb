package webhook

import (
	"encoding/json"
	"time"

	"github.com/medlingo/interpreter-gateway/internal/detector"
)

// EventActionDetected is the only event type currently emitted.
const EventActionDetected = "medical.action.detected"

// Payload is the canonical webhook body. Field order matters: receivers
// verify the signature over the exact serialized bytes.
type Payload struct {
	Event        string          `json:"event"`
	Action       ActionPayload   `json:"action"`
	Conversation ConversationRef `json:"conversation"`
	Timestamp    string          `json:"timestamp"`
}

// ActionPayload is the action section of the payload.
type ActionPayload struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Details    detector.Details `json:"details"`
	Confidence float64          `json:"confidence"`
}

// ConversationRef identifies the conversation the action came from.
type ConversationRef struct {
	ID string `json:"id"`
}

// NewPayload builds the canonical payload for a detected action.
func NewPayload(action detector.Action, actionID, conversationID string, now time.Time) Payload {
	return Payload{
		Event: EventActionDetected,
		Action: ActionPayload{
			ID:         actionID,
			Type:       string(action.Type),
			Details:    action.Details,
			Confidence: action.Confidence,
		},
		Conversation: ConversationRef{ID: conversationID},
		Timestamp:    now.UTC().Format(time.RFC3339),
	}
}

// Marshal serializes the payload to the exact bytes that get signed and sent.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
