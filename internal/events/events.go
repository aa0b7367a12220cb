package events

import (
	"time"

	"github.com/google/uuid"
)

// SpeakerRole identifies who produced an utterance.
type SpeakerRole string

const (
	RoleClinician SpeakerRole = "clinician"
	RolePatient   SpeakerRole = "patient"
)

// SessionStatus is the lifecycle state of an interpretation session.
type SessionStatus string

const (
	StatusIdle         SessionStatus = "idle"
	StatusConnecting   SessionStatus = "connecting"
	StatusConnected    SessionStatus = "connected"
	StatusError        SessionStatus = "error"
	StatusDisconnected SessionStatus = "disconnected"
)

// Utterance is one completed speech segment attributed to a single speaker.
// Immutable once created, except for the translation attached later by the
// correlation heuristic.
type Utterance struct {
	ID          string       `json:"id"`
	Role        SpeakerRole  `json:"role"`
	Text        string       `json:"originalText"`
	Language    string       `json:"language"`
	Timestamp   time.Time    `json:"timestamp"`
	Sequence    int          `json:"sequence"`
	Translation *Translation `json:"translation,omitempty"`
}

// Translation is the target-language rendering of an utterance.
// At most one per utterance.
type Translation struct {
	Text        string `json:"translatedText"`
	Language    string `json:"language"`
	UtteranceID string `json:"utteranceId,omitempty"`
}

// NewUtterance creates an utterance with a fresh ID and the given sequence
// number.
func NewUtterance(role SpeakerRole, text, language string, seq int) *Utterance {
	return &Utterance{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Language:  language,
		Timestamp: time.Now().UTC(),
		Sequence:  seq,
	}
}
