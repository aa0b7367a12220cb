package realtime

import (
	"encoding/json"
	"fmt"
)

// Server event type tags the gateway acts on. Anything else passes through
// unrecognized and is ignored downstream.
const (
	EventTranscriptionCompleted     = "input_audio_transcription.completed"
	EventItemTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventConversationItemCreated    = "conversation.item.created"
	EventAudioTranscriptDelta       = "response.audio_transcript.delta"
	EventAudioTranscriptDone        = "response.audio_transcript.done"
	EventResponseDone               = "response.done"
	EventSpeechStarted              = "input_audio_buffer.speech_started"
	EventSpeechStopped              = "input_audio_buffer.speech_stopped"
	EventError                      = "error"
)

// ServerEvent is one inbound provider message. Only the fields relevant to
// the event's type are populated; the rest stay zero.
type ServerEvent struct {
	Type       string            `json:"type"`
	EventID    string            `json:"event_id,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	Delta      string            `json:"delta,omitempty"`
	Item       *ConversationItem `json:"item,omitempty"`
	Response   *Response         `json:"response,omitempty"`
	Error      *ErrorDetail      `json:"error,omitempty"`
}

// ConversationItem is a conversation entry created by the provider.
type ConversationItem struct {
	ID      string        `json:"id,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
}

// ContentPart is one piece of a conversation item's content.
type ContentPart struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// Transcript returns the first transcript or text carried by the item.
func (c *ConversationItem) Transcript() string {
	for _, part := range c.Content {
		if part.Transcript != "" {
			return part.Transcript
		}
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

// Response is the completed-response envelope carried by response.done.
type Response struct {
	ID     string             `json:"id,omitempty"`
	Status string             `json:"status,omitempty"`
	Output []ConversationItem `json:"output,omitempty"`
}

// FinalTranscript digs the final transcript out of the response output, if
// one is present.
func (r *Response) FinalTranscript() string {
	for i := range r.Output {
		if t := r.Output[i].Transcript(); t != "" {
			return t
		}
	}
	return ""
}

// ErrorDetail is the provider's error payload.
type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ParseServerEvent decodes one raw provider message. A message without a
// type tag is malformed.
func ParseServerEvent(data []byte) (*ServerEvent, error) {
	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse server event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("server event missing type tag")
	}
	return &ev, nil
}
