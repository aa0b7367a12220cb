package realtime

import "testing"

func TestParseServerEvent_Transcription(t *testing.T) {
	ev, err := ParseServerEvent([]byte(`{"type":"input_audio_transcription.completed","transcript":"hello"}`))
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}
	if ev.Type != EventTranscriptionCompleted {
		t.Errorf("Expected type %s, got %s", EventTranscriptionCompleted, ev.Type)
	}
	if ev.Transcript != "hello" {
		t.Errorf("Expected transcript 'hello', got '%s'", ev.Transcript)
	}
}

func TestParseServerEvent_MissingType(t *testing.T) {
	if _, err := ParseServerEvent([]byte(`{"transcript":"hello"}`)); err == nil {
		t.Error("Expected an error for a message without a type tag")
	}
}

func TestParseServerEvent_Malformed(t *testing.T) {
	if _, err := ParseServerEvent([]byte(`{not json`)); err == nil {
		t.Error("Expected an error for malformed JSON")
	}
}

func TestConversationItem_Transcript(t *testing.T) {
	item := &ConversationItem{
		Content: []ContentPart{
			{Type: "input_audio"},
			{Type: "input_audio", Transcript: "me duele la cabeza"},
		},
	}
	if got := item.Transcript(); got != "me duele la cabeza" {
		t.Errorf("Expected transcript from second part, got '%s'", got)
	}

	empty := &ConversationItem{}
	if got := empty.Transcript(); got != "" {
		t.Errorf("Expected empty transcript, got '%s'", got)
	}
}

func TestResponse_FinalTranscript(t *testing.T) {
	resp := &Response{
		Output: []ConversationItem{
			{Content: []ContentPart{{Type: "audio"}}},
			{Content: []ContentPart{{Type: "audio", Transcript: "my head hurts"}}},
		},
	}
	if got := resp.FinalTranscript(); got != "my head hurts" {
		t.Errorf("Expected nested transcript, got '%s'", got)
	}
}

func TestResponse_FinalTranscript_TextFallback(t *testing.T) {
	resp := &Response{
		Output: []ConversationItem{
			{Content: []ContentPart{{Type: "text", Text: "take ibuprofen"}}},
		},
	}
	if got := resp.FinalTranscript(); got != "take ibuprofen" {
		t.Errorf("Expected text fallback, got '%s'", got)
	}
}
