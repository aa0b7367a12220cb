package interpreter

import (
	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/events"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/realtime"
)

const defaultErrorMessage = "realtime provider reported an error"

// Normalizer turns the provider's heterogeneous event stream into domain
// events on the session bus. Events arrive over a single ordered channel and
// are processed one at a time, so the correlation state needs no locking.
// A normalizer belongs to exactly one session.
type Normalizer struct {
	bus               *Bus
	primaryLanguage   string
	secondaryLanguage string

	// Every utterance is attributed to the clinician. Turn-taking
	// disambiguation is an open gap in the product.
	role events.SpeakerRole

	// Single-slot correlation: the most recent utterance awaiting a
	// translation, last writer wins. Not a queue.
	pending *events.Utterance
	seq     int

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewNormalizer creates a normalizer publishing to bus, labeling utterances
// with primaryLanguage and translations with secondaryLanguage.
func NewNormalizer(bus *Bus, primaryLanguage, secondaryLanguage string, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{
		bus:               bus,
		primaryLanguage:   primaryLanguage,
		secondaryLanguage: secondaryLanguage,
		role:              events.RoleClinician,
		metrics:           metrics,
		logger:            observability.GetLogger().With().Str("component", "normalizer").Logger(),
	}
}

// Handle processes one raw provider message. Malformed messages are logged
// and dropped; unrecognized type tags are ignored.
func (n *Normalizer) Handle(data []byte) {
	ev, err := realtime.ParseServerEvent(data)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Dropping malformed provider message")
		if n.metrics != nil {
			n.metrics.RecordError("protocol_parse", "normalizer")
		}
		return
	}

	switch ev.Type {
	case realtime.EventTranscriptionCompleted, realtime.EventItemTranscriptionCompleted:
		n.produceUtterance(ev.Transcript)

	case realtime.EventConversationItemCreated:
		if ev.Item != nil && ev.Item.Role == "user" {
			n.produceUtterance(ev.Item.Transcript())
		}

	case realtime.EventAudioTranscriptDelta:
		// Incremental assistant text, informational only

	case realtime.EventAudioTranscriptDone:
		n.produceTranslation(ev.Transcript)

	case realtime.EventResponseDone:
		if ev.Response != nil {
			n.produceTranslation(ev.Response.FinalTranscript())
		}

	case realtime.EventSpeechStarted:
		n.bus.PublishSpeechStart()

	case realtime.EventSpeechStopped:
		n.bus.PublishSpeechEnd()

	case realtime.EventError:
		message := defaultErrorMessage
		if ev.Error != nil && ev.Error.Message != "" {
			message = ev.Error.Message
		}
		n.logger.Error().Str("message", message).Msg("Provider error event")
		n.bus.PublishError(message)

	default:
		n.logger.Debug().Str("type", ev.Type).Msg("Ignoring unrecognized provider event")
	}
}

// produceUtterance emits a completed utterance and makes it the one awaiting
// translation. A second utterance arriving before the first is translated
// replaces it in the slot.
func (n *Normalizer) produceUtterance(text string) {
	if text == "" {
		return
	}

	n.seq++
	u := events.NewUtterance(n.role, text, n.primaryLanguage, n.seq)
	n.pending = u

	if n.metrics != nil {
		n.metrics.RecordUtterance(string(u.Role))
	}
	n.logger.Debug().Str("utterance_id", u.ID).Int("sequence", u.Sequence).Msg("Utterance produced")
	n.bus.PublishUtterance(u)
}

// produceTranslation attaches a translation to the pending utterance. With
// no utterance awaiting one, the translation is dropped.
func (n *Normalizer) produceTranslation(text string) {
	if text == "" {
		return
	}

	if n.pending == nil {
		if n.metrics != nil {
			n.metrics.RecordTranslation(false)
		}
		n.logger.Debug().Msg("Dropping translation with no pending utterance")
		return
	}

	tr := &events.Translation{
		Text:        text,
		Language:    n.secondaryLanguage,
		UtteranceID: n.pending.ID,
	}
	n.pending.Translation = tr
	n.pending = nil

	if n.metrics != nil {
		n.metrics.RecordTranslation(true)
	}
	n.bus.PublishTranslation(tr)
}

// Reset discards correlation state. Called on disconnect.
func (n *Normalizer) Reset() {
	n.pending = nil
}
