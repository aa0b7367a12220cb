package interpreter

import (
	"sync"

	"github.com/medlingo/interpreter-gateway/internal/events"
)

// Bus is a session-scoped publish/subscribe hub for domain events. Multiple
// subscribers may register per event type; publishing calls each in
// registration order. Subscriptions are expected before the session starts,
// but registration is safe at any time.
type Bus struct {
	mu sync.RWMutex

	statusSubs      []func(events.SessionStatus)
	utteranceSubs   []func(*events.Utterance)
	translationSubs []func(*events.Translation)
	speechStartSubs []func()
	speechEndSubs   []func()
	errorSubs       []func(string)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnStatus subscribes to session status changes.
func (b *Bus) OnStatus(fn func(events.SessionStatus)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusSubs = append(b.statusSubs, fn)
}

// OnUtterance subscribes to completed utterances.
func (b *Bus) OnUtterance(fn func(*events.Utterance)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.utteranceSubs = append(b.utteranceSubs, fn)
}

// OnTranslation subscribes to produced translations.
func (b *Bus) OnTranslation(fn func(*events.Translation)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.translationSubs = append(b.translationSubs, fn)
}

// OnSpeechStart subscribes to speech start events.
func (b *Bus) OnSpeechStart(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speechStartSubs = append(b.speechStartSubs, fn)
}

// OnSpeechEnd subscribes to speech end events.
func (b *Bus) OnSpeechEnd(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speechEndSubs = append(b.speechEndSubs, fn)
}

// OnError subscribes to session errors.
func (b *Bus) OnError(fn func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorSubs = append(b.errorSubs, fn)
}

// PublishStatus notifies status subscribers.
func (b *Bus) PublishStatus(status events.SessionStatus) {
	b.mu.RLock()
	subs := b.statusSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(status)
	}
}

// PublishUtterance notifies utterance subscribers.
func (b *Bus) PublishUtterance(u *events.Utterance) {
	b.mu.RLock()
	subs := b.utteranceSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(u)
	}
}

// PublishTranslation notifies translation subscribers.
func (b *Bus) PublishTranslation(tr *events.Translation) {
	b.mu.RLock()
	subs := b.translationSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(tr)
	}
}

// PublishSpeechStart notifies speech start subscribers.
func (b *Bus) PublishSpeechStart() {
	b.mu.RLock()
	subs := b.speechStartSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// PublishSpeechEnd notifies speech end subscribers.
func (b *Bus) PublishSpeechEnd() {
	b.mu.RLock()
	subs := b.speechEndSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// PublishError notifies error subscribers.
func (b *Bus) PublishError(message string) {
	b.mu.RLock()
	subs := b.errorSubs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(message)
	}
}
