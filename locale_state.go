package tolgee

import "sync"

// LocaleState holds the active locale and broadcasts changes to subscribers.
// Semantics are hot latest-value: a new subscriber observes the current value
// immediately, and slow consumers are conflated to the most recent update
// rather than buffering missed ones.
type LocaleState struct {
	mu      sync.Mutex
	current Locale
	subs    map[int]chan Locale
	nextID  int
}

// NewLocaleState seeds the state with an initial locale, possibly zero.
func NewLocaleState(initial Locale) *LocaleState {
	return &LocaleState{
		current: initial,
		subs:    make(map[int]chan Locale),
	}
}

// Current returns the active locale.
func (s *LocaleState) Current() Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set normalizes any of the accepted input forms (Locale, tag string, or a
// project Language) into a Locale, publishes it, and returns the new value.
// No validation against the backend happens here: an unsupported locale just
// produces cache misses downstream.
func (s *LocaleState) Set(value any) Locale {
	locale := coerceLocale(value)

	s.mu.Lock()
	s.current = locale
	for _, sub := range s.subs {
		// conflate: drop the pending value, keep only the latest
		select {
		case <-sub:
		default:
		}
		sub <- locale
	}
	s.mu.Unlock()

	return locale
}

// Subscribe registers a subscriber channel primed with the current value. The
// returned cancel func must be called to release the subscription.
func (s *LocaleState) Subscribe() (<-chan Locale, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	sub := make(chan Locale, 1)
	sub <- s.current
	s.subs[id] = sub
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return sub, cancel
}

// coerceLocale accepts the three supported locale spellings.
func coerceLocale(value any) Locale {
	switch v := value.(type) {
	case Locale:
		return v
	case string:
		return ParseLocale(v)
	case Language:
		return ParseLocale(v.Tag)
	case *Language:
		if v == nil {
			return Locale{}
		}
		return ParseLocale(v.Tag)
	default:
		return Locale{}
	}
}
