package main

import (
	"log/slog"
	"sync"
	"time"
)

type formEntry struct {
	form      *AuthForm
	expiresAt time.Time
}

// formRegistry keeps one AuthForm per client, keyed by the client's CSRF
// token, so overlapping requests from the same browser share a form.
type formRegistry struct {
	api    Authenticator
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	forms map[string]*formEntry
}

func newFormRegistry(api Authenticator, logger *slog.Logger, ttl time.Duration) *formRegistry {
	return &formRegistry{
		api:    api,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
		forms:  make(map[string]*formEntry),
	}
}

// get returns the form for key, creating it in mode if the client has
// none. An empty key gets a form that is not remembered.
func (fr *formRegistry) get(key string, mode Mode) *AuthForm {
	if key == "" {
		return newAuthFormIn(mode, fr.api, fr.logger)
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	now := fr.now()
	fr.cleanupExpired(now)

	entry, ok := fr.forms[key]
	if !ok {
		entry = &formEntry{form: newAuthFormIn(mode, fr.api, fr.logger)}
		fr.forms[key] = entry
	}
	entry.expiresAt = now.Add(fr.ttl)
	return entry.form
}

func (fr *formRegistry) len() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return len(fr.forms)
}

// cleanupExpired drops idle forms. Callers hold fr.mu.
func (fr *formRegistry) cleanupExpired(now time.Time) {
	for key, entry := range fr.forms {
		if now.After(entry.expiresAt) && entry.form.State().Phase != PhaseSubmitting {
			delete(fr.forms, key)
		}
	}
}
