package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenCookieName = "access_token"

// SessionStore holds the single credential that decides whether the
// visitor is authenticated.
type SessionStore interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

// cookieStore keeps the token in the access_token cookie. It is bound to
// one request/response pair; writes are visible to later Gets on the same
// store.
type cookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	written bool
	token   string
}

func newCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *cookieStore {
	return &cookieStore{w: w, r: r, secure: secure}
}

func (s *cookieStore) Get() (string, bool) {
	if s.written {
		return s.token, s.token != ""
	}
	cookie, err := s.r.Cookie(accessTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *cookieStore) Set(token string) {
	cookie := &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if exp, ok := tokenExpiry(token); ok {
		cookie.Expires = exp
	}
	http.SetCookie(s.w, cookie)
	s.written = true
	s.token = token
}

func (s *cookieStore) Clear() {
	http.SetCookie(s.w, &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.written = true
	s.token = ""
}

// tokenExpiry reads the exp claim of a JWT without verifying it. The
// signature belongs to the API; the cookie only borrows its lifetime.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

type memoryStore struct {
	mu    sync.Mutex
	token string
}

func newMemoryStore(token string) *memoryStore {
	return &memoryStore{token: token}
}

func (s *memoryStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *memoryStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *memoryStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}
