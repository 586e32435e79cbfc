package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrEmptyCredentials = errors.New("username and password are required")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

func (m Mode) String() string {
	if m == ModeSignup {
		return "signup"
	}
	return "login"
}

func parseMode(s string) Mode {
	if s == "signup" {
		return ModeSignup
	}
	return ModeLogin
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseError
)

const (
	loginErrorMessage        = "Login Error"
	registrationErrorMessage = "Registration Error"
)

// FormState is the full observable state of the admin form. Err is only
// set in PhaseError.
type FormState struct {
	Mode  Mode
	Phase Phase
	Err   string
}

type Outcome int

const (
	// OutcomeAuthenticated tells the caller to navigate to the blog page.
	OutcomeAuthenticated Outcome = iota + 1
	OutcomeFailed
	// OutcomeDiscarded means the response arrived after the form moved on
	// and was dropped without touching state or the session store.
	OutcomeDiscarded
)

type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Register(ctx context.Context, creds Credentials) error
}

// AuthForm drives the login / sign-up form. Each submission carries a
// generation number; toggling the mode or starting another submission
// advances it, so late responses cannot land on the wrong state.
type AuthForm struct {
	api    Authenticator
	logger *slog.Logger

	mu    sync.Mutex
	state FormState
	gen   uint64
}

func NewAuthForm(api Authenticator, logger *slog.Logger) *AuthForm {
	return newAuthFormIn(ModeLogin, api, logger)
}

func newAuthFormIn(mode Mode, api Authenticator, logger *slog.Logger) *AuthForm {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthForm{
		api:    api,
		logger: logger,
		state:  FormState{Mode: mode, Phase: PhaseIdle},
	}
}

func (f *AuthForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *AuthForm) ToggleMode() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gen++
	next := ModeSignup
	if f.state.Mode == ModeSignup {
		next = ModeLogin
	}
	f.state = FormState{Mode: next, Phase: PhaseIdle}
}

// Submit validates creds and calls the API for the current mode. Remote
// failures never escape: they become PhaseError and OutcomeFailed. The
// returned error is reserved for submissions that were not started.
func (f *AuthForm) Submit(ctx context.Context, store SessionStore, creds Credentials) (Outcome, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return 0, ErrEmptyCredentials
	}

	f.mu.Lock()
	if f.state.Phase == PhaseSubmitting {
		f.mu.Unlock()
		return 0, ErrSubmitInProgress
	}
	f.gen++
	gen := f.gen
	mode := f.state.Mode
	f.state = FormState{Mode: mode, Phase: PhaseSubmitting}
	f.mu.Unlock()

	var (
		token string
		err   error
	)
	if mode == ModeLogin {
		token, err = f.api.Login(ctx, creds)
	} else {
		token, err = f.register(ctx, creds)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		f.logger.Info("discarding stale auth response", "mode", mode.String())
		return OutcomeDiscarded, nil
	}

	if err != nil {
		msg := loginErrorMessage
		if mode == ModeSignup {
			msg = registrationErrorMessage
		}
		f.logger.Warn("auth submission failed", "mode", mode.String(), "username", creds.Username, "error", err)
		f.state = FormState{Mode: mode, Phase: PhaseError, Err: msg}
		return OutcomeFailed, nil
	}

	if token != "" {
		store.Set(token)
	}
	f.state = FormState{Mode: mode, Phase: PhaseIdle}
	return OutcomeAuthenticated, nil
}

// register creates the account and then logs in with the same
// credentials, since the register endpoint issues no token. A failed
// follow-up login still counts as a successful sign-up.
func (f *AuthForm) register(ctx context.Context, creds Credentials) (string, error) {
	if err := f.api.Register(ctx, creds); err != nil {
		return "", err
	}

	token, err := f.api.Login(ctx, creds)
	if err != nil {
		f.logger.Warn("login after registration failed", "username", creds.Username, "error", err)
		return "", nil
	}
	return token, nil
}
