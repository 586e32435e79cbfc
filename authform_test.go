package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuthenticator struct {
	mu            sync.Mutex
	login         func(ctx context.Context, creds Credentials) (string, error)
	register      func(ctx context.Context, creds Credentials) error
	loginCalls    int
	registerCalls int
}

func (f *fakeAuthenticator) Login(ctx context.Context, creds Credentials) (string, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.login
	f.mu.Unlock()
	if fn == nil {
		return "123xyz", nil
	}
	return fn(ctx, creds)
}

func (f *fakeAuthenticator) Register(ctx context.Context, creds Credentials) error {
	f.mu.Lock()
	f.registerCalls++
	fn := f.register
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, creds)
}

func (f *fakeAuthenticator) calls() (login, register int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.registerCalls
}

var validCreds = Credentials{Username: "user1", Password: "password"}

func TestAuthForm_InitialState(t *testing.T) {
	form := NewAuthForm(&fakeAuthenticator{}, discardLogger())
	assert.Equal(t, FormState{Mode: ModeLogin, Phase: PhaseIdle}, form.State())
}

func TestAuthForm_ToggleMode(t *testing.T) {
	form := NewAuthForm(&fakeAuthenticator{}, discardLogger())

	form.ToggleMode()
	assert.Equal(t, FormState{Mode: ModeSignup, Phase: PhaseIdle}, form.State())

	form.ToggleMode()
	assert.Equal(t, FormState{Mode: ModeLogin, Phase: PhaseIdle}, form.State())
}

func TestAuthForm_ToggleClearsError(t *testing.T) {
	api := &fakeAuthenticator{
		login: func(context.Context, Credentials) (string, error) {
			return "", &StatusError{Op: "login", StatusCode: http.StatusBadRequest}
		},
	}
	form := NewAuthForm(api, discardLogger())

	_, err := form.Submit(context.Background(), newMemoryStore(""), validCreds)
	require.NoError(t, err)
	require.Equal(t, PhaseError, form.State().Phase)

	form.ToggleMode()
	assert.Equal(t, FormState{Mode: ModeSignup, Phase: PhaseIdle}, form.State())
}

func TestAuthForm_LoginSuccess(t *testing.T) {
	api := &fakeAuthenticator{}
	store := newMemoryStore("")
	form := NewAuthForm(api, discardLogger())

	outcome, err := form.Submit(context.Background(), store, validCreds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, outcome)
	assert.Equal(t, FormState{Mode: ModeLogin, Phase: PhaseIdle}, form.State())

	token, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "123xyz", token)

	login, register := api.calls()
	assert.Equal(t, 1, login)
	assert.Equal(t, 0, register)
}

func TestAuthForm_LoginFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rejected", &StatusError{Op: "login", StatusCode: http.StatusBadRequest}},
		{"network failure", errors.New("dial tcp: connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAuthenticator{
				login: func(context.Context, Credentials) (string, error) { return "", tt.err },
			}
			store := newMemoryStore("previous")
			form := NewAuthForm(api, discardLogger())

			outcome, err := form.Submit(context.Background(), store, validCreds)
			require.NoError(t, err)
			assert.Equal(t, OutcomeFailed, outcome)
			assert.Equal(t, FormState{Mode: ModeLogin, Phase: PhaseError, Err: "Login Error"}, form.State())

			token, _ := store.Get()
			assert.Equal(t, "previous", token, "store must be untouched on failure")
		})
	}
}

func TestAuthForm_SignupSuccess(t *testing.T) {
	var registered Credentials
	api := &fakeAuthenticator{
		register: func(_ context.Context, creds Credentials) error {
			registered = creds
			return nil
		},
	}
	store := newMemoryStore("")
	form := NewAuthForm(api, discardLogger())
	form.ToggleMode()

	outcome, err := form.Submit(context.Background(), store, validCreds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, outcome)
	assert.Equal(t, validCreds, registered)
	assert.Equal(t, FormState{Mode: ModeSignup, Phase: PhaseIdle}, form.State())

	token, _ := store.Get()
	assert.Equal(t, "123xyz", token)

	login, register := api.calls()
	assert.Equal(t, 1, register)
	assert.Equal(t, 1, login)
}

func TestAuthForm_SignupSuccess_LoginAfterwardsFails(t *testing.T) {
	api := &fakeAuthenticator{
		login: func(context.Context, Credentials) (string, error) {
			return "", &StatusError{Op: "login", StatusCode: http.StatusBadRequest}
		},
	}
	store := newMemoryStore("")
	form := newAuthFormIn(ModeSignup, api, discardLogger())

	outcome, err := form.Submit(context.Background(), store, validCreds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, outcome)

	_, ok := store.Get()
	assert.False(t, ok, "no token must be stored without a successful login")
}

func TestAuthForm_SignupFailure(t *testing.T) {
	api := &fakeAuthenticator{
		register: func(context.Context, Credentials) error {
			return &StatusError{Op: "register", StatusCode: http.StatusBadRequest}
		},
	}
	store := newMemoryStore("")
	form := newAuthFormIn(ModeSignup, api, discardLogger())

	outcome, err := form.Submit(context.Background(), store, validCreds)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, FormState{Mode: ModeSignup, Phase: PhaseError, Err: "Registration Error"}, form.State())

	_, ok := store.Get()
	assert.False(t, ok)

	login, _ := api.calls()
	assert.Equal(t, 0, login)
}

func TestAuthForm_EmptyCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{"both empty", Credentials{}},
		{"no password", Credentials{Username: "user1"}},
		{"no username", Credentials{Password: "password"}},
		{"blank username", Credentials{Username: "   ", Password: "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAuthenticator{}
			form := NewAuthForm(api, discardLogger())

			_, err := form.Submit(context.Background(), newMemoryStore(""), tt.creds)
			assert.ErrorIs(t, err, ErrEmptyCredentials)
			assert.Equal(t, FormState{Mode: ModeLogin, Phase: PhaseIdle}, form.State())

			login, register := api.calls()
			assert.Zero(t, login)
			assert.Zero(t, register)
		})
	}
}

func TestAuthForm_ResubmitClearsError(t *testing.T) {
	fail := true
	api := &fakeAuthenticator{
		login: func(context.Context, Credentials) (string, error) {
			if fail {
				return "", errors.New("boom")
			}
			return "123xyz", nil
		},
	}
	form := NewAuthForm(api, discardLogger())
	store := newMemoryStore("")

	outcome, _ := form.Submit(context.Background(), store, validCreds)
	require.Equal(t, OutcomeFailed, outcome)

	fail = false
	outcome, _ = form.Submit(context.Background(), store, validCreds)
	assert.Equal(t, OutcomeAuthenticated, outcome)
	assert.Equal(t, FormState{Mode: ModeLogin, Phase: PhaseIdle}, form.State())
}

// blockingLogin returns a login func that parks until release is closed.
func blockingLogin(started chan<- struct{}, release <-chan struct{}) func(context.Context, Credentials) (string, error) {
	return func(context.Context, Credentials) (string, error) {
		started <- struct{}{}
		<-release
		return "late-token", nil
	}
}

func TestAuthForm_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	api := &fakeAuthenticator{login: blockingLogin(started, release)}
	store := newMemoryStore("")
	form := NewAuthForm(api, discardLogger())

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := form.Submit(context.Background(), store, validCreds)
		done <- result{outcome, err}
	}()

	<-started
	assert.Equal(t, PhaseSubmitting, form.State().Phase)

	form.ToggleMode()
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, OutcomeDiscarded, res.outcome)
	assert.Equal(t, FormState{Mode: ModeSignup, Phase: PhaseIdle}, form.State())

	_, ok := store.Get()
	assert.False(t, ok, "a stale response must not write the session store")
}

func TestAuthForm_DuplicateSubmitRejected(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	api := &fakeAuthenticator{login: blockingLogin(started, release)}
	store := newMemoryStore("")
	form := NewAuthForm(api, discardLogger())

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := form.Submit(context.Background(), store, validCreds)
		done <- outcome
	}()
	<-started

	_, err := form.Submit(context.Background(), store, validCreds)
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(release)
	assert.Equal(t, OutcomeAuthenticated, <-done)

	token, _ := store.Get()
	assert.Equal(t, "late-token", token)

	login, _ := api.calls()
	assert.Equal(t, 1, login)
}

func TestNewAuthFormView(t *testing.T) {
	tests := []struct {
		name  string
		state FormState
		want  authFormView
	}{
		{
			name:  "login idle",
			state: FormState{Mode: ModeLogin, Phase: PhaseIdle},
			want: authFormView{
				Mode: "login", Heading: "Login", SubmitLabel: "Login with JWT", ToggleLabel: "Create an account",
			},
		},
		{
			name:  "signup idle",
			state: FormState{Mode: ModeSignup, Phase: PhaseIdle},
			want: authFormView{
				Mode: "signup", Heading: "Sign up", SubmitLabel: "Create new user", ToggleLabel: "Back to login",
			},
		},
		{
			name:  "login error",
			state: FormState{Mode: ModeLogin, Phase: PhaseError, Err: "Login Error"},
			want: authFormView{
				Mode: "login", Heading: "Login", SubmitLabel: "Login with JWT", ToggleLabel: "Create an account",
				Error: "Login Error",
			},
		},
		{
			name:  "signup submitting",
			state: FormState{Mode: ModeSignup, Phase: PhaseSubmitting},
			want: authFormView{
				Mode: "signup", Heading: "Sign up", SubmitLabel: "Create new user", ToggleLabel: "Back to login",
				Submitting: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newAuthFormView(tt.state))
		})
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeSignup, parseMode("signup"))
	assert.Equal(t, ModeLogin, parseMode("login"))
	assert.Equal(t, ModeLogin, parseMode(""))
	assert.Equal(t, ModeLogin, parseMode("bogus"))
}
