package main

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (b *Blog) render(w http.ResponseWriter, status int, page string, data map[string]any) {
	var buf bytes.Buffer
	if err := b.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		b.logger.Error("rendering template", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (b *Blog) Home(w http.ResponseWriter, r *http.Request) {
	store := b.sessions(w, r)

	data := map[string]any{
		"Title":     "Blog",
		"Nav":       navTabs(tabBlog),
		"Blog":      newBlogListView(b.posts.Get(), store),
		"CSRFToken": b.ensureCSRFToken(w, r),
	}
	b.render(w, http.StatusOK, "blog.html", data)
}

func (b *Blog) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, ok := findPost(b.posts.Get(), id)
	if !ok {
		// Not in the snapshot yet: fall back to a one-off fetch.
		post, err = b.api.Post(r.Context(), id)
		if errors.Is(err, ErrPostNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			b.logger.Error("fetching post", "id", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	data := map[string]any{
		"Title": post.Title,
		"Nav":   navTabs(tabBlog),
		"Post":  newPostDetailView(*post),
	}
	b.render(w, http.StatusOK, "detail.html", data)
}

func (b *Blog) renderAdmin(w http.ResponseWriter, status int, csrfToken string, view authFormView) {
	data := map[string]any{
		"Title":     "Admin",
		"Nav":       navTabs(tabAdmin),
		"Form":      view,
		"CSRFToken": csrfToken,
	}
	b.render(w, status, "admin.html", data)
}

func (b *Blog) Admin(w http.ResponseWriter, r *http.Request) {
	csrfToken := b.ensureCSRFToken(w, r)
	form := b.forms.get(csrfToken, parseMode(r.URL.Query().Get("mode")))
	b.renderAdmin(w, http.StatusOK, csrfToken, newAuthFormView(form.State()))
}

func (b *Blog) AdminSubmit(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	// The posted mode only seeds a form the client does not have yet.
	csrfToken := getCSRFToken(r)
	form := b.forms.get(csrfToken, parseMode(r.FormValue("mode")))

	if r.FormValue("action") == "toggle" {
		form.ToggleMode()
		b.renderAdmin(w, http.StatusOK, csrfToken, newAuthFormView(form.State()))
		return
	}

	creds := Credentials{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	outcome, err := form.Submit(r.Context(), b.sessions(w, r), creds)
	switch {
	case errors.Is(err, ErrEmptyCredentials):
		view := newAuthFormView(form.State())
		view.Invalid = "Username and password are required"
		b.renderAdmin(w, http.StatusBadRequest, csrfToken, view)
		return
	case errors.Is(err, ErrSubmitInProgress):
		b.renderAdmin(w, http.StatusConflict, csrfToken, newAuthFormView(form.State()))
		return
	}

	switch outcome {
	case OutcomeAuthenticated:
		b.logger.Info("authenticated", "mode", form.State().Mode.String())
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case OutcomeFailed:
		status := http.StatusUnauthorized
		if form.State().Mode == ModeSignup {
			status = http.StatusBadRequest
		}
		b.renderAdmin(w, status, csrfToken, newAuthFormView(form.State()))
	default:
		b.renderAdmin(w, http.StatusOK, csrfToken, newAuthFormView(form.State()))
	}
}

func (b *Blog) Logout(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	b.sessions(w, r).Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if !parseFormWithCSRF(w, r) {
		return
	}

	store := b.sessions(w, r)
	token, _ := store.Get()

	err = b.api.DeletePost(r.Context(), token, id)
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		// The API no longer accepts the token; drop it and ask for a new login.
		store.Clear()
		http.Redirect(w, r, "/admin-page", http.StatusSeeOther)
		return
	case err != nil && !errors.Is(err, ErrPostNotFound):
		b.logger.Error("deleting post", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	b.posts.Set(withoutPost(b.posts.Get(), id))
	if err := deletePost(b.db, id); err != nil {
		b.logger.Warn("removing post from snapshot", "id", id, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
