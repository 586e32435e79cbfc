package main

import "html/template"

type navTab struct {
	Label  string
	Href   string
	TestID string
	Active bool
}

const (
	tabBlog  = "blog"
	tabAdmin = "admin"
)

func navTabs(active string) []navTab {
	return []navTab{
		{Label: "Blog", Href: "/", TestID: "blog-nav", Active: active == tabBlog},
		{Label: "Admin", Href: "/admin-page", TestID: "admin-nav", Active: active == tabAdmin},
	}
}

type authFormView struct {
	Mode        string
	Heading     string
	SubmitLabel string
	ToggleLabel string
	Error       string
	Invalid     string
	Submitting  bool
}

func newAuthFormView(state FormState) authFormView {
	view := authFormView{
		Mode:        state.Mode.String(),
		Heading:     "Login",
		SubmitLabel: "Login with JWT",
		ToggleLabel: "Create an account",
		Submitting:  state.Phase == PhaseSubmitting,
	}
	if state.Mode == ModeSignup {
		view.Heading = "Sign up"
		view.SubmitLabel = "Create new user"
		view.ToggleLabel = "Back to login"
	}
	if state.Phase == PhaseError {
		view.Error = state.Err
	}
	return view
}

// blogListView never carries owner controls without a token in store.
type blogListView struct {
	Posts []Post
	Owner bool
}

func newBlogListView(posts []Post, store SessionStore) blogListView {
	_, ok := store.Get()
	return blogListView{Posts: posts, Owner: ok}
}

type postDetailView struct {
	Title     string
	Content   template.HTML
	Byline    string
	Tags      []string
	CreatedAt string
}

func newPostDetailView(post Post) postDetailView {
	tags := make([]string, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, tag.Name)
	}
	return postDetailView{
		Title:     post.Title,
		Content:   markdown(post.Content),
		Byline:    "by " + post.Username,
		Tags:      tags,
		CreatedAt: post.CreatedAt,
	}
}
