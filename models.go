package main

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Post mirrors the remote API's blog entry. CreatedAt is kept as the
// server-formatted string and never reparsed.
type Post struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	Tags      []Tag  `json:"tags"`
	CreatedAt string `json:"created_at"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
