package main

import (
	"database/sql"
	"fmt"
	"time"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// saveSnapshot replaces the stored snapshot with posts, keeping the order
// of posts and of each post's tags.
func saveSnapshot(db *sql.DB, posts []Post, generatedAt time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM post_tags", "DELETE FROM posts", "DELETE FROM tags"} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing snapshot: %w", err)
		}
	}

	for i, post := range posts {
		_, err := tx.Exec(`
			INSERT INTO posts (id, position, title, content, username, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			post.ID, i, post.Title, post.Content, post.Username, post.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting post %d: %w", post.ID, err)
		}

		for j, tag := range post.Tags {
			_, err := tx.Exec(`
				INSERT INTO tags (id, name) VALUES (?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name`, tag.ID, tag.Name)
			if err != nil {
				return fmt.Errorf("inserting tag %d: %w", tag.ID, err)
			}
			_, err = tx.Exec(`
				INSERT INTO post_tags (post_id, tag_id, position)
				VALUES (?, ?, ?)`, post.ID, tag.ID, j)
			if err != nil {
				return fmt.Errorf("linking tag %d to post %d: %w", tag.ID, post.ID, err)
			}
		}
	}

	if err := setSetting(tx, snapshotGeneratedAtKey, generatedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

func loadSnapshot(db *sql.DB) ([]Post, error) {
	rows, err := db.Query(`
		SELECT id, title, content, username, created_at
		FROM posts
		ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	index := make(map[int]int)
	for rows.Next() {
		var post Post
		err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.Username, &post.CreatedAt)
		if err != nil {
			return nil, err
		}
		post.Tags = []Tag{}
		index[post.ID] = len(posts)
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := db.Query(`
		SELECT pt.post_id, t.id, t.name
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		ORDER BY pt.post_id, pt.position`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var postID int
		var tag Tag
		if err := tagRows.Scan(&postID, &tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, tag)
		}
	}

	return posts, tagRows.Err()
}

// uniquePosts keeps the first post for each id and reports the ids it
// dropped.
func uniquePosts(posts []Post) ([]Post, []int) {
	seen := make(map[int]bool, len(posts))
	out := make([]Post, 0, len(posts))
	var dropped []int
	for _, post := range posts {
		if seen[post.ID] {
			dropped = append(dropped, post.ID)
			continue
		}
		seen[post.ID] = true
		out = append(out, post)
	}
	return out, dropped
}

func findPost(posts []Post, id int) (*Post, bool) {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], true
		}
	}
	return nil, false
}

// withoutPost returns a copy of posts minus id; the cached slice is shared
// with concurrent readers and must not be modified in place.
func withoutPost(posts []Post, id int) []Post {
	out := make([]Post, 0, len(posts))
	for _, post := range posts {
		if post.ID != id {
			out = append(out, post)
		}
	}
	return out
}

func deletePost(db *sql.DB, id int) error {
	if _, err := db.Exec("DELETE FROM post_tags WHERE post_id = ?", id); err != nil {
		return err
	}
	_, err := db.Exec("DELETE FROM posts WHERE id = ?", id)
	return err
}
