package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func initDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		username TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS post_tags (
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id),
		position INTEGER NOT NULL,
		PRIMARY KEY (post_id, position)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	if err := migrateDB(db); err != nil {
		return err
	}

	return nil
}

func migrateDB(db *sql.DB) error {
	// Snapshots written before tag ordering was kept have no position column.
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('post_tags') WHERE name='position'`).Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec(`ALTER TABLE post_tags ADD COLUMN position INTEGER NOT NULL DEFAULT 0`)
		if err != nil {
			return err
		}
	}

	// Older snapshots keyed tag links on (post_id, tag_id), which cannot hold
	// the same tag twice on one post.
	var pk int
	err = db.QueryRow(`SELECT pk FROM pragma_table_info('post_tags') WHERE name='position'`).Scan(&pk)
	if err != nil {
		return err
	}
	if pk == 0 {
		return rekeyPostTags(db)
	}

	return nil
}

func rekeyPostTags(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE post_tags_new (
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			tag_id INTEGER NOT NULL REFERENCES tags(id),
			position INTEGER NOT NULL,
			PRIMARY KEY (post_id, position)
		)`,
		`INSERT INTO post_tags_new (post_id, tag_id, position)
			SELECT post_id, tag_id,
				ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY position, rowid) - 1
			FROM post_tags`,
		`DROP TABLE post_tags`,
		`ALTER TABLE post_tags_new RENAME TO post_tags`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
