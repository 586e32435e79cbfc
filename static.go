package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type postLister interface {
	Posts(ctx context.Context) ([]Post, error)
}

// generate fetches the post list once and publishes it as the snapshot
// every page renders from.
func generate(ctx context.Context, db *sql.DB, api postLister, cache *SyncCache[[]Post], logger *slog.Logger) error {
	posts, err := api.Posts(ctx)
	if err != nil {
		return fmt.Errorf("fetching posts: %w", err)
	}

	posts, dropped := uniquePosts(posts)
	if len(dropped) > 0 {
		logger.Warn("skipping duplicate posts", "ids", dropped)
	}

	if err := saveSnapshot(db, posts, time.Now()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	cache.Set(posts)
	return nil
}

// loadOrGenerate prefers a fresh snapshot and falls back to the stored one
// when the API is unreachable.
func loadOrGenerate(ctx context.Context, db *sql.DB, api postLister, cache *SyncCache[[]Post], logger *slog.Logger) error {
	err := generate(ctx, db, api, cache, logger)
	if err == nil {
		logger.Info("generated post snapshot", "posts", len(cache.Get()))
		return nil
	}
	logger.Warn("generating post snapshot failed, using stored snapshot", "error", err)

	posts, loadErr := loadSnapshot(db)
	if loadErr != nil {
		return fmt.Errorf("loading stored snapshot: %w", loadErr)
	}

	generatedAt, _ := getSetting(db, snapshotGeneratedAtKey)
	logger.Info("loaded stored post snapshot", "posts", len(posts), "generated_at", generatedAt)
	cache.Set(posts)
	return nil
}

func refreshLoop(ctx context.Context, interval time.Duration, db *sql.DB, api postLister, cache *SyncCache[[]Post], logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := generate(ctx, db, api, cache, logger); err != nil {
				logger.Error("refreshing post snapshot", "error", err)
				continue
			}
			logger.Debug("refreshed post snapshot", "posts", len(cache.Get()))
		}
	}
}
