package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

type blogAPI interface {
	Authenticator
	postLister
	Post(ctx context.Context, id int) (*Post, error)
	DeletePost(ctx context.Context, token string, id int) error
}

type Blog struct {
	db            *sql.DB
	api           blogAPI
	posts         *SyncCache[[]Post]
	templates     map[string]*template.Template
	forms         *formRegistry
	logger        *slog.Logger
	secureCookies bool

	// sessions opens the session store for one request.
	sessions func(w http.ResponseWriter, r *http.Request) SessionStore
}

func NewBlog(db *sql.DB, api blogAPI, posts *SyncCache[[]Post], logger *slog.Logger, secureCookies bool) *Blog {
	return &Blog{
		db:            db,
		api:           api,
		posts:         posts,
		templates:     loadTemplates(),
		forms:         newFormRegistry(api, logger, csrfLifetime),
		logger:        logger,
		secureCookies: secureCookies,
		sessions: func(w http.ResponseWriter, r *http.Request) SessionStore {
			return newCookieStore(w, r, secureCookies)
		},
	}
}

func (b *Blog) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(b.logger))
	r.Use(chimiddleware.Recoverer)

	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	// Public routes
	r.Get("/", b.Home)
	r.Get("/posts/{id}", b.Detail)
	r.Get("/admin-page", b.Admin)
	r.Post("/admin-page", b.AdminSubmit)
	r.Post("/logout", b.Logout)

	// Owner routes
	r.Post("/posts/{id}/delete", b.requireSession(b.Delete))

	return r
}

func main() {
	generateOnly := flag.Bool("generate", false, "fetch posts into the snapshot database and exit")
	flag.Parse()

	godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err = initDB(db); err != nil {
		log.Fatalf("initializing database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := NewAPIClient(cfg.APIURL, &http.Client{Timeout: cfg.APITimeout})
	posts := &SyncCache[[]Post]{}

	if *generateOnly {
		if err := generate(ctx, db, api, posts, logger); err != nil {
			log.Fatalf("generating snapshot: %v", err)
		}
		logger.Info("generated post snapshot", "posts", len(posts.Get()), "db", cfg.DBPath)
		return
	}

	if err := loadOrGenerate(ctx, db, api, posts, logger); err != nil {
		log.Fatalf("loading posts: %v", err)
	}

	if cfg.RefreshInterval > 0 {
		go refreshLoop(ctx, cfg.RefreshInterval, db, api, posts, logger)
	}

	blog := NewBlog(db, api, posts, logger, cfg.SecureCookies)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           blog.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "addr", cfg.Addr, "api", cfg.APIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
