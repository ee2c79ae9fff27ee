package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/platform/config"
	"github.com/example/blog-platform/internal/platform/db"
	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/internal/platform/logging"
	"github.com/example/blog-platform/internal/platform/natsconn"
	"github.com/example/blog-platform/internal/platform/run"
	"github.com/example/blog-platform/services/comments/internal/comments"
	"github.com/example/blog-platform/services/comments/internal/handlers"
	"github.com/example/blog-platform/services/comments/internal/store"
	"github.com/example/blog-platform/services/comments/internal/worker"
)

func main() {
	// .env is optional; system env vars win when absent.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pool := initPool(log)
	if pool != nil {
		defer pool.Close()
	}

	commentStore, postStore := initStores(pool)

	// NATS is optional outside production: the service degrades to direct
	// notification writes and no lifecycle events.
	nc, err := natsconn.Connect(natsconn.Options{})
	var js nats.JetStreamContext
	if err != nil {
		log.Warn("nats unavailable, lifecycle events disabled", zap.Error(err))
	} else {
		defer nc.Close()
		if js, err = nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable", zap.Error(err))
			js = nil
		}
	}

	sink := initNotifications(log, pool, js)

	svc := comments.NewService(
		comments.Config{
			DefaultStatus:    store.Status(cfg.Comments.DefaultStatus),
			MaxContentLength: cfg.Comments.MaxLength,
		},
		commentStore, postStore, sink, events.New(js, log), log,
	)

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	verifier := auth.JWTVerifier{Secret: []byte(jwtSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		if pool == nil {
			return nil
		}
		return pool.Ping(context.Background())
	}})

	// Public reads
	r.Get("/v1/posts/{post_id}/comments", handlers.GetThread(svc))
	r.Get("/v1/comments/{comment_id}/replies", handlers.GetReplies(svc))

	// Creation: authenticated users or guests with an inline author
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Post("/v1/posts/{post_id}/comments", handlers.CreateComment(svc))
	})

	// Authenticated writes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(svc))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(svc))
		r.Post("/v1/comments/{comment_id}/like", handlers.LikeComment(svc))
	})

	// Moderation surface
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireModerator)
		r.Put("/v1/comments/{comment_id}/status", handlers.ModerateComment(svc))
		r.Get("/v1/admin/posts/{post_id}/comments", handlers.AdminListComments(svc))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil && pool != nil {
			worker.StartNotificationsConsumer(ctx, nc, store.NewPostgresNotificationStore(pool), log)
		}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initPool opens Postgres when DATABASE_URL is set. In production
// (APP_ENV=production) a working connection is mandatory.
func initPool(log *zap.Logger) *pgxpool.Pool {
	isProd := strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")

	if strings.TrimSpace(os.Getenv("DATABASE_URL")) == "" {
		if isProd {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		return nil
	}

	pool, err := db.Open(context.Background())
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return nil
	}

	log.Info("stores: postgres")
	return pool
}

func initStores(pool *pgxpool.Pool) (store.CommentStore, store.PostStore) {
	if pool == nil {
		return store.NewInMemoryCommentStore(), store.NewInMemoryPostStore()
	}
	return store.NewPostgresCommentStore(pool), store.NewPostgresPostStore(pool)
}

// initNotifications picks the sink: queue through JetStream when available
// (the consumer owns the durable write), direct Postgres otherwise, memory
// as the development fallback.
func initNotifications(log *zap.Logger, pool *pgxpool.Pool, js nats.JetStreamContext) store.NotificationStore {
	switch {
	case js != nil && pool != nil:
		log.Info("notifications: queued via jetstream")
		return worker.NewQueueSink(js)
	case pool != nil:
		log.Info("notifications: direct postgres writes")
		return store.NewPostgresNotificationStore(pool)
	default:
		log.Warn("notifications: in-memory sink (development only)")
		return store.NewInMemoryNotificationStore()
	}
}
