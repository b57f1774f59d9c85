package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gatherly.org/internal/auth"
	"gatherly.org/internal/cache"
	"gatherly.org/internal/events"
	"gatherly.org/internal/httpapi"
	"gatherly.org/internal/obs"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("GATHERLY_AUTH_SECRET")
	if secret == "" {
		log.Fatal("GATHERLY_AUTH_SECRET is required")
	}

	codecOpts := []auth.CodecOption{}
	if raw := os.Getenv("GATHERLY_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse GATHERLY_TOKEN_TTL: %v", err)
		}
		codecOpts = append(codecOpts, auth.WithLifetime(ttl))
	}
	codec, err := auth.NewTokenCodec(secret, codecOpts...)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	// Postgres when a DSN is set, in-memory otherwise (local development).
	var db *sql.DB
	var userStore auth.UserStore = auth.NewInMemoryStore()
	var eventStore events.Store = events.NewInMemoryStore()
	if dsn := os.Getenv("GATHERLY_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		userStore = auth.NewPGStore(db)
		eventStore = events.NewPGStore(db)
	}

	var store cache.Cache = cache.Noop{}
	var redisCache *cache.Redis
	if addr := os.Getenv("GATHERLY_REDIS_ADDR"); addr != "" {
		redisCache, err = cache.NewRedis(context.Background(), addr, os.Getenv("GATHERLY_REDIS_PASSWORD"), 0)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		store = redisCache
	}

	authOpts := []auth.ServiceOption{auth.WithCache(store)}
	if os.Getenv("GATHERLY_LIVE_ROLES") == "true" {
		authOpts = append(authOpts, auth.WithLiveRoleLookup())
	}
	authSvc, err := auth.NewService(userStore, codec, authOpts...)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	eventSvc, err := events.NewService(eventStore, events.WithCache(store))
	if err != nil {
		log.Fatalf("events service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, eventSvc, auth.DefaultPolicy())
	if origin := os.Getenv("GATHERLY_CORS_ORIGIN"); origin != "" {
		api.SetCORSOrigin(origin)
	}

	addr := os.Getenv("GATHERLY_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting gatherly-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
