package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidview/vidview/internal/database"
	"github.com/vidview/vidview/internal/engage"
	"github.com/vidview/vidview/internal/geoip"
	"github.com/vidview/vidview/internal/playback"
	"github.com/vidview/vidview/internal/server"
	"github.com/vidview/vidview/internal/storage"
	"github.com/vidview/vidview/internal/translate"
	"github.com/vidview/vidview/internal/views"
)

// logNotifier surfaces session and moderation events in the server log. A
// real deployment would push these to the client over a notification channel.
type logNotifier struct{}

func (logNotifier) LimitReached(sessionID string, limitSeconds int) {
	log.Printf("session %s reached its plan limit of %ds", sessionID, limitSeconds)
}

func (logNotifier) CommentRemoved(videoID, commentID string) {
	log.Printf("comment %s removed from video %s after community dislikes", commentID, videoID)
}

func main() {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	store, err := storage.New(ctx, storage.Config{
		Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
		PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		Bucket:         getEnv("S3_BUCKET", "vidview"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Region:         getEnv("S3_REGION", "eu-central-1"),
	})
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("storage bucket check failed: %v", err)
	}
	log.Println("storage bucket ready")

	var resolver *geoip.Resolver
	if path := os.Getenv("GEOIP_DB_PATH"); path != "" {
		resolver, err = geoip.New(path)
		if err != nil {
			log.Printf("geoip database unavailable, view locations disabled: %v", err)
		} else {
			defer resolver.Close()
			log.Println("geoip database loaded")
		}
	}

	notifier := logNotifier{}
	manager := playback.NewManager(notifier)

	moderatorOpts := []engage.Option{engage.WithNotifier(notifier)}
	if getEnv("TRANSLATE_ENABLED", "false") == "true" {
		model := getEnv("TRANSLATE_MODEL", "mistral-small-latest")
		translator := translate.NewClient(
			os.Getenv("TRANSLATE_BASE_URL"),
			os.Getenv("TRANSLATE_API_KEY"),
			model,
		)
		moderatorOpts = append(moderatorOpts, engage.WithTranslator(translator))
		log.Printf("comment translation enabled (model: %s)", model)
	}
	moderator := engage.NewModerator(engage.NewPostgresStore(db.Pool), moderatorOpts...)

	srv := server.New(server.Config{
		DB:               db.Pool,
		Pinger:           db,
		JWTSecret:        jwtSecret,
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		S3PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
		Manager:          manager,
		Sources:          store,
		Views:            views.NewRecorder(db.Pool, resolver),
		Moderator:        moderator,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("vidview listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
