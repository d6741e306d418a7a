package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/config"
	"github.com/toybox/toybox-api/internal/domain/auth"
	"github.com/toybox/toybox-api/internal/domain/booking"
	"github.com/toybox/toybox-api/internal/domain/category"
	"github.com/toybox/toybox-api/internal/domain/chat"
	"github.com/toybox/toybox-api/internal/domain/comment"
	"github.com/toybox/toybox-api/internal/domain/favorite"
	"github.com/toybox/toybox-api/internal/domain/toy"
	"github.com/toybox/toybox-api/internal/domain/user"
	"github.com/toybox/toybox-api/internal/middleware"
	"github.com/toybox/toybox-api/internal/pkg/database"
	"github.com/toybox/toybox-api/internal/pkg/imaging"
	"github.com/toybox/toybox-api/internal/pkg/jwt"
	"github.com/toybox/toybox-api/internal/pkg/metrics"
	pkgresponse "github.com/toybox/toybox-api/internal/pkg/response"
	"github.com/toybox/toybox-api/internal/pkg/storage"
	"github.com/toybox/toybox-api/migrations"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ToyBox API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := migrations.Apply(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	var photoStorage storage.Storage
	if cfg.UseS3() {
		photoStorage, err = storage.NewS3Storage(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
	} else {
		photoStorage, err = storage.NewLocalStorage(cfg.LocalStoragePath, cfg.LocalStorageURL)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize photo storage")
	}

	imageProcessor := imaging.NewProcessor(imaging.DefaultConfig())

	metrics.Register()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	categoryRepo := category.NewRepository(db)
	toyRepo := toy.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	commentRepo := comment.NewRepository(db)
	favoriteRepo := favorite.NewRepository(db)
	chatRepo := chat.NewRepository(db)

	// ---------- WebSocket hub ----------
	chatHub := chat.NewHub(redisClient)
	go chatHub.Run()
	defer chatHub.Shutdown()

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, redisClient)
	toyService := toy.NewService(toyRepo, userRepo, photoStorage, imageProcessor)
	bookingService := booking.NewService(bookingRepo, toyRepo, userRepo)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userRepo)
	categoryHandler := category.NewHandler(categoryRepo)
	toyHandler := toy.NewHandler(toyService)
	bookingHandler := booking.NewHandler(bookingService)
	commentHandler := comment.NewHandler(commentRepo)
	favoriteHandler := favorite.NewHandler(favoriteRepo)
	chatHandler := chat.NewHandler(chatRepo, chatHub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/users", userHandler.Routes(authMiddleware))
		r.Mount("/categories", categoryHandler.Routes(authMiddleware, adminMiddleware))

		toy.RegisterRoutes(r, toyHandler, authMiddleware)
		booking.RegisterRoutes(r, bookingHandler, authMiddleware)
		comment.RegisterRoutes(r, commentHandler, authMiddleware)
		favorite.RegisterRoutes(r, favoriteHandler, authMiddleware)
		chat.RegisterRoutes(r, chatHandler, authMiddleware)

		// WebSocket clients pass the token as a query parameter.
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			if token := req.URL.Query().Get("token"); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			authMiddleware(http.HandlerFunc(chatHandler.WebSocket)).ServeHTTP(w, req)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
