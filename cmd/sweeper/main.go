package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/config"
	"github.com/toybox/toybox-api/internal/domain/booking"
	"github.com/toybox/toybox-api/internal/domain/toy"
	"github.com/toybox/toybox-api/internal/domain/user"
	"github.com/toybox/toybox-api/internal/pkg/database"
	"github.com/toybox/toybox-api/internal/pkg/metrics"
)

// The sweeper auto-completes confirmed bookings whose end date has
// passed. The API exposes the same sweep on demand; this binary runs it
// on a schedule so bookings expire even when nobody is looking.
func main() {
	runOnce := flag.Bool("run-once", false, "Run the sweep once and exit")
	flag.Parse()

	cfg := config.Load()
	setupLogger(cfg)

	log.Info().Str("schedule", cfg.SweepSchedule).Msg("Starting ToyBox sweeper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	metrics.Register()

	bookingService := booking.NewService(
		booking.NewRepository(db),
		toy.NewRepository(db),
		user.NewRepository(db),
	)

	if *runOnce {
		sweep(bookingService)
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(cfg.SweepSchedule, func() { sweep(bookingService) }); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("Invalid sweep schedule")
	}

	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Stopping sweeper...")
	<-c.Stop().Done()
	log.Info().Msg("Sweeper stopped")
}

func sweep(service *booking.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	swept, err := service.SweepExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Expiry sweep failed")
		return
	}

	log.Info().Int("count", len(swept)).Msg("Expiry sweep finished")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
