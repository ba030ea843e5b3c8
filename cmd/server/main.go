package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/picobox/cinema-reservation/internal/config"
	"github.com/picobox/cinema-reservation/internal/database"
	"github.com/picobox/cinema-reservation/internal/handler"
	"github.com/picobox/cinema-reservation/internal/queue"
	"github.com/picobox/cinema-reservation/internal/repository"
	"github.com/picobox/cinema-reservation/internal/router"
	"github.com/picobox/cinema-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}

	seatRepo := repository.NewScreeningSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	pointRepo := repository.NewPointRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	accountRepo := repository.NewAccountRepo(db)

	engine := service.NewEngine(seatRepo, reservationRepo, pointRepo, catalogRepo, queue.NewPublisher())
	engine.HoldTTL = time.Duration(cfg.SeatHoldMin) * time.Minute

	sweeper := service.NewSweeper(engine, time.Duration(cfg.SweepIntervalSec)*time.Second)
	sweeper.Start()
	defer sweeper.Stop()

	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	authHandler := handler.NewAuthHandler(cfg, accountRepo)
	reservationHandler := handler.NewReservationHandler(engine)
	myHandler := handler.NewMyReservationsHandler(engine)
	publicHandler := handler.NewPublicHandler(catalogRepo, seatRepo)

	router.Register(e, cfg, authHandler, reservationHandler, myHandler, publicHandler, rdb)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
