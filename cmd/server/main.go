package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"messagely/internal/config"
	"messagely/internal/database"
	"messagely/internal/handler"
	"messagely/internal/middleware"
	"messagely/internal/queue"
	"messagely/internal/repository"
	"messagely/internal/router"
	"messagely/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	messages := repository.NewMessageRepo(db)

	identity := service.NewIdentityService(users, cfg.BcryptCost)
	msgSvc := service.NewMessageService(messages, users, service.NewRabbitPublisher())

	// Redis-backed response cache; nil client disables it.
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), config.NewRedisClient())

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewAuthHandler(cfg, identity),
		handler.NewUserHandler(identity),
		handler.NewMessageHandler(msgSvc),
		cfg.JWTSecret,
		cacheMW,
	)

	go func() {
		if err := queue.StartMessageConsumer(); err != nil {
			log.Printf("message consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
