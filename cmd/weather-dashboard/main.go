package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	httpapi "github.com/Abhibhav1976/weather-dashboard/internal/api/http"
	"github.com/Abhibhav1976/weather-dashboard/internal/config"
	"github.com/Abhibhav1976/weather-dashboard/internal/history"
	"github.com/Abhibhav1976/weather-dashboard/internal/weather"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration; missing required keys abort startup.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// History store.
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURL))
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("error disconnecting mongodb: %v", err)
		}
	}()

	store := history.NewMongoStore(mongoClient, cfg.DBName)

	// Shared HTTP client for outbound upstream calls.
	client := weather.NewClient(weather.ClientConfig{
		APIKey:     cfg.WeatherAPIKey,
		BaseURL:    cfg.WeatherAPIBaseURL,
		Client:     &http.Client{Timeout: cfg.UpstreamTimeout},
		Timeout:    cfg.UpstreamTimeout,
		MaxRetries: cfg.UpstreamMaxRetries,
	})

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware. CORS stays permissive; the API serves a browser
	// dashboard on a different origin.
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	httpapi.RegisterRoutes(app, client, store)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
