package web

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/haoxiang14/solana-wallet-tracker/internal/handler"
	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
	"github.com/haoxiang14/solana-wallet-tracker/pkg/models"
)

// Pinger is a dependency whose connectivity the health endpoint reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the webhook ingestion endpoint and a health check.
type Server struct {
	app      *fiber.App
	pipeline *handler.Pipeline
	db       Pinger
	cache    Pinger
	port     int
	log      logger.Logger
}

// New builds the HTTP server. cache may be nil when Redis is disabled.
func New(port int, pipeline *handler.Pipeline, db, cache Pinger, log logger.Logger) *Server {
	if log == nil {
		log = logger.Global()
	}

	app := fiber.New(fiber.Config{
		AppName:      "solana-wallet-tracker",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	s := &Server{
		app:      app,
		pipeline: pipeline,
		db:       db,
		cache:    cache,
		port:     port,
		log:      log.With(logger.F("component", "web")),
	}

	app.Post("/webhook", s.handleWebhook)
	app.Get("/health", s.handleHealth)

	return s
}

// handleWebhook ingests one provider delivery. Once the batch has been
// handed to the pipeline the response is 200 regardless of per-event
// outcomes; the provider would otherwise redeliver events that were already
// attempted. Only a body that cannot be decoded at all yields a 500.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	var events []models.TransactionEvent
	if err := c.BodyParser(&events); err != nil {
		s.log.Error("webhook body decode failed", logger.F("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	summary := s.pipeline.ProcessBatch(c.UserContext(), events)

	return c.Status(fiber.StatusOK).JSON(summary)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = "down"
			status = fiber.StatusServiceUnavailable
		} else {
			checks["database"] = "up"
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			// Dedup is best-effort; a cache outage degrades, it does not fail.
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
	})
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("http server listening", logger.F("port", s.port))
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
