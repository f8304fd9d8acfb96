package server

import (
	"errors"
	"strings"
	"time"

	"leasing-backend/internal/audit"
	"leasing-backend/internal/config"
	"leasing-backend/internal/proposal"
	"leasing-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

type Deps struct {
	Config *config.Config
	Store  repository.Store
	Audit  *audit.Service
	Log    zerolog.Logger
	Now    func() time.Time
}

// New builds the fiber app with middleware and every route registered.
func New(d Deps) *fiber.App {
	if d.Now == nil {
		d.Now = time.Now
	}
	log := d.Log.With().Str("component", "http").Logger()

	app := fiber.New(fiber.Config{
		AppName:      "leasing-backend",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestLogger(log))

	origins := strings.Split(d.Config.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, " + audit.ActorHeader,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	registerRoutes(app, d)
	return app
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		var verr *proposal.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":          verr.Error(),
				"missing_fields": verr.Missing,
				"invalid_fields": verr.Invalid,
			})
		}
		log.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}

func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
