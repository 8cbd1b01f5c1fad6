// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/synzr/torobooru/internal/transport/httpserver/dto"
	"github.com/synzr/torobooru/internal/transport/httpserver/handler"
	"github.com/synzr/torobooru/internal/transport/httpserver/middleware"
	"github.com/synzr/torobooru/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port      int
	BodyLimit int
}

// Services groups the use cases the API exposes.
type Services struct {
	Contents     handler.ContentService
	ExternalData handler.ExternalDataService
	Links        handler.LinkService
	Hashtags     func(text string) []string
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg ServerConfig,
	services Services,
	db *gorm.DB,
	v *validator.Validator,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "torobooru",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
	})

	// Health checks go first so probes bypass the rest of the chain.
	app.Use(middleware.NewHealthCheck(db))

	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(compress.New())

	registerRoutes(app,
		handler.NewContentHandler(services.Contents, v, logger),
		handler.NewExternalDataHandler(services.ExternalData, v, logger),
		handler.NewLinkHandler(services.Links, services.Hashtags, v, logger),
	)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// registerRoutes sets up all API routes.
func registerRoutes(
	app *fiber.App,
	contentHandler *handler.ContentHandler,
	externalDataHandler *handler.ExternalDataHandler,
	linkHandler *handler.LinkHandler,
) {
	// Health checks are handled by middleware (/livez, /readyz)

	v1 := app.Group("/api/v1")

	contents := v1.Group("/contents")
	contents.Get("/", contentHandler.Query)
	contents.Post("/", contentHandler.Add)

	v1.Post("/external-data/resolve", externalDataHandler.Resolve)
	v1.Post("/links/resolve", linkHandler.Resolve)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level, 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "UNHANDLED_ERROR",
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.ShutdownWithContext(ctx)
}
