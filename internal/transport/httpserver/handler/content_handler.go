// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/transport/httpserver/dto"
	"github.com/synzr/torobooru/internal/validator"
)

// ContentService is the catalog use case the handler serves.
type ContentService interface {
	Query(ctx context.Context, settings domain.ViewSettings) (domain.ViewResult[*domain.Content], error)
	Add(ctx context.Context, contents []*domain.Content, processMedia bool) (int64, error)
}

// ContentHandler handles catalog HTTP requests.
type ContentHandler struct {
	service   ContentService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(svc ContentService, v *validator.Validator, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Query handles GET /api/v1/contents
func (h *ContentHandler) Query(c *fiber.Ctx) error {
	var req dto.ContentsQuery
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	settings := req.ToViewSettings()
	result, err := h.service.Query(c.UserContext(), settings)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidView) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_VIEW",
			})
		}

		h.logger.Error("content query failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "query failed",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromViewResult(result, settings))
}

// Add handles POST /api/v1/contents
func (h *ContentHandler) Add(c *fiber.Ctx) error {
	var req dto.AddContentsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	inserted, err := h.service.Add(c.UserContext(), req.ToDomain(), req.ProcessMedia)
	if err != nil {
		h.logger.Error("adding contents failed",
			zap.Int("count", len(req.Contents)),
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "adding contents failed",
			Code:  "INGEST_FAILED",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AddContentsResponse{Inserted: inserted})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_BODY",
	})
}

func validationFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_ERROR",
		Details: err,
	})
}
