package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/transport/httpserver/dto"
	"github.com/synzr/torobooru/internal/validator"
)

// ExternalDataService resolves URNs to provider records.
type ExternalDataService interface {
	Resolve(ctx context.Context, urns []string, forceRefresh bool) (map[string]*domain.ExternalData, error)
}

// ExternalDataHandler handles external-data HTTP requests.
type ExternalDataHandler struct {
	service   ExternalDataService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewExternalDataHandler creates a new ExternalDataHandler.
func NewExternalDataHandler(svc ExternalDataService, v *validator.Validator, logger *zap.Logger) *ExternalDataHandler {
	return &ExternalDataHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Resolve handles POST /api/v1/external-data/resolve
func (h *ExternalDataHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveExternalDataRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	resolved, err := h.service.Resolve(c.UserContext(), req.URNs, req.ForceRefresh)
	if err != nil {
		h.logger.Error("external data resolve failed",
			zap.Int("count", len(req.URNs)),
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "resolve failed",
			Code:  "RESOLVE_FAILED",
		})
	}

	return c.JSON(dto.FromExternalData(resolved))
}
