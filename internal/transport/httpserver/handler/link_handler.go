package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/transport/httpserver/dto"
	"github.com/synzr/torobooru/internal/validator"
)

// LinkService maps message text to URNs.
type LinkService interface {
	URNsFromText(ctx context.Context, text string) ([]string, error)
}

// LinkHandler handles link resolution requests.
type LinkHandler struct {
	service   LinkService
	hashtags  func(text string) []string
	validator *validator.Validator
	logger    *zap.Logger
}

// NewLinkHandler creates a new LinkHandler. hashtags extracts tag words
// from the same text.
func NewLinkHandler(svc LinkService, hashtags func(string) []string, v *validator.Validator, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service:   svc,
		hashtags:  hashtags,
		validator: v,
		logger:    logger,
	}
}

// Resolve handles POST /api/v1/links/resolve
func (h *LinkHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveLinksRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	urns, err := h.service.URNsFromText(c.UserContext(), req.Text)
	if err != nil {
		h.logger.Warn("link resolution failed", zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: "link resolution failed",
			Code:  "RESOLVE_FAILED",
		})
	}

	return c.JSON(dto.ResolveLinksResponse{
		URNs:     urns,
		Hashtags: h.hashtags(req.Text),
	})
}
