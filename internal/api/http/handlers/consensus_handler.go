package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repeat-complaints/internal/api/dto"
	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/service"
	apperrors "github.com/spec-kit/repeat-complaints/pkg/util/errorutil"
)

// ConsensusHandler clusters ad-hoc address observations.
type ConsensusHandler struct {
	service *service.AnalysisService
}

// NewConsensusHandler constructs handler.
func NewConsensusHandler(analysisService *service.AnalysisService) *ConsensusHandler {
	return &ConsensusHandler{service: analysisService}
}

// Resolve handles POST /consensus.
func (h *ConsensusHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ConsensusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	switch domain.ConsensusStrategy(req.Strategy) {
	case "", domain.StrategySubstring, domain.StrategyFuzzy, domain.StrategyFrequency:
	default:
		return apperrors.NewValidationError("unknown strategy", map[string]any{"strategy": req.Strategy})
	}
	res, err := h.service.Consensus(req.Observations, req.Strategy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": res})
}
