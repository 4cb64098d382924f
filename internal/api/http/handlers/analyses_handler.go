package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/api/dto"
	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/ingest"
	"github.com/spec-kit/repeat-complaints/internal/repository"
	"github.com/spec-kit/repeat-complaints/internal/service"
	apperrors "github.com/spec-kit/repeat-complaints/pkg/util/errorutil"
)

// AnalysesHandler runs analyses and serves stored reports.
type AnalysesHandler struct {
	service *service.AnalysisService
	loader  ingest.XLSXLoader
	logger  *zap.Logger
}

// NewAnalysesHandler constructs handler.
func NewAnalysesHandler(analysisService *service.AnalysisService, loader ingest.XLSXLoader, logger *zap.Logger) *AnalysesHandler {
	return &AnalysesHandler{service: analysisService, loader: loader, logger: logger}
}

// Create handles POST /analyses with rows in the body.
func (h *AnalysesHandler) Create(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Rows == nil {
		return apperrors.NewValidationError("rows required", nil)
	}
	report, err := h.service.Analyze(c.UserContext(), req.Rows, referenceOf(req.Reference))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": report})
}

// Upload handles POST /analyses/upload with an .xlsx file in the "file" field.
func (h *AnalysesHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	defer f.Close()

	rows, err := h.loader.Load(f)
	if err != nil {
		return apperrors.NewValidationError("invalid workbook", map[string]any{"reason": err.Error()})
	}

	var reference time.Time
	if raw := c.FormValue("reference"); raw != "" {
		reference, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("reference must be RFC3339", nil)
		}
	}
	h.logger.Debug("workbook uploaded", zap.String("filename", header.Filename), zap.Int("rows", len(rows)))

	report, err := h.service.Analyze(c.UserContext(), rows, reference)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": report})
}

// CreateFromSource handles POST /analyses/source.
func (h *AnalysesHandler) CreateFromSource(c *fiber.Ctx) error {
	var req dto.SourceAnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	report, err := h.service.AnalyzeSource(c.UserContext(), referenceOf(req.Reference))
	if errors.Is(err, service.ErrSourceNotConfigured) {
		return apperrors.NewUnavailable("snapshot source not configured", err)
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": summarize(report)})
}

// Get handles GET /analyses/:id.
func (h *AnalysesHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	report, err := h.service.GetReport(c.UserContext(), id)
	if errors.Is(err, repository.ErrReportNotFound) {
		return apperrors.NewNotFound("report", map[string]any{"run_id": id})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func referenceOf(ref *time.Time) time.Time {
	if ref == nil {
		return time.Time{}
	}
	return *ref
}

func summarize(report *domain.AnalysisReport) dto.ReportSummary {
	return dto.ReportSummary{
		RunID:      report.RunID,
		Reference:  report.Reference,
		Strategy:   string(report.Strategy),
		Reportable: report.Stats.Reportable,
		Warnings:   report.Warnings,
	}
}
