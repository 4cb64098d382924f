package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/events"
)

const webhookTimeout = 5 * time.Second

// NotificationService announces finished and failed analysis runs.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// Notify delivers one event. Completed runs with nothing to report only go
// to the webhook.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventAnalysisCompleted:
		payload, _ := event.Payload.(events.AnalysisCompletedPayload)
		n.logger.Info("AnalysisCompleted",
			zap.String("run_id", event.RunID),
			zap.Int("reportable", payload.Reportable))
		if payload.Reportable > 0 {
			n.sendEmailNotificationStub(ctx, event, payload)
		}
	case events.EventAnalysisFailed:
		n.logger.Warn("AnalysisFailed", zap.Any("payload", event.Payload))
	default:
		return fmt.Errorf("unsupported event type %q", event.Type)
	}
	return n.postWebhook(event)
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, payload events.AnalysisCompletedPayload) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	keys := make([]string, 0, len(payload.Top))
	for _, d := range payload.Top {
		keys = append(keys, d.CompositeKey)
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("run_id", event.RunID),
		zap.Strings("top_keys", keys))
}

func (n *NotificationService) postWebhook(event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	agent := fiber.Post(url).JSON(event).Timeout(webhookTimeout)
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("webhook %s: %w", event.Type, errors.Join(errs...))
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook %s: status %d", event.Type, status)
	}
	n.logger.Debug("webhook delivered", zap.String("run_id", event.RunID), zap.Int("status", status))
	return nil
}
