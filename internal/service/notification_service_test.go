package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/events"
)

func TestNotifyPostsWebhook(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotificationService(zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL, EmailFrom: "ops@example.com"})
	err := n.Notify(context.Background(), events.Event{
		Type:  events.EventAnalysisCompleted,
		RunID: "r1",
		Payload: events.AnalysisCompletedPayload{
			Reportable: 1,
			Top:        []events.EntryDigest{{CompositeKey: "南昌-1", RepeatCount: 3, Address: "丰和北大道"}},
		},
	})
	require.NoError(t, err)

	body := <-bodies
	assert.Equal(t, "analysis_completed", body["type"])
	assert.Equal(t, "r1", body["run_id"])
	top := body["payload"].(map[string]any)["top"].([]any)
	assert.Equal(t, "南昌-1", top[0].(map[string]any)["composite_key"])
}

func TestNotifyReportsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotificationService(zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL})
	err := n.Notify(context.Background(), events.Event{Type: events.EventAnalysisFailed, RunID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifyWithoutEndpoints(t *testing.T) {
	n := NewNotificationService(zap.NewNop(), config.NotificationConfig{})
	assert.NoError(t, n.Notify(context.Background(), events.Event{Type: events.EventAnalysisCompleted}))
	assert.Error(t, n.Notify(context.Background(), events.Event{Type: "other"}))
}
