package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reply fields accepted from the assistant, in order of preference.
// Backends have answered with each of these over time.
var replyFields = []string{"respuesta", "output", "reply", "message"}

// Fields that may carry an action the assistant wants confirmed
var detectedActionFields = []string{"detectedAction", "accion_detectada"}

// Fields that may carry an action's human readable description
var actionDescriptionFields = []string{"description", "descripcion"}

var (
	// ErrNoWebhook is returned when no assistant endpoint is configured
	ErrNoWebhook = errors.New("assistant webhook not configured")
	// ErrInvalidReply is returned when a successful response cannot be read
	ErrInvalidReply = errors.New("invalid assistant reply")
)

// StatusError reports a non-2xx answer from the assistant endpoint
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// DispatchRequest is the body posted to the assistant webhook
type DispatchRequest struct {
	UserID          string         `json:"userId"`
	DisplayName     string         `json:"displayName"`
	Message         string         `json:"message"`
	History         []Message      `json:"history"`
	IsConfirmation  bool           `json:"isConfirmation"`
	ConfirmedAction map[string]any `json:"confirmedAction"`
}

// AssistantReply is the interpreted answer of the assistant
type AssistantReply struct {
	Text   string
	Action *PendingAction
}

// Assistant sends one exchange to the remote assistant
type Assistant interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*AssistantReply, error)
}

// AssistantClient talks to the assistant webhook over HTTP
type AssistantClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewAssistantClient creates a client for webhookURL. A zero timeout leaves
// the transport defaults in place.
func NewAssistantClient(webhookURL string, timeout time.Duration) *AssistantClient {
	return &AssistantClient{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WebhookURL returns the configured endpoint
func (c *AssistantClient) WebhookURL() string {
	return c.webhookURL
}

// Dispatch posts req to the webhook and interprets the response
func (c *AssistantClient) Dispatch(ctx context.Context, req DispatchRequest) (*AssistantReply, error) {
	if c.webhookURL == "" {
		return nil, ErrNoWebhook
	}
	if req.History == nil {
		req.History = []Message{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	slog.Debug("assistant.dispatch", "request_id", requestID, "user", req.UserID,
		"confirmation", req.IsConfirmation, "history", len(req.History))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Warn("assistant.transport_error", "request_id", requestID, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("assistant.read_error", "request_id", requestID, "error", err)
		return nil, err
	}

	slog.Debug("assistant.response", "request_id", requestID, "status", resp.StatusCode,
		"bytes", len(data), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return parseAssistantReply(data)
}

// parseAssistantReply interprets a successful response body
func parseAssistantReply(data []byte) (*AssistantReply, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	obj := replyObject(decoded)
	if obj == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidReply)
	}

	reply := &AssistantReply{Text: extractReply(obj)}
	if action, ok := firstObject(obj, detectedActionFields); ok {
		reply.Action = &PendingAction{
			Description: firstString(action, actionDescriptionFields),
			Payload:     action,
		}
	}
	return reply, nil
}

// replyObject returns the object carrying the reply. A top-level array
// contributes its first object.
func replyObject(decoded any) map[string]any {
	switch v := decoded.(type) {
	case map[string]any:
		return v
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				return obj
			}
		}
	}
	return nil
}

// extractReply returns the first non-empty reply field, in replyFields order
func extractReply(obj map[string]any) string {
	if text := firstString(obj, replyFields); text != "" {
		return text
	}
	return noReplyText
}

func firstString(obj map[string]any, fields []string) string {
	for _, field := range fields {
		if s, ok := obj[field].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstObject(obj map[string]any, fields []string) (map[string]any, bool) {
	for _, field := range fields {
		if v, ok := obj[field].(map[string]any); ok {
			return v, true
		}
	}
	return nil, false
}

// actionPayload is the confirmedAction value sent back with a confirmation
func actionPayload(action *PendingAction) map[string]any {
	if action == nil {
		return nil
	}
	payload := make(map[string]any, len(action.Payload)+1)
	for k, v := range action.Payload {
		payload[k] = v
	}
	if _, ok := payload["description"]; !ok && action.Description != "" {
		payload["description"] = action.Description
	}
	return payload
}
