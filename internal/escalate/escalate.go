// Package escalate notifies a webhook when a review needs a human.
package escalate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/revqlabs/revq/internal/config"
	"github.com/revqlabs/revq/internal/pipeline"
)

// webhookTimeout bounds the notification call; a slow webhook must not
// hold up the CLI.
const webhookTimeout = 10 * time.Second

// Notifier posts escalation notices to the configured webhook, in
// Slack message format or as a plain JSON payload.
type Notifier struct {
	cfg    config.Escalation
	client *http.Client
}

// New builds a notifier from the escalation config.
func New(cfg config.Escalation) *Notifier {
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// NewWithClient injects the HTTP client, for tests.
func NewWithClient(cfg config.Escalation, client *http.Client) *Notifier {
	return &Notifier{cfg: cfg, client: client}
}

// ShouldNotify reports whether the outcome warrants an escalation
// notice: enabled, a webhook configured, and either a failed run or a
// confidence score below the trigger.
func (n *Notifier) ShouldNotify(out *pipeline.Outcome) bool {
	if !n.cfg.Enabled || n.cfg.WebhookURL == "" {
		return false
	}
	if out.Status == pipeline.StatusFailed {
		return true
	}
	return out.Confidence != nil && out.Confidence.Score < n.cfg.TriggerBelowConfidence
}

// Notify posts the escalation notice. Failures are returned for the
// caller to log; they never block the pipeline result.
func (n *Notifier) Notify(ctx context.Context, out *pipeline.Outcome) error {
	var payload any
	if n.cfg.SlackFormat {
		payload = slackPayload(out)
	} else {
		payload = genericPayload(out)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling escalation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating escalation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting escalation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("escalation webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func headline(out *pipeline.Outcome) string {
	cs := out.ChangeSet
	if out.Status == pipeline.StatusFailed {
		return fmt.Sprintf("Review of %s could not complete: %s", cs.Ref(), out.Reason)
	}
	return fmt.Sprintf("Review of %s needs a human: confidence %.2f", cs.Ref(), out.Confidence.Score)
}

func genericPayload(out *pipeline.Outcome) map[string]any {
	cs := out.ChangeSet
	payload := map[string]any{
		"event":  "review_escalation",
		"owner":  cs.Owner,
		"repo":   cs.Repo,
		"number": cs.Number,
		"title":  cs.Title,
		"status": string(out.Status),
		"reason": headline(out),
		"url":    cs.URL,
	}
	if out.Confidence != nil {
		payload["confidence"] = out.Confidence.Score
	}
	return payload
}

func slackPayload(out *pipeline.Outcome) map[string]any {
	cs := out.ChangeSet
	text := fmt.Sprintf(":rotating_light: %s", headline(out))
	if cs.URL != "" {
		text += fmt.Sprintf("\n<%s|%s>", cs.URL, cs.Title)
	}
	return map[string]any{"text": text}
}
