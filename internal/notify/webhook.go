package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

type webhookMessage struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// WebhookNotifier posts the rendered delta to a chat incoming webhook.
type WebhookNotifier struct {
	url         string
	reportEmpty bool
	formatter   Formatter
	client      *http.Client
	logger      providers.Logger
}

func NewWebhookNotifier(conf *structures.Config, logger providers.Logger) *WebhookNotifier {
	users := make(map[string]string, len(conf.Notify.Webhook.Users))
	for _, u := range conf.Notify.Webhook.Users {
		users[u.Email] = u.ID
	}
	return &WebhookNotifier{
		url:         conf.Notify.Webhook.Url,
		reportEmpty: conf.Notify.ReportEmpty,
		formatter:   Formatter{Users: users},
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n *models.Notification) error {
	if n.Delta.IsInsufficient() {
		return nil
	}
	if n.Delta.Count == 0 && !w.reportEmpty {
		w.logger.Debugf(providers.TypeCycle, "[%s] nothing to report", n.CycleID)
		return nil
	}

	body, err := json.Marshal(webhookMessage{Type: "mrkdwn", Text: w.formatter.Render(n, w.reportEmpty)})
	if err != nil {
		return errors.Wrap(err, "encode webhook message")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return errors.Newf("webhook responded with status %d", resp.StatusCode)
	}
	w.logger.Infof(providers.TypeCycle, "[%s] webhook notified (%d items)", n.CycleID, n.Delta.Count)
	return nil
}
