package notify

import (
	"context"

	"github.com/cockroachdb/errors"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/services"
	"gerritwatch/internal/structures"
)

// Multi fans a notification out to every notifier and joins their errors.
type Multi []services.NotifierInterface

func (m Multi) Notify(ctx context.Context, n *models.Notification) error {
	var errs error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}

// LogNotifier writes the rendered delta to the cycle log.
type LogNotifier struct {
	logger    providers.Logger
	formatter Formatter
}

func (l *LogNotifier) Notify(_ context.Context, n *models.Notification) error {
	if n.Delta.IsInsufficient() || n.Delta.Count == 0 {
		return nil
	}
	l.logger.Infof(providers.TypeCycle, "[%s] %s", n.CycleID, l.formatter.Render(n, false))
	return nil
}

// NewNotifier assembles the notifiers enabled in conf. The cycle log always
// receives the report.
func NewNotifier(conf *structures.Config, logger providers.Logger) services.NotifierInterface {
	m := Multi{&LogNotifier{logger: logger}}
	if conf.Notify.Audit.Enabled {
		m = append(m, NewAuditNotifier(conf, logger))
	}
	if conf.Notify.Webhook.Enabled && conf.Notify.Webhook.Url != "" {
		m = append(m, NewWebhookNotifier(conf, logger))
	}
	return m
}
