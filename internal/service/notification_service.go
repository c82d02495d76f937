package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/officeflow/attendance-bot/internal/events"
	"github.com/officeflow/attendance-bot/internal/observability"
)

// Notifier delivers a text to an external channel.
type Notifier interface {
	Notify(ctx context.Context, channelID int64, text string) error
}

// NotificationService tells the supervisory channel about departures.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	channelID  int64
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, channelID int64, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		channelID:  channelID,
		metrics:    metrics,
		logger:     logger.Named("notifications"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDepartureRecorded, n.handleDepartureRecorded)
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
}

func (n *NotificationService) handleDepartureRecorded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DepartureRecordedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if n.notifier == nil || n.channelID == 0 {
		n.logger.Debug("no notification channel configured", zap.String("event_id", event.ID))
		return nil
	}

	if err := n.notifier.Notify(ctx, n.channelID, FormatDepartureNotice(payload)); err != nil {
		n.metrics.Inc(observability.MetricNotificationFailures)
		n.logger.Warn("departure notification failed",
			zap.String("event_id", event.ID),
			zap.Int64("departure_id", payload.DepartureID),
			zap.Error(err))
		return nil
	}
	n.metrics.Inc(observability.MetricNotificationsSent)
	return nil
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Debug("UserRegistered", zap.Int64("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

// FormatDepartureNotice renders the supervisory message in Telegram Markdown.
func FormatDepartureNotice(p events.DepartureRecordedPayload) string {
	return fmt.Sprintf("📣 *Employee departure*\n👤 %s\n🏢 Department: %s\n📝 Reason: %s\n🕒 %s",
		escapeMarkdown(p.FullName),
		escapeMarkdown(p.Department),
		escapeMarkdown(p.Reason),
		p.OccurredAt.Format("15:04, 02.01.2006"),
	)
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
