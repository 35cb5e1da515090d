package notification

import (
	"context"
	"log/slog"
	"time"

	"f1replay/pkg/pubsub"
)

const TopicToasts = "toasts"

// Toast is a short message for connected clients.
type Toast struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// LogService writes notifications to a structured logger.
type LogService struct {
	logger *slog.Logger
}

func NewLogService(l *slog.Logger) LogService {
	return LogService{logger: l}
}

func (s LogService) Send(ctx context.Context, subject, message string) error {
	s.logger.LogAttrs(ctx, slog.LevelWarn, subject, slog.String("message", message))
	return nil
}

// BroadcastService publishes notifications as toasts on the pub/sub hub.
type BroadcastService struct {
	hub *pubsub.PubSub[Toast]
	now func() time.Time
}

func NewBroadcastService(hub *pubsub.PubSub[Toast]) BroadcastService {
	return BroadcastService{hub: hub, now: time.Now}
}

func (s BroadcastService) Send(ctx context.Context, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.hub.Publish(TopicToasts, Toast{Title: subject, Message: message, Time: s.now().UTC()})
	return nil
}
