package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikoksr/notify"
)

const (
	SubjectFetchFailed  = "Could not load session data"
	SubjectNoReplayData = "No replay data"
	SubjectReplayReady  = "Replay ready"
)

// Manager raises user visible notifications about replay loading through every configured
// notify service.
type Manager struct {
	notifier *notify.Notify
	logger   *slog.Logger
}

type Option func(m *Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(services []notify.Notifier, opts ...Option) *Manager {
	m := &Manager{
		notifier: notify.NewWithServices(services...),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) FetchFailed(ctx context.Context, sessionKey int, err error) {
	m.send(ctx, SubjectFetchFailed, fmt.Sprintf("Session %d: %s", sessionKey, err))
}

func (m *Manager) NoReplayData(ctx context.Context, sessionKey int) {
	m.send(ctx, SubjectNoReplayData, fmt.Sprintf("No replay data available for session %d", sessionKey))
}

func (m *Manager) ReplayReady(ctx context.Context, sessionKey, frames int) {
	m.send(ctx, SubjectReplayReady, fmt.Sprintf("Session %d: %d laps ready to play", sessionKey, frames))
}

func (m *Manager) send(ctx context.Context, subject, message string) {
	if err := m.notifier.Send(ctx, subject, message); err != nil {
		m.logger.Error("sending notification", "subject", subject, "error", err)
	}
}
