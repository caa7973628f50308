// Package notify defines the outbound boundary for reminders and
// alerts. Delivery (email, push, LINE) belongs to the messaging side of
// the platform; this service only hands payloads across the boundary.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
)

// Payload is one notification handed to the delivery collaborator.
type Payload struct {
	// Kind distinguishes reminder from alert payloads. It mirrors the
	// quick action type that produced the notification.
	Kind domain.ActionType `json:"kind"`

	// Scope and ScopeID identify who the notification is about.
	Scope   domain.Scope `json:"scope"`
	ScopeID uuid.UUID    `json:"scope_id"`

	// RequestedBy is the principal that triggered the notification.
	RequestedBy uuid.UUID `json:"requested_by"`

	// Message is the human-readable body.
	Message string `json:"message"`
}

// Notifier hands payloads to the delivery collaborator.
type Notifier interface {
	Send(ctx context.Context, payload Payload) error
}

// LogNotifier records payloads to the structured log instead of
// delivering them. It stands in until the messaging integration lands.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
// If log is nil, a default logger will be used.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{logger: log.With(slog.String("component", "notifier"))}
}

// Ensure LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)

// Send implements Notifier.Send.
func (n *LogNotifier) Send(ctx context.Context, payload Payload) error {
	log := logger.FromContextOrDefault(ctx, n.logger)
	log.Info("notification dispatched",
		slog.String("kind", string(payload.Kind)),
		slog.String("scope", string(payload.Scope)),
		slog.String("scope_id", payload.ScopeID.String()),
		slog.String("message", payload.Message))
	return nil
}
