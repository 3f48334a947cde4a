package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Router receives structured notification requests raised on legal
// transitions. Delivery, retries and read-tracking belong to the collaborator
// behind this interface.
type Router interface {
	Publish(ctx context.Context, n Notification) error
}

// LogRouter logs notifications instead of delivering them. Default when no
// broker is configured.
type LogRouter struct {
	logger *slog.Logger
}

func NewLogRouter(logger *slog.Logger) *LogRouter {
	return &LogRouter{logger: logger}
}

func (r *LogRouter) Publish(ctx context.Context, n Notification) error {
	r.logger.InfoContext(ctx, "notification raised",
		"reservation_id", n.ReservationID.String(),
		"type", string(n.Type),
		"recipient_role", n.Recipient.Role,
		"urgency", string(n.Urgency),
	)
	return nil
}

// CaptureRouter records notifications in memory for assertions in tests.
type CaptureRouter struct {
	mu   sync.Mutex
	sent []Notification
}

func NewCaptureRouter() *CaptureRouter {
	return &CaptureRouter{}
}

func (r *CaptureRouter) Publish(_ context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of everything published so far.
func (r *CaptureRouter) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification{}, r.sent...)
}
