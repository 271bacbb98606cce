// Package service holds the transactional core of the booking system:
// the booking engine, the cancellation/refund engine and the wallet
// top-up flow. Each operation runs as one all-or-nothing *sql.Tx unit
// against MySQL; notifications are dispatched only after commit and
// can never fail an operation.
package service

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/uniscape-booking/internal/queue"
)

// Notifier is the outbound notification capability consumed by the
// services. queue.Publisher is the production implementation; tests
// substitute a recorder.
type Notifier interface {
    Publish(ctx context.Context, n queue.Notification) error
}

// notifyAsync dispatches a notification after a transaction has
// committed. It runs detached from the request context so a client
// disconnect does not cancel the publish, and it swallows errors:
// delivery is best-effort, at-least-once is the broker's job.
func notifyAsync(notifier Notifier, n queue.Notification) {
    if notifier == nil {
        return
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := notifier.Publish(ctx, n); err != nil {
            log.Printf("notify: %s publish failed: %v", n.Kind, err)
        }
    }()
}
