package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/example/blog-platform/services/comments/internal/store"
)

// SubjectNotificationQueued carries one serialized store.Notification per message.
const SubjectNotificationQueued = "comments.notifications.queued"

// QueueSink is a NotificationStore that defers the durable write to the
// notifications consumer via JetStream. Emit publishes synchronously so the
// dispatcher still gets a per-recipient outcome.
type QueueSink struct {
	js nats.JetStreamContext
}

func NewQueueSink(js nats.JetStreamContext) *QueueSink {
	return &QueueSink{js: js}
}

var _ store.NotificationStore = (*QueueSink)(nil)

func (q *QueueSink) Emit(_ context.Context, n store.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("queue sink: marshal notification %s: %w", n.ID, err)
	}
	if _, err := q.js.Publish(SubjectNotificationQueued, data); err != nil {
		return fmt.Errorf("queue sink: publish notification %s: %w", n.ID, err)
	}
	return nil
}
