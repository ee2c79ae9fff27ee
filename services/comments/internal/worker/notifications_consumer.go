package worker

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/blog-platform/services/comments/internal/store"
)

// StartNotificationsConsumer drains queued notifications and writes them
// durably. Writes are idempotent on notification id, so redelivery after a
// crash or a partial batch never duplicates a notification.
func StartNotificationsConsumer(ctx context.Context, nc *nats.Conn, sink store.NotificationStore, log *zap.Logger) {
	js, err := nc.JetStream()
	if err != nil {
		log.Error("notifications consumer: jetstream", zap.Error(err))
		return
	}

	sub, err := js.PullSubscribe(SubjectNotificationQueued, "comments_notifications")
	if err != nil {
		log.Error("notifications consumer: subscribe", zap.Error(err))
		return
	}

	batchSize := envInt("WORKER_BATCH_SIZE", 100)
	batchWait := envInt("WORKER_BATCH_INTERVAL_MS", 2000)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(batchSize, nats.MaxWait(time.Duration(batchWait)*time.Millisecond))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				log.Warn("notifications consumer: fetch", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			for _, m := range msgs {
				var n store.Notification
				if err := json.Unmarshal(m.Data, &n); err != nil {
					// Malformed payloads never become deliverable; drop them.
					log.Warn("notifications consumer: invalid payload", zap.Error(err))
					if err := m.Ack(); err != nil {
						log.Warn("notifications consumer: ack", zap.Error(err))
					}
					continue
				}

				if err := sink.Emit(ctx, n); err != nil {
					log.Warn("notifications consumer: write failed",
						zap.String("notification_id", n.ID),
						zap.String("recipient_id", n.RecipientID),
						zap.Error(err))
					if err := m.Nak(); err != nil {
						log.Warn("notifications consumer: nak", zap.Error(err))
					}
					continue
				}
				if err := m.Ack(); err != nil {
					log.Warn("notifications consumer: ack", zap.Error(err))
				}
			}
		}
	}()
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
