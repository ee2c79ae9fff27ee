package store

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is the record emitted once per eligible recipient when a
// comment is created. The comment subsystem never mutates it afterwards;
// is_read belongs to the notification subsystem.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id"`
	Type        string    `json:"type"` // "comment" | "reply"
	CommentID   string    `json:"comment_id"`
	PostID      string    `json:"post_id"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationStore is the sink contract. Emit is an independent unit of work
// per notification; callers must not treat one failure as failing the batch.
type NotificationStore interface {
	Emit(ctx context.Context, n Notification) error
}

// InMemoryNotificationStore records emitted notifications for tests and dev.
type InMemoryNotificationStore struct {
	mu   sync.RWMutex
	sent []Notification
}

func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{}
}

func (s *InMemoryNotificationStore) Emit(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

// All returns every emitted notification in emission order.
func (s *InMemoryNotificationStore) All() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification{}, s.sent...)
}

// ByRecipient filters emitted notifications for one recipient.
func (s *InMemoryNotificationStore) ByRecipient(recipientID string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.sent {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// PostgresNotificationStore writes notifications durably. Idempotent on id so
// a redelivered batch never duplicates a notification.
type PostgresNotificationStore struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationStore(pool *pgxpool.Pool) *PostgresNotificationStore {
	return &PostgresNotificationStore{pool: pool}
}

func (s *PostgresNotificationStore) Emit(ctx context.Context, n Notification) error {
	const q = `INSERT INTO notifications (id, recipient_id, sender_id, type, comment_id, post_id, message, is_read, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           ON CONFLICT (id) DO NOTHING`
	_, err := s.pool.Exec(ctx, q, n.ID, n.RecipientID, n.SenderID, n.Type, n.CommentID, n.PostID, n.Message, n.IsRead, n.CreatedAt)
	return err
}
