package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostStore is the lookup contract against the post subsystem. Comments only
// need existence and authorship; post CRUD lives elsewhere.
type PostStore interface {
	Exists(ctx context.Context, postID string) (bool, error)
	AuthorOf(ctx context.Context, postID string) (string, error)
}

// InMemoryPostStore is a development and test implementation.
type InMemoryPostStore struct {
	mu      sync.RWMutex
	authors map[string]string // postID -> authorID
}

func NewInMemoryPostStore() *InMemoryPostStore {
	return &InMemoryPostStore{authors: make(map[string]string)}
}

// Put registers a post. Test seeding helper.
func (s *InMemoryPostStore) Put(postID, authorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[postID] = authorID
}

func (s *InMemoryPostStore) Exists(_ context.Context, postID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.authors[postID]
	return ok, nil
}

func (s *InMemoryPostStore) AuthorOf(_ context.Context, postID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	author, ok := s.authors[postID]
	if !ok {
		return "", ErrNotFound
	}
	return author, nil
}

// PostgresPostStore reads from the posts table owned by the post subsystem.
type PostgresPostStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPostStore(pool *pgxpool.Pool) *PostgresPostStore {
	return &PostgresPostStore{pool: pool}
}

func (s *PostgresPostStore) Exists(ctx context.Context, postID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	return exists, err
}

func (s *PostgresPostStore) AuthorOf(ctx context.Context, postID string) (string, error) {
	var author string
	err := s.pool.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, postID).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return author, err
}
