package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCommentStore is a development and test implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]Comment
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{comments: make(map[string]Comment)}
}

func (s *InMemoryCommentStore) Get(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *InMemoryCommentStore) GetByParent(_ context.Context, parentID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Comment
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, cloneComment(c))
		}
	}
	sortByCreatedAsc(out)
	return out, nil
}

func (s *InMemoryCommentStore) GetByPost(_ context.Context, postID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, cloneComment(c))
		}
	}
	sortByCreatedAsc(out)
	return out, nil
}

func (s *InMemoryCommentStore) Insert(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.LikedBy == nil {
		c.LikedBy = []string{}
	}
	s.comments[c.ID] = cloneComment(c)
	return c, nil
}

func (s *InMemoryCommentStore) UpdateFields(_ context.Context, id string, p Patch) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}

	now := time.Now().UTC()
	changed := false
	if p.Content != nil {
		c.Content = *p.Content
		changed = true
	}
	if p.MarkEdited {
		c.IsEdited = true
		c.EditedAt = &now
		changed = true
	}
	if p.Status != nil {
		c.Status = *p.Status
		changed = true
	}
	if p.MarkDeleted && !c.IsDeleted {
		c.IsDeleted = true
		c.DeletedAt = &now
		c.Content = DeletedPlaceholder
		changed = true
	}
	if changed {
		c.UpdatedAt = now
	}
	s.comments[id] = c
	return cloneComment(c), nil
}

func (s *InMemoryCommentStore) AddLike(_ context.Context, id, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return 0, ErrNotFound
	}
	for _, u := range c.LikedBy {
		if u == userID {
			return len(c.LikedBy), nil
		}
	}
	c.LikedBy = append(append([]string{}, c.LikedBy...), userID)
	c.UpdatedAt = time.Now().UTC()
	s.comments[id] = c
	return len(c.LikedBy), nil
}

func (s *InMemoryCommentStore) RemoveLike(_ context.Context, id, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return 0, ErrNotFound
	}
	kept := make([]string, 0, len(c.LikedBy))
	for _, u := range c.LikedBy {
		if u != userID {
			kept = append(kept, u)
		}
	}
	if len(kept) != len(c.LikedBy) {
		c.LikedBy = kept
		c.UpdatedAt = time.Now().UTC()
		s.comments[id] = c
	}
	return len(c.LikedBy), nil
}

func cloneComment(c Comment) Comment {
	c.LikedBy = append([]string{}, c.LikedBy...)
	return c
}

func sortByCreatedAsc(cs []Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
