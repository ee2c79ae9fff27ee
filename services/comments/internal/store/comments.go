package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by every store when the referenced row does not exist.
var ErrNotFound = errors.New("not found")

// DeletedPlaceholder replaces the content of tombstoned comments.
const DeletedPlaceholder = "[deleted]"

type AuthorKind string

const (
	AuthorUser  AuthorKind = "user"
	AuthorGuest AuthorKind = "guest"
)

// Author is the tagged union over the two authorship modes: an authenticated
// user referenced by id, or an anonymous guest carried inline.
type Author struct {
	Kind   AuthorKind `json:"kind"`
	UserID string     `json:"user_id,omitempty"`
	Name   string     `json:"name,omitempty"`
	Email  string     `json:"email,omitempty"`
	Avatar string     `json:"avatar,omitempty"`
}

// Identity returns a stable key for dedup and self-notify checks.
// Guests are identified by lowercased email.
func (a Author) Identity() string {
	if a.Kind == AuthorUser {
		return "user:" + a.UserID
	}
	return "guest:" + strings.ToLower(strings.TrimSpace(a.Email))
}

// IsUser reports whether the author is the authenticated user with the given id.
func (a Author) IsUser(userID string) bool {
	return a.Kind == AuthorUser && userID != "" && a.UserID == userID
}

// DisplayName is what notification messages call the author.
func (a Author) DisplayName() string {
	if a.Kind == AuthorGuest {
		if n := strings.TrimSpace(a.Name); n != "" {
			return n
		}
		return "a guest"
	}
	return "user " + a.UserID
}

// Status is the moderation state of a comment, independent of deletion.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusSpam     Status = "spam"
	StatusRejected Status = "rejected"
)

// Comment represents a single comment row.
type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	ParentID  *string    `json:"parent_id,omitempty"`
	Author    Author     `json:"author"`
	Content   string     `json:"content"`
	Status    Status     `json:"status"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	IsEdited  bool       `json:"is_edited"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	LikedBy   []string   `json:"liked_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Patch is a partial update applied atomically to a single comment row.
// Nil pointers leave the field untouched.
type Patch struct {
	Content *string
	Status  *Status
	// MarkEdited stamps is_edited/edited_at next to a content change.
	MarkEdited bool
	// MarkDeleted tombstones the row: is_deleted=true, deleted_at=now(),
	// content redacted. A no-op on rows already tombstoned; the original
	// deleted_at is never re-stamped.
	MarkDeleted bool
}

// CommentStore defines the contract for comment persistence. Every operation
// is individually atomic; no cross-row transactions are assumed.
type CommentStore interface {
	Get(ctx context.Context, id string) (Comment, error)
	// GetByParent returns direct children ordered by created_at ascending.
	GetByParent(ctx context.Context, parentID string) ([]Comment, error)
	GetByPost(ctx context.Context, postID string) ([]Comment, error)
	// Insert assigns ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, c Comment) (Comment, error)
	UpdateFields(ctx context.Context, id string, p Patch) (Comment, error)
	// AddLike and RemoveLike have set semantics: adding a present id or
	// removing an absent one is a no-op. Both return the resulting count.
	AddLike(ctx context.Context, id, userID string) (int, error)
	RemoveLike(ctx context.Context, id, userID string) (int, error)
}
