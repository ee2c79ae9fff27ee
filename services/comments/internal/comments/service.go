package comments

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/services/comments/internal/store"
)

// Config carries the knobs the subsystem used to read from ambient globals.
// DefaultStatus is the status assigned at creation (the auto-approve toggle
// made explicit); MaxContentLength bounds comment bodies in runes.
type Config struct {
	DefaultStatus    store.Status
	MaxContentLength int
}

// Service is the comment subsystem's entry point. All mutations are
// all-or-nothing with respect to the comment record; notification dispatch
// and lifecycle events are decoupled and best-effort.
type Service struct {
	cfg        Config
	comments   store.CommentStore
	posts      store.PostStore
	tree       *Tree
	deleter    *SoftDeleteEngine
	dispatcher *Dispatcher
	events     *events.Publisher
	log        *zap.Logger
}

func NewService(cfg Config, cs store.CommentStore, ps store.PostStore, sink store.NotificationStore, ev *events.Publisher, log *zap.Logger) *Service {
	if cfg.DefaultStatus != store.StatusApproved {
		cfg.DefaultStatus = store.StatusPending
	}
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = 1000
	}
	if log == nil {
		log = zap.NewNop()
	}
	tree := NewTree(cs)
	return &Service{
		cfg:        cfg,
		comments:   cs,
		posts:      ps,
		tree:       tree,
		deleter:    NewSoftDeleteEngine(cs, tree, log),
		dispatcher: NewDispatcher(ps, cs, sink, log),
		events:     ev,
		log:        log,
	}
}

// Tree exposes traversal for adapters that need raw read paths.
type CreateRequest struct {
	PostID   string
	ParentID *string
	Content  string
	Author   store.Author
}

// Create validates, persists, then fans out notifications. Dispatch failures
// never fail the creation; callers get them in the results slice.
func (s *Service) Create(ctx context.Context, req CreateRequest) (store.Comment, []DispatchResult, error) {
	content, err := s.validContent(req.Content)
	if err != nil {
		return store.Comment{}, nil, err
	}
	if err := validAuthor(req.Author); err != nil {
		return store.Comment{}, nil, err
	}

	ok, err := s.posts.Exists(ctx, req.PostID)
	if err != nil {
		return store.Comment{}, nil, err
	}
	if !ok {
		return store.Comment{}, nil, ErrPostNotFound
	}
	if err := s.tree.ValidateAttachment(ctx, req.PostID, req.ParentID); err != nil {
		return store.Comment{}, nil, err
	}

	created, err := s.comments.Insert(ctx, store.Comment{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Author:   req.Author,
		Content:  content,
		Status:   s.cfg.DefaultStatus,
	})
	if err != nil {
		return store.Comment{}, nil, err
	}

	results := s.dispatcher.OnCommentCreated(ctx, created)
	s.events.Publish(events.SubjectCommentCreated, "comment_created", created.Author.Identity(), map[string]any{
		"comment_id": created.ID,
		"post_id":    created.PostID,
		"is_reply":   created.ParentID != nil,
	})
	return created, results, nil
}

// Edit rewrites content. Authorship is personal: moderators may delete or
// re-moderate but not rewrite someone else's words. Tombstoned comments are
// not addressable for edits.
func (s *Service) Edit(ctx context.Context, commentID string, actor Actor, content string) (store.Comment, error) {
	content, err := s.validContent(content)
	if err != nil {
		return store.Comment{}, err
	}

	c, err := s.comments.Get(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Comment{}, ErrNotFound
	}
	if err != nil {
		return store.Comment{}, err
	}
	if c.IsDeleted {
		return store.Comment{}, ErrNotFound
	}
	if !c.Author.IsUser(actor.UserID) {
		return store.Comment{}, ErrForbidden
	}

	return s.comments.UpdateFields(ctx, commentID, store.Patch{Content: &content, MarkEdited: true})
}

// Moderate transitions status. Any state may move to any other; a same-state
// call is a no-op, not an error. Works on tombstoned comments too: moderation
// is independent of deletion.
func (s *Service) Moderate(ctx context.Context, commentID string, actor Actor, statusValue string) (store.Comment, error) {
	status, err := ParseStatus(statusValue)
	if err != nil {
		return store.Comment{}, err
	}
	if !actor.IsModerator() {
		return store.Comment{}, ErrForbidden
	}

	c, err := s.comments.Get(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Comment{}, ErrNotFound
	}
	if err != nil {
		return store.Comment{}, err
	}
	if c.Status == status {
		return c, nil
	}

	updated, err := s.comments.UpdateFields(ctx, commentID, store.Patch{Status: &status})
	if err != nil {
		return store.Comment{}, err
	}
	s.events.Publish(events.SubjectCommentModerated, "comment_moderated", actor.UserID, map[string]any{
		"comment_id": commentID,
		"from":       string(c.Status),
		"to":         string(status),
	})
	return updated, nil
}

// SoftDelete tombstones the comment and its subtree, returning affected ids.
func (s *Service) SoftDelete(ctx context.Context, commentID string, actor Actor) ([]string, error) {
	affected, err := s.deleter.SoftDelete(ctx, commentID, actor)
	if err != nil {
		return affected, err
	}
	s.events.Publish(events.SubjectCommentDeleted, "comment_deleted", actor.UserID, map[string]any{
		"comment_id":   commentID,
		"affected_ids": affected,
	})
	return affected, nil
}

// ToggleLike adds the user to the liked set, or removes them when already
// present. Set semantics make the call idempotent and race-safe; liking an
// already-liked comment is not an error. Returns the resulting count and
// whether the user now likes the comment.
func (s *Service) ToggleLike(ctx context.Context, commentID, userID string) (int, bool, error) {
	c, err := s.comments.Get(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}

	liked := false
	for _, u := range c.LikedBy {
		if u == userID {
			liked = true
			break
		}
	}

	var n int
	if liked {
		n, err = s.comments.RemoveLike(ctx, commentID, userID)
	} else {
		n, err = s.comments.AddLike(ctx, commentID, userID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}
	return n, !liked, nil
}

// publicListOptions: approved comments plus tombstones of approved comments,
// so thread shape survives deletion. Hidden states stay hidden even as
// tombstones.
func publicStatus() *store.Status {
	st := store.StatusApproved
	return &st
}

// ListTopLevel is the end-user listing: approved-only, tombstones kept.
func (s *Service) ListTopLevel(ctx context.Context, postID, sortOrder string, page, pageSize int) (Page, error) {
	return s.tree.ListTopLevel(ctx, postID, ListOptions{
		Status:         publicStatus(),
		IncludeDeleted: true,
		Sort:           sortOrder,
		Page:           page,
		PageSize:       pageSize,
	})
}

// ListChildren is the end-user reply listing for one comment.
func (s *Service) ListChildren(ctx context.Context, commentID string) ([]store.Comment, error) {
	return s.tree.ListChildren(ctx, commentID, ChildFilter{
		Status:         publicStatus(),
		IncludeDeleted: true,
	})
}

// ListForModeration applies caller-supplied filters verbatim; the public
// visibility predicate does not apply to moderation views.
func (s *Service) ListForModeration(ctx context.Context, postID string, opts ListOptions) (Page, error) {
	return s.tree.ListTopLevel(ctx, postID, opts)
}

// ThreadNode is a root comment with its descendants flattened into one reply
// list, ordered by creation time. The stored model nests arbitrarily; the
// rendered thread materializes a single level.
type ThreadNode struct {
	Comment store.Comment   `json:"comment"`
	Replies []store.Comment `json:"replies"`
}

// ThreadPage is one page of thread nodes.
type ThreadPage struct {
	Nodes    []ThreadNode `json:"comments"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// Thread returns the public thread view: paged roots, each with every
// publicly listable descendant flattened beneath it.
func (s *Service) Thread(ctx context.Context, postID, sortOrder string, page, pageSize int) (ThreadPage, error) {
	roots, err := s.ListTopLevel(ctx, postID, sortOrder, page, pageSize)
	if err != nil {
		return ThreadPage{}, err
	}

	nodes := make([]ThreadNode, len(roots.Items))
	for i, root := range roots.Items {
		subtree, err := s.tree.Subtree(ctx, root.ID)
		if err != nil {
			return ThreadPage{}, err
		}
		replies := make([]store.Comment, 0, len(subtree)-1)
		for _, c := range subtree[1:] {
			if matches(c, publicStatus(), true) {
				replies = append(replies, c)
			}
		}
		// Subtree walks breadth-first; the flattened list reads chronologically.
		sort.Slice(replies, func(a, b int) bool {
			if !replies[a].CreatedAt.Equal(replies[b].CreatedAt) {
				return replies[a].CreatedAt.Before(replies[b].CreatedAt)
			}
			return replies[a].ID < replies[b].ID
		})
		nodes[i] = ThreadNode{Comment: root, Replies: replies}
	}
	return ThreadPage{Nodes: nodes, Total: roots.Total, Page: roots.Page, PageSize: roots.PageSize}, nil
}

func (s *Service) validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxContentLength {
		return "", ErrContentTooLong
	}
	return content, nil
}

func validAuthor(a store.Author) error {
	switch a.Kind {
	case store.AuthorUser:
		if strings.TrimSpace(a.UserID) == "" {
			return ErrInvalidAuthor
		}
	case store.AuthorGuest:
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
			return ErrInvalidAuthor
		}
	default:
		return ErrInvalidAuthor
	}
	return nil
}
