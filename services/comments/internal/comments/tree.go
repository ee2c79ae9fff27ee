package comments

import (
	"context"
	"errors"
	"sort"

	"github.com/example/blog-platform/services/comments/internal/store"
)

// Sort orders for top-level listings.
const (
	SortNewest = "newest" // created_at DESC (default; discovery)
	SortOldest = "oldest" // created_at ASC
	SortTop    = "top"    // like count DESC, ties created_at ASC
)

// ListOptions filters and pages a top-level listing. A nil Status means any.
type ListOptions struct {
	Status         *store.Status
	IncludeDeleted bool
	Sort           string
	Page           int // 1-based
	PageSize       int
}

// ChildFilter filters a children listing.
type ChildFilter struct {
	Status         *store.Status
	IncludeDeleted bool
}

// Page is one page of top-level comments with pagination metadata. Total is
// computed under the identical predicate as the items.
type Page struct {
	Items    []store.Comment `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// Tree owns the parent/child relationships: attachment validation and the
// traversal rules over them. Top-level and reply orderings differ on purpose:
// newest-first for discovery, oldest-first for conversational reading.
type Tree struct {
	comments store.CommentStore
}

func NewTree(cs store.CommentStore) *Tree {
	return &Tree{comments: cs}
}

// ValidateAttachment rejects replies whose parent is missing or belongs to a
// different post. Runs before any persistence call.
func (t *Tree) ValidateAttachment(ctx context.Context, postID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := t.comments.Get(ctx, *parentID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return err
	}
	if parent.PostID != postID {
		return ErrInvalidParent
	}
	return nil
}

// ListTopLevel returns root comments of a post matching the filters.
func (t *Tree) ListTopLevel(ctx context.Context, postID string, opts ListOptions) (Page, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 20
	}

	roots, err := t.topLevel(ctx, postID, opts)
	if err != nil {
		return Page{}, err
	}

	switch opts.Sort {
	case SortOldest:
		sort.Slice(roots, func(i, j int) bool {
			if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
				return roots[i].CreatedAt.Before(roots[j].CreatedAt)
			}
			return roots[i].ID < roots[j].ID
		})
	case SortTop:
		sort.Slice(roots, func(i, j int) bool {
			li, lj := len(roots[i].LikedBy), len(roots[j].LikedBy)
			if li != lj {
				return li > lj
			}
			if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
				return roots[i].CreatedAt.Before(roots[j].CreatedAt)
			}
			return roots[i].ID < roots[j].ID
		})
	default: // SortNewest
		sort.Slice(roots, func(i, j int) bool {
			if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
				return roots[i].CreatedAt.After(roots[j].CreatedAt)
			}
			return roots[i].ID > roots[j].ID
		})
	}

	total := len(roots)
	start := (opts.Page - 1) * opts.PageSize
	if start > total {
		start = total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	items := roots[start:end]
	if items == nil {
		items = []store.Comment{}
	}
	return Page{Items: items, Total: total, Page: opts.Page, PageSize: opts.PageSize}, nil
}

// CountTopLevel shares ListTopLevel's predicate exactly.
func (t *Tree) CountTopLevel(ctx context.Context, postID string, opts ListOptions) (int, error) {
	roots, err := t.topLevel(ctx, postID, opts)
	if err != nil {
		return 0, err
	}
	return len(roots), nil
}

func (t *Tree) topLevel(ctx context.Context, postID string, opts ListOptions) ([]store.Comment, error) {
	all, err := t.comments.GetByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	var roots []store.Comment
	for _, c := range all {
		if c.ParentID == nil && matches(c, opts.Status, opts.IncludeDeleted) {
			roots = append(roots, c)
		}
	}
	return roots, nil
}

// ListChildren returns direct children in reply chronology (created_at ASC).
// Tombstoned children stay listed under IncludeDeleted so thread shape
// survives deletion.
func (t *Tree) ListChildren(ctx context.Context, commentID string, f ChildFilter) ([]store.Comment, error) {
	if _, err := t.comments.Get(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	children, err := t.comments.GetByParent(ctx, commentID)
	if err != nil {
		return nil, err
	}
	out := make([]store.Comment, 0, len(children))
	for _, c := range children {
		if matches(c, f.Status, f.IncludeDeleted) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Subtree returns the root and the full transitive closure of its
// descendants, breadth-first. The one-level replies model of the original
// schema generalizes to arbitrary depth through this walk.
func (t *Tree) Subtree(ctx context.Context, rootID string) ([]store.Comment, error) {
	root, err := t.comments.Get(ctx, rootID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	out := []store.Comment{root}
	queue := []string{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := t.comments.GetByParent(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out, nil
}

func matches(c store.Comment, status *store.Status, includeDeleted bool) bool {
	if c.IsDeleted && !includeDeleted {
		return false
	}
	if status != nil && c.Status != *status {
		return false
	}
	return true
}
