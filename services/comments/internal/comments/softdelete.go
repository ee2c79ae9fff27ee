package comments

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/blog-platform/services/comments/internal/store"
)

// SoftDeleteEngine tombstones a comment and its entire reply subtree while
// keeping every record and parent link in place. A dangling live reply under
// a deleted ancestor would be a displayable inconsistency, so the cascade
// covers the full transitive closure, not just direct replies.
type SoftDeleteEngine struct {
	comments store.CommentStore
	tree     *Tree
	log      *zap.Logger
}

func NewSoftDeleteEngine(cs store.CommentStore, tree *Tree, log *zap.Logger) *SoftDeleteEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &SoftDeleteEngine{comments: cs, tree: tree, log: log}
}

// SoftDelete marks the target and every descendant deleted and returns the
// ids tombstoned by this call. Nodes already tombstoned are skipped, never
// re-stamped, which makes concurrent deletion of the same subtree converge.
// Only the comment's author or a moderator may delete.
func (e *SoftDeleteEngine) SoftDelete(ctx context.Context, commentID string, actor Actor) ([]string, error) {
	target, err := e.comments.Get(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !actor.IsModerator() && !target.Author.IsUser(actor.UserID) {
		return nil, ErrForbidden
	}

	nodes, err := e.tree.Subtree(ctx, commentID)
	if err != nil {
		return nil, err
	}

	affected := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.IsDeleted {
			continue
		}
		if _, err := e.comments.UpdateFields(ctx, n.ID, store.Patch{MarkDeleted: true}); err != nil {
			// Per-document writes; report what was tombstoned before the failure.
			e.log.Error("soft delete: tombstone failed",
				zap.String("comment_id", n.ID), zap.Error(err))
			return affected, err
		}
		affected = append(affected, n.ID)
	}
	return affected, nil
}
