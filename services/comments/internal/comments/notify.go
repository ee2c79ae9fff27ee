package comments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/blog-platform/services/comments/internal/store"
)

// Notification types.
const (
	NotifyComment = "comment" // post author: someone commented on your post
	NotifyReply   = "reply"   // parent author: someone replied to your comment
)

// DispatchResult is the per-recipient outcome of a fan-out. Err is nil when
// the notification was emitted.
type DispatchResult struct {
	RecipientID    string
	Type           string
	NotificationID string
	Err            error
}

// Dispatcher computes the recipient set for a freshly created comment and
// emits exactly one notification per distinct recipient. Emission is
// best-effort: failures are reported per recipient and logged, never
// propagated to comment creation.
type Dispatcher struct {
	posts    store.PostStore
	comments store.CommentStore
	sink     store.NotificationStore
	log      *zap.Logger
}

func NewDispatcher(posts store.PostStore, cs store.CommentStore, sink store.NotificationStore, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{posts: posts, comments: cs, sink: sink, log: log}
}

// OnCommentCreated fans out for one comment-creation event.
//
// Candidates: the post's author (type "comment"), and for replies the parent
// comment's author (type "reply"). The comment's own author is never
// notified, and a recipient qualifying under both rules gets exactly one
// notification, typed by the rule that added them first (post author wins).
// Guest authors have no account to notify, but guest-authored comments still
// trigger notifications to others.
func (d *Dispatcher) OnCommentCreated(ctx context.Context, c store.Comment) []DispatchResult {
	type candidate struct {
		recipientID string
		typ         string
		message     string
	}

	var cands []candidate
	seen := make(map[string]bool)

	postAuthor, err := d.posts.AuthorOf(ctx, c.PostID)
	if err != nil {
		d.log.Warn("dispatch: post author lookup failed",
			zap.String("post_id", c.PostID), zap.Error(err))
	} else if !c.Author.IsUser(postAuthor) {
		cands = append(cands, candidate{
			recipientID: postAuthor,
			typ:         NotifyComment,
			message:     fmt.Sprintf("%s commented on your post", c.Author.DisplayName()),
		})
		seen[postAuthor] = true
	}

	if c.ParentID != nil {
		parent, err := d.comments.Get(ctx, *c.ParentID)
		if err != nil {
			d.log.Warn("dispatch: parent lookup failed",
				zap.String("parent_id", *c.ParentID), zap.Error(err))
		} else if parent.Author.Kind == store.AuthorUser &&
			!c.Author.IsUser(parent.Author.UserID) && !seen[parent.Author.UserID] {
			cands = append(cands, candidate{
				recipientID: parent.Author.UserID,
				typ:         NotifyReply,
				message:     fmt.Sprintf("%s replied to your comment", c.Author.DisplayName()),
			})
		}
	}

	results := make([]DispatchResult, 0, len(cands))
	for _, cand := range cands {
		n := store.Notification{
			ID:          uuid.NewString(),
			RecipientID: cand.recipientID,
			SenderID:    c.Author.Identity(),
			Type:        cand.typ,
			CommentID:   c.ID,
			PostID:      c.PostID,
			Message:     cand.message,
			CreatedAt:   time.Now().UTC(),
		}
		err := d.sink.Emit(ctx, n)
		if err != nil {
			d.log.Warn("dispatch: emit failed",
				zap.String("recipient_id", cand.recipientID),
				zap.String("comment_id", c.ID),
				zap.Error(err))
		}
		results = append(results, DispatchResult{
			RecipientID:    cand.recipientID,
			Type:           cand.typ,
			NotificationID: n.ID,
			Err:            err,
		})
	}
	return results
}
