package comments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/example/blog-platform/services/comments/internal/store"
)

type fixture struct {
	svc      *Service
	comments *store.InMemoryCommentStore
	posts    *store.InMemoryPostStore
	sink     *store.InMemoryNotificationStore
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		comments: store.NewInMemoryCommentStore(),
		posts:    store.NewInMemoryPostStore(),
		sink:     store.NewInMemoryNotificationStore(),
	}
	f.svc = NewService(cfg, f.comments, f.posts, f.sink, nil, zap.NewNop())
	return f
}

func userAuthor(id string) store.Author {
	return store.Author{Kind: store.AuthorUser, UserID: id}
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"empty content", CreateRequest{PostID: "post-1", Content: "   ", Author: userAuthor("u2")}, ErrEmptyContent},
		{"over-length content", CreateRequest{PostID: "post-1", Content: strings.Repeat("x", 1001), Author: userAuthor("u2")}, ErrContentTooLong},
		{"missing post", CreateRequest{PostID: "post-x", Content: "hi", Author: userAuthor("u2")}, ErrPostNotFound},
		{"user author without id", CreateRequest{PostID: "post-1", Content: "hi", Author: store.Author{Kind: store.AuthorUser}}, ErrInvalidAuthor},
		{"guest author without email", CreateRequest{PostID: "post-1", Content: "hi", Author: store.Author{Kind: store.AuthorGuest, Name: "Ann"}}, ErrInvalidAuthor},
		{"unknown author kind", CreateRequest{PostID: "post-1", Content: "hi", Author: store.Author{Kind: "robot"}}, ErrInvalidAuthor},
	}
	for _, tc := range cases {
		if _, _, err := f.svc.Create(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// No record may exist after rejected writes.
	if all, _ := f.comments.GetByPost(ctx, "post-1"); len(all) != 0 {
		t.Fatalf("expected no comments persisted, got %d", len(all))
	}
}

func TestService_Create_RejectsCrossPostParent(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")
	f.posts.Put("post-2", "u9")

	parent, _, err := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "root", Author: userAuthor("u2")})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	_, _, err = f.svc.Create(ctx, CreateRequest{PostID: "post-2", ParentID: &parent.ID, Content: "injected", Author: userAuthor("u3")})
	if !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}

	missing := "nonexistent"
	_, _, err = f.svc.Create(ctx, CreateRequest{PostID: "post-1", ParentID: &missing, Content: "orphan", Author: userAuthor("u3")})
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}

	if all, _ := f.comments.GetByPost(ctx, "post-2"); len(all) != 0 {
		t.Fatal("rejected reply must not be persisted")
	}
}

// Scenario: a fresh comment starts pending and only shows up in the public
// listing after an explicit moderation to approved.
func TestService_CreateThenModerate_Visibility(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	c, results, err := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "nice post", Author: userAuthor("u2")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != store.StatusPending {
		t.Fatalf("expected pending status, got %s", c.Status)
	}
	if len(results) != 1 || results[0].RecipientID != "u1" || results[0].Type != NotifyComment {
		t.Fatalf("expected one comment notification to the post author, got %+v", results)
	}

	page, _ := f.svc.ListTopLevel(ctx, "post-1", SortNewest, 1, 20)
	if len(page.Items) != 0 {
		t.Fatalf("pending comment must not be publicly listed, got %d items", len(page.Items))
	}

	if _, err := f.svc.Moderate(ctx, c.ID, Actor{UserID: "mod", Role: "moderator"}, "approved"); err != nil {
		t.Fatalf("moderate: %v", err)
	}
	page, _ = f.svc.ListTopLevel(ctx, "post-1", SortNewest, 1, 20)
	if len(page.Items) != 1 || page.Items[0].ID != c.ID {
		t.Fatalf("approved comment must be publicly listed, got %d items", len(page.Items))
	}
}

func TestService_AutoApproveConfig(t *testing.T) {
	f := newFixture(t, Config{DefaultStatus: store.StatusApproved})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	c, _, err := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "hi", Author: userAuthor("u2")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != store.StatusApproved {
		t.Fatalf("expected auto-approved status, got %s", c.Status)
	}
}

// Scenario: deleting a comment tombstones its replies but the thread shape
// survives; the tombstoned reply is still listed under the deleted parent.
func TestService_SoftDelete_ThreadShapeSurvives(t *testing.T) {
	f := newFixture(t, Config{DefaultStatus: store.StatusApproved})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	parent, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "nice post", Author: userAuthor("u2")})
	reply, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", ParentID: &parent.ID, Content: "agreed", Author: userAuthor("u3")})

	affected, err := f.svc.SoftDelete(ctx, parent.ID, Actor{UserID: "u2"})
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if len(affected) != 2 {
		t.Fatalf("expected parent and reply affected, got %d", len(affected))
	}

	children, err := f.svc.ListChildren(ctx, parent.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 1 || children[0].ID != reply.ID {
		t.Fatalf("expected tombstoned reply still listed, got %d children", len(children))
	}
	if !children[0].IsDeleted || children[0].Content != store.DeletedPlaceholder {
		t.Fatal("expected the listed reply to be a redacted tombstone")
	}
}

// Scenario: marking one reply spam hides it publicly without touching siblings.
func TestService_Moderate_SpamHidesOnlyTarget(t *testing.T) {
	f := newFixture(t, Config{DefaultStatus: store.StatusApproved})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	parent, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "root", Author: userAuthor("u2")})
	bad, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", ParentID: &parent.ID, Content: "spammy", Author: userAuthor("u3")})
	good, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", ParentID: &parent.ID, Content: "fine", Author: userAuthor("u4")})

	updated, err := f.svc.Moderate(ctx, bad.ID, Actor{UserID: "mod", Role: "admin"}, "spam")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if IsPubliclyVisible(updated) {
		t.Fatal("spam comment must not be publicly visible")
	}

	children, _ := f.svc.ListChildren(ctx, parent.ID)
	if len(children) != 1 || children[0].ID != good.ID {
		t.Fatalf("expected only the sibling listed, got %d", len(children))
	}
}

func TestService_Moderate_Authorization(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	c, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "hi", Author: userAuthor("u2")})

	if _, err := f.svc.Moderate(ctx, c.ID, Actor{UserID: "u2"}, "approved"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-moderator, got %v", err)
	}
	if _, err := f.svc.Moderate(ctx, c.ID, Actor{UserID: "mod", Role: "moderator"}, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	// Re-moderation stays possible: approved -> spam.
	if _, err := f.svc.Moderate(ctx, c.ID, Actor{UserID: "mod", Role: "moderator"}, "approved"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	updated, err := f.svc.Moderate(ctx, c.ID, Actor{UserID: "mod", Role: "moderator"}, "spam")
	if err != nil {
		t.Fatalf("re-moderate: %v", err)
	}
	if updated.Status != store.StatusSpam {
		t.Fatalf("expected spam, got %s", updated.Status)
	}

	// Same-state transition is a no-op, not an error.
	if _, err := f.svc.Moderate(ctx, c.ID, Actor{UserID: "mod", Role: "moderator"}, "spam"); err != nil {
		t.Fatalf("same-state moderate: %v", err)
	}
}

func TestService_Edit(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	c, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "original", Author: userAuthor("u2")})

	if _, err := f.svc.Edit(ctx, c.ID, Actor{UserID: "u3"}, "hacked"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	// Moderators moderate and delete; they do not rewrite others' words.
	if _, err := f.svc.Edit(ctx, c.ID, Actor{UserID: "mod", Role: "admin"}, "sanitized"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for moderator edit, got %v", err)
	}

	updated, err := f.svc.Edit(ctx, c.ID, Actor{UserID: "u2"}, "updated")
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if updated.Content != "updated" || !updated.IsEdited || updated.EditedAt == nil {
		t.Fatalf("expected edited comment, got %+v", updated)
	}

	if _, err := f.svc.Edit(ctx, c.ID, Actor{UserID: "u2"}, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	// Tombstones are not editable.
	if _, err := f.svc.SoftDelete(ctx, c.ID, Actor{UserID: "u2"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Edit(ctx, c.ID, Actor{UserID: "u2"}, "resurrect"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted comment, got %v", err)
	}
}

func TestService_ToggleLike(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	c, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "likeable", Author: userAuthor("u2")})

	n, liked, err := f.svc.ToggleLike(ctx, c.ID, "u3")
	if err != nil || !liked || n != 1 {
		t.Fatalf("expected first toggle to like (1), got n=%d liked=%v err=%v", n, liked, err)
	}
	n, liked, err = f.svc.ToggleLike(ctx, c.ID, "u3")
	if err != nil || liked || n != 0 {
		t.Fatalf("expected second toggle to unlike (0), got n=%d liked=%v err=%v", n, liked, err)
	}

	// likedBy is a set: the stored slice never holds duplicates.
	_, _, _ = f.svc.ToggleLike(ctx, c.ID, "u3")
	got, _ := f.comments.Get(ctx, c.ID)
	seen := 0
	for _, u := range got.LikedBy {
		if u == "u3" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("expected u3 exactly once in liked_by, got %d", seen)
	}

	if _, _, err := f.svc.ToggleLike(ctx, "nonexistent", "u3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Create_DispatchFailureIsNonFatal(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	ps := store.NewInMemoryPostStore()
	sink := &failingSink{inner: store.NewInMemoryNotificationStore(), failFor: "u1"}
	svc := NewService(Config{}, cs, ps, sink, nil, zap.NewNop())
	ctx := context.Background()

	ps.Put("post-1", "u1")
	c, results, err := svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "hi", Author: userAuthor("u2")})
	if err != nil {
		t.Fatalf("comment creation must survive dispatch failure: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected a persisted comment")
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected the dispatch failure to be reported, got %+v", results)
	}
}

func TestService_Thread_FlattensDescendants(t *testing.T) {
	f := newFixture(t, Config{DefaultStatus: store.StatusApproved})
	ctx := context.Background()
	f.posts.Put("post-1", "u1")

	root, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", Content: "root", Author: userAuthor("u2")})
	child, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", ParentID: &root.ID, Content: "child", Author: userAuthor("u3")})
	grandchild, _, _ := f.svc.Create(ctx, CreateRequest{PostID: "post-1", ParentID: &child.ID, Content: "grandchild", Author: userAuthor("u4")})

	thread, err := f.svc.Thread(ctx, "post-1", SortNewest, 1, 20)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread.Nodes) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(thread.Nodes))
	}
	replies := thread.Nodes[0].Replies
	if len(replies) != 2 {
		t.Fatalf("expected deep replies flattened under the root, got %d", len(replies))
	}
	if replies[0].ID != child.ID || replies[1].ID != grandchild.ID {
		t.Fatal("expected flattened replies in chronological order")
	}
}
