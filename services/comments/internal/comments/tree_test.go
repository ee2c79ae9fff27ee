package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/example/blog-platform/services/comments/internal/store"
)

func seedComment(t *testing.T, cs store.CommentStore, postID string, parentID *string, userID, content string, status store.Status) store.Comment {
	t.Helper()
	c, err := cs.Insert(context.Background(), store.Comment{
		PostID:   postID,
		ParentID: parentID,
		Author:   store.Author{Kind: store.AuthorUser, UserID: userID},
		Content:  content,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}

func TestTree_ValidateAttachment(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	tree := NewTree(cs)
	ctx := context.Background()

	parent := seedComment(t, cs, "post-1", nil, "user-a", "root", store.StatusApproved)

	if err := tree.ValidateAttachment(ctx, "post-1", nil); err != nil {
		t.Fatalf("nil parent should be valid: %v", err)
	}
	if err := tree.ValidateAttachment(ctx, "post-1", &parent.ID); err != nil {
		t.Fatalf("same-post parent should be valid: %v", err)
	}

	missing := "nonexistent"
	if err := tree.ValidateAttachment(ctx, "post-1", &missing); !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}

	// A reply must not attach to a comment from another post.
	if err := tree.ValidateAttachment(ctx, "post-2", &parent.ID); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}
}

func TestTree_ListTopLevel_Orderings(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	tree := NewTree(cs)
	ctx := context.Background()

	first := seedComment(t, cs, "post-1", nil, "user-a", "first", store.StatusApproved)
	second := seedComment(t, cs, "post-1", nil, "user-b", "second", store.StatusApproved)
	third := seedComment(t, cs, "post-1", nil, "user-c", "third", store.StatusApproved)

	// Replies never appear in a top-level listing.
	seedComment(t, cs, "post-1", &first.ID, "user-d", "reply", store.StatusApproved)

	// Two likes on the oldest comment, one on the newest.
	_, _ = cs.AddLike(ctx, first.ID, "u1")
	_, _ = cs.AddLike(ctx, first.ID, "u2")
	_, _ = cs.AddLike(ctx, third.ID, "u1")

	page, err := tree.ListTopLevel(ctx, "post-1", ListOptions{Sort: SortNewest})
	if err != nil {
		t.Fatalf("list newest: %v", err)
	}
	if len(page.Items) != 3 || page.Total != 3 {
		t.Fatalf("expected 3 roots, got %d (total %d)", len(page.Items), page.Total)
	}
	if page.Items[0].ID != third.ID || page.Items[2].ID != first.ID {
		t.Fatal("newest sort should return most recent root first")
	}

	page, _ = tree.ListTopLevel(ctx, "post-1", ListOptions{Sort: SortOldest})
	if page.Items[0].ID != first.ID || page.Items[2].ID != third.ID {
		t.Fatal("oldest sort should return earliest root first")
	}

	page, _ = tree.ListTopLevel(ctx, "post-1", ListOptions{Sort: SortTop})
	if page.Items[0].ID != first.ID {
		t.Fatalf("top sort should rank 2 likes first, got %s", page.Items[0].ID)
	}
	if page.Items[1].ID != third.ID {
		t.Fatalf("top sort should rank 1 like second, got %s", page.Items[1].ID)
	}
	// second and any other zero-like roots tie; ties resolve oldest-first.
	if page.Items[2].ID != second.ID {
		t.Fatalf("expected zero-like root last, got %s", page.Items[2].ID)
	}
}

func TestTree_ListTopLevel_FiltersAndCountAgree(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	tree := NewTree(cs)
	ctx := context.Background()

	approved := seedComment(t, cs, "post-1", nil, "user-a", "approved", store.StatusApproved)
	seedComment(t, cs, "post-1", nil, "user-b", "pending", store.StatusPending)
	deleted := seedComment(t, cs, "post-1", nil, "user-c", "gone", store.StatusApproved)
	if _, err := cs.UpdateFields(ctx, deleted.ID, store.Patch{MarkDeleted: true}); err != nil {
		t.Fatalf("tombstone: %v", err)
	}

	st := store.StatusApproved
	opts := ListOptions{Status: &st}
	page, err := tree.ListTopLevel(ctx, "post-1", opts)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != approved.ID {
		t.Fatalf("expected only the live approved root, got %d items", len(page.Items))
	}

	count, err := tree.CountTopLevel(ctx, "post-1", opts)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != page.Total {
		t.Fatalf("count %d disagrees with listing total %d", count, page.Total)
	}

	opts.IncludeDeleted = true
	page, _ = tree.ListTopLevel(ctx, "post-1", opts)
	if len(page.Items) != 2 {
		t.Fatalf("expected tombstone included, got %d items", len(page.Items))
	}
}

func TestTree_ListTopLevel_Pagination(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	tree := NewTree(cs)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedComment(t, cs, "post-1", nil, "user-a", "c", store.StatusApproved)
	}

	page, err := tree.ListTopLevel(ctx, "post-1", ListOptions{Sort: SortOldest, Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 || page.Page != 2 {
		t.Fatalf("unexpected page: total=%d items=%d page=%d", page.Total, len(page.Items), page.Page)
	}

	page, _ = tree.ListTopLevel(ctx, "post-1", ListOptions{Sort: SortOldest, Page: 4, PageSize: 2})
	if len(page.Items) != 0 {
		t.Fatalf("expected empty page past the end, got %d items", len(page.Items))
	}
}

func TestTree_ListChildren(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	tree := NewTree(cs)
	ctx := context.Background()

	root := seedComment(t, cs, "post-1", nil, "user-a", "root", store.StatusApproved)
	r1 := seedComment(t, cs, "post-1", &root.ID, "user-b", "r1", store.StatusApproved)
	r2 := seedComment(t, cs, "post-1", &root.ID, "user-c", "r2", store.StatusApproved)
	if _, err := cs.UpdateFields(ctx, r1.ID, store.Patch{MarkDeleted: true}); err != nil {
		t.Fatalf("tombstone: %v", err)
	}

	children, err := tree.ListChildren(ctx, root.ID, ChildFilter{IncludeDeleted: true})
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected both children (one tombstoned), got %d", len(children))
	}
	// Reply chronology: oldest first, unlike top-level listings.
	if children[0].ID != r1.ID || children[1].ID != r2.ID {
		t.Fatal("expected children in creation order")
	}
	if !children[0].IsDeleted {
		t.Fatal("expected first child to be a tombstone")
	}

	children, _ = tree.ListChildren(ctx, root.ID, ChildFilter{})
	if len(children) != 1 || children[0].ID != r2.ID {
		t.Fatalf("expected tombstone excluded without IncludeDeleted, got %d", len(children))
	}

	if _, err := tree.ListChildren(ctx, "nonexistent", ChildFilter{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing comment, got %v", err)
	}
}

func TestTree_Subtree(t *testing.T) {
	cs := store.NewInMemoryCommentStore()
	tree := NewTree(cs)
	ctx := context.Background()

	root := seedComment(t, cs, "post-1", nil, "user-a", "root", store.StatusApproved)
	child := seedComment(t, cs, "post-1", &root.ID, "user-b", "child", store.StatusApproved)
	grandchild := seedComment(t, cs, "post-1", &child.ID, "user-c", "grandchild", store.StatusApproved)
	seedComment(t, cs, "post-1", nil, "user-d", "unrelated", store.StatusApproved)

	nodes, err := tree.Subtree(ctx, root.ID)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	ids := map[string]bool{}
	for _, n := range nodes {
		ids[n.ID] = true
	}
	if !ids[root.ID] || !ids[child.ID] || !ids[grandchild.ID] {
		t.Fatal("subtree missing a node from the transitive closure")
	}
}
