package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentStore persists comments in Postgres.
//
// Expected schema:
//
//	CREATE TABLE comments (
//	    id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	    post_id       text NOT NULL,
//	    parent_id     uuid REFERENCES comments(id),
//	    author_kind   text NOT NULL,
//	    author_user_id text,
//	    guest_name    text,
//	    guest_email   text,
//	    guest_avatar  text,
//	    content       text NOT NULL,
//	    status        text NOT NULL DEFAULT 'pending',
//	    is_deleted    boolean NOT NULL DEFAULT false,
//	    deleted_at    timestamptz,
//	    is_edited     boolean NOT NULL DEFAULT false,
//	    edited_at     timestamptz,
//	    liked_by      text[] NOT NULL DEFAULT '{}',
//	    created_at    timestamptz NOT NULL DEFAULT now(),
//	    updated_at    timestamptz NOT NULL DEFAULT now()
//	);
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

const commentColumns = `id, post_id, parent_id, author_kind, author_user_id, guest_name, guest_email, guest_avatar,
content, status, is_deleted, deleted_at, is_edited, edited_at, liked_by, created_at, updated_at`

func (s *PostgresCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) GetByParent(ctx context.Context, parentID string) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE parent_id = $1 ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, parentID)
}

func (s *PostgresCommentStore) GetByPost(ctx context.Context, postID string) ([]Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, postID)
}

func (s *PostgresCommentStore) Insert(ctx context.Context, c Comment) (Comment, error) {
	q := `INSERT INTO comments (post_id, parent_id, author_kind, author_user_id, guest_name, guest_email, guest_avatar, content, status)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	      RETURNING ` + commentColumns
	row := s.pool.QueryRow(ctx, q, c.PostID, c.ParentID, c.Author.Kind, nullable(c.Author.UserID),
		nullable(c.Author.Name), nullable(c.Author.Email), nullable(c.Author.Avatar), c.Content, c.Status)
	return scanComment(row)
}

func (s *PostgresCommentStore) UpdateFields(ctx context.Context, id string, p Patch) (Comment, error) {
	if p.MarkDeleted {
		// Tombstone exactly once; an already-deleted row keeps its deleted_at.
		q := `UPDATE comments
		      SET is_deleted = true, deleted_at = now(), content = '` + DeletedPlaceholder + `', updated_at = now()
		      WHERE id = $1 AND is_deleted = false
		      RETURNING ` + commentColumns
		c, err := scanComment(s.pool.QueryRow(ctx, q, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return s.Get(ctx, id)
		}
		return c, err
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}
	if p.Content != nil {
		args = append(args, *p.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if p.MarkEdited {
		sets = append(sets, "is_edited = true", "edited_at = now()")
	}
	if p.Status != nil {
		args = append(args, *p.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `UPDATE comments SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + commentColumns
	c, err := scanComment(s.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) AddLike(ctx context.Context, id, userID string) (int, error) {
	// Single statement so the membership check and the append cannot race.
	q := `UPDATE comments
	      SET liked_by = array_append(liked_by, $2), updated_at = now()
	      WHERE id = $1 AND NOT ($2 = ANY(liked_by))
	      RETURNING cardinality(liked_by)`
	var n int
	err := s.pool.QueryRow(ctx, q, id, userID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		// Missing row or already liked; disambiguate with a read.
		err = s.pool.QueryRow(ctx, `SELECT cardinality(liked_by) FROM comments WHERE id = $1`, id).Scan(&n)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
	}
	return n, err
}

func (s *PostgresCommentStore) RemoveLike(ctx context.Context, id, userID string) (int, error) {
	q := `UPDATE comments
	      SET liked_by = array_remove(liked_by, $2), updated_at = now()
	      WHERE id = $1
	      RETURNING cardinality(liked_by)`
	var n int
	err := s.pool.QueryRow(ctx, q, id, userID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

func (s *PostgresCommentStore) queryComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	var userID, guestName, guestEmail, guestAvatar *string
	err := row.Scan(&c.ID, &c.PostID, &c.ParentID, &c.Author.Kind, &userID, &guestName, &guestEmail, &guestAvatar,
		&c.Content, &c.Status, &c.IsDeleted, &c.DeletedAt, &c.IsEdited, &c.EditedAt, &c.LikedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Comment{}, err
	}
	c.Author.UserID = deref(userID)
	c.Author.Name = deref(guestName)
	c.Author.Email = deref(guestEmail)
	c.Author.Avatar = deref(guestAvatar)
	if c.LikedBy == nil {
		c.LikedBy = []string{}
	}
	return c, nil
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
