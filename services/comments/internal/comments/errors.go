package comments

import "errors"

var (
	// ErrNotFound: the target comment does not exist or is tombstoned where
	// a tombstone is not addressable (edits).
	ErrNotFound = errors.New("comment not found")
	// ErrPostNotFound: the owning post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrParentNotFound: parent_id references a missing comment.
	ErrParentNotFound = errors.New("parent comment not found")
	// ErrInvalidParent: parent exists but belongs to a different post.
	ErrInvalidParent = errors.New("parent comment belongs to a different post")
	// ErrForbidden: actor lacks authorship or moderation capability.
	ErrForbidden = errors.New("not allowed")
	// ErrInvalidStatus: unknown moderation status value.
	ErrInvalidStatus = errors.New("invalid comment status")

	// Validation failures; rejected before any storage mutation.
	ErrEmptyContent   = errors.New("content must not be empty")
	ErrContentTooLong = errors.New("content exceeds maximum length")
	ErrInvalidAuthor  = errors.New("author must be a user id or a named guest")
)

// IsValidation reports whether err is a local input-validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrInvalidAuthor)
}
