package comments

import (
	"strings"

	"github.com/example/blog-platform/services/comments/internal/store"
)

// ParseStatus validates a caller-supplied status value.
func ParseStatus(s string) (store.Status, error) {
	switch store.Status(strings.ToLower(strings.TrimSpace(s))) {
	case store.StatusPending:
		return store.StatusPending, nil
	case store.StatusApproved:
		return store.StatusApproved, nil
	case store.StatusSpam:
		return store.StatusSpam, nil
	case store.StatusRejected:
		return store.StatusRejected, nil
	}
	return "", ErrInvalidStatus
}

// IsPubliclyVisible is the single predicate every end-user read path filters
// through: approved and not tombstoned. Moderation views bypass it.
//
// A rejected parent does not suppress its children here; each comment is
// moderated independently. Cascading only happens through deletion.
func IsPubliclyVisible(c store.Comment) bool {
	return c.Status == store.StatusApproved && !c.IsDeleted
}
