package comments

import "github.com/example/blog-platform/internal/platform/auth"

// Actor identifies who is performing a mutation. Role comes from the verified
// token; the core never re-checks credentials.
type Actor struct {
	UserID string
	Role   string
}

// IsModerator reports moderation capability (admin or moderator role).
func (a Actor) IsModerator() bool {
	return auth.IsModeratorRole(a.Role)
}
