package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/services/comments/internal/comments"
	"github.com/example/blog-platform/services/comments/internal/store"
)

type guestAuthor struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

type createCommentRequest struct {
	Content     string       `json:"content"`
	ParentID    *string      `json:"parent_id,omitempty"`
	GuestAuthor *guestAuthor `json:"guest_author,omitempty"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

type createCommentResponse struct {
	Comment store.Comment `json:"comment"`
	// Notified lists recipients whose notification was emitted. Dispatch
	// failures are invisible to the author beyond absence from this list.
	Notified []string `json:"notified,omitempty"`
}

type likeResponse struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

type deleteResponse struct {
	AffectedIDs []string `json:"affected_ids"`
}

type repliesResponse struct {
	Replies []store.Comment `json:"replies"`
}

// CreateComment handles POST /v1/posts/{post_id}/comments.
// Authenticated users comment under their user id; anonymous requests must
// carry a guest_author object.
func CreateComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		postID := strings.TrimSpace(chi.URLParam(r, "post_id"))
		if postID == "" {
			api.BadRequest(w, "MISSING_ID", "post_id is required", rid, nil)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		var author store.Author
		if userID, ok := auth.UserIDFromContext(r.Context()); ok && userID != "" {
			author = store.Author{Kind: store.AuthorUser, UserID: userID}
		} else if req.GuestAuthor != nil {
			author = store.Author{
				Kind:   store.AuthorGuest,
				Name:   req.GuestAuthor.Name,
				Email:  req.GuestAuthor.Email,
				Avatar: req.GuestAuthor.Avatar,
			}
		} else {
			api.Unauthorized(w, "MISSING_AUTHOR", "authenticate or supply guest_author", rid)
			return
		}

		created, results, err := svc.Create(r.Context(), comments.CreateRequest{
			PostID:   postID,
			ParentID: req.ParentID,
			Content:  req.Content,
			Author:   author,
		})
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}

		resp := createCommentResponse{Comment: created}
		for _, res := range results {
			if res.Err == nil {
				resp.Notified = append(resp.Notified, res.RecipientID)
			}
		}
		api.WriteJSON(w, http.StatusCreated, resp)
	}
}

// GetThread handles GET /v1/posts/{post_id}/comments.
func GetThread(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		postID := strings.TrimSpace(chi.URLParam(r, "post_id"))
		if postID == "" {
			api.BadRequest(w, "MISSING_ID", "post_id is required", rid, nil)
			return
		}

		sortOrder := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort")))
		switch sortOrder {
		case comments.SortOldest, comments.SortTop:
		default:
			sortOrder = comments.SortNewest
		}

		page := queryInt(r, "page", 1)
		pageSize := queryInt(r, "page_size", 20)

		thread, err := svc.Thread(r.Context(), postID, sortOrder, page, pageSize)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, thread)
	}
}

// GetReplies handles GET /v1/comments/{comment_id}/replies.
func GetReplies(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		replies, err := svc.ListChildren(r.Context(), commentID)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		if replies == nil {
			replies = []store.Comment{}
		}
		api.WriteJSON(w, http.StatusOK, repliesResponse{Replies: replies})
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}.
func UpdateComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		actor, ok := actorFromContext(r)
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		updated, err := svc.Edit(r.Context(), commentID, actor, req.Content)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}.
func DeleteComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		actor, ok := actorFromContext(r)
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		affected, err := svc.SoftDelete(r.Context(), commentID, actor)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		if affected == nil {
			affected = []string{}
		}
		api.WriteJSON(w, http.StatusOK, deleteResponse{AffectedIDs: affected})
	}
}

// LikeComment handles POST /v1/comments/{comment_id}/like.
func LikeComment(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		n, liked, err := svc.ToggleLike(r.Context(), commentID, userID)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, likeResponse{Likes: n, Liked: liked})
	}
}

func actorFromContext(r *http.Request) (comments.Actor, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		return comments.Actor{}, false
	}
	role, _ := auth.RoleFromContext(r.Context())
	return comments.Actor{UserID: userID, Role: role}, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeServiceError(w http.ResponseWriter, rid string, err error) {
	switch {
	case comments.IsValidation(err):
		api.BadRequest(w, "INVALID_CONTENT", err.Error(), rid, nil)
	case err == comments.ErrInvalidStatus:
		api.BadRequest(w, "INVALID_STATUS", err.Error(), rid, nil)
	case err == comments.ErrPostNotFound:
		api.NotFound(w, "POST_NOT_FOUND", err.Error(), rid)
	case err == comments.ErrParentNotFound:
		api.NotFound(w, "PARENT_NOT_FOUND", err.Error(), rid)
	case err == comments.ErrNotFound:
		api.NotFound(w, "NOT_FOUND", err.Error(), rid)
	case err == comments.ErrInvalidParent:
		api.Conflict(w, "CROSS_POST_PARENT", err.Error(), rid, nil)
	case err == comments.ErrForbidden:
		api.Forbidden(w, "FORBIDDEN", err.Error(), rid)
	default:
		api.Internal(w, rid)
	}
}
