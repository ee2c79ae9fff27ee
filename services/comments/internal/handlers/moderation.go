package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/services/comments/internal/comments"
	"github.com/example/blog-platform/services/comments/internal/store"
)

type moderateRequest struct {
	Status string `json:"status"`
}

// ModerateComment handles PUT /v1/comments/{comment_id}/status.
// Mounted behind auth.RequireModerator.
func ModerateComment(svc *comments.Service) http.HandlerFunc {
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

		var req moderateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		updated, err := svc.Moderate(r.Context(), commentID, actor, req.Status)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// AdminListComments handles GET /v1/admin/posts/{post_id}/comments.
// Filters pass through verbatim; the public visibility predicate is bypassed.
func AdminListComments(svc *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		postID := strings.TrimSpace(chi.URLParam(r, "post_id"))
		if postID == "" {
			api.BadRequest(w, "MISSING_ID", "post_id is required", rid, nil)
			return
		}

		opts := comments.ListOptions{
			IncludeDeleted: r.URL.Query().Get("include_deleted") != "false",
			Sort:           strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort"))),
			Page:           queryInt(r, "page", 1),
			PageSize:       queryInt(r, "page_size", 20),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := comments.ParseStatus(raw)
			if err != nil {
				writeServiceError(w, rid, err)
				return
			}
			opts.Status = &status
		}

		page, err := svc.ListForModeration(r.Context(), postID, opts)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		if page.Items == nil {
			page.Items = []store.Comment{}
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}
