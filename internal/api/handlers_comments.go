package api

import (
	"net/http"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

func ListComments(svc CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bugID, err := queryID(r, "bug", "related_bug")
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter := domain.CommentFilter{
			BugID:    bugID,
			Ordering: domain.ParseOrdering(queryParam(r, "ordering"), domain.CommentOrderingFields, domain.DefaultCommentOrdering),
		}

		comments, err := svc.List(r.Context(), currentUser(r), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewListResponse(comments))
	}
}

func CreateComment(svc CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateCommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		comment, err := svc.Create(r.Context(), currentUser(r), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	}
}

func GetComment(svc CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		comment, err := svc.Get(r.Context(), currentUser(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	}
}

func UpdateComment(svc CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req domain.UpdateCommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		comment, err := svc.Update(r.Context(), currentUser(r), id, req, r.Method == http.MethodPatch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, comment)
	}
}

func DeleteComment(svc CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), currentUser(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
