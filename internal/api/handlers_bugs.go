package api

import (
	"net/http"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

func bugFilterFromQuery(r *http.Request) (domain.BugFilter, error) {
	filter := domain.BugFilter{
		Status:   domain.BugStatus(queryParam(r, "status", "bug_status")),
		Priority: domain.BugPriority(queryParam(r, "priority", "bug_priority")),
		Search:   queryParam(r, "search"),
		Ordering: domain.ParseOrdering(queryParam(r, "ordering"), domain.BugOrderingFields, domain.DefaultBugOrdering),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, domain.ErrBadRequest.WithMessage("status: select a valid choice")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return filter, domain.ErrBadRequest.WithMessage("priority: select a valid choice")
	}

	var err error
	if filter.ProjectID, err = queryID(r, "project", "related_project"); err != nil {
		return filter, err
	}
	if filter.AssignedTo, err = queryID(r, "assigned_to", "assigned_to_user"); err != nil {
		return filter, err
	}
	return filter, nil
}

func ListBugs(svc BugService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := bugFilterFromQuery(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		bugs, err := svc.List(r.Context(), currentUser(r), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewListResponse(bugs))
	}
}

func BugsAssignedToMe(svc BugService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bugs, err := svc.AssignedTo(r.Context(), currentUser(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewListResponse(bugs))
	}
}

func BugsCreatedByMe(svc BugService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bugs, err := svc.CreatedBy(r.Context(), currentUser(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewListResponse(bugs))
	}
}

func CreateBug(svc BugService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateBugRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		bug, err := svc.Create(r.Context(), currentUser(r), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, bug)
	}
}

func GetBug(svc BugService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		bug, err := svc.Get(r.Context(), currentUser(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bug)
	}
}

func UpdateBug(svc BugService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req domain.UpdateBugRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		bug, err := svc.Update(r.Context(), currentUser(r), id, req, r.Method == http.MethodPatch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, bug)
	}
}

func DeleteBug(svc BugService) http.HandlerFunc {
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
