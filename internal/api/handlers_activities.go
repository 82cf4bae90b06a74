package api

import (
	"net/http"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

func ListActivities(svc ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := domain.ActivityFilter{
			Type:     domain.ActivityType(queryParam(r, "activity_type")),
			Ordering: domain.ParseOrdering(queryParam(r, "ordering"), domain.ActivityOrderFields, domain.DefaultActivityOrdering),
		}
		if filter.Type != "" && !filter.Type.Valid() {
			writeError(w, r, domain.ErrBadRequest.WithMessage("activity_type: select a valid choice"))
			return
		}

		var err error
		if filter.ProjectID, err = queryID(r, "project", "related_project"); err != nil {
			writeError(w, r, err)
			return
		}
		if filter.BugID, err = queryID(r, "bug", "related_bug"); err != nil {
			writeError(w, r, err)
			return
		}

		activities, err := svc.List(r.Context(), currentUser(r), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewListResponse(activities))
	}
}

func GetActivity(svc ActivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		activity, err := svc.Get(r.Context(), currentUser(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, activity)
	}
}
