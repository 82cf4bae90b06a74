// Package api exposes the tracker's REST interface: JWT token endpoints and
// JSON CRUD for projects, bugs, comments and activities.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

const idPattern = "{id:[0-9]+}"

// NewRouter registers the REST routes. Paths are registered without a
// trailing slash; wrap the router with TrailingSlashMiddleware to accept both
// forms.
func NewRouter(svc Services) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		domain.NewErrorResponse(w, domain.ErrNotFound, http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		domain.NewErrorResponse(w, domain.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	})

	router.HandleFunc("/auth/token", ObtainToken(svc.Auth)).Methods(http.MethodPost)
	router.HandleFunc("/auth/token/refresh", RefreshToken(svc.Auth)).Methods(http.MethodPost)
	router.HandleFunc("/auth/token/verify", VerifyToken(svc.Auth)).Methods(http.MethodPost)
	router.HandleFunc("/auth/register", Register(svc.Auth)).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(Authenticate(svc.Auth))

	api.HandleFunc("/users/me", Me()).Methods(http.MethodGet)

	api.HandleFunc("/projects", ListProjects(svc.Projects)).Methods(http.MethodGet)
	api.HandleFunc("/projects", CreateProject(svc.Projects)).Methods(http.MethodPost)
	api.HandleFunc("/projects/"+idPattern, GetProject(svc.Projects)).Methods(http.MethodGet)
	api.HandleFunc("/projects/"+idPattern, UpdateProject(svc.Projects)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/projects/"+idPattern, DeleteProject(svc.Projects)).Methods(http.MethodDelete)
	api.HandleFunc("/projects/"+idPattern+"/project_bugs", ProjectBugs(svc.Projects)).Methods(http.MethodGet)
	api.HandleFunc("/projects/"+idPattern+"/statistics", ProjectStatistics(svc.Projects)).Methods(http.MethodGet)
	api.HandleFunc("/projects/"+idPattern+"/members", ListMembers(svc.Projects)).Methods(http.MethodGet)
	api.HandleFunc("/projects/"+idPattern+"/members", AddMember(svc.Projects)).Methods(http.MethodPost)
	api.HandleFunc("/projects/"+idPattern+"/members/{user_id:[0-9]+}", RemoveMember(svc.Projects)).Methods(http.MethodDelete)

	api.HandleFunc("/bugs", ListBugs(svc.Bugs)).Methods(http.MethodGet)
	api.HandleFunc("/bugs", CreateBug(svc.Bugs)).Methods(http.MethodPost)
	api.HandleFunc("/bugs/assigned_to_me", BugsAssignedToMe(svc.Bugs)).Methods(http.MethodGet)
	api.HandleFunc("/bugs/created_by_me", BugsCreatedByMe(svc.Bugs)).Methods(http.MethodGet)
	api.HandleFunc("/bugs/"+idPattern, GetBug(svc.Bugs)).Methods(http.MethodGet)
	api.HandleFunc("/bugs/"+idPattern, UpdateBug(svc.Bugs)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/bugs/"+idPattern, DeleteBug(svc.Bugs)).Methods(http.MethodDelete)

	api.HandleFunc("/comments", ListComments(svc.Comments)).Methods(http.MethodGet)
	api.HandleFunc("/comments", CreateComment(svc.Comments)).Methods(http.MethodPost)
	api.HandleFunc("/comments/"+idPattern, GetComment(svc.Comments)).Methods(http.MethodGet)
	api.HandleFunc("/comments/"+idPattern, UpdateComment(svc.Comments)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/comments/"+idPattern, DeleteComment(svc.Comments)).Methods(http.MethodDelete)

	api.HandleFunc("/activities", ListActivities(svc.Activities)).Methods(http.MethodGet)
	api.HandleFunc("/activities/"+idPattern, GetActivity(svc.Activities)).Methods(http.MethodGet)

	return router
}

// Wrap applies the middleware every request passes through, outermost
// first: panic recovery, request logging, trailing slash normalization.
func Wrap(h http.Handler) http.Handler {
	return RecoveryMiddleware(LoggingMiddleware(TrailingSlashMiddleware(h)))
}
