package server

import (
	"net/http"

	"github.com/Tyrowin/bugtracker/internal/api"
)

// SetupRoutes mounts the REST API, the socket endpoints and the health
// check on one router and wraps it in the shared middleware.
func SetupRoutes(services api.Services, sockets *Sockets) http.Handler {
	router := api.NewRouter(services)

	router.HandleFunc("/", HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	router.HandleFunc("/ws/tracker", sockets.Tracker).Methods(http.MethodGet)
	router.HandleFunc("/ws/tracker/{project_id:[0-9]+}", sockets.Project).Methods(http.MethodGet)
	router.HandleFunc("/ws/project/{project_id:[0-9]+}", sockets.Project).Methods(http.MethodGet)

	return api.Wrap(router)
}
