package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/bugtracker/internal/api"
	"github.com/Tyrowin/bugtracker/internal/config"
	"github.com/Tyrowin/bugtracker/internal/domain"
)

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// AccessChecker reports whether a user can see a project.
type AccessChecker interface {
	HasAccess(ctx context.Context, projectID, userID int64) (bool, error)
}

// Sockets upgrades authenticated requests into room connections.
type Sockets struct {
	hub      *Hub
	layer    ChannelLayer
	auth     Authenticator
	access   AccessChecker
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
}

func NewSockets(hub *Hub, layer ChannelLayer, authn Authenticator, access AccessChecker, cfg config.ServerConfig) *Sockets {
	policy := newOriginPolicy(cfg.AllowedOrigins)
	return &Sockets{
		hub:    hub,
		layer:  layer,
		auth:   authn,
		access: access,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
	}
}

// socketToken reads the access token from the token query parameter, which
// browsers can set, falling back to the Authorization header.
func socketToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return api.BearerToken(r)
}

func (s *Sockets) authenticate(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	token := socketToken(r)
	if token == "" {
		slog.Warn("unauthenticated websocket connection attempt", "path", r.URL.Path)
		domain.NewErrorResponse(w, domain.ErrUnauthorized, http.StatusUnauthorized)
		return domain.User{}, false
	}
	user, err := s.auth.Authenticate(r.Context(), token)
	if err != nil {
		var derr domain.Error
		if !errors.As(err, &derr) {
			slog.Error("websocket authentication failed", "error", err)
			derr = domain.ErrUnauthorized
		}
		domain.NewErrorResponse(w, derr, domain.StatusCode(derr))
		return domain.User{}, false
	}
	return user, true
}

// Tracker serves the general room.
func (s *Sockets) Tracker(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	s.serve(w, r, user, TrackerConsumer{})
}

// Project serves the room of the project named by the project_id path
// variable. Only users with access to the project may join.
func (s *Sockets) Project(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	projectID, err := strconv.ParseInt(mux.Vars(r)["project_id"], 10, 64)
	if err != nil || projectID <= 0 {
		domain.NewErrorResponse(w, domain.ErrNotFound, http.StatusNotFound)
		return
	}

	allowed, err := s.access.HasAccess(r.Context(), projectID, user.ID)
	if err != nil {
		slog.Error("failed to check project access", "project_id", projectID, "user", user.Username, "error", err)
		domain.NewErrorResponse(w, domain.ErrInternal, http.StatusInternalServerError)
		return
	}
	if !allowed {
		slog.Warn("websocket project access denied", "project_id", projectID, "user", user.Username)
		domain.NewErrorResponse(w, domain.ErrForbidden.WithMessage(
			fmt.Sprintf("you do not have access to project %d", projectID)), http.StatusForbidden)
		return
	}

	s.serve(w, r, user, NewProjectConsumer(projectID, s.layer))
}

func (s *Sockets) serve(w http.ResponseWriter, r *http.Request, user domain.User, consumer Consumer) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s.hub, consumer, user, r.RemoteAddr, s.cfg)
	if err := client.greet(); err != nil {
		slog.Error("failed to encode welcome frame", "error", err)
		_ = conn.Close()
		return
	}

	// The hub launches the pump goroutines.
	if err := s.hub.Register(client); err != nil {
		slog.Warn("rejecting websocket connection", "error", err)
		_ = conn.Close()
	}
}

// HealthHandler reports that the server is up.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Bug tracker server is running!")
}
