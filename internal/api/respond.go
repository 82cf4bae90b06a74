package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Tyrowin/bugtracker/internal/auth"
	"github.com/Tyrowin/bugtracker/internal/domain"
)

const maxBodyBytes = 1 << 20

// writeError reports err with the status of its domain error kind. Anything
// that is not a domain error is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var derr domain.Error
	if errors.As(err, &derr) {
		domain.NewErrorResponse(w, derr, domain.StatusCode(derr))
		return
	}
	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()),
		"error", err)
	domain.NewErrorResponse(w, domain.ErrInternal, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	if err := domain.WriteResponse(w, status, data); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("failed to decode request body", "path", r.URL.Path, "error", err)
		return domain.ErrBadRequest.WithMessage("malformed JSON request body")
	}
	return nil
}

// currentUser returns the user stored by Authenticate. Routes behind the
// middleware always have one.
func currentUser(r *http.Request) domain.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// queryParam returns the first non-empty value among the given names.
func queryParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func queryID(r *http.Request, names ...string) (*int64, error) {
	raw := queryParam(r, names...)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.ErrBadRequest.WithMessage(fmt.Sprintf("%s: a valid integer is required", names[0]))
	}
	return &id, nil
}
