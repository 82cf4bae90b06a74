package domain

import (
	"encoding/json"
	"net/http"
)

const (
	ContentType     = "Content-Type"
	ApplicationJSON = "application/json"
)

type ErrorResponse struct {
	Error Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches on Code so that errors carrying a specific message still
// compare equal to the sentinel of the same kind.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e Error) WithMessage(msg string) Error {
	return Error{Code: e.Code, Message: msg}
}

var (
	ErrBadRequest = Error{
		Code:    "BAD_REQUEST",
		Message: "bad request",
	}

	ErrUnauthorized = Error{
		Code:    "UNAUTHORIZED",
		Message: "authentication credentials were not provided or are invalid",
	}

	ErrForbidden = Error{
		Code:    "FORBIDDEN",
		Message: "you do not have permission to perform this action",
	}

	ErrNotFound = Error{
		Code:    "NOT_FOUND",
		Message: "resource not found",
	}

	ErrConflict = Error{
		Code:    "CONFLICT",
		Message: "resource already exists",
	}

	ErrInvalidTransition = Error{
		Code:    "INVALID_TRANSITION",
		Message: "bug status transition is not allowed",
	}

	ErrMethodNotAllowed = Error{
		Code:    "METHOD_NOT_ALLOWED",
		Message: "method not allowed",
	}

	ErrInternal = Error{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}
)

// StatusCode maps a domain error to the HTTP status it is reported with.
func StatusCode(e Error) int {
	switch e.Code {
	case ErrBadRequest.Code, ErrInvalidTransition.Code:
		return http.StatusBadRequest
	case ErrUnauthorized.Code:
		return http.StatusUnauthorized
	case ErrForbidden.Code:
		return http.StatusForbidden
	case ErrNotFound.Code:
		return http.StatusNotFound
	case ErrConflict.Code:
		return http.StatusConflict
	case ErrMethodNotAllowed.Code:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func NewErrorResponse(w http.ResponseWriter, e Error, statusCode int) {
	jsonErrRes, err := json.Marshal(ErrorResponse{Error: e})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set(ContentType, ApplicationJSON)
	w.WriteHeader(statusCode)
	_, _ = w.Write(jsonErrRes)
}
