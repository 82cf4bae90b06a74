package domain

import (
	"encoding/json"
	"net/http"
)

func WriteResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set(ContentType, ApplicationJSON)
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AccessToken struct {
	Access string `json:"access"`
}

type ListResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Count: len(items), Results: items}
}
