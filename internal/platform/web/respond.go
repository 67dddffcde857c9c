package web

import (
	"encoding/json"
	"net/http"

	"vet-cardio-screening/internal/apperr"
)

// ErrorBody es el contrato de error del API: un kind estable para máquinas
// y un mensaje para humanos.
type ErrorBody struct {
	Kind string `json:"kind"`
	Msg  string `json:"msg"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.HTTPStatus(err), ErrorBody{
		Kind: apperr.Kind(err),
		Msg:  err.Error(),
	})
}
