// Package http holds the error-returning handler adapter and the JSON
// helpers shared by the vault routes.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/chainsafe/vault-ledger/pkg/app/errors"
)

// maxBodyBytes bounds request bodies; vault requests are a few fields.
const maxBodyBytes = 1 << 16

// HandlerFunc is a handler that reports failure by returning an error.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError adapts h to http.HandlerFunc, rendering returned errors with
// DefaultErrorHandler.
//
//	r.Post("/v1/deposits", apphttp.HandleError(h.deposit))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

type errorResponse struct {
	ErrMsg     string `json:"error"`
	ErrMsgCode int    `json:"code"`
}

// DefaultErrorHandler writes err as a JSON error body. Only ServiceError
// messages reach the client.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		_ = WriteJSON(w, svcErr.StatusCode(), &errorResponse{
			ErrMsg:     svcErr.Message,
			ErrMsgCode: svcErr.StatusCode(),
		})
		return
	}
	_ = WriteJSON(w, http.StatusInternalServerError, &errorResponse{
		ErrMsg:     "Unexpected Service Error",
		ErrMsgCode: http.StatusInternalServerError,
	})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.BadRequestError(fmt.Errorf("decode request: %w", err), "invalid request body")
	}
	return nil
}
