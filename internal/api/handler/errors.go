package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/panda19/prisonscore/internal/api/apierr"
	"github.com/panda19/prisonscore/internal/mainloop"
	"github.com/panda19/prisonscore/internal/model"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// onLoop runs fn on the main loop and returns its error. Giving up on
// the loop is reported as a timeout.
func onLoop(ctx context.Context, loop *mainloop.Loop, fn func() error) error {
	var err error
	if callErr := loop.Call(ctx, func() { err = fn() }); callErr != nil {
		return apierr.NewTimeoutError()
	}
	return err
}

// profileID reads the {id} path variable
func profileID(r *http.Request) (model.ProfileID, error) {
	return model.ParseProfileID(mux.Vars(r)["id"])
}

// decode reads a JSON request body into v
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
