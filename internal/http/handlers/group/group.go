// Package group contains the HTTP handlers for listing and creating groups.
package group

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/alumnos-api/internal/types"
	"github.com/aanand-mishra/alumnos-api/internal/utils/response"
	"github.com/aanand-mishra/alumnos-api/internal/utils/validation"
)

// Service is what the handlers need from the group service.
type Service interface {
	List(ctx context.Context) ([]types.Group, error)
	Create(ctx context.Context, name string) (*types.Group, error)
}

var validate = validation.New()

// GetList handles GET /api/grupos
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.List(r.Context())
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, groups)
	}
}

// New handles POST /api/grupos
//
//	{ "nombre": "3A" }
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var g types.Group
		err := json.NewDecoder(r.Body).Decode(&g)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validate.Struct(g); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		created, err := svc.Create(r.Context(), g.Name)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("group created", slog.Int64("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// Register mounts the group routes on r.
func Register(r chi.Router, svc Service) {
	r.Get("/api/grupos", GetList(svc))
	r.Post("/api/grupos", New(svc))
}
