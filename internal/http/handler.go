package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
)

const (
	maxBodyBytes    = 1 << 20
	defaultPageSize = 50
)

// response is what a handler asks the adapter to write.
type response struct {
	status int
	body   any
}

func ok(body any) response      { return response{status: http.StatusOK, body: body} }
func created(body any) response { return response{status: http.StatusCreated, body: body} }
func noContent() response       { return response{status: http.StatusNoContent} }

type handlerFunc func(r *http.Request) (response, error)

// wrap adapts a handlerFunc to net/http, routing errors through the shared
// error response writer.
func (s *Service) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h(r)
		if err != nil {
			s.handleResponseError(w, r, err)
			return
		}

		if res.body == nil {
			w.WriteHeader(res.status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(res.status)
		if err := json.NewEncoder(w).Encode(res.body); err != nil {
			s.logger.ErrorContext(r.Context(), "error encoding response", slog.Any("error", err))
		}
	}
}

// decode reads a JSON body into dst and validates it.
func (s *Service) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.ValidationErr.WithMsg("malformed request body").WrapParent(err)
	}

	if err := s.validator.Validate(dst); err != nil {
		return apperr.ValidationErr.WrapParent(err)
	}
	return nil
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items}
}

func pathParam(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return apperr.ValidationErr.WithMsg("invalid path parameter %s", name).WrapParent(err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	err := pathParam(r, "id", &id)
	return id, err
}

// queryParam binds an optional form-style query parameter. dest must be a
// pointer to a pointer and stays nil when the parameter is absent.
func queryParam(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return apperr.ValidationErr.WithMsg("invalid query parameter %s", name).WrapParent(err)
	}
	return nil
}

func requiredQueryParam(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, true, name, q, dest); err != nil {
		return apperr.ValidationErr.WithMsg("invalid query parameter %s", name).WrapParent(err)
	}
	return nil
}
