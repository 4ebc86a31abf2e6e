package http

import (
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

type baladiaInput struct {
	ID          int    `json:"id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=120"`
	NameAr      string `json:"name_ar" validate:"max=120"`
	HasStopDesk bool   `json:"has_stop_desk"`
}

type upsertBaladiasRequest struct {
	Baladias []baladiaInput `json:"baladias" validate:"required,min=1,max=2000,dive"`
}

type resolveLocationResponse struct {
	Wilaya  model.Wilaya   `json:"wilaya"`
	Baladia *model.Baladia `json:"baladia,omitempty"`
}

func (s *Service) listWilayas(r *http.Request) (response, error) {
	wilayas, err := s.locationSvc.ListWilayas(r.Context())
	if err != nil {
		return response{}, fmt.Errorf("location service list wilayas: %w", err)
	}
	return ok(list(wilayas)), nil
}

func (s *Service) getWilaya(r *http.Request) (response, error) {
	var id int
	if err := pathParam(r, "id", &id); err != nil {
		return response{}, err
	}
	wilaya, err := s.locationSvc.GetWilaya(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("location service get wilaya: %w", err)
	}
	return ok(wilaya), nil
}

func (s *Service) listBaladias(r *http.Request) (response, error) {
	var id int
	if err := pathParam(r, "id", &id); err != nil {
		return response{}, err
	}
	baladias, err := s.locationSvc.ListBaladias(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("location service list baladias: %w", err)
	}
	return ok(list(baladias)), nil
}

func (s *Service) upsertBaladias(r *http.Request) (response, error) {
	var id int
	if err := pathParam(r, "id", &id); err != nil {
		return response{}, err
	}
	var req upsertBaladiasRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	baladias := lo.Map(req.Baladias, func(b baladiaInput, _ int) model.Baladia {
		return model.Baladia{
			ID:          b.ID,
			WilayaID:    id,
			Name:        b.Name,
			NameAr:      b.NameAr,
			HasStopDesk: b.HasStopDesk,
		}
	})

	saved, err := s.locationSvc.UpsertBaladias(r.Context(), id, baladias)
	if err != nil {
		return response{}, fmt.Errorf("location service upsert baladias: %w", err)
	}
	return ok(list(saved)), nil
}

// resolveLocation maps free-text wilaya and commune names, as typed by
// customers, to their canonical records.
func (s *Service) resolveLocation(r *http.Request) (response, error) {
	q := r.URL.Query()
	var (
		wilayaInput  string
		baladiaInput *string
	)
	if err := requiredQueryParam(q, "wilaya", &wilayaInput); err != nil {
		return response{}, err
	}
	if err := queryParam(q, "baladia", &baladiaInput); err != nil {
		return response{}, err
	}

	wilaya, err := s.locationSvc.ResolveWilaya(r.Context(), wilayaInput)
	if err != nil {
		return response{}, fmt.Errorf("location service resolve wilaya: %w", err)
	}

	res := resolveLocationResponse{Wilaya: wilaya}
	if baladiaInput != nil && *baladiaInput != "" {
		baladia, err := s.locationSvc.ResolveBaladia(r.Context(), wilaya.ID, *baladiaInput)
		if err != nil {
			return response{}, fmt.Errorf("location service resolve baladia: %w", err)
		}
		res.Baladia = &baladia
	}
	return ok(res), nil
}
