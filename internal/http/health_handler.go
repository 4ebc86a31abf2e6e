package http

import (
	"context"
	"net/http"
	"time"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Service) healthz(r *http.Request) (response, error) {
	if s.health == nil {
		return ok(healthResponse{Status: "ok"}), nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthy, err := s.health.IsHealthy(ctx)
	if err != nil || !healthy {
		return response{}, apperr.UnhealthyErr.WrapParent(err)
	}
	return ok(healthResponse{Status: "ok"}), nil
}
