package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

func (s *Service) reportSummary(r *http.Request) (response, error) {
	q := r.URL.Query()
	var from, to *time.Time
	if err := queryParam(q, "from", &from); err != nil {
		return response{}, err
	}
	if err := queryParam(q, "to", &to); err != nil {
		return response{}, err
	}

	summary, err := s.reportSvc.Summary(r.Context(), lo.FromPtr(from), lo.FromPtr(to))
	if err != nil {
		return response{}, fmt.Errorf("report service summary: %w", err)
	}
	if summary.ByStatus == nil {
		summary.ByStatus = []model.StatusSummary{}
	}
	if summary.TopWilayas == nil {
		summary.TopWilayas = []model.WilayaSummary{}
	}
	return ok(summary), nil
}
