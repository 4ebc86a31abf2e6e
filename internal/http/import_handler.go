package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/orderdesk/internal/service"
	"github.com/tuanvumaihuynh/orderdesk/internal/sheets"
)

type importSheetRequest struct {
	SheetID string `json:"sheet_id" validate:"required,max=128"`
	GID     string `json:"gid" validate:"omitempty,numeric"`
}

func (s *Service) importSheet(r *http.Request) (response, error) {
	var req importSheetRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	src := sheets.Source{SheetID: req.SheetID, GID: req.GID}
	if src.GID == "" {
		src.GID = "0"
	}

	report, err := s.importSvc.ImportSheet(r.Context(), src)
	if err != nil {
		return response{}, fmt.Errorf("import service import sheet: %w", err)
	}
	if report.Failed == nil {
		report.Failed = []service.ImportFailure{}
	}
	return ok(report), nil
}
