package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
)

const (
	defaultReportSpan = 30 * 24 * time.Hour
	topWilayas        = 10
)

type ReportService interface {
	// Summary covers [from, to); zero bounds default to the last 30 days.
	Summary(ctx context.Context, from, to time.Time) (model.Summary, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) Summary(ctx context.Context, from, to time.Time) (model.Summary, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.Add(-defaultReportSpan)
	}
	if !from.Before(to) {
		return model.Summary{}, apperr.ValidationErr.WithMsg("from must be before to")
	}

	summary, err := s.reportRepo.Summary(ctx, from, to, topWilayas)
	if err != nil {
		return model.Summary{}, fmt.Errorf("report repository summary: %w", err)
	}
	return summary, nil
}
