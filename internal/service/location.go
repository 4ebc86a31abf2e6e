package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/location"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
)

type LocationService interface {
	ListWilayas(ctx context.Context) ([]model.Wilaya, error)
	GetWilaya(ctx context.Context, id int) (model.Wilaya, error)
	ListBaladias(ctx context.Context, wilayaID int) ([]model.Baladia, error)
	GetBaladia(ctx context.Context, id int) (model.Baladia, error)
	// UpsertBaladias inserts or updates the communes of one wilaya.
	UpsertBaladias(ctx context.Context, wilayaID int, baladias []model.Baladia) ([]model.Baladia, error)
	ResolveWilaya(ctx context.Context, input string) (model.Wilaya, error)
	ResolveBaladia(ctx context.Context, wilayaID int, input string) (model.Baladia, error)
}

// locationService caches the reference tables; they only change through
// UpsertBaladias.
type locationService struct {
	locationRepo repository.LocationRepository

	mu       sync.RWMutex
	wilayas  []model.Wilaya
	baladias map[int][]model.Baladia
}

func NewLocationService(locationRepo repository.LocationRepository) LocationService {
	return &locationService{
		locationRepo: locationRepo,
		baladias:     make(map[int][]model.Baladia),
	}
}

func (s *locationService) ListWilayas(ctx context.Context) ([]model.Wilaya, error) {
	s.mu.RLock()
	cached := s.wilayas
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	wilayas, err := s.locationRepo.ListWilayas(ctx)
	if err != nil {
		return nil, fmt.Errorf("location repository list wilayas: %w", err)
	}

	s.mu.Lock()
	s.wilayas = wilayas
	s.mu.Unlock()

	return wilayas, nil
}

func (s *locationService) GetWilaya(ctx context.Context, id int) (model.Wilaya, error) {
	wilayas, err := s.ListWilayas(ctx)
	if err != nil {
		return model.Wilaya{}, err
	}
	for _, w := range wilayas {
		if w.ID == id {
			return w, nil
		}
	}
	return model.Wilaya{}, apperr.WilayaNotFoundErr
}

func (s *locationService) ListBaladias(ctx context.Context, wilayaID int) ([]model.Baladia, error) {
	if _, err := s.GetWilaya(ctx, wilayaID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, ok := s.baladias[wilayaID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	baladias, err := s.locationRepo.ListBaladias(ctx, wilayaID)
	if err != nil {
		return nil, fmt.Errorf("location repository list baladias: %w", err)
	}

	s.mu.Lock()
	s.baladias[wilayaID] = baladias
	s.mu.Unlock()

	return baladias, nil
}

func (s *locationService) GetBaladia(ctx context.Context, id int) (model.Baladia, error) {
	b, err := s.locationRepo.GetBaladia(ctx, id)
	if err != nil {
		return model.Baladia{}, fmt.Errorf("location repository get baladia: %w", err)
	}
	return b, nil
}

func (s *locationService) UpsertBaladias(ctx context.Context, wilayaID int, baladias []model.Baladia) ([]model.Baladia, error) {
	if _, err := s.GetWilaya(ctx, wilayaID); err != nil {
		return nil, err
	}
	for i := range baladias {
		if baladias[i].WilayaID != 0 && baladias[i].WilayaID != wilayaID {
			return nil, apperr.ValidationErr.WithMsg("baladia %d belongs to wilaya %d", baladias[i].ID, baladias[i].WilayaID)
		}
		baladias[i].WilayaID = wilayaID
	}

	if err := s.locationRepo.UpsertBaladias(ctx, baladias); err != nil {
		return nil, fmt.Errorf("location repository upsert baladias: %w", err)
	}

	s.mu.Lock()
	delete(s.baladias, wilayaID)
	s.mu.Unlock()

	return s.ListBaladias(ctx, wilayaID)
}

func (s *locationService) ResolveWilaya(ctx context.Context, input string) (model.Wilaya, error) {
	wilayas, err := s.ListWilayas(ctx)
	if err != nil {
		return model.Wilaya{}, err
	}

	w, ok := location.MatchWilaya(wilayas, input)
	if !ok {
		return model.Wilaya{}, apperr.WilayaNotFoundErr.WithMsg("wilaya %q not found", input)
	}
	return w, nil
}

func (s *locationService) ResolveBaladia(ctx context.Context, wilayaID int, input string) (model.Baladia, error) {
	baladias, err := s.ListBaladias(ctx, wilayaID)
	if err != nil {
		return model.Baladia{}, err
	}

	b, ok := location.MatchBaladia(baladias, input)
	if !ok {
		return model.Baladia{}, apperr.BaladiaNotFoundErr.WithMsg("baladia %q not found in wilaya %d", input, wilayaID)
	}
	return b, nil
}
