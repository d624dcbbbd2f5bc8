package services

import (
	"context"

	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"
)

type AircraftStore interface {
	List(ctx context.Context) ([]gormModels.Aircraft, error)
}

type AircraftService struct {
	aircraft AircraftStore
}

func NewAircraftService(aircraft AircraftStore) *AircraftService {
	return &AircraftService{aircraft: aircraft}
}

func (s *AircraftService) List(ctx context.Context) ([]dtos.Aircraft, error) {
	fleet, err := s.aircraft.List(ctx)
	if err != nil {
		return nil, storeError("aircraft", err)
	}

	out := make([]dtos.Aircraft, 0, len(fleet))
	for i := range fleet {
		out = append(out, toAircraftDTO(&fleet[i]))
	}
	return out, nil
}
