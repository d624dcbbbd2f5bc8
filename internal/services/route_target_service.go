package services

import (
	"context"
	"time"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/db/repositories"
	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"
	"infinite-experiment/hangar/internal/stats"
)

type RouteTargetStore interface {
	List(ctx context.Context, route string) ([]gormModels.RouteTargetTime, error)
	Upsert(ctx context.Context, target *gormModels.RouteTargetTime) (bool, error)
}

type FlightLister interface {
	List(ctx context.Context, f repositories.FlightFilter) ([]gormModels.Flight, error)
}

type RouteTargetService struct {
	targets   RouteTargetStore
	flights   FlightLister
	publisher ChangePublisher
}

func NewRouteTargetService(targets RouteTargetStore, flights FlightLister, publisher ChangePublisher) *RouteTargetService {
	return &RouteTargetService{
		targets:   targets,
		flights:   flights,
		publisher: publisher,
	}
}

func (s *RouteTargetService) List(ctx context.Context) ([]dtos.RouteTarget, error) {
	targets, err := s.targets.List(ctx, "")
	if err != nil {
		return nil, storeError("route targets", err)
	}

	out := make([]dtos.RouteTarget, 0, len(targets))
	for i := range targets {
		out = append(out, toRouteTargetDTO(&targets[i]))
	}
	return out, nil
}

func (s *RouteTargetService) Upsert(ctx context.Context, req dtos.UpsertRouteTargetRequest) (*dtos.RouteTarget, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	target := &gormModels.RouteTargetTime{
		ID:         req.ID,
		Route:      req.Route,
		TargetTime: req.TargetTime,
		AircraftID: req.AircraftID,
		PilotID:    req.PilotID,
		Month:      req.Month,
		Year:       req.Year,
	}
	created, err := s.targets.Upsert(ctx, target)
	if err != nil {
		return nil, storeError("route target", err)
	}

	dto := toRouteTargetDTO(target)
	typ := constants.ChangeUpdate
	if created {
		typ = constants.ChangeInsert
	}
	publish(s.publisher, constants.TableRouteTargets, typ, dto, nil)
	return &dto, nil
}

// Stats computes per-route statistics over the flights selected by req. The
// same request is the scope used to pick each route's target.
func (s *RouteTargetService) Stats(ctx context.Context, req dtos.RouteStatsRequest) ([]stats.RouteStat, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Month != nil && req.Year == nil {
		return nil, Invalid("year is required when month is set")
	}

	filter := repositories.FlightFilter{}
	if req.AircraftID != nil {
		filter.AircraftID = *req.AircraftID
	}
	if req.PilotID != nil {
		filter.PilotID = *req.PilotID
	}
	if req.Year != nil {
		if req.Month != nil {
			filter.From = time.Date(*req.Year, time.Month(*req.Month), 1, 0, 0, 0, 0, time.UTC)
			filter.To = filter.From.AddDate(0, 1, 0)
		} else {
			filter.From = time.Date(*req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			filter.To = filter.From.AddDate(1, 0, 0)
		}
	}

	flights, err := s.flights.List(ctx, filter)
	if err != nil {
		return nil, storeError("flights", err)
	}
	targets, err := s.targets.List(ctx, "")
	if err != nil {
		return nil, storeError("route targets", err)
	}

	samples := make([]stats.FlightSample, 0, len(flights))
	for _, f := range flights {
		samples = append(samples, stats.FlightSample{Route: f.Route, HobbsTime: f.HobbsTime})
	}
	statTargets := make([]stats.Target, 0, len(targets))
	for i := range targets {
		statTargets = append(statTargets, toStatsTarget(&targets[i]))
	}

	return stats.ComputeRouteStats(samples, statTargets, stats.Scope{
		AircraftID: req.AircraftID,
		PilotID:    req.PilotID,
		Month:      req.Month,
		Year:       req.Year,
	}), nil
}
