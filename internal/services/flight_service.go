package services

import (
	"context"
	"errors"
	"sync"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/db/repositories"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"
	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"golang.org/x/sync/errgroup"
)

type FlightStore interface {
	List(ctx context.Context, f repositories.FlightFilter) ([]gormModels.Flight, error)
	GetByID(ctx context.Context, id string) (*gormModels.Flight, error)
	Create(ctx context.Context, flight *gormModels.Flight) error
	Save(ctx context.Context, flight *gormModels.Flight) error
	Delete(ctx context.Context, id string) error
}

// PilotLookup is the secondary lookup used to fill Flight.PilotName.
type PilotLookup interface {
	GetByID(ctx context.Context, id string) (*gormModels.Pilot, error)
}

type AircraftTach interface {
	GetByID(ctx context.Context, id string) (*gormModels.Aircraft, error)
	AdvanceTach(ctx context.Context, id string, tachEnd float64, flightID string) (bool, error)
}

const defaultEnrichConcurrency = 8

type FlightService struct {
	flights   FlightStore
	pilots    PilotLookup
	aircraft  AircraftTach
	publisher ChangePublisher
	metrics   *metrics.MetricsRegistry
	limit     int
}

func NewFlightService(flights FlightStore, pilots PilotLookup, aircraft AircraftTach, publisher ChangePublisher, metricsReg *metrics.MetricsRegistry) *FlightService {
	return &FlightService{
		flights:   flights,
		pilots:    pilots,
		aircraft:  aircraft,
		publisher: publisher,
		metrics:   metricsReg,
		limit:     defaultEnrichConcurrency,
	}
}

func (s *FlightService) List(ctx context.Context, req dtos.ListFlightsRequest) ([]dtos.Flight, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	flights, err := s.flights.List(ctx, repositories.FlightFilter{
		PilotID:    req.PilotID,
		AircraftID: req.AircraftID,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, storeError("flights", err)
	}
	return s.enrich(ctx, flights), nil
}

func (s *FlightService) Get(ctx context.Context, req dtos.IDRequest) (*dtos.Flight, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, req.ID)
	if err != nil {
		return nil, storeError("flight", err)
	}
	out := s.enrich(ctx, []gormModels.Flight{*flight})
	return &out[0], nil
}

// enrich fills PilotName with one lookup per distinct pilot. A failed lookup
// leaves the name empty; it never fails the read.
func (s *FlightService) enrich(ctx context.Context, flights []gormModels.Flight) []dtos.Flight {
	names := make(map[string]string)
	for _, f := range flights {
		names[f.PilotID] = ""
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for pilotID := range names {
		g.Go(func() error {
			pilot, err := s.pilots.GetByID(gctx, pilotID)
			if err != nil {
				logging.Warn("Pilot lookup failed during flight enrichment", "pilot_id", pilotID, "error", err)
				if s.metrics != nil {
					s.metrics.EnrichmentFailures.Inc()
				}
				return nil
			}
			mu.Lock()
			names[pilotID] = pilot.Name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]dtos.Flight, 0, len(flights))
	for i := range flights {
		out = append(out, toFlightDTO(&flights[i], names[flights[i].PilotID]))
	}
	return out
}

// Create logs a flight for the actor (or, for admins, for req.PilotID) and
// moves the aircraft's tach time forward when the flight ends past it.
func (s *FlightService) Create(ctx context.Context, actor Actor, req dtos.CreateFlightRequest) (*dtos.Flight, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	pilotID, err := s.pilotFor(actor, req.PilotID)
	if err != nil {
		return nil, err
	}
	if _, err := s.aircraft.GetByID(ctx, req.AircraftID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, Invalid("aircraft_id does not reference a known aircraft")
		}
		return nil, storeError("aircraft", err)
	}

	flight := &gormModels.Flight{PilotID: pilotID}
	applyFlightInput(flight, req.FlightInput)

	if err := s.flights.Create(ctx, flight); err != nil {
		return nil, storeError("flight", err)
	}
	if s.metrics != nil {
		s.metrics.FlightsLoggedTotal.Inc()
	}

	advanced, err := s.aircraft.AdvanceTach(ctx, flight.AircraftID, flight.TachEnd, flight.ID)
	if err != nil {
		logging.Error("Failed to advance aircraft tach time", "aircraft_id", flight.AircraftID, "flight_id", flight.ID, "error", err)
	} else if advanced {
		if a, err := s.aircraft.GetByID(ctx, flight.AircraftID); err == nil {
			publish(s.publisher, constants.TableAircraft, constants.ChangeUpdate, toAircraftDTO(a), nil)
		}
	}

	dto := s.enrich(ctx, []gormModels.Flight{*flight})[0]
	publish(s.publisher, constants.TableFlights, constants.ChangeInsert, dto, nil)
	return &dto, nil
}

// Update replaces a flight's fields. Pilots may only edit their own flights.
func (s *FlightService) Update(ctx context.Context, actor Actor, req dtos.UpdateFlightRequest) (*dtos.Flight, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, req.ID)
	if err != nil {
		return nil, storeError("flight", err)
	}
	if !actor.Privileged() && flight.PilotID != actor.PilotID {
		return nil, Forbidden()
	}

	before := toFlightDTO(flight, "")
	if req.PilotID != "" && req.PilotID != flight.PilotID {
		if !actor.Privileged() {
			return nil, Forbidden()
		}
		flight.PilotID = req.PilotID
	}
	applyFlightInput(flight, req.FlightInput)

	if err := s.flights.Save(ctx, flight); err != nil {
		return nil, storeError("flight", err)
	}

	dto := s.enrich(ctx, []gormModels.Flight{*flight})[0]
	publish(s.publisher, constants.TableFlights, constants.ChangeUpdate, dto, before)
	return &dto, nil
}

func (s *FlightService) Delete(ctx context.Context, req dtos.IDRequest) error {
	if err := ValidateStruct(req); err != nil {
		return err
	}

	flight, err := s.flights.GetByID(ctx, req.ID)
	if err != nil {
		return storeError("flight", err)
	}
	if err := s.flights.Delete(ctx, req.ID); err != nil {
		return storeError("flight", err)
	}

	publish(s.publisher, constants.TableFlights, constants.ChangeDelete, nil, toFlightDTO(flight, ""))
	return nil
}

func (s *FlightService) pilotFor(actor Actor, requested string) (string, error) {
	switch {
	case requested != "" && requested != actor.PilotID:
		if !actor.Privileged() {
			return "", Forbidden()
		}
		return requested, nil
	case actor.PilotID != "":
		return actor.PilotID, nil
	default:
		return "", Invalid("pilot_id is required until the caller registers as a pilot")
	}
}

func applyFlightInput(f *gormModels.Flight, in dtos.FlightInput) {
	f.AircraftID = in.AircraftID
	f.Date = in.Date
	f.TachStart = in.TachStart
	f.TachEnd = in.TachEnd
	f.HobbsTime = in.HobbsTime
	f.FuelAdded = in.FuelAdded
	f.OilAdded = in.OilAdded
	f.Passengers = in.Passengers
	f.Route = in.Route
	f.Squawks = in.Squawks
	f.Notes = in.Notes
}
