package dtos

import "time"

type ListPilotsRequest struct {
	IncludeHidden bool `json:"include_hidden"`
}

type RegisterPilotRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type UpdatePilotRequest struct {
	ID       string  `json:"id" validate:"required"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
	IsHidden *bool   `json:"is_hidden,omitempty"`
}

type IDRequest struct {
	ID string `json:"id" validate:"required"`
}

type LinkPilotRequest struct {
	ID         string `json:"id" validate:"required"`
	AuthUserID string `json:"auth_user_id" validate:"required"`
}

type ListFlightsRequest struct {
	PilotID    string `json:"pilot_id,omitempty"`
	AircraftID string `json:"aircraft_id,omitempty"`
	Limit      int    `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
}

// FlightInput is shared by create and update. PilotID defaults to the caller.
type FlightInput struct {
	AircraftID string    `json:"aircraft_id" validate:"required"`
	PilotID    string    `json:"pilot_id,omitempty"`
	Date       time.Time `json:"date" validate:"required"`
	TachStart  float64   `json:"tach_start" validate:"gte=0"`
	TachEnd    float64   `json:"tach_end" validate:"gtefield=TachStart"`
	HobbsTime  float64   `json:"hobbs_time" validate:"gte=0"`
	FuelAdded  float64   `json:"fuel_added" validate:"gte=0"`
	OilAdded   float64   `json:"oil_added" validate:"gte=0"`
	Passengers int       `json:"passengers" validate:"gte=0"`
	Route      string    `json:"route" validate:"required"`
	Squawks    string    `json:"squawks,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

type CreateFlightRequest struct {
	FlightInput
}

type UpdateFlightRequest struct {
	ID string `json:"id" validate:"required"`
	FlightInput
}

type CreateSafetyReportRequest struct {
	ReportDate   time.Time `json:"report_date" validate:"required"`
	ReporterName string    `json:"reporter_name,omitempty"`
	Category     string    `json:"category" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	Severity     string    `json:"severity" validate:"required,oneof=low medium high critical"`
	AircraftID   *string   `json:"aircraft_id,omitempty"`
}

type ListSafetyReportsRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=submitted under-review resolved closed"`
}

type ReviewSafetyReportRequest struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=submitted under-review resolved closed"`
	Notes  string `json:"notes,omitempty"`
}

type UpsertRouteTargetRequest struct {
	ID         string  `json:"id,omitempty"`
	Route      string  `json:"route" validate:"required"`
	TargetTime float64 `json:"target_time" validate:"gt=0"`
	AircraftID *string `json:"aircraft_id,omitempty"`
	PilotID    *string `json:"pilot_id,omitempty"`
	Month      *int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Year       *int    `json:"year,omitempty" validate:"omitempty,min=1900,max=3000"`
}

// RouteStatsRequest narrows the flights considered and doubles as the target scope.
type RouteStatsRequest struct {
	AircraftID *string `json:"aircraft_id,omitempty"`
	PilotID    *string `json:"pilot_id,omitempty"`
	Month      *int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Year       *int    `json:"year,omitempty" validate:"omitempty,min=1900,max=3000"`
}
