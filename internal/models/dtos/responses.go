package dtos

import "time"

type Pilot struct {
	ID         string    `json:"id"`
	AuthUserID *string   `json:"auth_user_id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	IsHidden   bool      `json:"is_hidden"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Aircraft struct {
	ID            string     `json:"id"`
	TailNumber    string     `json:"tail_number"`
	Make          string     `json:"make"`
	Model         string     `json:"model"`
	Year          *int       `json:"year,omitempty"`
	TachTime      float64    `json:"tach_time"`
	OilChangeDate *time.Time `json:"oil_change_date,omitempty"`
	LastAnnual    *time.Time `json:"last_annual,omitempty"`
	Owner         string     `json:"owner,omitempty"`
	LastFlightID  *string    `json:"last_flight_id,omitempty"`
}

// Flight carries PilotName as a best-effort enrichment; empty when the lookup failed.
type Flight struct {
	ID         string    `json:"id"`
	AircraftID string    `json:"aircraft_id"`
	PilotID    string    `json:"pilot_id"`
	PilotName  string    `json:"pilot_name"`
	Date       time.Time `json:"date"`
	TachStart  float64   `json:"tach_start"`
	TachEnd    float64   `json:"tach_end"`
	HobbsTime  float64   `json:"hobbs_time"`
	FuelAdded  float64   `json:"fuel_added"`
	OilAdded   float64   `json:"oil_added"`
	Passengers int       `json:"passengers"`
	Route      string    `json:"route"`
	Squawks    string    `json:"squawks,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AdminReview is the validated view of safety_reports.admin_review.
type AdminReview struct {
	Reviewer   string    `json:"reviewer" validate:"required"`
	ReviewedAt time.Time `json:"reviewed_at" validate:"required"`
	Notes      string    `json:"notes"`
}

type SafetyReport struct {
	ID           string       `json:"id"`
	ReportDate   time.Time    `json:"report_date"`
	ReporterID   *string      `json:"reporter_id,omitempty"`
	ReporterName string       `json:"reporter_name"`
	Category     string       `json:"category"`
	Description  string       `json:"description"`
	Severity     string       `json:"severity"`
	Status       string       `json:"status"`
	AdminReview  *AdminReview `json:"admin_review,omitempty"`
	AircraftID   *string      `json:"aircraft_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type RouteTarget struct {
	ID         string    `json:"id"`
	Route      string    `json:"route"`
	TargetTime float64   `json:"target_time"`
	AircraftID *string   `json:"aircraft_id,omitempty"`
	PilotID    *string   `json:"pilot_id,omitempty"`
	Month      *int      `json:"month,omitempty"`
	Year       *int      `json:"year,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Identity is what the server knows about the bearer of a request.
type Identity struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	PilotID string `json:"pilot_id,omitempty"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

type AdminCheck struct {
	IsAdmin bool `json:"is_admin"`
}

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	UpSince  time.Time                `json:"up_since"`
	Uptime   string                   `json:"uptime"`
}
