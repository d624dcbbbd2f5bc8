package services

import (
	"encoding/json"

	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"
	"infinite-experiment/hangar/internal/stats"
)

func toPilotDTO(p *gormModels.Pilot) dtos.Pilot {
	return dtos.Pilot{
		ID:         p.ID,
		AuthUserID: p.AuthUserID,
		Name:       p.Name,
		Email:      p.Email,
		IsAdmin:    p.IsAdmin,
		IsHidden:   p.IsHidden,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toFlightDTO(f *gormModels.Flight, pilotName string) dtos.Flight {
	return dtos.Flight{
		ID:         f.ID,
		AircraftID: f.AircraftID,
		PilotID:    f.PilotID,
		PilotName:  pilotName,
		Date:       f.Date,
		TachStart:  f.TachStart,
		TachEnd:    f.TachEnd,
		HobbsTime:  f.HobbsTime,
		FuelAdded:  f.FuelAdded,
		OilAdded:   f.OilAdded,
		Passengers: f.Passengers,
		Route:      f.Route,
		Squawks:    f.Squawks,
		Notes:      f.Notes,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func toAircraftDTO(a *gormModels.Aircraft) dtos.Aircraft {
	return dtos.Aircraft{
		ID:            a.ID,
		TailNumber:    a.TailNumber,
		Make:          a.Make,
		Model:         a.Model,
		Year:          a.Year,
		TachTime:      a.TachTime,
		OilChangeDate: a.OilChangeDate,
		LastAnnual:    a.LastAnnual,
		Owner:         a.Owner,
		LastFlightID:  a.LastFlightID,
	}
}

func toSafetyReportDTO(r *gormModels.SafetyReport) dtos.SafetyReport {
	return dtos.SafetyReport{
		ID:           r.ID,
		ReportDate:   r.ReportDate,
		ReporterID:   r.ReporterID,
		ReporterName: r.ReporterName,
		Category:     r.Category,
		Description:  r.Description,
		Severity:     r.Severity.String(),
		Status:       r.Status.String(),
		AdminReview:  ParseAdminReview(r.ID, r.AdminReview),
		AircraftID:   r.AircraftID,
		CreatedAt:    r.CreatedAt,
	}
}

func toRouteTargetDTO(t *gormModels.RouteTargetTime) dtos.RouteTarget {
	return dtos.RouteTarget{
		ID:         t.ID,
		Route:      t.Route,
		TargetTime: t.TargetTime,
		AircraftID: t.AircraftID,
		PilotID:    t.PilotID,
		Month:      t.Month,
		Year:       t.Year,
		UpdatedAt:  t.UpdatedAt,
	}
}

func toStatsTarget(t *gormModels.RouteTargetTime) stats.Target {
	return stats.Target{
		ID:         t.ID,
		Route:      t.Route,
		TargetTime: t.TargetTime,
		AircraftID: t.AircraftID,
		PilotID:    t.PilotID,
		Month:      t.Month,
		Year:       t.Year,
		UpdatedAt:  t.UpdatedAt,
	}
}

// ParseAdminReview validates the stored review blob once. Anything that does
// not decode into a complete review is treated as no review.
func ParseAdminReview(reportID string, raw gormModels.RawJSON) *dtos.AdminReview {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var review dtos.AdminReview
	if err := json.Unmarshal(raw, &review); err != nil {
		logging.Warn("Ignoring malformed admin review", "report_id", reportID, "error", err)
		return nil
	}
	if err := validate.Struct(review); err != nil {
		logging.Warn("Ignoring incomplete admin review", "report_id", reportID, "error", err)
		return nil
	}
	return &review
}
