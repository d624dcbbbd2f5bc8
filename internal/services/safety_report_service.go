package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"
)

type SafetyReportStore interface {
	List(ctx context.Context, reporterID string, status constants.ReportStatus) ([]gormModels.SafetyReport, error)
	GetByID(ctx context.Context, id string) (*gormModels.SafetyReport, error)
	Create(ctx context.Context, report *gormModels.SafetyReport) error
	SetReview(ctx context.Context, id string, status constants.ReportStatus, review gormModels.RawJSON) (*gormModels.SafetyReport, error)
}

type SafetyReportService struct {
	reports   SafetyReportStore
	alerts    common.AlertQueue
	publisher ChangePublisher
	now       func() time.Time
}

// NewSafetyReportService wires the service. alerts may be nil when Redis is off.
func NewSafetyReportService(reports SafetyReportStore, alerts common.AlertQueue, publisher ChangePublisher) *SafetyReportService {
	return &SafetyReportService{
		reports:   reports,
		alerts:    alerts,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns every report to admins and only their own reports to pilots.
func (s *SafetyReportService) List(ctx context.Context, actor Actor, req dtos.ListSafetyReportsRequest) ([]dtos.SafetyReport, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	reporterID := ""
	if !actor.Privileged() {
		if actor.PilotID == "" {
			return []dtos.SafetyReport{}, nil
		}
		reporterID = actor.PilotID
	}

	reports, err := s.reports.List(ctx, reporterID, constants.ReportStatus(req.Status))
	if err != nil {
		return nil, storeError("safety reports", err)
	}

	out := make([]dtos.SafetyReport, 0, len(reports))
	for i := range reports {
		out = append(out, toSafetyReportDTO(&reports[i]))
	}
	return out, nil
}

// Create files a report. High and critical reports are also pushed to the
// alert stream; a failed push is logged and does not fail the request.
func (s *SafetyReportService) Create(ctx context.Context, actor Actor, req dtos.CreateSafetyReportRequest) (*dtos.SafetyReport, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	report := &gormModels.SafetyReport{
		ReportDate:   req.ReportDate,
		ReporterName: strings.TrimSpace(req.ReporterName),
		Category:     req.Category,
		Description:  req.Description,
		Severity:     constants.Severity(req.Severity),
		Status:       constants.ReportSubmitted,
		AircraftID:   req.AircraftID,
	}
	if actor.PilotID != "" {
		id := actor.PilotID
		report.ReporterID = &id
		if report.ReporterName == "" {
			report.ReporterName = actor.PilotName
		}
	}
	if report.ReporterID == nil && report.ReporterName == "" {
		return nil, Invalid("reporter_name is required when the caller has no pilot record")
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, storeError("safety report", err)
	}

	if report.Severity.Alertable() && s.alerts != nil {
		alert := &common.SafetyAlert{
			ReportID:     report.ID,
			Severity:     report.Severity.String(),
			Category:     report.Category,
			Description:  report.Description,
			ReporterName: report.ReporterName,
			AircraftID:   common.DerefString(report.AircraftID),
			ReportDate:   report.ReportDate,
		}
		if err := s.alerts.EnqueueAlert(ctx, alert); err != nil {
			logging.Error("Failed to enqueue safety alert", "report_id", report.ID, "error", err)
		}
	}

	dto := toSafetyReportDTO(report)
	publish(s.publisher, constants.TableSafetyReport, constants.ChangeInsert, dto, nil)
	return &dto, nil
}

// Review records an admin review and moves the report to the given status.
func (s *SafetyReportService) Review(ctx context.Context, actor Actor, req dtos.ReviewSafetyReportRequest) (*dtos.SafetyReport, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	before, err := s.reports.GetByID(ctx, req.ID)
	if err != nil {
		return nil, storeError("safety report", err)
	}

	reviewer := actor.PilotName
	if reviewer == "" {
		reviewer = "administrator"
	}
	blob, err := json.Marshal(dtos.AdminReview{
		Reviewer:   reviewer,
		ReviewedAt: s.now(),
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, newServiceError(constants.ErrCodeInternal, err)
	}

	after, err := s.reports.SetReview(ctx, req.ID, constants.ReportStatus(req.Status), blob)
	if err != nil {
		return nil, storeError("safety report", err)
	}

	dto := toSafetyReportDTO(after)
	publish(s.publisher, constants.TableSafetyReport, constants.ChangeUpdate, dto, toSafetyReportDTO(before))
	return &dto, nil
}
