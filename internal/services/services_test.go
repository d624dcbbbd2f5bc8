package services

import (
	"context"
	"testing"
	"time"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/db/repositories"
	gormModels "infinite-experiment/hangar/internal/models/gorm"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Setup test database
func setupTestDB(t *testing.T) (*gorm.DB, *sqlx.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db, sqlx.NewDb(sqlDB, "sqlite3")
}

// testStack wires every service against one SQLite database.
type testStack struct {
	db       *gorm.DB
	pilots   *repositories.PilotRepository
	admin    *AdminService
	pilotSvc *PilotService
	flights  *FlightService
	reports  *SafetyReportService
	targets  *RouteTargetService
	aircraft *AircraftService
}

func newTestStack(t *testing.T, publisher ChangePublisher, alerts common.AlertQueue) *testStack {
	db, sx := setupTestDB(t)

	pilotRepo := repositories.NewPilotRepository(db)
	flightRepo := repositories.NewFlightRepository(db)
	aircraftRepo := repositories.NewAircraftRepository(sx)
	admin := NewAdminService(pilotRepo, common.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)

	return &testStack{
		db:       db,
		pilots:   pilotRepo,
		admin:    admin,
		pilotSvc: NewPilotService(pilotRepo, admin, publisher),
		flights:  NewFlightService(flightRepo, pilotRepo, aircraftRepo, publisher, nil),
		reports:  NewSafetyReportService(repositories.NewSafetyReportRepository(db), alerts, publisher),
		targets:  NewRouteTargetService(repositories.NewRouteTargetRepository(db), flightRepo, publisher),
		aircraft: NewAircraftService(aircraftRepo),
	}
}

func (s *testStack) seedPilot(t *testing.T, name, authUserID string, isAdmin bool) *gormModels.Pilot {
	t.Helper()
	p := &gormModels.Pilot{Name: name, Email: name + "@example.com", IsAdmin: isAdmin}
	if authUserID != "" {
		p.AuthUserID = &authUserID
	}
	if err := s.pilots.Create(context.Background(), p); err != nil {
		t.Fatalf("seed pilot: %v", err)
	}
	return p
}

func (s *testStack) seedAircraft(t *testing.T, tail string, tach float64) *gormModels.Aircraft {
	t.Helper()
	a := &gormModels.Aircraft{TailNumber: tail, Make: "Cessna", Model: "172", TachTime: tach}
	if err := s.db.Create(a).Error; err != nil {
		t.Fatalf("seed aircraft: %v", err)
	}
	return a
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
