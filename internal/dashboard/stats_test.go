package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MpMogale/AVPermitSystemV2/internal/owner"
	"github.com/MpMogale/AVPermitSystemV2/internal/permit"
	"github.com/MpMogale/AVPermitSystemV2/internal/route"
	"github.com/MpMogale/AVPermitSystemV2/internal/vehicle"
)

func TestCollect(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&vehicle.Vehicle{}, &owner.Owner{}, &route.Route{}, &permit.PermitType{}, &permit.Permit{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

	for _, active := range []bool{true, true, false} {
		v := &vehicle.Vehicle{ID: uuid.NewString(), VIN: uuid.NewString()[:17], Name: "V", ManufacturerID: uuid.NewString(), IsActive: active}
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed vehicle: %v", err)
		}
	}
	if err := db.Create(&owner.Owner{ID: uuid.NewString(), OwnerType: owner.TypeCompany, Name: "Haulage Co", IsActive: true}).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	seedPermit := func(status permit.Status, validTo time.Time) {
		p := &permit.Permit{
			ID: uuid.NewString(), PermitNumber: "STD2025" + uuid.NewString()[:6],
			VehicleID: uuid.NewString(), PermitTypeID: uuid.NewString(),
			Status: status, ApplicationDate: now,
			ValidFromDate: now.Add(-24 * time.Hour), ValidToDate: validTo,
			Version: 1,
		}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seed permit: %v", err)
		}
	}
	seedPermit(permit.StatusDraft, now.Add(60*24*time.Hour))
	seedPermit(permit.StatusApproved, now.Add(10*24*time.Hour))  // 即将到期
	seedPermit(permit.StatusApproved, now.Add(120*24*time.Hour)) // 窗口外
	seedPermit(permit.StatusCancelled, now.Add(5*24*time.Hour))

	s, err := NewRepo(db).Collect(context.Background(), now, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if s.TotalVehicles != 3 || s.ActiveVehicles != 2 {
		t.Fatalf("vehicle counts wrong: %+v", s)
	}
	if s.TotalOwners != 1 {
		t.Fatalf("owner count wrong: %d", s.TotalOwners)
	}
	if s.TotalPermits != 4 {
		t.Fatalf("permit count wrong: %d", s.TotalPermits)
	}
	if s.PermitsByStatus["approved"] != 2 || s.PermitsByStatus["draft"] != 1 || s.PermitsByStatus["cancelled"] != 1 {
		t.Fatalf("status breakdown wrong: %v", s.PermitsByStatus)
	}
	if s.ExpiringSoon != 1 {
		t.Fatalf("expected 1 permit expiring soon, got %d", s.ExpiringSoon)
	}
}
