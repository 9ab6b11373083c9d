package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&Manufacturer{}, &VehicleType{}, &VehicleCategory{}, &Vehicle{},
		&ComponentType{}, &VehicleComponent{}, &ComponentDimension{},
		&AxleGroup{}, &Axle{}, &VehicleSpecification{}, &VehicleEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVehicle(t *testing.T, repo *Repo, vin string) *Vehicle {
	t.Helper()
	v := &Vehicle{
		ID: uuid.NewString(), VIN: vin, Name: "Test Rig",
		ManufacturerID: uuid.NewString(),
		LengthMm:       16000, WidthMm: 2500, HeightMm: 4000,
		IsActive: true,
	}
	if err := repo.Create(context.Background(), v); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

func TestVINUnique(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	seedVehicle(t, repo, "WDB9630341L123456")
	dup := &Vehicle{ID: uuid.NewString(), VIN: "WDB9630341L123456", Name: "Other", ManufacturerID: uuid.NewString()}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate VIN rejection, got %v", err)
	}
}

func TestFindWithCategory(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	cat := &VehicleCategory{ID: uuid.NewString(), Name: "Long Combination", MaxLengthMm: 22000, IsActive: true}
	if err := repo.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	v := seedVehicle(t, repo, "WDB9630341L000001")
	v.VehicleCategoryID = cat.ID
	if err := repo.Update(context.Background(), v); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindWithCategory(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("FindWithCategory: %v", err)
	}
	if got.Category == nil || got.Category.MaxLengthMm != 22000 {
		t.Fatalf("expected category preloaded, got %+v", got.Category)
	}
}

func TestComponentCountCountsActiveOnly(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	v := seedVehicle(t, repo, "WDB9630341L000002")

	for i, active := range []bool{true, true, false} {
		c := &VehicleComponent{
			ID: uuid.NewString(), VehicleID: v.ID, ComponentTypeID: uuid.NewString(),
			Position: i + 1, IsActive: active,
		}
		if err := repo.CreateComponent(context.Background(), c); err != nil {
			t.Fatalf("create component: %v", err)
		}
	}
	n, err := repo.ComponentCount(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("ComponentCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 active components, got %d", n)
	}
}

func TestUpsertComponentDimension(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	v := seedVehicle(t, repo, "WDB9630341L000003")
	c := &VehicleComponent{ID: uuid.NewString(), VehicleID: v.ID, ComponentTypeID: uuid.NewString(), IsActive: true}
	if err := repo.CreateComponent(context.Background(), c); err != nil {
		t.Fatalf("create component: %v", err)
	}

	d := &ComponentDimension{ID: uuid.NewString(), ComponentID: c.ID, LengthMm: 13600, WidthMm: 2550, HeightMm: 2800}
	if err := repo.UpsertComponentDimension(context.Background(), d); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	d2 := &ComponentDimension{ID: uuid.NewString(), ComponentID: c.ID, LengthMm: 13700, WidthMm: 2550, HeightMm: 2800}
	if err := repo.UpsertComponentDimension(context.Background(), d2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetComponentDimension(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetComponentDimension: %v", err)
	}
	if got.ID != d.ID || got.LengthMm != 13700 {
		t.Fatalf("expected updated row to keep first id, got %+v", got)
	}
}

func TestDeactivate(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	v := seedVehicle(t, repo, "WDB9630341L000004")
	if err := repo.Deactivate(context.Background(), v.ID, "admin-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, err := repo.GetByID(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsActive {
		t.Fatalf("expected vehicle inactive")
	}
	if got.UpdatedBy != "admin-1" {
		t.Fatalf("expected actor recorded, got %s", got.UpdatedBy)
	}
	if err := repo.Deactivate(context.Background(), uuid.NewString(), "admin-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEventTimeline(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	v := seedVehicle(t, repo, "WDB9630341L000006")

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	events := []struct {
		et   EventType
		date time.Time
	}{
		{EventVehicleRegistered, base},
		{EventInspectionCompleted, base.AddDate(0, 1, 0)},
		{EventPermitApplied, base.AddDate(0, 2, 0)},
	}
	for i, e := range events {
		ev := &VehicleEvent{
			ID: uuid.NewString(), VehicleID: v.ID, EventType: e.et,
			Description: "event " + string(rune('a'+i)), EventDate: e.date,
		}
		if err := repo.CreateEvent(context.Background(), ev); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	es, err := repo.ListEvents(context.Background(), v.ID, "", nil, nil)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(es) != 3 {
		t.Fatalf("expected 3 events, got %d", len(es))
	}
	if es[0].EventType != EventPermitApplied || es[2].EventType != EventVehicleRegistered {
		t.Fatalf("expected newest first, got %v then %v", es[0].EventType, es[2].EventType)
	}

	es, err = repo.ListEvents(context.Background(), v.ID, EventInspectionCompleted, nil, nil)
	if err != nil {
		t.Fatalf("ListEvents by type: %v", err)
	}
	if len(es) != 1 || es[0].EventType != EventInspectionCompleted {
		t.Fatalf("expected the inspection event, got %+v", es)
	}

	from := base.AddDate(0, 0, 15)
	to := base.AddDate(0, 1, 15)
	es, err = repo.ListEvents(context.Background(), v.ID, "", &from, &to)
	if err != nil {
		t.Fatalf("ListEvents by window: %v", err)
	}
	if len(es) != 1 || es[0].EventType != EventInspectionCompleted {
		t.Fatalf("expected one event inside the window, got %+v", es)
	}
}

func TestParseEventType(t *testing.T) {
	if _, ok := ParseEventType("permit_approved"); !ok {
		t.Fatal("permit_approved should parse")
	}
	if _, ok := ParseEventType("teleported"); ok {
		t.Fatal("unknown event type should not parse")
	}
}

func TestSpecificationOnePerKind(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	v := seedVehicle(t, repo, "WDB9630341L000005")

	s := &VehicleSpecification{ID: uuid.NewString(), VehicleID: v.ID, Kind: SpecKindTruck, EngineType: "diesel V8", PowerKw: 460}
	if err := repo.UpsertSpecification(context.Background(), s); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	s2 := &VehicleSpecification{ID: uuid.NewString(), VehicleID: v.ID, Kind: SpecKindTruck, EngineType: "diesel V8", PowerKw: 500}
	if err := repo.UpsertSpecification(context.Background(), s2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	s3 := &VehicleSpecification{ID: uuid.NewString(), VehicleID: v.ID, Kind: SpecKindCrane, CraneType: "lattice boom"}
	if err := repo.UpsertSpecification(context.Background(), s3); err != nil {
		t.Fatalf("crane upsert: %v", err)
	}

	ss, err := repo.ListSpecifications(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("ListSpecifications: %v", err)
	}
	if len(ss) != 2 {
		t.Fatalf("expected one spec per kind, got %d", len(ss))
	}
}
