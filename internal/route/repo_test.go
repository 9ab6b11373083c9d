package route

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Route{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestListSearch(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	seed := []*Route{
		{ID: uuid.NewString(), Name: "N3 Corridor", StartLocation: "Durban Port", EndLocation: "Johannesburg", IsActive: true},
		{ID: uuid.NewString(), Name: "Cape Route", StartLocation: "Cape Town", EndLocation: "Saldanha", IsActive: true},
		{ID: uuid.NewString(), Name: "Old N3", StartLocation: "Durban", EndLocation: "Pietermaritzburg", IsActive: false},
	}
	for _, rt := range seed {
		if err := repo.Create(context.Background(), rt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rts, total, err := repo.List(context.Background(), "Durban", false, 0, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(rts) != 2 {
		t.Fatalf("expected 2 Durban routes, got %d", total)
	}

	rts, total, err = repo.List(context.Background(), "Durban", true, 0, 20)
	if err != nil {
		t.Fatalf("List active: %v", err)
	}
	if total != 1 || rts[0].Name != "N3 Corridor" {
		t.Fatalf("expected only active Durban route, got %+v", rts)
	}
}

func TestActiveRouteExists(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	rt := &Route{ID: uuid.NewString(), Name: "R71", StartLocation: "Polokwane", EndLocation: "Tzaneen", IsActive: true}
	if err := repo.Create(context.Background(), rt); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := repo.ActiveRouteExists(context.Background(), rt.ID)
	if err != nil || !ok {
		t.Fatalf("expected active route, got %v %v", ok, err)
	}
	if err := repo.Deactivate(context.Background(), rt.ID, "admin"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	ok, err = repo.ActiveRouteExists(context.Background(), rt.ID)
	if err != nil {
		t.Fatalf("ActiveRouteExists: %v", err)
	}
	if ok {
		t.Fatalf("deactivated route must not count as active")
	}
}
