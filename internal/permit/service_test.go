package permit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MpMogale/AVPermitSystemV2/internal/owner"
	"github.com/MpMogale/AVPermitSystemV2/internal/vehicle"
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
		&vehicle.VehicleCategory{},
		&vehicle.Vehicle{},
		&vehicle.VehicleComponent{},
		&owner.Owner{},
		&owner.VehicleOwnership{},
		&PermitType{},
		&Permit{},
		&PermitConstraint{},
		&PermitRoute{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	repo    *Repo
	veh     *vehicle.Vehicle
	stdType *PermitType
	abnType *PermitType
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)

	cat := &vehicle.VehicleCategory{
		ID: uuid.NewString(), Name: "Heavy Combination",
		MaxLengthMm: 22000, MaxWidthMm: 2600, MaxHeightMm: 4300,
		IsActive: true,
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	veh := &vehicle.Vehicle{
		ID: uuid.NewString(), VIN: "1HGBH41JXMN109186", Name: "Rig 7",
		ManufacturerID: uuid.NewString(), VehicleCategoryID: cat.ID,
		LengthMm: 18000, WidthMm: 2500, HeightMm: 4000,
		IsActive: true,
	}
	if err := db.Create(veh).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	if err := db.Create(&vehicle.VehicleComponent{
		ID: uuid.NewString(), VehicleID: veh.ID, ComponentTypeID: uuid.NewString(),
		Position: 1, IsActive: true,
	}).Error; err != nil {
		t.Fatalf("seed component: %v", err)
	}
	if err := db.Create(&owner.VehicleOwnership{
		ID: uuid.NewString(), VehicleID: veh.ID, OwnerID: uuid.NewString(),
		StartDate: testNow.Add(-365 * 24 * time.Hour), IsPrimaryOwner: true,
	}).Error; err != nil {
		t.Fatalf("seed ownership: %v", err)
	}

	repo := NewRepo(db)
	stdType := &PermitType{ID: uuid.NewString(), Name: "Standard", Code: "STD", FeeCents: 150_00, ValidityDays: 30, IsActive: true}
	abnType := &PermitType{ID: uuid.NewString(), Name: "Abnormal Load", Code: AbnormalLoadCode, FeeCents: 450_00, ValidityDays: 14, IsActive: true}
	for _, pt := range []*PermitType{stdType, abnType} {
		if err := repo.CreateType(context.Background(), pt); err != nil {
			t.Fatalf("seed permit type: %v", err)
		}
	}

	validator := NewValidator(vehicle.NewRepo(db), owner.NewRepo(db), repo, repo)
	validator.nowFn = func() time.Time { return testNow }
	svc := NewService(repo, validator)
	svc.nowFn = func() time.Time { return testNow }

	return &fixture{db: db, svc: svc, repo: repo, veh: veh, stdType: stdType, abnType: abnType}
}

func (f *fixture) createInput() CreatePermitInput {
	return CreatePermitInput{
		VehicleID:     f.veh.ID,
		PermitTypeID:  f.stdType.ID,
		ValidFromDate: testNow.Add(24 * time.Hour),
		ValidToDate:   testNow.Add(30 * 24 * time.Hour),
		Purpose:       "wind turbine blade transport",
	}
}

func TestCreatePermit(t *testing.T) {
	f := setup(t)
	p, res, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}
	if p.PermitNumber != "STD2025000001" {
		t.Fatalf("expected STD2025000001, got %s", p.PermitNumber)
	}
	if p.Status != StatusDraft {
		t.Fatalf("expected draft status, got %s", p.Status)
	}
	if p.Version != 1 {
		t.Fatalf("expected version 1, got %d", p.Version)
	}
	if p.FeeCents != f.stdType.FeeCents {
		t.Fatalf("expected fee copied from type, got %d", p.FeeCents)
	}
	if p.CreatedBy != "clerk-1" || p.UpdatedBy != "clerk-1" {
		t.Fatalf("expected actor recorded, got %s/%s", p.CreatedBy, p.UpdatedBy)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	p2, _, err := f.svc.CreatePermit(context.Background(), CreatePermitInput{
		VehicleID:     f.veh.ID,
		PermitTypeID:  f.abnType.ID,
		ValidFromDate: testNow.Add(24 * time.Hour),
		ValidToDate:   testNow.Add(14 * 24 * time.Hour),
	}, "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit abn: %v", err)
	}
	if p2.PermitNumber != "ABN2025000001" {
		t.Fatalf("expected per-type sequence, got %s", p2.PermitNumber)
	}
}

func TestCreatePermitSequenceAdvances(t *testing.T) {
	f := setup(t)
	in := f.createInput()
	first, _, err := f.svc.CreatePermit(context.Background(), in, "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}
	// 同窗口的第二张会撞重叠校验，取消第一张再申请
	if _, err := f.svc.UpdateStatus(context.Background(), first.ID, StatusCancelled, "", "clerk-1"); err != nil {
		t.Fatalf("cancel first: %v", err)
	}
	second, _, err := f.svc.CreatePermit(context.Background(), in, "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit second: %v", err)
	}
	if second.PermitNumber != "STD2025000002" {
		t.Fatalf("expected STD2025000002, got %s", second.PermitNumber)
	}
}

func TestCreatePermitValidationFailure(t *testing.T) {
	f := setup(t)
	in := f.createInput()
	in.ValidFromDate = testNow.Add(-72 * time.Hour)
	_, res, err := f.svc.CreatePermit(context.Background(), in, "clerk-1")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if res == nil || res.IsValid() {
		t.Fatalf("expected invalid result")
	}
	var n int64
	if err := f.db.Model(&Permit{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("no permit should be persisted on validation failure, found %d", n)
	}
}

func TestCreatePermitOverlapRejected(t *testing.T) {
	f := setup(t)
	if _, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1"); err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}
	// 窗口部分重叠
	in := f.createInput()
	in.ValidFromDate = testNow.Add(15 * 24 * time.Hour)
	in.ValidToDate = testNow.Add(45 * 24 * time.Hour)
	_, res, err := f.svc.CreatePermit(context.Background(), in, "clerk-1")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected overlap rejection, got %v", err)
	}
	if !hasMsg(res.Errors, "active or pending permit of this type") {
		t.Fatalf("expected overlap error, got: %v", res.Errors)
	}

	// 紧接其后的窗口不算重叠
	in.ValidFromDate = testNow.Add(31 * 24 * time.Hour)
	in.ValidToDate = testNow.Add(60 * 24 * time.Hour)
	if _, _, err := f.svc.CreatePermit(context.Background(), in, "clerk-1"); err != nil {
		t.Fatalf("adjacent window should be allowed: %v", err)
	}
}

func TestUpdateStatusFullLifecycle(t *testing.T) {
	f := setup(t)
	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}

	for _, to := range []Status{StatusSubmitted, StatusUnderReview, StatusApproved, StatusExpired} {
		p, err = f.svc.UpdateStatus(context.Background(), p.ID, to, "", "reviewer-9")
		if err != nil {
			t.Fatalf("UpdateStatus -> %s: %v", to, err)
		}
		if p.Status != to {
			t.Fatalf("expected %s, got %s", to, p.Status)
		}
	}
	if p.ApprovalDate == nil || !p.ApprovalDate.Equal(testNow) {
		t.Fatalf("expected approval date %v, got %v", testNow, p.ApprovalDate)
	}
	if p.UpdatedBy != "reviewer-9" {
		t.Fatalf("expected actor recorded, got %s", p.UpdatedBy)
	}
	if p.Version != 5 {
		t.Fatalf("expected version bumped per transition, got %d", p.Version)
	}

	// 终态不可再流转
	if _, err := f.svc.UpdateStatus(context.Background(), p.ID, StatusDraft, "", "reviewer-9"); err == nil {
		t.Fatalf("expected terminal state to reject transitions")
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	f := setup(t)
	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}
	_, err = f.svc.UpdateStatus(context.Background(), p.ID, StatusApproved, "", "clerk-1")
	var terr *InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	got, err := f.repo.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusDraft || got.Version != 1 {
		t.Fatalf("permit must be untouched after illegal transition: %s v%d", got.Status, got.Version)
	}
}

func TestUpdateStatusConcurrentModification(t *testing.T) {
	f := setup(t)
	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}

	stale, err := f.repo.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// 另一请求先一步提交
	if _, err := f.svc.UpdateStatus(context.Background(), p.ID, StatusSubmitted, "", "clerk-2"); err != nil {
		t.Fatalf("first UpdateStatus: %v", err)
	}

	if err := ApplyTransition(stale, StatusCancelled, "", "clerk-1", testNow); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	err = f.repo.UpdateWithVersion(context.Background(), stale, 1)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestDeletePermitDraftOnly(t *testing.T) {
	f := setup(t)
	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), p.ID, StatusSubmitted, "", "clerk-1"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := f.svc.DeletePermit(context.Background(), p.ID); err == nil {
		t.Fatalf("expected deletion of submitted permit to fail")
	}

	// 退回草稿后才可删
	if _, err := f.svc.UpdateStatus(context.Background(), p.ID, StatusCancelled, "", "clerk-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	in := f.createInput()
	draft, _, err := f.svc.CreatePermit(context.Background(), in, "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit draft: %v", err)
	}
	if err := f.svc.DeletePermit(context.Background(), draft.ID); err != nil {
		t.Fatalf("DeletePermit draft: %v", err)
	}
	if _, err := f.repo.GetByID(context.Background(), draft.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestDeletePermitNotFound(t *testing.T) {
	f := setup(t)
	err := f.svc.DeletePermit(context.Background(), uuid.NewString())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestPermitNumberUniqueIndexBackstop(t *testing.T) {
	f := setup(t)
	p := &Permit{
		ID: uuid.NewString(), PermitNumber: "STD2025000001",
		VehicleID: f.veh.ID, PermitTypeID: f.stdType.ID,
		Status: StatusDraft, ApplicationDate: testNow,
		ValidFromDate: testNow, ValidToDate: testNow.Add(24 * time.Hour),
		Version: 1,
	}
	if err := f.repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := *p
	dup.ID = uuid.NewString()
	err := f.repo.Create(context.Background(), &dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey from unique index, got %v", err)
	}
}
