package permit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/server"
)

type allowAllRoutes struct{}

func (allowAllRoutes) ActiveRouteExists(context.Context, string) (bool, error) {
	return true, nil
}

func newTestRouter(t *testing.T, f *fixture) chi.Router {
	t.Helper()
	log, err := logger.NewLogger("error", "text", "stdout", "")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h := NewHandler(f.svc, f.repo, allowAllRoutes{}, log)
	r := chi.NewRouter()
	r.Route("/api", h.Register)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(server.WithActor(req.Context(), "api-tester"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHTTPCreatePermit(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	rec := doJSON(t, r, http.MethodPost, "/api/permits", map[string]interface{}{
		"vehicle_id":      f.veh.ID,
		"permit_type_id":  f.stdType.ID,
		"valid_from_date": testNow.Add(24 * time.Hour),
		"valid_to_date":   testNow.Add(30 * 24 * time.Hour),
		"purpose":         "transformer haul",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createPermitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Permit.PermitNumber != "STD2025000001" {
		t.Fatalf("unexpected number %s", resp.Permit.PermitNumber)
	}
	if resp.Permit.CreatedBy != "api-tester" {
		t.Fatalf("expected actor from context, got %s", resp.Permit.CreatedBy)
	}
}

func TestHTTPCreatePermitValidationFailed(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	rec := doJSON(t, r, http.MethodPost, "/api/permits", map[string]interface{}{
		"vehicle_id":      f.veh.ID,
		"permit_type_id":  f.stdType.ID,
		"valid_from_date": testNow.Add(-96 * time.Hour),
		"valid_to_date":   testNow.Add(-120 * time.Hour),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp server.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) < 2 {
		t.Fatalf("expected all validation errors returned at once, got: %v", resp.Errors)
	}
}

func TestHTTPValidateEndpoint(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	rec := doJSON(t, r, http.MethodPost, "/api/permits/validate", map[string]interface{}{
		"vehicle_id":      f.veh.ID,
		"permit_type_id":  f.stdType.ID,
		"valid_from_date": testNow.Add(24 * time.Hour),
		"valid_to_date":   testNow.Add(10 * 24 * time.Hour),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		IsValid bool `json:"is_valid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsValid {
		t.Fatalf("expected valid preflight: %s", rec.Body.String())
	}

	var n int64
	if err := f.db.Model(&Permit{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("validate endpoint must not persist, found %d permits", n)
	}
}

func TestHTTPStatusTransitions(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}

	rec := doJSON(t, r, http.MethodPatch, "/api/permits/"+p.ID+"/status", map[string]interface{}{
		"status": "submitted",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// 非法流转
	rec = doJSON(t, r, http.MethodPatch, "/api/permits/"+p.ID+"/status", map[string]interface{}{
		"status": "approved",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for illegal transition, got %d", rec.Code)
	}

	// 未知状态值
	rec = doJSON(t, r, http.MethodPatch, "/api/permits/"+p.ID+"/status", map[string]interface{}{
		"status": "vaporized",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	// 不存在的许可
	rec = doJSON(t, r, http.MethodPatch, "/api/permits/nope/status", map[string]interface{}{
		"status": "submitted",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHTTPGetListDelete(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/permits/"+p.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/permits/missing-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/permits?vehicle_id=%s&status=draft", f.veh.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list struct {
		Items []Permit `json:"items"`
		Total int64    `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("expected one draft permit, got %+v", list)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/permits?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status filter, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/permits/"+p.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodDelete, "/api/permits/"+p.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestHTTPPermitTypes(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	rec := doJSON(t, r, http.MethodPost, "/api/permits/types", map[string]interface{}{
		"name":          "Annual",
		"code":          "ANN",
		"fee_cents":     99900,
		"validity_days": 365,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created PermitType
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.CreatedBy != "api-tester" || created.UpdatedBy != "api-tester" {
		t.Fatalf("expected actor recorded on permit type, got created_by=%q updated_by=%q",
			created.CreatedBy, created.UpdatedBy)
	}

	// code 唯一
	rec = doJSON(t, r, http.MethodPost, "/api/permits/types", map[string]interface{}{
		"name": "Annual Again",
		"code": "ANN",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate code, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/permits/types", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var ts []PermitType
	if err := json.Unmarshal(rec.Body.Bytes(), &ts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ts) != 3 {
		t.Fatalf("expected 3 types, got %d", len(ts))
	}
}

func TestHTTPConstraintsAndRoutes(t *testing.T) {
	f := setup(t)
	r := newTestRouter(t, f)

	p, _, err := f.svc.CreatePermit(context.Background(), f.createInput(), "clerk-1")
	if err != nil {
		t.Fatalf("CreatePermit: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/api/permits/"+p.ID+"/constraints", map[string]interface{}{
		"constraint_type": "escort_vehicle",
		"value":           "2",
		"description":     "front and rear escort required",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var c PermitConstraint
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/permits/"+p.ID+"/constraints", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/permits/"+p.ID+"/constraints/"+c.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	routeID := "route-1"
	rec = doJSON(t, r, http.MethodPost, "/api/permits/"+p.ID+"/routes", map[string]interface{}{
		"route_id": routeID,
		"sequence": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	// 同一许可同一序号不可重复
	rec = doJSON(t, r, http.MethodPost, "/api/permits/"+p.ID+"/routes", map[string]interface{}{
		"route_id": "route-2",
		"sequence": 1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate sequence, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/routes/"+routeID+"/permits", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var byRoute []Permit
	if err := json.Unmarshal(rec.Body.Bytes(), &byRoute); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(byRoute) != 1 || byRoute[0].ID != p.ID {
		t.Fatalf("expected the attached permit for %s, got %+v", routeID, byRoute)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/permits/"+p.ID+"/routes/"+routeID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/routes/"+routeID+"/permits", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	byRoute = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &byRoute); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(byRoute) != 0 {
		t.Fatalf("expected no permits after detach, got %+v", byRoute)
	}
}
