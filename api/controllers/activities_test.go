package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cupshup/ops-backend/internal/activities"
	"github.com/cupshup/ops-backend/internal/mappings"
	"github.com/cupshup/ops-backend/internal/vendors"
	"github.com/cupshup/ops-backend/pkg/auth"
	"github.com/cupshup/ops-backend/pkg/db/models"
	pkgerrors "github.com/cupshup/ops-backend/pkg/errors"
	"github.com/cupshup/ops-backend/pkg/pagination"
)

type stubActivities struct {
	createFn func(ctx context.Context, actor auth.Actor, input activities.CreateInput) (*models.Activity, error)
	getFn    func(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Activity, error)
	listFn   func(ctx context.Context, actor auth.Actor, params activities.ListParams) (*activities.ListResult, error)
}

func (s *stubActivities) CreateActivity(ctx context.Context, actor auth.Actor, input activities.CreateInput) (*models.Activity, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubActivities) GetActivity(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Activity, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubActivities) ListActivities(ctx context.Context, actor auth.Actor, params activities.ListParams) (*activities.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, params)
	}
	return &activities.ListResult{Items: []activities.Item{}}, nil
}

type stubVendors struct {
	createFn func(ctx context.Context, actor auth.Actor, input vendors.CreateInput) (*models.Vendor, error)
}

func (s *stubVendors) CreateVendor(ctx context.Context, actor auth.Actor, input vendors.CreateInput) (*models.Vendor, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubVendors) GetVendor(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Vendor, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
}

func (s *stubVendors) ListVendors(ctx context.Context, actor auth.Actor, params pagination.Params) (*vendors.ListResult, error) {
	return &vendors.ListResult{Items: []vendors.Item{}}, nil
}

type stubMappings struct {
	assignFn func(ctx context.Context, actor auth.Actor, activityID uuid.UUID, input mappings.AssignInput) (*models.ActivityMapping, error)
	items    []mappings.Item
}

func (s *stubMappings) AssignVendor(ctx context.Context, actor auth.Actor, activityID uuid.UUID, input mappings.AssignInput) (*models.ActivityMapping, error) {
	return s.assignFn(ctx, actor, activityID, input)
}

func (s *stubMappings) ListMappings(ctx context.Context, actor auth.Actor, activityID uuid.UUID) ([]mappings.Item, error) {
	return s.items, nil
}

func TestActivityCreateSuccess(t *testing.T) {
	clientID := uuid.New()
	var got activities.CreateInput
	svc := &stubActivities{createFn: func(ctx context.Context, actor auth.Actor, input activities.CreateInput) (*models.Activity, error) {
		got = input
		return &models.Activity{
			ID:        uuid.New(),
			ClientID:  input.ClientID,
			Brand:     input.Brand,
			City:      input.City,
			Location:  input.Location,
			StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			CreatedBy: actor.UserID,
		}, nil
	}}

	body := `{"client_id":"` + clientID.String() + `","brand":"Blue Tokai","city":"Pune","location":"Phoenix Mall","start_date":"2026-03-01","end_date":"2026-03-05"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/activities", strings.NewReader(body)), staffActor())
	resp := httptest.NewRecorder()
	ActivityCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.ClientID == nil || *got.ClientID != clientID {
		t.Fatalf("client id not forwarded: %+v", got)
	}
	var item activities.Item
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.StartDate != "2026-03-01" || item.EndDate != "2026-03-05" {
		t.Fatalf("unexpected dates %s %s", item.StartDate, item.EndDate)
	}
}

func TestActivityCreateValidation(t *testing.T) {
	svc := &stubActivities{}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/activities", strings.NewReader(`{"brand":"x"}`)), staffActor())
	resp := httptest.NewRecorder()
	ActivityCreate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestActivityListForwardsFilters(t *testing.T) {
	var got activities.ListParams
	svc := &stubActivities{listFn: func(ctx context.Context, actor auth.Actor, params activities.ListParams) (*activities.ListResult, error) {
		got = params
		return &activities.ListResult{Items: []activities.Item{}}, nil
	}}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/activities?city=%20Pune%20&limit=5&cursor=abc", nil), staffActor())
	resp := httptest.NewRecorder()
	ActivityList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.City != "Pune" || got.Limit != 5 || got.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", got)
	}
}

func TestActivityDetailInvalidID(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/activities/bad", nil), staffActor())
	req = addRouteParam(req, "activityId", "bad")
	resp := httptest.NewRecorder()
	ActivityDetail(&stubActivities{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestActivityDetailNotFound(t *testing.T) {
	id := uuid.New()
	svc := &stubActivities{getFn: func(ctx context.Context, actor auth.Actor, got uuid.UUID) (*models.Activity, error) {
		if got != id {
			t.Fatalf("unexpected id %s", got)
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "activity not found")
	}}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/activities/"+id.String(), nil), staffActor())
	req = addRouteParam(req, "activityId", id.String())
	resp := httptest.NewRecorder()
	ActivityDetail(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestVendorCreate(t *testing.T) {
	svc := &stubVendors{createFn: func(ctx context.Context, actor auth.Actor, input vendors.CreateInput) (*models.Vendor, error) {
		if input.Email != "crew@acme.in" {
			t.Fatalf("unexpected email %q", input.Email)
		}
		return &models.Vendor{ID: uuid.New(), Name: input.Name, Email: input.Email}, nil
	}}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/vendors", strings.NewReader(`{"name":"Acme Crew","email":"crew@acme.in"}`)), staffActor())
	resp := httptest.NewRecorder()
	VendorCreate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	req = withActor(httptest.NewRequest(http.MethodPost, "/api/v1/vendors", strings.NewReader(`{"name":"Acme Crew","email":"nope"}`)), staffActor())
	resp = httptest.NewRecorder()
	VendorCreate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMappingCreateConflict(t *testing.T) {
	activityID := uuid.New()
	vendorID := uuid.New()
	svc := &stubMappings{assignFn: func(ctx context.Context, actor auth.Actor, gotActivity uuid.UUID, input mappings.AssignInput) (*models.ActivityMapping, error) {
		if gotActivity != activityID || input.VendorID != vendorID {
			t.Fatalf("unexpected ids %s %s", gotActivity, input.VendorID)
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "vendor already assigned to this activity")
	}}
	body := `{"vendor_id":"` + vendorID.String() + `","message":"Bring the tent"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), staffActor())
	req = addRouteParam(req, "activityId", activityID.String())
	resp := httptest.NewRecorder()
	MappingCreate(svc, testLogger())(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestMappingList(t *testing.T) {
	activityID := uuid.New()
	svc := &stubMappings{items: []mappings.Item{{ID: uuid.New(), ActivityID: activityID, VendorName: "Acme"}}}
	req := withActor(httptest.NewRequest(http.MethodGet, "/", nil), staffActor())
	req = addRouteParam(req, "activityId", activityID.String())
	resp := httptest.NewRecorder()
	MappingList(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var data struct {
		Items []mappings.Item `json:"items"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, resp).Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Items) != 1 || data.Items[0].VendorName != "Acme" {
		t.Fatalf("unexpected items %+v", data.Items)
	}
}
