package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/cupshup/ops-backend/api/controllers"
	"github.com/cupshup/ops-backend/internal/activities"
	"github.com/cupshup/ops-backend/internal/dashboard"
	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/export"
	"github.com/cupshup/ops-backend/internal/mappings"
	"github.com/cupshup/ops-backend/internal/tasks"
	"github.com/cupshup/ops-backend/internal/vendors"
	"github.com/cupshup/ops-backend/pkg/auth"
	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/db/dbtest"
	"github.com/cupshup/ops-backend/pkg/enums"
	"github.com/cupshup/ops-backend/pkg/logger"
	"github.com/cupshup/ops-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memoryBucket) UploadBlob(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memoryBucket) PublicURL(key string) string {
	return "https://storage.googleapis.com/order_images/" + key
}

type stubOCR struct{ text string }

func (s stubOCR) InvokeOCR(ctx context.Context, imageURL string) (*evidence.OCRResult, error) {
	return &evidence.OCRResult{DetectedText: s.text}, nil
}

type testServer struct {
	handler http.Handler
	cfg     *config.Config
	bucket  *memoryBucket
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := &config.Config{
		App:      config.AppConfig{Env: "dev"},
		JWT:      config.JWTConfig{Secret: "secret", Audience: "authenticated"},
		Evidence: config.EvidenceConfig{MaxUploadMB: 1},
	}
	reg := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(reg)

	activitiesRepo := activities.NewRepository(db)
	vendorsRepo := vendors.NewRepository(db)
	mappingsRepo := mappings.NewRepository(db)
	tasksRepo := tasks.NewRepository(db)

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(db), nil, 0, logg)
	require.NoError(t, err)
	activitiesService, err := activities.NewService(activitiesRepo, dashboardService, logg)
	require.NoError(t, err)
	vendorsService, err := vendors.NewService(vendorsRepo, dashboardService, logg)
	require.NoError(t, err)
	mappingsService, err := mappings.NewService(mappingsRepo, activitiesRepo, vendorsRepo, dashboardService, logg)
	require.NoError(t, err)
	tasksService, err := tasks.NewService(tasksRepo, dashboardService, time.Now, logg)
	require.NoError(t, err)
	exportService, err := export.NewService(tasksRepo, export.DefaultMaxRows, time.Now, logg)
	require.NoError(t, err)

	bucket := &memoryBucket{objects: map[string][]byte{}}
	pipeline, err := evidence.NewPipeline(
		evidence.Gateways{BlobStore: bucket, OCRInvoker: stubOCR{text: "Thanks!\nOrder: ABC123\nTotal 450"}, TaskRecorder: tasksRepo},
		evidence.WithObserver(evidence.NewTelemetryObserver(logg, pipelineMetrics)),
		evidence.WithLogger(logg),
	)
	require.NoError(t, err)
	evidenceService, err := evidence.NewService(pipeline, mappingsRepo, dashboardService, pipelineMetrics, logg)
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, reg,
		[]controllers.Dependency{{Name: "db", Pinger: stubPinger{}}},
		evidenceService, activitiesService, vendorsService, mappingsService, tasksService, exportService, dashboardService,
	)
	return &testServer{handler: handler, cfg: cfg, bucket: bucket}
}

func (s *testServer) token(t *testing.T, role enums.Role, mutate func(*auth.AccessTokenClaims)) string {
	t.Helper()
	now := time.Now()
	claims := auth.AccessTokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Audience:  jwt.ClaimStrings{s.cfg.JWT.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	if mutate != nil {
		mutate(&claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return s.do(t, method, path, token, "application/json", reader)
}

func dataField(t *testing.T, resp *httptest.ResponseRecorder, field string) any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Data[field]
}

func evidenceBody(t *testing.T, activityID string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("activity_id", activityID))
	require.NoError(t, mw.WriteField("customer_name", "Asha Rao"))
	require.NoError(t, mw.WriteField("customer_phone", "9876543210"))
	require.NoError(t, mw.WriteField("products_sold", "2x Cold Coffee"))
	require.NoError(t, mw.WriteField("sales_order_number", "SO-991"))
	part, err := mw.CreateFormFile("image", "receipt.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR receipt"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health/live", "", "", nil).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health/ready", "", "", nil).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/metrics", "", "", nil).Code)
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.doJSON(t, http.MethodGet, "/api/v1/activities", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRoleGates(t *testing.T) {
	srv := newTestServer(t)
	vendorID := uuid.New()
	vendorToken := srv.token(t, enums.RoleVendor, func(c *auth.AccessTokenClaims) { c.VendorID = &vendorID })
	staffToken := srv.token(t, enums.RoleCupShup, nil)

	require.Equal(t, http.StatusForbidden, srv.doJSON(t, http.MethodGet, "/api/v1/vendors", vendorToken, "").Code)
	require.Equal(t, http.StatusForbidden, srv.doJSON(t, http.MethodGet, "/api/v1/dashboard/mapped-activities", vendorToken, "").Code)

	contentType, body := evidenceBody(t, uuid.NewString())
	require.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, "/api/v1/evidence", staffToken, contentType, body).Code)
}

func TestEvidenceFlowEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	staffToken := srv.token(t, enums.RoleCupShup, nil)

	resp := srv.doJSON(t, http.MethodPost, "/api/v1/vendors", staffToken, `{"name":"Acme Crew","email":"Crew@Acme.in"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	vendorID := uuid.MustParse(dataField(t, resp, "id").(string))

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/activities", staffToken,
		`{"brand":"Blue Tokai","city":"Pune","location":"Phoenix Mall","start_date":"2026-03-01","end_date":"2026-03-05"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	activityID := dataField(t, resp, "id").(string)

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/activities/"+activityID+"/mappings", staffToken, `{"vendor_id":"`+vendorID.String()+`"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/activities/"+activityID+"/mappings", staffToken, `{"vendor_id":"`+vendorID.String()+`"}`)
	require.Equal(t, http.StatusConflict, resp.Code)

	vendorToken := srv.token(t, enums.RoleVendor, func(c *auth.AccessTokenClaims) { c.VendorID = &vendorID })
	contentType, body := evidenceBody(t, activityID)
	resp = srv.do(t, http.MethodPost, "/api/v1/evidence", vendorToken, contentType, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.Equal(t, "ABC123", dataField(t, resp, "order_id"))
	taskID := dataField(t, resp, "task_id").(string)
	require.Len(t, srv.bucket.objects, 1)

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/tasks/"+taskID+"/start", vendorToken, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = srv.doJSON(t, http.MethodPost, "/api/v1/tasks/"+taskID+"/start", vendorToken, "")
	require.Equal(t, http.StatusConflict, resp.Code)

	resp = srv.doJSON(t, http.MethodGet, "/api/v1/dashboard/counts", staffToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.EqualValues(t, 1, dataField(t, resp, "tasks_with_order_id"))
	require.EqualValues(t, 1, dataField(t, resp, "tasks_work_started"))

	resp = srv.doJSON(t, http.MethodGet, "/api/v1/tasks/export", staffToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, export.ContentType, resp.Header().Get("Content-Type"))

	resp = srv.do(t, http.MethodGet, "/metrics", "", "", nil)
	require.Contains(t, resp.Body.String(), "cupshup_evidence_order_id_total")
}
