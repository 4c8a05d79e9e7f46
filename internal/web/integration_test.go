package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/metrics"
	"github.com/vbonduro/pantry/internal/service"
	"github.com/vbonduro/pantry/internal/store"
	"github.com/vbonduro/pantry/internal/vision"
	"github.com/vbonduro/pantry/internal/web"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// recordingVision captures the image bytes and content type passed to it and
// returns a pre-configured result.
type recordingVision struct {
	mu        sync.Mutex
	lastBytes []byte
	lastMIME  string
	result    *vision.AnalysisResult
}

func (r *recordingVision) Analyze(_ context.Context, rd io.Reader, mimeType string) (*vision.AnalysisResult, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("recordingVision: read image: %w", err)
	}
	r.mu.Lock()
	r.lastBytes = data
	r.lastMIME = mimeType
	r.mu.Unlock()
	return r.result, nil
}

func (r *recordingVision) LastBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBytes
}

func (r *recordingVision) LastMIME() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMIME
}

type testEnv struct {
	srv  *httptest.Server
	repo *store.Repository
}

// newTestServer sets up a real web.Server backed by in-memory SQLite. A nil
// vis leaves photo import unconfigured.
func newTestServer(t *testing.T, vis vision.VisionAnalyzer) *testEnv {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	repo := store.NewRepository(database, db.SQLite)
	reg := prometheus.NewRegistry()
	opts := []service.Option{
		service.WithMetrics(metrics.New(reg)),
		service.WithClock(func() time.Time { return time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC) }),
	}
	if vis != nil {
		opts = append(opts, service.WithVision(vis))
	}
	svc := service.NewInventoryService(repo, slog.New(slog.DiscardHandler), opts...)
	require.NoError(t, svc.Load(context.Background()))

	srv := httptest.NewServer(web.NewServer(svc, reg, slog.New(slog.DiscardHandler)))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return &testEnv{srv: srv, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// buildMultipartBody creates a multipart/form-data body with an "image" field.
func buildMultipartBody(t *testing.T, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIntegration_DefaultAreas(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodGet, "/storage-areas", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	areas := decode[[]domain.StorageArea](t, resp)
	require.Len(t, areas, 3)
	assert.Equal(t, "fridge", areas[0].ID)
	assert.Equal(t, "pantry", areas[2].ID)

	persisted, _, err := env.repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, areas, persisted)
}

func TestIntegration_AreaLifecycle(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/storage-areas", map[string]string{"name": "Garage", "icon": "box"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	garage := decode[domain.StorageArea](t, resp)
	assert.Equal(t, 3, garage.Order)
	assert.Equal(t, domain.ColorSlate, garage.Color)

	resp = env.do(t, http.MethodPut, "/storage-areas/"+garage.ID, map[string]string{"name": "Shed", "color": "green"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	shed := decode[domain.StorageArea](t, resp)
	assert.Equal(t, "Shed", shed.Name)
	assert.Equal(t, domain.ColorGreen, shed.Color)
	assert.Equal(t, domain.IconBox, shed.Icon)

	resp = env.do(t, http.MethodPut, "/storage-areas/order", map[string][]string{"ids": {garage.ID, "pantry", "freezer", "fridge"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	areas := decode[[]domain.StorageArea](t, resp)
	require.Len(t, areas, 4)
	assert.Equal(t, garage.ID, areas[0].ID)
	assert.Equal(t, "fridge", areas[3].ID)
	assert.Equal(t, 3, areas[3].Order)

	resp = env.do(t, http.MethodDelete, "/storage-areas/"+garage.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/storage-areas/"+garage.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_AreaValidation(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/storage-areas", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/storage-areas", map[string]string{"name": "Garage", "icon": "rocket"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/storage-areas", map[string]string{"name": strings.Repeat("x", 201)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/storage-areas/nope", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_ItemMergeAndCount(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/items", map[string]any{"name": "Milk", "quantity": 2, "storageAreaId": "fridge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[domain.PantryItem](t, resp)

	resp = env.do(t, http.MethodPost, "/items", map[string]any{"name": "milk", "quantity": 3, "storageAreaId": "fridge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	merged := decode[domain.PantryItem](t, resp)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	resp = env.do(t, http.MethodGet, "/storage-areas/fridge/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Items     []domain.PantryItem `json:"items"`
		ItemCount int                 `json:"itemCount"`
	}](t, resp)
	assert.Len(t, body.Items, 1)
	assert.Equal(t, 5, body.ItemCount)

	_, items, err := env.repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestIntegration_ItemErrors(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/items", map[string]any{"name": "Milk", "quantity": 1, "storageAreaId": "garage"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/items", map[string]any{"name": "Milk", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/items", map[string]any{"name": "Milk", "quantity": 0, "storageAreaId": "fridge"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/items", map[string]any{"name": "Milk", "quantity": 1, "storageAreaId": "fridge", "expiryDate": "soon"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/items/nope/quantity", map[string]int{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/items/nope/quantity", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/items/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_OpenAndQuantity(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/items", map[string]any{
		"name": "Yogurt", "quantity": 5, "storageAreaId": "fridge", "expiryDate": "2026-10-28",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	yogurt := decode[domain.PantryItem](t, resp)

	resp = env.do(t, http.MethodPost, "/items/"+yogurt.ID+"/open", map[string]int{"quantity": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/items/"+yogurt.ID+"/open", map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	opened := decode[struct {
		Items []domain.PantryItem `json:"items"`
	}](t, resp)
	require.Len(t, opened.Items, 2)
	assert.Equal(t, 3, opened.Items[0].Quantity)
	assert.True(t, opened.Items[1].IsOpened)
	require.NotNil(t, opened.Items[1].ExpiryDate)
	assert.Equal(t, "2026-10-23", opened.Items[1].ExpiryDate.String())

	resp = env.do(t, http.MethodPost, "/items/"+opened.Items[1].ID+"/open", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/items/"+yogurt.ID+"/quantity", map[string]int{"quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[domain.PantryItem](t, resp).Quantity)

	resp = env.do(t, http.MethodPut, "/items/"+yogurt.ID+"/quantity", map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]domain.PantryItem](t, resp)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsOpened)
}

func TestIntegration_DeleteAreaCascades(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/items", map[string]any{"name": "Peas", "quantity": 2, "storageAreaId": "freezer"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/items", map[string]any{"name": "Rice", "quantity": 1, "storageAreaId": "pantry"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/storage-areas/freezer", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/storage-areas/freezer/items", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	areas, items, err := env.repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, areas, 2)
	require.Len(t, items, 1)
	assert.Equal(t, "Rice", items[0].Name)
}

func TestIntegration_SearchAndExpiring(t *testing.T) {
	env := newTestServer(t, nil)

	for _, body := range []map[string]any{
		{"name": "Oat Milk", "quantity": 1, "storageAreaId": "pantry", "expiryDate": "2026-12-01"},
		{"name": "Milk", "quantity": 1, "storageAreaId": "fridge", "expiryDate": "2026-10-20"},
		{"name": "Bread", "quantity": 1, "storageAreaId": "pantry"},
	} {
		resp := env.do(t, http.MethodPost, "/items", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/items?q=milk", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decode[[]domain.PantryItem](t, resp)
	require.Len(t, found, 2)
	assert.Equal(t, "Milk", found[0].Name)

	resp = env.do(t, http.MethodGet, "/items?expiringWithin=7", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expiring := decode[[]domain.PantryItem](t, resp)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Milk", expiring[0].Name)

	resp = env.do(t, http.MethodGet, "/items?expiringWithin=soon", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/items?q=caviar", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.PantryItem](t, resp))
}

func TestIntegration_PhotoImport(t *testing.T) {
	vis := &recordingVision{result: &vision.AnalysisResult{Items: []vision.DetectedItem{
		{Name: "Milk", Quantity: "2 cartons"},
		{Name: "Butter", Quantity: "1"},
	}}}
	env := newTestServer(t, vis)

	body, contentType := buildMultipartBody(t, minimalJPEG)
	resp, err := http.Post(env.srv.URL+"/storage-areas/fridge/photo-import", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	imported := decode[struct {
		Items []domain.PantryItem `json:"items"`
	}](t, resp)
	require.Len(t, imported.Items, 2)
	assert.Equal(t, 2, imported.Items[0].Quantity)
	assert.Equal(t, "fridge", imported.Items[1].StorageAreaID)
	assert.Equal(t, minimalJPEG, vis.LastBytes())
}

func TestIntegration_PhotoImportRejectsNonImage(t *testing.T) {
	vis := &recordingVision{result: &vision.AnalysisResult{}}
	env := newTestServer(t, vis)

	body, contentType := buildMultipartBody(t, []byte("%PDF-1.4 not an image"))
	resp, err := http.Post(env.srv.URL+"/storage-areas/fridge/photo-import", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, vis.LastBytes())
}

func TestIntegration_PhotoImportDisabled(t *testing.T) {
	env := newTestServer(t, nil)

	body, contentType := buildMultipartBody(t, minimalJPEG)
	resp, err := http.Post(env.srv.URL+"/storage-areas/fridge/photo-import", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/items", map[string]any{"name": "Milk", "quantity": 1, "storageAreaId": "fridge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pantry_mutations_total{op="add_item",result="ok"} 1`)
	assert.Contains(t, string(data), "pantry_items 1")
}

func TestHealthWhileLoading(t *testing.T) {
	database, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	svc := service.NewInventoryService(store.NewRepository(database, db.SQLite), slog.New(slog.DiscardHandler))
	srv := web.NewServer(svc, nil, slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"Milk","quantity":1,"storageAreaId":"fridge"}`))
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
