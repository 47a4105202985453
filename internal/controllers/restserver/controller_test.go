package restserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/decoplanner/internal/storage"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/chrissnell/decoplanner/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryArchive struct {
	mu      sync.Mutex
	records []archive.ArchivedPlan
	plans   map[uuid.UUID]*dive.Plan
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{plans: make(map[uuid.UUID]*dive.Plan)}
}

func (m *memoryArchive) Save(_ context.Context, name string, plan *dive.Plan) (*archive.ArchivedPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := archive.ArchivedPlan{ID: uuid.New(), CreatedAt: time.Now(), Name: name, Runtime: plan.Runtime()}
	m.records = append([]archive.ArchivedPlan{record}, m.records...)
	m.plans[record.ID] = plan
	return &record, nil
}

func (m *memoryArchive) Get(_ context.Context, id uuid.UUID) (*archive.ArchivedPlan, *dive.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], m.plans[id], nil
		}
	}
	return nil, nil, archive.ErrNotFound
}

func (m *memoryArchive) List(_ context.Context, limit int) ([]archive.ArchivedPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func newTestServer(t *testing.T, store PlanArchive) *httptest.Server {
	t.Helper()
	var wg sync.WaitGroup
	ctrl, err := NewController(context.Background(), &wg, Config{Base: dive.DefaultConfiguration(), Archive: store}, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(ctrl.Handler())
	t.Cleanup(srv.Close)
	return srv
}

const decoRequest = `{
  "name": "wreck",
  "cylinders": [
    {"name": "back gas", "o2": 0.21, "pressure": 232, "volume": 24},
    {"name": "deco", "o2": 0.5, "pressure": 207, "volume": 12}
  ],
  "profile": [{"depth": 40, "duration": 25, "cylinder": "back gas"}],
  "deco_gases": ["deco"]
}`

type planBody struct {
	ID      *uuid.UUID  `json:"id"`
	Name    string      `json:"name"`
	Summary PlanSummary `json:"summary"`
	Plan    struct {
		Segments []dive.Segment `json:"segments"`
	} `json:"plan"`
}

func postPlan(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/plan", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Archive)
}

func TestCreatePlanWithoutArchive(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postPlan(t, srv, decoRequest)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, responseformat.ContentTypeJSON, resp.Header.Get("Content-Type"))

	var body planBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body.ID)
	assert.Equal(t, "wreck", body.Name)
	assert.Greater(t, body.Summary.DecoMinutes, 0)
	require.NotNil(t, body.Summary.FirstDecoMinute)
	assert.True(t, body.Summary.GasSufficient)
	require.NotEmpty(t, body.Plan.Segments)
	assert.Equal(t, body.Summary.Runtime, body.Plan.Segments[len(body.Plan.Segments)-1].End())
}

func TestCreatePlanErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed", body: `{"cylinders": [`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"tanks": []}`, status: http.StatusBadRequest},
		{
			name:   "unknown cylinder",
			body:   `{"cylinders": [{"name": "a", "o2": 0.21, "pressure": 200, "volume": 12}], "profile": [{"depth": 20, "duration": 20, "cylinder": "b"}]}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "descent too slow",
			body:   `{"cylinders": [{"name": "a", "o2": 0.21, "pressure": 200, "volume": 12}], "profile": [{"depth": 60, "duration": 1, "cylinder": "a"}]}`,
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postPlan(t, srv, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body responseformat.ErrorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	store := newMemoryArchive()
	srv := newTestServer(t, store)

	resp := postPlan(t, srv, decoRequest)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created planBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotNil(t, created.ID)

	listResp, err := http.Get(srv.URL + "/api/plans?limit=5")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var list PlanListResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.Plans, 1)
	assert.Equal(t, *created.ID, list.Plans[0].ID)

	getResp, err := http.Get(srv.URL + "/api/plans/" + created.ID.String())
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var fetched planBody
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	assert.Equal(t, created.Summary.Runtime, fetched.Summary.Runtime)
	assert.Equal(t, "wreck", fetched.Name)

	missing, err := http.Get(srv.URL + "/api/plans/" + uuid.NewString())
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	bad, err := http.Get(srv.URL + "/api/plans/not-a-uuid")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	healthResp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer healthResp.Body.Close()
	var health HealthResponse
	require.NoError(t, json.NewDecoder(healthResp.Body).Decode(&health))
	assert.True(t, health.Archive)
	assert.Equal(t, storage.StatusHealthy, health.Storage["archive"].Status)
}

func TestArchiveRoutesNeedArchive(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/plans")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetNDL(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/ndl?depth=18,30&depth=40")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body NDLResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Air", body.Gas)
	require.Len(t, body.Limits, 3)
	assert.Equal(t, 40.0, body.Limits[2].Depth)
	assert.GreaterOrEqual(t, body.Limits[0].NDL, body.Limits[1].NDL)
	assert.GreaterOrEqual(t, body.Limits[1].NDL, body.Limits[2].NDL)

	nitrox, err := http.Get(srv.URL + "/api/ndl?depth=30&o2=32")
	require.NoError(t, err)
	defer nitrox.Body.Close()
	var ean NDLResponse
	require.NoError(t, json.NewDecoder(nitrox.Body).Decode(&ean))
	assert.Equal(t, "EAN32", ean.Gas)
	assert.Greater(t, ean.Limits[0].NDL, body.Limits[1].NDL)
}

func TestGetNDLErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		query  string
		status int
	}{
		{query: "depth=abc", status: http.StatusBadRequest},
		{query: "depth=-3", status: http.StatusBadRequest},
		{query: "o2=x", status: http.StatusBadRequest},
		{query: "o2=80&he=40", status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/ndl?" + tt.query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMsgPackResponse(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz?format=msgpack")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, responseformat.ContentTypeMsgPack, resp.Header.Get("Content-Type"))
}

func TestSetBase(t *testing.T) {
	var wg sync.WaitGroup
	ctrl, err := NewController(context.Background(), &wg, Config{Base: dive.DefaultConfiguration()}, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(ctrl.Handler())
	defer srv.Close()

	ndl := func() int {
		resp, err := http.Get(srv.URL + "/api/ndl?depth=30")
		require.NoError(t, err)
		defer resp.Body.Close()
		var body NDLResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body.Limits[0].NDL
	}

	before := ndl()
	cfg := dive.DefaultConfiguration()
	cfg.GFLow, cfg.GFHigh = 1.0, 1.0
	require.NoError(t, ctrl.SetBase(cfg))
	assert.Greater(t, ndl(), before)

	cfg.AscentRate = 0
	assert.Error(t, ctrl.SetBase(cfg))
	assert.Equal(t, 1.0, ctrl.Base().GFHigh)
}
