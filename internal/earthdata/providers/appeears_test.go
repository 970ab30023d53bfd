package providers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

const testBundleCSV = `Date,MOD13Q1_061__250m_16_days_NDVI,MOD13Q1_061__250m_16_days_EVI,MOD13Q1_061__250m_16_days_VI_Quality
2026-06-01,6000,3500,0
2026-06-17,7000,4000,1
`

func resultBundle(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("vi_MOD13Q1_061_results.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte(testBundleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// fakeAppeears scripts the upstream task lifecycle.
type fakeAppeears struct {
	t        *testing.T
	statuses []string
	polls    int32
	logins   int32
	bundle   []byte
}

func (f *fakeAppeears) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "farmer" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := atomic.AddInt32(&f.logins, 1)
		json.NewEncoder(w).Encode(map[string]string{"token": fmt.Sprintf("tok%d", n)})
	})
	mux.HandleFunc("/task", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"task_id": "T1"})
	})
	mux.HandleFunc("/task/T1", func(w http.ResponseWriter, r *http.Request) {
		idx := int(atomic.AddInt32(&f.polls, 1)) - 1
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   f.statuses[idx],
			"progress": map[string]int{"summary": 50},
		})
	})
	mux.HandleFunc("/bundle/T1", func(w http.ResponseWriter, r *http.Request) {
		w.Write(f.bundle)
	})
	return mux
}

func newAppeearsUnderTest(t *testing.T, srv *httptest.Server, maxPolls int) *AppeearsProvider {
	t.Helper()
	return NewAppeearsProvider(srv.URL, "farmer", "secret",
		newTestClient(t, srv), time.Millisecond, maxPolls, zap.NewNop())
}

func TestAppeearsHappyPath(t *testing.T) {
	fake := &fakeAppeears{t: t, statuses: []string{"pending", "processing", "done"}, bundle: resultBundle(t)}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newAppeearsUnderTest(t, srv, 10)

	area := earthdata.AreaOfInterest{Point: &earthdata.Coordinate{Lat: 23.81, Lon: 90.41}}
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	taskID, err := p.SubmitTask(context.Background(), area, start, end)
	require.NoError(t, err)
	assert.Equal(t, "T1", taskID)

	observations, err := p.AwaitAndDownload(context.Background(), taskID)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	// Raw integer codes scaled by 0.0001.
	assert.InDelta(t, 0.60, observations[0].NDVI, 1e-9)
	assert.InDelta(t, 0.35, observations[0].EVI, 1e-9)
	assert.Equal(t, earthdata.QualityMeasured, observations[0].Quality)

	// QA-flagged row comes back as modeled.
	assert.Equal(t, earthdata.QualityModeled, observations[1].Quality)
	assert.True(t, observations[0].Date.Before(observations[1].Date))
}

func TestAppeearsSubmitReducesPolygonToCentroid(t *testing.T) {
	var submitted struct {
		Params struct {
			Coordinates []map[string]float64 `json:"coordinates"`
		} `json:"params"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/task", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"task_id": "T1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newAppeearsUnderTest(t, srv, 3)

	// Square ring with a closing vertex repeating the first.
	area := earthdata.AreaOfInterest{Polygon: []earthdata.Coordinate{
		{Lat: 23.7, Lon: 90.3},
		{Lat: 23.7, Lon: 90.5},
		{Lat: 23.9, Lon: 90.5},
		{Lat: 23.9, Lon: 90.3},
		{Lat: 23.7, Lon: 90.3},
	}}

	_, err := p.SubmitTask(context.Background(), area,
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, submitted.Params.Coordinates, 1)
	assert.InDelta(t, 23.8, submitted.Params.Coordinates[0]["latitude"], 1e-9)
	assert.InDelta(t, 90.4, submitted.Params.Coordinates[0]["longitude"], 1e-9)
}

func TestAppeearsTimeoutAfterPollBudget(t *testing.T) {
	fake := &fakeAppeears{t: t, statuses: []string{"processing"}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newAppeearsUnderTest(t, srv, 3)
	_, err := p.AwaitAndDownload(context.Background(), "T1")

	var timeoutErr *earthdata.TaskTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 3, timeoutErr.Polls)
	assert.EqualValues(t, 3, atomic.LoadInt32(&fake.polls))
}

func TestAppeearsPropagatesTaskFailure(t *testing.T) {
	fake := &fakeAppeears{t: t, statuses: []string{"processing", "error"}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newAppeearsUnderTest(t, srv, 10)
	_, err := p.AwaitAndDownload(context.Background(), "T1")

	var failedErr *earthdata.TaskFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, "T1", failedErr.TaskID)
}

func TestAppeearsReauthenticatesOnceOnStaleToken(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&logins, 1)
		json.NewEncoder(w).Encode(map[string]string{"token": fmt.Sprintf("tok%d", n)})
	})
	mux.HandleFunc("/task/T1", func(w http.ResponseWriter, r *http.Request) {
		// The first session token is stale; only the re-login works.
		if r.Header.Get("Authorization") == "Bearer tok1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "processing"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newAppeearsUnderTest(t, srv, 1)
	_, err := p.AwaitAndDownload(context.Background(), "T1")

	// The poll succeeded after one re-login; the budget of one poll then
	// expired normally.
	var timeoutErr *earthdata.TaskTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.EqualValues(t, 2, atomic.LoadInt32(&logins))
}

func TestAppeearsEscalatesPersistentAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/task/T1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newAppeearsUnderTest(t, srv, 5)
	_, err := p.AwaitAndDownload(context.Background(), "T1")

	var authErr *earthdata.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}
