package restapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietride.org/internal/app"
	"quietride.org/internal/appconf"
	"quietride.org/internal/baseline"
	"quietride.org/internal/logging"
	"quietride.org/internal/models"
	"quietride.org/internal/recommend"
	"quietride.org/internal/signals"
)

// stubAdapter answers with a fixed signal.
type stubAdapter struct {
	signal signals.Signal
}

func (s stubAdapter) Source() signals.Source { return s.signal.Source }

func (s stubAdapter) Fetch(ctx context.Context, req signals.Request) signals.Signal {
	return s.signal
}

func neutralAdapters() []signals.Adapter {
	return []signals.Adapter{
		stubAdapter{signals.Neutral(signals.Weather)},
		stubAdapter{signals.Neutral(signals.Traffic)},
		stubAdapter{signals.Neutral(signals.Events)},
	}
}

// atTokyo pins the service clock to Friday 2026-10-16 at hour:minute.
func atTokyo(t *testing.T, hour, minute int) func() time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	at := time.Date(2026, 10, 16, hour, minute, 0, 0, loc)
	return func() time.Time { return at }
}

// createTestApi builds the API over the repository fixtures with the live feed disabled.
func createTestApi(t *testing.T, clock func() time.Time, adapters []signals.Adapter) *RestAPI {
	t.Helper()

	cfg, err := appconf.Load(filepath.Join("..", "..", "testdata", "config.yaml"))
	require.NoError(t, err)
	cfg.LiveFeed = appconf.LiveFeedConfig{}
	cfg.Env = appconf.Test

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	model := baseline.NewModel(logger)
	require.NoError(t, model.Load(context.Background(), filepath.Join("..", "..", "testdata", "baseline.yaml")))

	composer, err := recommend.NewComposer(recommend.Options{
		Config:   cfg,
		Baseline: model,
		Adapters: adapters,
		Clock:    clock,
		Logger:   logger,
	})
	require.NoError(t, err)

	api := NewRestAPI(&app.Application{
		Config:   cfg,
		Logger:   logger,
		Baseline: model,
		Composer: composer,
	})
	t.Cleanup(api.Shutdown)
	return api
}

// serveApiAndRetrieveEndpoint runs the full middleware chain in a test server, requests
// endpoint and decodes the envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	list, ok := data["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return list
}

func TestCompressionMiddleware(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat(`{"test": "data"}`, 1000)))
	})

	t.Run("compresses response when gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		CompressionMiddleware(testHandler).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))

		reader, err := gzip.NewReader(bytes.NewReader(recorder.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = reader.Close() }()

		decompressed, err := io.ReadAll(reader)
		require.NoError(t, err)

		expected := strings.Repeat(`{"test": "data"}`, 1000)
		assert.Equal(t, expected, string(decompressed))
		assert.Less(t, recorder.Body.Len(), len(expected))
	})

	t.Run("does not compress when gzip not accepted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		recorder := httptest.NewRecorder()

		CompressionMiddleware(testHandler).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, strings.Repeat(`{"test": "data"}`, 1000), recorder.Body.String())
	})

	t.Run("skips content types outside the list", func(t *testing.T) {
		binary := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(bytes.Repeat([]byte{1, 2, 3, 4}, 1000))
		})
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		CompressionMiddleware(binary).ServeHTTP(recorder, req)

		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
	})
}

func TestUnknownPathAndMethod(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 12, 0), neutralAdapters())

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
	assert.Equal(t, "resource not found", model.Text)
	assert.Equal(t, 1, model.Version)

	server := httptest.NewServer(api.Handler())
	defer server.Close()
	postResp, err := http.Post(server.URL+"/api/forecast?route=421", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = postResp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, postResp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	api := createTestApi(t, atTokyo(t, 12, 0), neutralAdapters())

	resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/routes")
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func newTestServer(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server
}

// getJSON fetches url and decodes the body without assuming the envelope shape.
func getJSON(t *testing.T, url string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
