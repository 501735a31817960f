package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/blogservice"
	"github.com/sushihentaime/nexus/internal/reviewservice"
	"github.com/sushihentaime/nexus/internal/userservice"
)

const trustedOrigin = "http://localhost:3000"

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

type testEnv struct {
	app     *application
	colls   *collections
	backend *asset.MemoryBackend
}

func newTestApplication(t *testing.T) testEnv {
	t.Helper()

	cfg := &Config{
		Environment:    "testing",
		Version:        "test",
		TrustedOrigins: []string{trustedOrigin},
		PublicDir:      t.TempDir(),
		BodyLimit:      5 << 20,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	colls := newMemoryCollections()
	backend := asset.NewMemoryBackend()
	store := asset.NewAdapter(backend, "nexus", logger)
	releaser := asset.DirectReleaser{Store: store}

	app := &application{
		config:        cfg,
		logger:        logger,
		blogService:   blogservice.NewBlogService(colls.blogs, store, releaser, logger),
		reviewService: reviewservice.NewReviewService(colls.reviews, store, releaser, logger),
		userService:   userservice.NewUserService(colls.users, store, nil, logger),
	}

	return testEnv{app: app, colls: colls, backend: backend}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	t.Helper()
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var env envelope
	if len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, &env); err != nil {
			t.Fatal(err)
		}
	}

	return res.StatusCode, res.Header, env
}

func (ts *testServer) do(t *testing.T, method, path string, payload any, headers map[string]string) (int, http.Header, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, nil, nil)
}

func (ts *testServer) post(t *testing.T, path string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, payload, nil)
}

func (ts *testServer) put(t *testing.T, path string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, payload, nil)
}

func (ts *testServer) delete(t *testing.T, path string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, payload, nil)
}
