package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/internal/domain"
	"github.com/DRSN-tech/imgcluster/internal/infrastructure/index"
	"github.com/DRSN-tech/imgcluster/internal/usecase"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "secret"

// fakeClusterUC запоминает загруженные изображения и отдаёт заранее заданные ответы.
type fakeClusterUC struct {
	mu        sync.Mutex
	submitted []usecase.UploadedImage
	jobs      map[string]*domain.Job
	searchErr error
	group     string
}

func newFakeClusterUC() *fakeClusterUC {
	return &fakeClusterUC{jobs: map[string]*domain.Job{}}
}

func (f *fakeClusterUC) Submit(_ context.Context, images []usecase.UploadedImage) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, images...)
	job := domain.NewJob("job-1", len(images), time.Now())
	f.jobs[job.ID] = job

	return job.Clone(), nil
}

func (f *fakeClusterUC) Status(_ context.Context, id string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, e.ErrJobNotFound
	}

	return job.Clone(), nil
}

func (f *fakeClusterUC) Result(ctx context.Context, id string) (*domain.ClusterResult, error) {
	job, err := f.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobDone {
		return nil, e.ErrJobNotFinished
	}

	return job.Result, nil
}

func (f *fakeClusterUC) Centroids(ctx context.Context, id string) (domain.Centroids, error) {
	job, err := f.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobDone {
		return nil, e.ErrJobNotFinished
	}

	return job.Centroids, nil
}

func (f *fakeClusterUC) Search(_ context.Context, image *usecase.UploadedImage) (string, error) {
	if f.searchErr != nil {
		return "", f.searchErr
	}
	if len(image.Data) == 0 {
		return "", e.ErrMissingImage
	}

	return f.group, nil
}

type testServer struct {
	cluster *fakeClusterUC
	server  *httptest.Server
}

func newTestServer(t *testing.T, limits Limits) *testServer {
	t.Helper()

	cluster := newFakeClusterUC()
	indexUC := usecase.NewIndexUC(index.NewMemoryIndex(), logger.NewNopLogger())

	mux := chi.NewRouter()
	NewRouter(mux, logger.NewNopLogger()).Init(cluster, indexUC, RouterOptions{APIKey: testAPIKey, Limits: limits})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{cluster: cluster, server: srv}
}

type part struct {
	field, name, mime string
	data              []byte
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.name))
		if p.mime != "" {
			h.Set("Content-Type", p.mime)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func (s *testServer) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, s.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set(APIKeyHeader, testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestSubmitJob_Accepted(t *testing.T) {
	ts := newTestServer(t, Limits{MaxImages: 10, MaxFileSize: 1 << 20})

	body, ct := multipartBody(t,
		part{field: "images", name: "a.png", mime: "image/png", data: []byte("aaa")},
		part{field: "images", name: "b.jpg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}},
	)
	resp := ts.do(t, http.MethodPost, "/api/v1/jobs", body, ct)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	got := decode[SubmitJobResponse](t, resp)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, domain.JobRunning, got.Status)

	require.Len(t, ts.cluster.submitted, 2)
	assert.Equal(t, "a.png", ts.cluster.submitted[0].Name)
	assert.Equal(t, "image/png", ts.cluster.submitted[0].MimeType)
	assert.Equal(t, "image/jpeg", ts.cluster.submitted[1].MimeType, "content type is sniffed when missing")
	assert.Equal(t, int64(4), ts.cluster.submitted[1].Size)
}

func TestSubmitJob_Rejected(t *testing.T) {
	ts := newTestServer(t, Limits{MaxImages: 2, MaxFileSize: 8})

	cases := []struct {
		name   string
		parts  []part
		status int
	}{
		{
			name:   "no images",
			parts:  []part{{field: "other", name: "a.png", data: []byte("a")}},
			status: http.StatusBadRequest,
		},
		{
			name: "too many images",
			parts: []part{
				{field: "images", name: "a.png", data: []byte("a")},
				{field: "images", name: "b.png", data: []byte("b")},
				{field: "images", name: "c.png", data: []byte("c")},
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "file too large",
			parts:  []part{{field: "images", name: "big.png", data: bytes.Repeat([]byte("x"), 64)}},
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.parts...)
			resp := ts.do(t, http.MethodPost, "/api/v1/jobs", body, ct)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.status, decode[ErrorResponse](t, resp).Code)
		})
	}
}

func TestSubmitJob_NotMultipart(t *testing.T) {
	ts := newTestServer(t, Limits{})

	resp := ts.do(t, http.MethodPost, "/api/v1/jobs", bytes.NewBufferString("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJobEndpoints(t *testing.T) {
	ts := newTestServer(t, Limits{})

	running := domain.NewJob("running", 2, time.Now())
	done := domain.NewJob("done", 2, time.Now())
	done.Complete(&domain.Outcome{
		Result: domain.ClusterResult{
			OrderedGroupNames: []string{"Group 1"},
			GroupContents:     map[string][]string{"Group 1": {"a.png", "b.png"}},
		},
		Centroids: domain.Centroids{"Group 1": {0.5, 0.5}},
	}, domain.IndexSync{State: domain.IndexSynced}, time.Now())
	ts.cluster.jobs[running.ID] = running
	ts.cluster.jobs[done.ID] = done

	t.Run("status", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/jobs/done/status", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[JobStatusResponse](t, resp)
		assert.Equal(t, domain.JobDone, got.Status)
		assert.Equal(t, domain.IndexSynced, got.IndexSync.State)
	})

	t.Run("unknown job", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/jobs/missing/status", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("groups of running job", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/jobs/running/groups", nil, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("groups", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/jobs/done/groups", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[domain.ClusterResult](t, resp)
		assert.Equal(t, []string{"Group 1"}, got.OrderedGroupNames)
		assert.Equal(t, []string{"a.png", "b.png"}, got.GroupContents["Group 1"])
	})

	t.Run("centroids", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/v1/jobs/done/centroids", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, domain.Centroids{"Group 1": {0.5, 0.5}}, decode[domain.Centroids](t, resp))
	})
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, Limits{MaxFileSize: 1 << 20})
	ts.cluster.group = "Group 2"

	body, ct := multipartBody(t, part{field: "image", name: "q.png", mime: "image/png", data: []byte("q")})
	resp := ts.do(t, http.MethodPost, "/api/v1/search", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Group 2", decode[SearchResponse](t, resp).Group)

	body, ct = multipartBody(t, part{field: "images", name: "q.png", data: []byte("q")})
	resp = ts.do(t, http.MethodPost, "/api/v1/search", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "image field is required")
}

func TestSearch_ErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		status     int
		retryAfter string
	}{
		{err: e.ErrIndexUnavailable, status: http.StatusServiceUnavailable, retryAfter: "5"},
		{err: e.ErrInferenceUnavailable, status: http.StatusServiceUnavailable, retryAfter: "5"},
		{err: e.ErrIndexEmpty, status: http.StatusConflict},
		{err: e.ErrUndecodableImage, status: http.StatusUnprocessableEntity},
		{err: e.ErrUnsupportedMediaType, status: http.StatusUnsupportedMediaType},
		{err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			ts := newTestServer(t, Limits{})
			ts.cluster.searchErr = e.Wrap("ClusterUseCase.Search", tc.err)

			body, ct := multipartBody(t, part{field: "image", name: "q.png", data: []byte("q")})
			resp := ts.do(t, http.MethodPost, "/api/v1/search", body, ct)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.retryAfter, resp.Header.Get("Retry-After"))
		})
	}
}

func TestIndexProtocol(t *testing.T) {
	ts := newTestServer(t, Limits{})

	search := func(vector []float64) *http.Response {
		raw, err := json.Marshal(SearchVectorRequest{ImageVector: vector})
		require.NoError(t, err)
		return ts.do(t, http.MethodPost, "/api/v1/index/search", bytes.NewBuffer(raw), "application/json")
	}

	assert.Equal(t, http.StatusConflict, search([]float64{1, 0}).StatusCode, "empty index")

	raw, err := json.Marshal(domain.Centroids{"Group 1": {0, 0}, "Group 2": {10, 10}})
	require.NoError(t, err)
	resp := ts.do(t, http.MethodPost, "/api/v1/index/build", bytes.NewBuffer(raw), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[BuildIndexResponse](t, resp).Groups)

	resp = search([]float64{9, 8})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Group 2", decode[SearchResponse](t, resp).Group)

	assert.Equal(t, http.StatusUnprocessableEntity, search([]float64{1, 2, 3}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, search(nil).StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/index/build", bytes.NewBufferString("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// Клиент HTTPIndex должен понимать протокол, который обслуживает этот же сервер.
func TestIndexProtocol_HTTPIndexClient(t *testing.T) {
	ts := newTestServer(t, Limits{})
	client := index.NewHTTPIndex(ts.server.URL+"/api/v1/index", testAPIKey, time.Second)
	ctx := context.Background()

	_, err := client.Nearest(ctx, []float64{1, 1})
	assert.ErrorIs(t, err, e.ErrIndexEmpty)

	require.NoError(t, client.Build(ctx, "job-1", domain.Centroids{"Group 1": {0, 0}, "Group 2": {5, 5}}))

	group, err := client.Nearest(ctx, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "Group 1", group)

	_, err = client.Nearest(ctx, []float64{1})
	assert.ErrorIs(t, err, e.ErrVectorSizeMismatch)
}

func TestAPIKey(t *testing.T) {
	ts := newTestServer(t, Limits{})

	req, err := http.NewRequest(http.MethodGet, ts.server.URL+"/api/v1/jobs/x/status", nil)
	require.NoError(t, err)
	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set(APIKeyHeader, "wrong")
	resp2, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	health, err := ts.server.Client().Get(ts.server.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_ServeAndStop(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := chi.NewRouter()
	NewRouter(mux, logger.NewNopLogger()).Init(newFakeClusterUC(), usecase.NewIndexUC(index.NewMemoryIndex(), logger.NewNopLogger()), RouterOptions{})
	srv := NewServer(mux, &cfg.HTTPConfig{ReadTimeout: time.Second, WriteTimeout: time.Second})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.ErrorIs(t, <-errCh, http.ErrServerClosed)
}
