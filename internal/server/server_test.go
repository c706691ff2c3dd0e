package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/slidescript/internal/script"
	"github.com/local/slidescript/internal/store"
	"github.com/local/slidescript/internal/worker"
)

type fakeQueue struct {
	enqueued  [][]byte
	cancelled []string
}

func (q *fakeQueue) Enqueue(ctx context.Context, payload []byte) error {
	q.enqueued = append(q.enqueued, payload)
	return nil
}

func (q *fakeQueue) CancelJob(ctx context.Context, jobID string) error {
	q.cancelled = append(q.cancelled, jobID)
	return nil
}

func (q *fakeQueue) Ping(ctx context.Context) error { return nil }

type fakeRounds struct {
	rounds map[string]script.Round
}

func (s *fakeRounds) Save(ctx context.Context, id string, r script.Round) error {
	if s.rounds == nil {
		s.rounds = map[string]script.Round{}
	}
	s.rounds[id] = r
	return nil
}

func (s *fakeRounds) Get(ctx context.Context, id string) (script.Round, bool, error) {
	r, ok := s.rounds[id]
	return r, ok, nil
}

type fakeStatus struct {
	statuses map[string]store.Status
}

func (s *fakeStatus) Set(ctx context.Context, jobID string, st store.Status) error {
	if s.statuses == nil {
		s.statuses = map[string]store.Status{}
	}
	s.statuses[jobID] = st
	return nil
}

func (s *fakeStatus) Get(ctx context.Context, jobID string) (store.Status, bool, error) {
	st, ok := s.statuses[jobID]
	return st, ok, nil
}

func newTestServer() (*Server, *fakeQueue, *fakeRounds, *fakeStatus) {
	q := &fakeQueue{}
	rounds := &fakeRounds{}
	status := &fakeStatus{}
	srv := New(Dependencies{
		Engine: script.NewEngine(script.Options{}),
		Rounds: rounds,
		Status: status,
		Queue:  q,
	})
	return srv, q, rounds, status
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAllocateCreatesPresentation(t *testing.T) {
	srv, _, rounds, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/allocate", allocateReq{
		Script:     "First point here. Second point follows. Third wraps up. Fourth closes.",
		SlideCount: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp allocateResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PresentationID)
	require.Len(t, resp.Slides, 2)
	assert.NotEmpty(t, resp.Slides[0].Content)
	assert.NotEmpty(t, resp.Slides[1].Content)

	_, ok := rounds.rounds[resp.PresentationID]
	assert.True(t, ok)
}

func TestAllocateRejectsBadSlideCount(t *testing.T) {
	srv, _, _, _ := newTestServer()
	rec := doJSON(t, srv, http.MethodPost, "/api/allocate", allocateReq{Script: "Hello.", SlideCount: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPresentationNotFound(t *testing.T) {
	srv, _, _, _ := newTestServer()
	rec := doJSON(t, srv, http.MethodGet, "/api/presentations/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndResetSlide(t *testing.T) {
	srv, _, _, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/allocate", allocateReq{
		Script:     "Alpha starts us off. Beta keeps going. Gamma continues on. Delta finishes it.",
		SlideCount: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created allocateResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.PresentationID

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/presentations/%s/slides/0", id),
		updateSlideReq{Content: "Beta keeps going."})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated script.Round
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Slides[0].ManuallySet)
	assert.Equal(t, "Beta keeps going.", updated.Slides[0].Content)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/presentations/%s/slides/0/reset", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reset script.Round
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reset))
	assert.False(t, reset.Slides[0].ManuallySet)
	assert.Equal(t, created.Slides[0].Content, reset.Slides[0].Content)
}

func TestUpdateSlideOutOfRange(t *testing.T) {
	srv, _, _, _ := newTestServer()
	rec := doJSON(t, srv, http.MethodPost, "/api/allocate", allocateReq{Script: "Hi there everyone.", SlideCount: 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created allocateResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/presentations/%s/slides/5", created.PresentationID),
		updateSlideReq{Content: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchSubmitEnqueuesJob(t *testing.T) {
	srv, q, _, status := newTestServer()
	rec := doJSON(t, srv, http.MethodPost, "/api/allocate", allocateReq{Script: "One thing. Two things.", SlideCount: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created allocateResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, srv, http.MethodPost, "/api/match", matchReq{
		PresentationID: created.PresentationID,
		DeckRef:        "s3://decks/q3.pdf",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp matchResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)

	require.Len(t, q.enqueued, 1)
	var job worker.MatchJob
	require.NoError(t, json.Unmarshal(q.enqueued[0], &job))
	assert.Equal(t, resp.JobID, job.JobID)
	assert.Equal(t, created.PresentationID, job.PresentationID)
	assert.Equal(t, "s3://decks/q3.pdf", job.DeckRef)

	st, ok := status.statuses[resp.JobID]
	require.True(t, ok)
	assert.Equal(t, "queued", st.Status)
}

func TestMatchSubmitUnknownPresentation(t *testing.T) {
	srv, q, _, _ := newTestServer()
	rec := doJSON(t, srv, http.MethodPost, "/api/match", matchReq{
		PresentationID: "missing", DeckRef: "file:///tmp/deck.pdf",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, q.enqueued)
}

func TestMatchStatusAndCancel(t *testing.T) {
	srv, q, _, status := newTestServer()
	require.NoError(t, status.Set(context.Background(), "job-1", store.Status{Status: "processing", Progress: 40}))

	rec := doJSON(t, srv, http.MethodGet, "/api/match/job-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "processing", got["status"])

	rec = doJSON(t, srv, http.MethodPost, "/api/match/job-1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"job-1"}, q.cancelled)
	st, _ := status.statuses["job-1"]
	assert.Equal(t, "cancelled", st.Status)
}

func TestHealth(t *testing.T) {
	srv, _, _, _ := newTestServer()
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
