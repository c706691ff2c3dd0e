package server

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/slidescript/internal/metrics"
    "github.com/local/slidescript/internal/script"
    "github.com/local/slidescript/internal/store"
    "github.com/local/slidescript/internal/worker"
)

type Queue interface {
    Enqueue(ctx context.Context, payload []byte) error
    CancelJob(ctx context.Context, jobID string) error
    Ping(ctx context.Context) error
}

type RoundStore interface {
    Save(ctx context.Context, presentationID string, r script.Round) error
    Get(ctx context.Context, presentationID string) (script.Round, bool, error)
}

type StatusStore interface {
    Set(ctx context.Context, jobID string, st store.Status) error
    Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

type Dependencies struct {
    Engine *script.Engine
    Rounds RoundStore
    Status StatusStore
    Queue  Queue
}

// Server exposes allocation and matching over HTTP.
type Server struct {
    deps Dependencies
}

func New(deps Dependencies) *Server {
    return &Server{deps: deps}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", s.handleHealth)
    mux.Handle("/metrics", metrics.Handler())
    mux.HandleFunc("/api/allocate", s.handleAllocate)
    mux.HandleFunc("/api/presentations/", s.handlePresentation)
    mux.HandleFunc("/api/match", s.handleMatchSubmit)
    mux.HandleFunc("/api/match/", s.handleMatchJob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    if err := s.deps.Queue.Ping(r.Context()); err != nil {
        http.Error(w, "queue unavailable", http.StatusServiceUnavailable); return
    }
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write([]byte("ok"))
}

type allocateReq struct {
    Script     string `json:"script"`
    SlideCount int    `json:"slide_count"`
    // Optional: reallocate an existing presentation, carrying pinned slides.
    PresentationID string                   `json:"presentation_id,omitempty"`
    Slides         []script.SlideAllocation `json:"slides,omitempty"`
}

type allocateResp struct {
    PresentationID string                   `json:"presentation_id"`
    Slides         []script.SlideAllocation `json:"slides"`
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    defer r.Body.Close()
    var req allocateReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest); return
    }

    round, err := s.deps.Engine.Allocate(req.Script, req.SlideCount, req.Slides)
    if err != nil {
        writeEngineError(w, err); return
    }

    id := req.PresentationID
    if id == "" {
        id = uuid.NewString()
    }
    if err := s.deps.Rounds.Save(r.Context(), id, round); err != nil {
        log.Error().Err(err).Msg("round save failed")
        http.Error(w, "storage unavailable", http.StatusServiceUnavailable); return
    }
    metrics.IncAllocation("initial")
    log.Info().Str("presentation_id", id).Int("slides", req.SlideCount).Msg("presentation created")

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    _ = json.NewEncoder(w).Encode(allocateResp{PresentationID: id, Slides: round.Slides})
}

// handlePresentation routes /api/presentations/{id} and
// /api/presentations/{id}/slides/{index}[/reset].
func (s *Server) handlePresentation(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/api/presentations/")
    parts := strings.Split(strings.Trim(rest, "/"), "/")
    if len(parts) == 0 || parts[0] == "" {
        http.Error(w, "missing presentation id", http.StatusBadRequest); return
    }
    id := parts[0]

    switch {
    case len(parts) == 1:
        s.handleGetRound(w, r, id)
    case len(parts) == 3 && parts[1] == "slides":
        s.handleUpdateSlide(w, r, id, parts[2])
    case len(parts) == 4 && parts[1] == "slides" && parts[3] == "reset":
        s.handleResetSlide(w, r, id, parts[2])
    default:
        http.Error(w, "not found", http.StatusNotFound)
    }
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    round, ok, err := s.deps.Rounds.Get(r.Context(), id)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "not found", http.StatusNotFound); return }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(round)
}

type updateSlideReq struct {
    Content string `json:"content"`
}

func (s *Server) handleUpdateSlide(w http.ResponseWriter, r *http.Request, id, indexStr string) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    defer r.Body.Close()
    index, err := strconv.Atoi(indexStr)
    if err != nil {
        http.Error(w, "invalid slide index", http.StatusBadRequest); return
    }
    var req updateSlideReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest); return
    }

    round, ok, err := s.deps.Rounds.Get(r.Context(), id)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "not found", http.StatusNotFound); return }

    updated, err := s.deps.Engine.UpdateSlide(round, index, req.Content)
    if err != nil {
        writeEngineError(w, err); return
    }
    if err := s.deps.Rounds.Save(r.Context(), id, updated); err != nil {
        http.Error(w, "storage unavailable", http.StatusServiceUnavailable); return
    }
    metrics.IncAllocation("update")
    log.Info().Str("presentation_id", id).Int("slide", index).Msg("slide pinned")

    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(updated)
}

func (s *Server) handleResetSlide(w http.ResponseWriter, r *http.Request, id, indexStr string) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    index, err := strconv.Atoi(indexStr)
    if err != nil {
        http.Error(w, "invalid slide index", http.StatusBadRequest); return
    }

    round, ok, err := s.deps.Rounds.Get(r.Context(), id)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "not found", http.StatusNotFound); return }

    updated, err := s.deps.Engine.ResetSlide(round, index)
    if err != nil {
        writeEngineError(w, err); return
    }
    if err := s.deps.Rounds.Save(r.Context(), id, updated); err != nil {
        http.Error(w, "storage unavailable", http.StatusServiceUnavailable); return
    }
    metrics.IncAllocation("reset")
    log.Info().Str("presentation_id", id).Int("slide", index).Msg("slide reset")

    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(updated)
}

type matchReq struct {
    PresentationID string `json:"presentation_id"`
    DeckRef        string `json:"deck_ref"`
    Engine         string `json:"engine,omitempty"` // optional provider preference
}

type matchResp struct {
    Status  string `json:"status"`
    JobID   string `json:"job_id"`
    Message string `json:"message"`
}

func (s *Server) handleMatchSubmit(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    defer r.Body.Close()
    var req matchReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest); return
    }
    if req.PresentationID == "" || req.DeckRef == "" {
        http.Error(w, "missing presentation_id or deck_ref", http.StatusBadRequest); return
    }

    _, ok, err := s.deps.Rounds.Get(r.Context(), req.PresentationID)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "presentation has no stored round", http.StatusConflict); return }

    jobID := uuid.NewString()
    job := worker.MatchJob{
        JobID:          jobID,
        PresentationID: req.PresentationID,
        DeckRef:        req.DeckRef,
        Engine:         req.Engine,
    }
    data, _ := json.Marshal(job)

    start := time.Now()
    _ = s.deps.Status.Set(r.Context(), jobID, store.Status{
        Status: "queued", Progress: 0, Message: "queued", Start: &start,
        Metadata: map[string]any{"presentation_id": req.PresentationID, "deck_ref": req.DeckRef},
    })
    if err := s.deps.Queue.Enqueue(r.Context(), data); err != nil {
        log.Error().Err(err).Msg("match enqueue failed")
        http.Error(w, "queue unavailable", http.StatusServiceUnavailable); return
    }
    log.Info().Str("job_id", jobID).Str("presentation_id", req.PresentationID).Str("deck", req.DeckRef).Msg("match job created")

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    _ = json.NewEncoder(w).Encode(matchResp{Status: "ok", JobID: jobID, Message: "Match job created"})
}

// handleMatchJob routes /api/match/{job_id} and /api/match/{job_id}/cancel.
func (s *Server) handleMatchJob(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/api/match/")
    parts := strings.Split(strings.Trim(rest, "/"), "/")
    if len(parts) == 0 || parts[0] == "" {
        http.Error(w, "missing job id", http.StatusBadRequest); return
    }
    jobID := parts[0]

    if len(parts) == 2 && parts[1] == "cancel" {
        s.handleMatchCancel(w, r, jobID)
        return
    }
    if len(parts) != 1 {
        http.Error(w, "not found", http.StatusNotFound); return
    }
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }

    st, ok, err := s.deps.Status.Get(r.Context(), jobID)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "not found", http.StatusNotFound); return }

    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(map[string]any{
        "job_id":     jobID,
        "status":     st.Status,
        "progress":   st.Progress,
        "message":    st.Message,
        "start_time": st.Start,
        "end_time":   st.End,
        "metadata":   st.Metadata,
    })
}

func (s *Server) handleMatchCancel(w http.ResponseWriter, r *http.Request, jobID string) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed); return
    }
    if err := s.deps.Queue.CancelJob(r.Context(), jobID); err != nil {
        http.Error(w, "cancel failed", http.StatusInternalServerError); return
    }
    st, ok, _ := s.deps.Status.Get(r.Context(), jobID)
    if !ok { st = store.Status{} }
    st.Status = "cancelled"
    st.Message = "Cancelled"
    now := time.Now()
    st.End = &now
    _ = s.deps.Status.Set(r.Context(), jobID, st)
    log.Info().Str("job_id", jobID).Msg("match job cancel requested")
    _ = json.NewEncoder(w).Encode(map[string]any{"success": true, "job_id": jobID, "status": "cancelled"})
}

// writeEngineError maps engine failures to HTTP codes: input problems
// are the caller's fault, everything else is ours.
func writeEngineError(w http.ResponseWriter, err error) {
    var inputErr *script.InputError
    if errors.As(err, &inputErr) {
        http.Error(w, inputErr.Reason, http.StatusBadRequest)
        return
    }
    http.Error(w, fmt.Sprintf("allocation failed: %v", err), http.StatusInternalServerError)
}
