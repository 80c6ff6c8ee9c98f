package orchestrator

import (
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/florenceapi/internal/model"
    "github.com/local/florenceapi/internal/storage"
    "github.com/local/florenceapi/internal/task"
)

// maxUploadBytes bounds one multipart upload.
const maxUploadBytes = 32 << 20

// Server exposes the orchestrator over HTTP.
type Server struct {
    orch *Orchestrator
}

func NewServer(orch *Orchestrator) *Server {
    return &Server{orch: orch}
}

// RegisterRoutes attaches the API surface to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/predict", s.handlePredict)
    mux.HandleFunc("/tasks", s.handleTasks)
    mux.HandleFunc("/predictions/", s.handlePrediction)
    mux.HandleFunc("/health", s.handleHealth)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        writeError(w, http.StatusMethodNotAllowed, "method not allowed")
        return
    }

    requestID := correlationID(r)
    w.Header().Set("X-Request-ID", requestID)

    r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
    if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
        writeError(w, http.StatusBadRequest, "invalid multipart form")
        return
    }

    file, header, err := r.FormFile("file")
    if err != nil {
        writeError(w, http.StatusBadRequest, "missing file field")
        return
    }
    defer file.Close()

    data, err := io.ReadAll(file)
    if err != nil {
        writeError(w, http.StatusBadRequest, "unreadable file upload")
        return
    }

    persist := true
    if raw := r.FormValue("persist"); raw != "" {
        v, err := strconv.ParseBool(raw)
        if err != nil {
            writeError(w, http.StatusBadRequest, "persist must be a boolean")
            return
        }
        persist = v
    }

    req := Request{
        Task:          r.FormValue("task"),
        TextInput:     r.FormValue("text_input"),
        ImageBytes:    data,
        Filename:      header.Filename,
        Persist:       persist,
        CorrelationID: requestID,
    }

    resp, err := s.orch.Run(r.Context(), req)
    if err != nil {
        s.writePipelineError(w, requestID, req.Task, err)
        return
    }
    writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        writeError(w, http.StatusMethodNotAllowed, "method not allowed")
        return
    }

    ids := task.All()
    if r.URL.Query().Get("describe") == "" {
        writeJSON(w, http.StatusOK, map[string][]string{"tasks": ids})
        return
    }

    described := make([]map[string]string, 0, len(ids))
    for _, id := range ids {
        category, _ := task.CategoryOf(id)
        described = append(described, map[string]string{
            "task":        id,
            "category":    string(category),
            "description": task.Describe(id),
        })
    }
    writeJSON(w, http.StatusOK, map[string]any{"tasks": described})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        writeError(w, http.StatusMethodNotAllowed, "method not allowed")
        return
    }
    id := strings.TrimPrefix(r.URL.Path, "/predictions/")
    if id == "" || strings.Contains(id, "/") {
        writeError(w, http.StatusNotFound, "prediction not found")
        return
    }

    links, err := s.orch.Refresh(r.Context(), id)
    if err != nil {
        var notFound *storage.NotFoundError
        if errors.As(err, &notFound) {
            writeError(w, http.StatusNotFound, "prediction not found")
            return
        }
        log.Error().Err(err).Str("request_id", id).Msg("link refresh failed")
        writeError(w, http.StatusInternalServerError, "storage error while refreshing links")
        return
    }
    writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writePipelineError maps pipeline failures to HTTP statuses. Responses name
// the task and request id only; internals stay in the logs.
func (s *Server) writePipelineError(w http.ResponseWriter, requestID, taskID string, err error) {
    var (
        unsupported *task.UnsupportedError
        validation  *ValidationError
        inference   *model.InferenceError
        notFound    *storage.NotFoundError
        storeErr    *storage.StoreError
    )
    switch {
    case errors.As(err, &unsupported):
        writeError(w, http.StatusBadRequest, unsupported.Error())
    case errors.As(err, &validation):
        writeError(w, http.StatusBadRequest, validation.Error())
    case errors.Is(err, ErrBusy):
        writeError(w, http.StatusServiceUnavailable, "server busy, retry later")
    case errors.As(err, &notFound):
        writeError(w, http.StatusNotFound, "object not found")
    case errors.As(err, &inference):
        log.Error().Err(err).Str("task", taskID).Str("request_id", requestID).Msg("model inference failed")
        writeError(w, http.StatusInternalServerError, fmt.Sprintf("inference failed for task %s (request %s)", taskID, requestID))
    case errors.As(err, &storeErr):
        log.Error().Err(err).Str("task", taskID).Str("request_id", requestID).Msg("artifact storage failed")
        writeError(w, http.StatusInternalServerError, fmt.Sprintf("storage failed for task %s (request %s)", taskID, requestID))
    default:
        log.Error().Err(err).Str("task", taskID).Str("request_id", requestID).Msg("inference pipeline failed")
        writeError(w, http.StatusInternalServerError, fmt.Sprintf("request %s failed", requestID))
    }
}

// correlationID reads the caller's correlation header, minting one when the
// caller sent none.
func correlationID(r *http.Request) string {
    if v := r.Header.Get("X-Correlation-Id"); v != "" {
        return v
    }
    if v := r.Header.Get("X-Request-Id"); v != "" {
        return v
    }
    return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    if err := json.NewEncoder(w).Encode(payload); err != nil {
        log.Error().Err(err).Msg("failed to encode response")
    }
}

func writeError(w http.ResponseWriter, status int, message string) {
    writeJSON(w, status, map[string]string{"error": message})
}
