package gateway

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jarscope/jarscope/internal/pipeline"
)

// errorResponse is the wire shape of every gateway failure: a structured
// error object, never a bare stack trace or a silent empty result.
type errorResponse struct {
	Error *pipeline.Error `json:"error"`
}

// serviceInfo is the root endpoint's body.
type serviceInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// cleanupResponse reports the outcome of a work-directory removal.
type cleanupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, serviceInfo{
		Service: "jarscope",
		Version: s.version,
		Status:  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ResolutionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDecompile(w http.ResponseWriter, r *http.Request) {
	var req pipeline.DecompileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	unit, err := s.svc.DecompileOne(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (s *Server) handleFindAndDecompile(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ResolutionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.svc.FindAndDecompile(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCleanup removes a previously generated work directory. Only paths
// under the configured work root are removable; everything else is rejected.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	workDir := r.URL.Query().Get("work_dir")
	if workDir == "" {
		s.writeError(w, pipeline.NewError(pipeline.KindValidation, "work_dir query parameter is required"))
		return
	}
	if s.workRoot == "" || !isUnder(s.workRoot, workDir) {
		s.writeError(w, pipeline.Errorf(pipeline.KindValidation,
			"work_dir %s is outside the managed work root", workDir))
		return
	}

	if _, err := os.Stat(workDir); err != nil {
		writeJSON(w, http.StatusOK, cleanupResponse{
			Status:  "not_found",
			Message: "directory not found: " + workDir,
		})
		return
	}
	if err := os.RemoveAll(workDir); err != nil {
		s.writeError(w, pipeline.Errorf(pipeline.KindInternal, "cleanup %s: %v", workDir, err))
		return
	}
	s.log.Info("work directory cleaned", "workDir", workDir)
	writeJSON(w, http.StatusOK, cleanupResponse{
		Status:  "success",
		Message: "cleaned up " + workDir,
	})
}

// decodeBody parses the JSON body into dst, writing a validation error and
// returning false on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: pipeline.Errorf(pipeline.KindValidation, "invalid request body: %v", err),
		})
		return false
	}
	return true
}

// writeError maps a pipeline error kind to an HTTP status and writes the
// structured error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	pe := pipeline.AsError(err)
	s.log.Warn("request failed", "kind", pe.Kind, "message", pe.Message)
	writeJSON(w, statusFor(pe.Kind), errorResponse{Error: pe})
}

// statusFor maps error kinds onto HTTP statuses. Validation failures are
// 4xx before any pipeline stage runs; infrastructure failures distinguish
// timeouts and network loss from tool-reported errors.
func statusFor(kind pipeline.ErrorKind) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindArchiveUnreadable:
		return http.StatusNotFound
	case pipeline.KindResolutionFailed, pipeline.KindDecompilationFailed, pipeline.KindDescriptorWrite:
		return http.StatusUnprocessableEntity
	case pipeline.KindNetworkUnavailable:
		return http.StatusBadGateway
	case pipeline.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// isUnder reports whether path is lexically inside root.
func isUnder(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
