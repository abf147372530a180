package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/services/validation"
)

// ValidationService is the orchestrator surface the HTTP layer needs.
type ValidationService interface {
	Submit(ctx context.Context, req validation.SubmitRequest) (*validation.SubmitResponse, error)
	Status(ctx context.Context, id string) (*validation.StatusResponse, error)
	Result(ctx context.Context, id string) (*validation.ResultResponse, error)
	Artifact(ctx context.Context, id string) (*validation.Artifact, error)
	Export(ctx context.Context, id string, w io.Writer) (string, error)
}

// multipart framing allowance on top of the file limit
const formOverheadBytes = 1 << 20

// HTTPServer exposes the validation REST surface.
type HTTPServer struct {
	svc            ValidationService
	logger         *slog.Logger
	maxUploadBytes int64
	now            func() time.Time
	srv            *http.Server
}

func NewHTTPServer(addr string, svc ValidationService, maxUploadBytes int64, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{svc: svc, logger: logger, maxUploadBytes: maxUploadBytes, now: time.Now}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("GET /status/{job_id}", s.handleStatus)
	mux.HandleFunc("GET /result/{job_id}", s.handleResult)
	mux.HandleFunc("GET /download-pdf/{job_id}", s.handleDownload)
	mux.HandleFunc("GET /export/{job_id}", s.handleExport)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.withRequestLog(withCORS(mux))
}

func (s *HTTPServer) ListenAndServe() error {
	s.logger.Info("http.serve", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+formOverheadBytes)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, common.NewAppError("INVALID_INPUT", fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUploadBytes), common.ErrInvalidInput))
			return
		}
		s.writeError(w, r, common.NewAppError("INVALID_INPUT", "file is required", common.ErrInvalidInput))
		return
	}
	defer func() { _ = file.Close() }()

	resp, err := s.svc.Submit(r.Context(), validation.SubmitRequest{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
		TraceID:  common.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Status(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleResult(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Result(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	art, err := s.svc.Artifact(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		s.writeError(w, r, common.NewAppError("NOT_FOUND", "Annotated PDF not found", common.ErrNotFound))
		return
	}
	defer func() { _ = f.Close() }()

	// the fallback renderer writes text under the .pdf name; report what is actually there
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.DownloadName}))
	http.ServeContent(w, r, art.DownloadName, art.ModTime, f)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.svc.Export(r.Context(), r.PathValue("job_id"), &buf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Timestamp: s.now().UTC(), Version: constants.Version})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := common.HTTPStatus(err)
	detail := common.PublicMessage(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("http.request.error", "path", r.URL.Path, "req_id", common.RequestIDFromContext(r.Context()), "error", err)
		detail = "internal server error"
	}
	writeJSON(w, code, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// withCORS allows any origin, as the browser frontend is served from elsewhere.
// Preflight requests are answered here and never reach the routes.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(common.WithRequestID(r.Context(), rid)))
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
