package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/thesis-checker/internal/async"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
	"github.com/joseph-ayodele/thesis-checker/internal/report"
	"github.com/joseph-ayodele/thesis-checker/internal/repository"
	"github.com/joseph-ayodele/thesis-checker/internal/server"
	"github.com/joseph-ayodele/thesis-checker/internal/services/validation"
	"github.com/joseph-ayodele/thesis-checker/internal/storage"
	"github.com/joseph-ayodele/thesis-checker/internal/testutil"
)

type completerFunc func(ctx context.Context, req llm.CompletionRequest) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return f(ctx, req)
}

const modelReply = `Here are the issues:
[{"page_number": 2, "severity": "MAJOR", "message": "Bibliography is not in APA style", "category": "citations"},
 {"page_number": 1, "severity": "MINOR", "message": "Table 1 caption sits below the table", "category": "formatting"}]`

func newTestServer(t *testing.T, rich bool) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFileStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "output"), nil)
	require.NoError(t, err)
	repo := repository.NewMemoryJobRepository(nil)

	engine := llm.NewEngine(completerFunc(func(context.Context, llm.CompletionRequest) (string, error) {
		return modelReply, nil
	}), nil, llm.EngineConfig{Model: "test-model"}, nil)
	renderer := report.Select(report.NewPDFRenderer(rich, nil), report.TextRenderer{}, nil)
	proc := pipeline.NewProcessor(nil, repo, files, engine, renderer, nil)

	queue := async.NewProcessorQueue(proc, nil, async.WithWorkers(2), async.WithQueueSize(8))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		queue.Shutdown(ctx)
	})

	svc := validation.NewService(repo, files, queue, nil, validation.Config{MaxUploadBytes: 5 << 20}, nil)
	ts := httptest.NewServer(server.NewHTTPServer("", svc, 5<<20, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, ts *httptest.Server, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/validate", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type statusBody struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Progress   string `json:"progress"`
	ErrorCount *int   `json:"error_count"`
}

func waitFinished(t *testing.T, ts *httptest.Server, id string) statusBody {
	t.Helper()
	var st statusBody
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/status/" + id)
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		var cur statusBody
		if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&cur) != nil {
			return false
		}
		st = cur
		return cur.Status == "completed" || cur.Status == "failed"
	}, 10*time.Second, 20*time.Millisecond)
	return st
}

type resultBody struct {
	JobID      string `json:"job_id"`
	ErrorCount int    `json:"error_count"`
	Errors     []struct {
		PageNumber int    `json:"page_number"`
		Severity   string `json:"severity"`
		Message    string `json:"message"`
		Category   string `json:"category"`
	} `json:"errors"`
	Summary     map[string]int `json:"summary"`
	DownloadURL string         `json:"download_url"`
}

func thesisPDF(t *testing.T) []byte {
	t.Helper()
	data, err := testutil.PDF(
		"University of Ljubljana\nFAKULTETA ZA DRUŽBENE VEDE\nJana Novak\nMagistrska naloga",
		"Povzetek\nThis thesis studies civic participation.",
		"Literatura\nNovak, J. (2019). Civic life.",
	)
	require.NoError(t, err)
	return data
}

func TestHTTP_EndToEnd_UniversityNameIsCritical(t *testing.T) {
	ts := newTestServer(t, true)

	resp := upload(t, ts, "thesis.pdf", thesisPDF(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var submitted struct {
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	assert.Equal(t, "processing", submitted.Status)
	require.NotEmpty(t, submitted.JobID)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	st := waitFinished(t, ts, submitted.JobID)
	require.Equal(t, "completed", st.Status, st.Progress)
	require.NotNil(t, st.ErrorCount)

	var res resultBody
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/result/"+submitted.JobID, &res))
	assert.Equal(t, *st.ErrorCount, len(res.Errors))
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "CRITICAL", res.Errors[0].Severity, "critical findings lead the list")

	universityRule := false
	for _, f := range res.Errors {
		if f.Severity == "CRITICAL" && f.Category == "identity" && strings.Contains(f.Message, "UNIVERZA V LJUBLJANI") {
			universityRule = true
			assert.Contains(t, f.Message, "University of Ljubljana")
		}
	}
	assert.True(t, universityRule, "expected a critical university-name finding in %+v", res.Errors)
	assert.Equal(t, 1, res.Summary["MAJOR"])
	assert.Equal(t, 1, res.Summary["MINOR"])
	assert.GreaterOrEqual(t, res.Summary["CRITICAL"], 1)

	dl, err := http.Get(ts.URL + res.DownloadURL)
	require.NoError(t, err)
	defer func() { _ = dl.Body.Close() }()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/pdf", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "validated_thesis.pdf")
	raw, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	ex, err := http.Get(ts.URL + "/export/" + submitted.JobID)
	require.NoError(t, err)
	defer func() { _ = ex.Body.Close() }()
	assert.Equal(t, http.StatusOK, ex.StatusCode)
	assert.Contains(t, ex.Header.Get("Content-Disposition"), ".xlsx")
}

func TestHTTP_RendererFallbackStillDownloads(t *testing.T) {
	ts := newTestServer(t, false)

	resp := upload(t, ts, "thesis.pdf", thesisPDF(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var submitted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	require.Equal(t, "completed", waitFinished(t, ts, submitted.JobID).Status)

	var res resultBody
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/result/"+submitted.JobID, &res))

	dl, err := http.Get(ts.URL + "/download-pdf/" + submitted.JobID)
	require.NoError(t, err)
	defer func() { _ = dl.Body.Close() }()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.True(t, strings.HasPrefix(dl.Header.Get("Content-Type"), "text/plain"))
	raw, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "FDV THESIS VALIDATION REPORT")
	assert.Contains(t, text, fmt.Sprintf("Critical errors: %d", res.Summary["CRITICAL"]))
	assert.Contains(t, text, fmt.Sprintf("Major errors: %d", res.Summary["MAJOR"]))
	assert.Contains(t, text, fmt.Sprintf("Minor errors: %d", res.Summary["MINOR"]))
}

func TestHTTP_RejectsNonPDF(t *testing.T) {
	ts := newTestServer(t, true)
	resp := upload(t, ts, "thesis.docx", []byte("PK\x03\x04"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Only PDF files are supported", body.Detail)
}

func TestHTTP_MissingFileField(t *testing.T) {
	ts := newTestServer(t, true)
	resp, err := http.Post(ts.URL+"/validate", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_CorruptPDFFailsJob(t *testing.T) {
	ts := newTestServer(t, true)
	resp := upload(t, ts, "broken.pdf", []byte("definitely not a pdf"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var submitted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))

	st := waitFinished(t, ts, submitted.JobID)
	assert.Equal(t, "failed", st.Status)
	assert.True(t, strings.HasPrefix(st.Progress, "Validation failed:"))

	var body struct {
		Detail string `json:"detail"`
	}
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/result/"+submitted.JobID, &body))
	assert.Equal(t, "Validation not completed yet", body.Detail)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/download-pdf/"+submitted.JobID, nil))
}

func TestHTTP_UnknownJob(t *testing.T) {
	ts := newTestServer(t, true)
	for _, path := range []string{"/status/", "/result/", "/download-pdf/", "/export/"} {
		var body struct {
			Detail string `json:"detail"`
		}
		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+path+"missing-id", &body), path)
		assert.Equal(t, "Job ID not found", body.Detail)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newTestServer(t, true)
	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Version   string    `json:"version"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "1.0.0", body.Version)
	assert.False(t, body.Timestamp.IsZero())
}

func TestHTTP_CORS(t *testing.T) {
	ts := newTestServer(t, true)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/validate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "Content-Disposition")

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
