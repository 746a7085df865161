package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulsepath-go/internal/analysis"
	"pulsepath-go/internal/handlers"
	"pulsepath-go/internal/metrics"
	"pulsepath-go/internal/models"
	"pulsepath-go/internal/services"
)

type stubAnalyzer struct {
	snap *services.Snapshot
	err  error
	runs int
}

func (s *stubAnalyzer) Latest() *services.Snapshot { return s.snap }

func (s *stubAnalyzer) Run(context.Context) (*services.Snapshot, error) {
	s.runs++
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func testSnapshot() *services.Snapshot {
	rows := []models.LevelRow{
		{ParticipantID: "a", Condition: models.ConditionSync, Level: 1, AvgResponseTime: 0.4, PerformanceEval: 3, StressEval: 2, CertitudeEval: 1, HeartRateBefore: 70, HeartRateAfter: 72},
		{ParticipantID: "b", Condition: models.ConditionAsync, Level: 1, AvgResponseTime: 0.6, PerformanceEval: 4, StressEval: 3, CertitudeEval: 2, HeartRateBefore: 65, HeartRateAfter: 70},
	}
	return &services.Snapshot{
		Report:   analysis.NewAnalyzer(zap.NewNop(), 20).Analyze(rows, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		Sessions: []*metrics.SessionSummary{{SessionID: "s1", ParticipantID: "a"}},
	}
}

func newTestRouter(t *testing.T, a handlers.Analyzer, limit uint) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heart_rate_changes.html"), []byte("<html>chart</html>"), 0o600))
	r := Setup(zap.NewNop(), Options{ChartsDir: dir, RefreshPerMinute: limit},
		handlers.NewReportHandler(zap.NewNop(), a),
		handlers.NewArchiveHandler(zap.NewNop(), nil))
	return r, dir
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	r, _ := newTestRouter(t, &stubAnalyzer{}, 5)
	w := do(r, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestReportBeforeFirstRun(t *testing.T) {
	r, _ := newTestRouter(t, &stubAnalyzer{}, 5)
	for _, path := range []string{"/api/report", "/api/sessions", "/report.txt"} {
		assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, path).Code, path)
	}
}

func TestReportEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, &stubAnalyzer{snap: testSnapshot()}, 5)

	w := do(r, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, w.Code)
	var rep analysis.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.Participants)
	assert.Len(t, rep.Issues, 2)

	w = do(r, http.MethodGet, "/api/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessionId":"s1"`)

	w = do(r, http.MethodGet, "/report.txt")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "STATISTICAL ANALYSIS REPORT")

	w = do(r, http.MethodGet, "/charts/heart_rate_changes.html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chart")
}

func TestRefreshIsRateLimited(t *testing.T) {
	a := &stubAnalyzer{snap: testSnapshot()}
	r, _ := newTestRouter(t, a, 2)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/report/refresh").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/report/refresh").Code)
	w := do(r, http.MethodPost, "/api/report/refresh")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, a.runs)
}

func TestRefreshFailure(t *testing.T) {
	r, _ := newTestRouter(t, &stubAnalyzer{err: errors.New("boom")}, 5)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/api/report/refresh").Code)
}

func TestArchiveDisabled(t *testing.T) {
	r, _ := newTestRouter(t, &stubAnalyzer{}, 5)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/archive").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/archive/abc/ratings").Code)
}
