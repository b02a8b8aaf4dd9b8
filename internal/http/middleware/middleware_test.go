package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedHTTP struct {
	route  string
	status int
}

type fakeRecorder struct {
	mu       sync.Mutex
	seen     []recordedHTTP
	inFlight float64
}

func (f *fakeRecorder) ObserveHTTP(route, _ string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedHTTP{route: route, status: status})
}

func (f *fakeRecorder) InFlight(d float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight += d
}

func newEngine(buf *bytes.Buffer, mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(zerolog.New(buf)), Recovery(), Logging())
	r.Use(mws...)
	r.GET("/ok/:id", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	return r
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok/1", nil))
	id := w.Header().Get(HeaderRequestID)
	require.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok/1", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRecovery_ReturnsJSON500(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "kaboom")
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	rec := &fakeRecorder{}
	r := newEngine(&buf, Metrics(rec))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, rec.seen, 2)
	assert.Equal(t, recordedHTTP{route: "/ok/:id", status: 200}, rec.seen[0])
	assert.Equal(t, recordedHTTP{route: "unmatched", status: 404}, rec.seen[1])
	assert.Equal(t, 0.0, rec.inFlight)
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf, RateLimit(0.001, 2))

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok/1", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf, RateLimit(0, 0))
	for range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok/1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
