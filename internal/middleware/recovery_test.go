package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type panickingHandler struct {
	panic  bool
	called bool
}

func (p *panickingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	p.called = true
	if p.panic {
		panic("rollup exploded")
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestPanicRecovery_NoPanic(t *testing.T) {
	m := metrics.NewTestManager()
	next := &panickingHandler{}

	rr := httptest.NewRecorder()
	PanicRecovery(m)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil))

	assert.True(t, next.called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterHandleRequestPanic))
}

func TestPanicRecovery_Panic(t *testing.T) {
	m := metrics.NewTestManager()
	next := &panickingHandler{panic: true}

	req := httptest.NewRequest(http.MethodPost, "/sync/push", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{OwnerKey: "owner-1"}))
	rr := httptest.NewRecorder()
	PanicRecovery(m)(next).ServeHTTP(rr, req)

	assert.True(t, next.called)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterHandleRequestPanic))
}

func TestPanicRecovery_NilMetrics(t *testing.T) {
	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		PanicRecovery(nil)(&panickingHandler{panic: true}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
