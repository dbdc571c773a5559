package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeThreshold struct {
	v float32
}

func (f *fakeThreshold) Threshold() float32     { return f.v }
func (f *fakeThreshold) SetThreshold(v float32) { f.v = v }

func TestRouterThreshold(t *testing.T) {

	det := &fakeThreshold{v: 0.5}
	r := newRouter(prometheus.NewRegistry(), det, nil, zap.NewNop())

	tests := []struct {
		method string
		target string
		code   int
		body   string
		want   float32
	}{
		{method: "GET", target: "/threshold", code: http.StatusOK, body: "0.50", want: 0.5},
		{method: "PUT", target: "/threshold?value=0.75", code: http.StatusOK, body: "0.75", want: 0.75},
		{method: "PUT", target: "/threshold?value=1.5", code: http.StatusBadRequest, want: 0.75},
		{method: "PUT", target: "/threshold?value=high", code: http.StatusBadRequest, want: 0.75},
		{method: "POST", target: "/threshold?value=0", code: http.StatusOK, body: "0.00", want: 0},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))

		assert.Equal(t, tc.code, rec.Code, "%s %s", tc.method, tc.target)
		assert.Equal(t, tc.want, det.v, "%s %s", tc.method, tc.target)

		if tc.body != "" {
			assert.Equal(t, tc.body, strings.TrimSpace(rec.Body.String()))
		}
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "sample_total", Help: "sample"}))

	r := newRouter(reg, &fakeThreshold{}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sample_total")

	// no stream route without an MJPEG display
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/stream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
