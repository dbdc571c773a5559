package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// thresholder is the part of the detector the HTTP API can change
type thresholder interface {
	Threshold() float32
	SetThreshold(v float32)
}

// newRouter returns the routes served alongside the pipeline.  stream may be
// nil when frames are shown in a window
func newRouter(reg *prometheus.Registry, det thresholder, stream http.Handler,
	log *zap.Logger) *mux.Router {

	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}).Methods("GET")

	r.HandleFunc("/threshold", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%.2f\n", det.Threshold())
	}).Methods("GET")

	r.HandleFunc("/threshold", handleSetThreshold(det, log)).Methods("PUT", "POST")

	if stream != nil {
		r.Handle("/stream", stream).Methods("GET")
	}

	return r
}

// handleSetThreshold changes the confidence threshold from the value query
// parameter, the next frame decoded uses it
func handleSetThreshold(det thresholder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		v, err := strconv.ParseFloat(r.URL.Query().Get("value"), 32)

		if err != nil || !(v >= 0 && v <= 1) {
			http.Error(w, "value must be a number within [0,1]", http.StatusBadRequest)
			return
		}

		det.SetThreshold(float32(v))
		log.Info("confidence threshold changed", zap.Float64("threshold", v))

		fmt.Fprintf(w, "%.2f\n", det.Threshold())
	}
}

// newServer returns the HTTP server for addr
func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
