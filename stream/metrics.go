package stream

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultFPSFrequency is the number of frames between FPS samples
const DefaultFPSFrequency = 10

// FPSMeter is a pass through Stage that samples the frame rate every
// frequency frames and reports it to an observer
type FPSMeter struct {
	frequency  int
	counter    int
	lastSample time.Time
	clock      clock.Clock
	observer   func(fps string)
	gauge      prometheus.Gauge
}

// FPSOption sets optional FPSMeter parameters
type FPSOption func(*FPSMeter)

// WithFPSClock sets the clock used to time samples
func WithFPSClock(clk clock.Clock) FPSOption {
	return func(m *FPSMeter) {
		m.clock = clk
	}
}

// WithFPSGauge also records every sample on the gauge
func WithFPSGauge(g prometheus.Gauge) FPSOption {
	return func(m *FPSMeter) {
		m.gauge = g
	}
}

// NewFPSMeter returns an FPSMeter calling observer with the rate formatted to
// two decimal places on every frequency-th frame.  A frequency that is not
// positive uses DefaultFPSFrequency
func NewFPSMeter(frequency int, observer func(fps string), opts ...FPSOption) *FPSMeter {

	if frequency <= 0 {
		frequency = DefaultFPSFrequency
	}

	m := &FPSMeter{
		frequency: frequency,
		clock:     clock.New(),
		observer:  observer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.lastSample = m.clock.Now()

	return m
}

// Process counts the frame and returns it unchanged
func (m *FPSMeter) Process(f Frame) Frame {
	m.Tick()
	return f
}

// Tick counts one frame, sampling the rate on every frequency-th call
func (m *FPSMeter) Tick() {

	m.counter++

	if m.counter%m.frequency != 0 {
		return
	}

	now := m.clock.Now()
	elapsed := now.Sub(m.lastSample).Seconds()
	m.lastSample = now

	fps := float64(m.frequency) / elapsed

	if m.gauge != nil {
		m.gauge.Set(fps)
	}

	if m.observer != nil {
		m.observer(fmt.Sprintf("%.2f", fps))
	}
}

// Metrics are the Prometheus collectors of a pipeline
type Metrics struct {
	// Frames counts frames fully processed
	Frames prometheus.Counter
	// Boxes counts boxes detected
	Boxes prometheus.Counter
	// Inference observes the time taken to detect objects in a frame
	Inference prometheus.Histogram
	// FPS is the last sampled frame rate
	FPS prometheus.Gauge
	// Errors counts runs ending in error by kind
	Errors *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {

	m := &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detlite",
			Subsystem: "pipeline",
			Name:      "frames_total",
			Help:      "Number of frames processed.",
		}),
		Boxes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detlite",
			Subsystem: "pipeline",
			Name:      "boxes_total",
			Help:      "Number of bounding boxes detected.",
		}),
		Inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "detlite",
			Subsystem: "pipeline",
			Name:      "inference_seconds",
			Help:      "Time taken to detect objects in a single frame.",
			Buckets:   prometheus.ExponentialBuckets(0.002, 2, 10),
		}),
		FPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "detlite",
			Subsystem: "pipeline",
			Name:      "fps",
			Help:      "Last sampled frames per second.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detlite",
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Number of runs ended by an error.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.Frames, m.Boxes, m.Inference, m.FPS, m.Errors} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("error registering metric: %w", err)
		}
	}

	return m, nil
}
