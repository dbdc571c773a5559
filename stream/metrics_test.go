package stream

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/detlite/go-detlite/postprocess"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPSMeterFiresEveryFrequencyCalls(t *testing.T) {

	mock := clock.NewMock()

	var fired []int
	var values []string
	call := 0

	meter := NewFPSMeter(10, func(fps string) {
		fired = append(fired, call)
		values = append(values, fps)
	}, WithFPSClock(mock))

	for call = 1; call <= 25; call++ {
		mock.Add(100 * time.Millisecond)
		meter.Tick()
	}

	assert.Equal(t, []int{10, 20}, fired)
	assert.Equal(t, []string{"10.00", "10.00"}, values)
}

func TestFPSMeterRateFromElapsedTime(t *testing.T) {

	mock := clock.NewMock()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fps"})

	var got string

	meter := NewFPSMeter(4, func(fps string) {
		got = fps
	}, WithFPSClock(mock), WithFPSGauge(gauge))

	// 4 frames over 3 seconds
	for i := 0; i < 4; i++ {
		mock.Add(750 * time.Millisecond)
		meter.Tick()
	}

	assert.Equal(t, "1.33", got)
	assert.InDelta(t, 4.0/3.0, testutil.ToFloat64(gauge), 1e-9)
}

func TestFPSMeterPassThrough(t *testing.T) {

	meter := NewFPSMeter(1, nil, WithFPSClock(clock.NewMock()))

	in := Frame{
		Index: 7,
		Boxes: []postprocess.BoundingBox{{X: 0.25, Y: 0.5, Width: 0.1, Height: 0.2}},
	}

	out := meter.Process(in)

	assert.Equal(t, in, out)
}

func TestFPSMeterDefaultFrequency(t *testing.T) {

	mock := clock.NewMock()
	fires := 0

	meter := NewFPSMeter(0, func(string) { fires++ }, WithFPSClock(mock))

	for i := 0; i < DefaultFPSFrequency; i++ {
		mock.Add(time.Millisecond)
		meter.Tick()
	}

	assert.Equal(t, 1, fires)
}

// waitAsync runs pacer.Wait in the background
func waitAsync(ctx context.Context, pacer Pacer) <-chan error {

	done := make(chan error, 1)

	go func() {
		done <- pacer.Wait(ctx)
	}()

	return done
}

func TestRefreshPacer(t *testing.T) {

	mock := clock.NewMock()
	pacer := NewRefreshPacer(mock, 10)
	defer pacer.Stop()

	first := waitAsync(context.Background(), pacer)

	// let the first Wait start the ticker
	time.Sleep(20 * time.Millisecond)
	mock.Add(100 * time.Millisecond)

	select {
	case err := <-first:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after the refresh tick")
	}

	// a tick delivered between waits is not lost
	mock.Add(100 * time.Millisecond)
	require.NoError(t, pacer.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pacer.Wait(ctx), context.Canceled)
}

func TestRefreshPacerStartsOnFirstWait(t *testing.T) {

	mock := clock.NewMock()
	pacer := NewRefreshPacer(mock, 10)
	defer pacer.Stop()

	// time passing before the first Wait does not count towards a tick
	mock.Add(time.Second)

	done := waitAsync(context.Background(), pacer)

	select {
	case <-done:
		t.Fatalf("Wait returned on a tick from before it started")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(100 * time.Millisecond)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after the refresh tick")
	}
}

func TestRefreshPacerStopBeforeWait(t *testing.T) {
	// never started so there is no ticker to stop
	NewRefreshPacer(clock.NewMock(), 0).Stop()
}

func TestRefreshPacerWaitsForTick(t *testing.T) {

	mock := clock.NewMock()
	pacer := NewRefreshPacer(mock, 0)
	defer pacer.Stop()

	done := waitAsync(context.Background(), pacer)

	select {
	case <-done:
		t.Fatalf("Wait returned before the refresh tick")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(time.Second / DefaultRefreshRate)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after the refresh tick")
	}
}
