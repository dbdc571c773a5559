package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSource(t *testing.T) {

	tests := []struct {
		in      string
		want    Source
		device  bool
		wantErr bool
	}{
		{in: "0", want: Source{Device: 0}, device: true},
		{in: " 2 ", want: Source{Device: 2}, device: true},
		{in: "video.mp4", want: Source{File: "video.mp4"}},
		{in: "rtsp://cam.local/stream", want: Source{File: "rtsp://cam.local/stream"}},
		{in: "-1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSource(tc.in)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.device, got.IsDevice())
		})
	}
}

func TestStopIdempotent(t *testing.T) {

	h := &Handle{log: zap.NewNop()}

	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())

	_, err := h.GrabFrame()
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, "0", h.source.String())
}
