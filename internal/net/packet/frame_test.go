package packet

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/track"
)

func sampleDetections(n int) []Detection {
	base := time.UnixMilli(1_700_000_000_123)
	dets := make([]Detection, n)
	for i := range dets {
		f := float64(i)
		dets[i] = Detection{
			ID:         int32(i + 1),
			Position:   geom.V(-800+f*13.25, 400-f*7.5),
			Velocity:   geom.V(50-f, f*0.1),
			Time:       base.Add(time.Duration(i) * time.Millisecond),
			Distance:   300 + f*1.125,
			Azimuth:    f * 0.01,
			Shape:      track.Shape(i % 2),
			Profile:    track.SpeedProfile((i + 1) % 2),
			Direction:  -1.25 + f*0.02,
			Speed:      42.5 + f,
			Parametric: i%3 != 0,
		}
	}
	return dets
}

func TestFrameRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 17} {
		dets := sampleDetections(n)
		ts := time.UnixMilli(1_700_000_000_999)

		data, err := EncodeFrame(ts, dets)
		require.NoError(t, err)
		require.Len(t, data, HeaderSize+n*RecordSize)

		f, err := DecodeFrame(data)
		require.NoError(t, err)
		assert.True(t, ts.Equal(f.Timestamp))
		require.Len(t, f.Detections, n)
		for i, got := range f.Detections {
			want := dets[i]
			assert.Equal(t, want.ID, got.ID)
			assert.InDelta(t, want.Position.X, got.Position.X, 1e-12)
			assert.InDelta(t, want.Position.Y, got.Position.Y, 1e-12)
			assert.InDelta(t, want.Distance, got.Distance, 1e-12)
			assert.InDelta(t, want.Azimuth, got.Azimuth, 1e-12)
			assert.Equal(t, want.Shape, got.Shape)
			assert.Equal(t, want.Profile, got.Profile)
			assert.Equal(t, want.Parametric, got.Parametric)
			assert.True(t, want.Time.Equal(got.Time))
		}
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	data, err := EncodeFrame(time.UnixMilli(42), sampleDetections(2))
	require.NoError(t, err)

	assert.Equal(t, []byte("RADR"), data[0:4], "magic is little-endian 0x52444152")
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, int64(42), int64(binary.LittleEndian.Uint64(data[8:16])))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, int32(1), int32(binary.LittleEndian.Uint32(data[20:24])))
	assert.Equal(t, byte(0), data[HeaderSize+RecordSize-1], "first record is not parametric")
	assert.Equal(t, byte(1), data[HeaderSize+2*RecordSize-1])
}

func TestDecodeRejects(t *testing.T) {
	good, err := EncodeFrame(time.Now(), sampleDetections(3))
	require.NoError(t, err)

	badMagic := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badMagic[0:4], 0xdeadbeef)

	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badVersion[4:8], 2)

	overCount := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(overCount[16:20], 4)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortFrame},
		{"header cut", good[:HeaderSize-1], ErrShortFrame},
		{"bad magic", badMagic, ErrBadMagic},
		{"bad version", badVersion, ErrUnsupportedVersion},
		{"body cut", good[:len(good)-1], ErrShortFrame},
		{"count beyond body", overCount, ErrShortFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame(tt.data)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.Detections)
		})
	}
}

func TestEncodeTooManyRecords(t *testing.T) {
	_, err := EncodeFrame(time.Now(), make([]Detection, MaxRecords+1))
	assert.ErrorIs(t, err, ErrTooManyRecords)
}
