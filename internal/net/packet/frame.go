package packet

import (
	"errors"
	"fmt"
	"time"

	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/track"
)

const (
	Magic   uint32 = 0x52444152 // "RDAR"
	Version uint32 = 1

	HeaderSize = 4 + 4 + 8 + 4
	RecordSize = 4 + 16 + 16 + 8 + 8 + 8 + 4 + 4 + 8 + 8 + 1

	// MaxRecords keeps a frame inside one UDP datagram.
	MaxRecords = (65507 - HeaderSize) / RecordSize
)

var (
	ErrShortFrame         = errors.New("packet: short frame")
	ErrBadMagic           = errors.New("packet: bad magic")
	ErrUnsupportedVersion = errors.New("packet: unsupported version")
	ErrTooManyRecords     = errors.New("packet: too many records")
)

// Detection is one radar observation of an entity.
type Detection struct {
	ID         int32
	Position   geom.Vec2
	Velocity   geom.Vec2
	Time       time.Time
	Distance   float64
	Azimuth    float64 // radians, [0, 2π), 0 = north, clockwise
	Shape      track.Shape
	Profile    track.SpeedProfile
	Direction  float64
	Speed      float64
	Parametric bool
}

// Frame is one scan as sent on the wire.
type Frame struct {
	Timestamp  time.Time
	Detections []Detection
}

// EncodeFrame serializes a scan. Timestamps are carried in milliseconds.
func EncodeFrame(ts time.Time, dets []Detection) ([]byte, error) {
	if len(dets) > MaxRecords {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRecords, len(dets), MaxRecords)
	}
	w := NewWriterSize(HeaderSize + len(dets)*RecordSize)
	w.WriteDU(Magic)
	w.WriteDU(Version)
	w.WriteQ(ts.UnixMilli())
	w.WriteDU(uint32(len(dets)))
	for i := range dets {
		d := &dets[i]
		w.WriteD(d.ID)
		w.WriteF(d.Position.X)
		w.WriteF(d.Position.Y)
		w.WriteF(d.Velocity.X)
		w.WriteF(d.Velocity.Y)
		w.WriteQ(d.Time.UnixMilli())
		w.WriteF(d.Distance)
		w.WriteF(d.Azimuth)
		w.WriteDU(uint32(d.Shape))
		w.WriteDU(uint32(d.Profile))
		w.WriteF(d.Direction)
		w.WriteF(d.Speed)
		w.WriteBool(d.Parametric)
	}
	return w.Bytes(), nil
}

// DecodeFrame validates magic and version before touching the body, and
// rejects the whole frame when the body is shorter than its record count.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(data))
	}
	r := NewReader(data)
	if m := r.ReadDU(); m != Magic {
		return Frame{}, fmt.Errorf("%w: 0x%08x", ErrBadMagic, m)
	}
	if v := r.ReadDU(); v != Version {
		return Frame{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	f := Frame{Timestamp: time.UnixMilli(r.ReadQ())}
	count := int(r.ReadDU())
	if r.Remaining() < count*RecordSize || count > MaxRecords {
		return Frame{}, fmt.Errorf("%w: %d records need %d bytes, have %d",
			ErrShortFrame, count, count*RecordSize, r.Remaining())
	}

	f.Detections = make([]Detection, count)
	for i := range f.Detections {
		d := &f.Detections[i]
		d.ID = r.ReadD()
		d.Position = geom.V(r.ReadF(), r.ReadF())
		d.Velocity = geom.V(r.ReadF(), r.ReadF())
		d.Time = time.UnixMilli(r.ReadQ())
		d.Distance = r.ReadF()
		d.Azimuth = r.ReadF()
		d.Shape = track.Shape(r.ReadDU())
		d.Profile = track.SpeedProfile(r.ReadDU())
		d.Direction = r.ReadF()
		d.Speed = r.ReadF()
		d.Parametric = r.ReadBool()
	}
	if r.Short() {
		return Frame{}, ErrShortFrame
	}
	return f, nil
}
