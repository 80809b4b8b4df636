// Package timecode converts between frame-quantized HH:MM:SS:FF strings
// and seconds at 30 frames per second.
//
// Conversions truncate to whole frames. A timecode survives a trip through
// seconds and back unchanged, but arbitrary seconds only survive at frame
// granularity.
package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/starford/sislog/internal/apperr"
)

// FramesPerSecond is the fixed frame rate.
const FramesPerSecond = 30

// Zero is the timecode at zero seconds.
const Zero = "00:00:00:00"

// frameEpsilon absorbs float error when F/30 is added back onto whole
// seconds, so 10/30 still truncates to frame 10 rather than 9.
const frameEpsilon = 1e-6

// wallClockFrameMillis is the frame width used when deriving a frame from
// wall-clock milliseconds.
const wallClockFrameMillis = 33.33

// Hours take two or more digits so that a manual run past 99 hours still
// parses back; the other fields are exactly two.
var pattern = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}):(\d{2})$`)

// Timecode is a parsed HH:MM:SS:FF value.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

// Parse validates s and splits it into its fields. Minutes and seconds
// must be below 60 and frames below FramesPerSecond.
func Parse(s string) (Timecode, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Timecode{}, fmt.Errorf("%w: %q is not HH:MM:SS:FF", apperr.ErrInvalidTimecode, s)
	}
	fields := make([]int, 4)
	for i := range fields {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: %q is out of range", apperr.ErrInvalidTimecode, s)
		}
		fields[i] = n
	}
	tc := Timecode{Hours: fields[0], Minutes: fields[1], Seconds: fields[2], Frames: fields[3]}
	switch {
	case tc.Minutes >= 60:
		return Timecode{}, fmt.Errorf("%w: minutes out of range in %q", apperr.ErrInvalidTimecode, s)
	case tc.Seconds >= 60:
		return Timecode{}, fmt.Errorf("%w: seconds out of range in %q", apperr.ErrInvalidTimecode, s)
	case tc.Frames >= FramesPerSecond:
		return Timecode{}, fmt.Errorf("%w: frames out of range in %q", apperr.ErrInvalidTimecode, s)
	}
	return tc, nil
}

// Validate reports whether s is a well-formed timecode.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// TotalSeconds returns H*3600 + M*60 + S + F/30.
func (tc Timecode) TotalSeconds() float64 {
	return float64(tc.Hours*3600+tc.Minutes*60+tc.Seconds) + float64(tc.Frames)/FramesPerSecond
}

// String formats tc with every field zero-padded to at least two digits.
func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames)
}

// ToSeconds parses s and returns its value in seconds.
func ToSeconds(s string) (float64, error) {
	tc, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return tc.TotalSeconds(), nil
}

// FromSeconds formats total seconds as a timecode, truncating to the frame.
// Negative and NaN inputs yield Zero. Hours do not wrap at 24.
func FromSeconds(total float64) string {
	return FromFrames(secondsToFrames(total))
}

// FromFrames formats a whole number of frames as a timecode.
func FromFrames(frames int64) string {
	if frames < 0 {
		frames = 0
	}
	const framesPerHour = 3600 * FramesPerSecond
	const framesPerMinute = 60 * FramesPerSecond
	tc := Timecode{
		Hours:   int(frames / framesPerHour),
		Minutes: int(frames % framesPerHour / framesPerMinute),
		Seconds: int(frames % framesPerMinute / FramesPerSecond),
		Frames:  int(frames % FramesPerSecond),
	}
	return tc.String()
}

// FromWallClock returns the time of day of t as a timecode, with the frame
// taken from the millisecond part of the current second.
func FromWallClock(t time.Time) string {
	ms := t.Nanosecond() / int(time.Millisecond)
	frame := int(math.Floor(float64(ms) / wallClockFrameMillis))
	if frame >= FramesPerSecond {
		frame = FramesPerSecond - 1
	}
	tc := Timecode{
		Hours:   t.Hour(),
		Minutes: t.Minute(),
		Seconds: t.Second(),
		Frames:  frame,
	}
	return tc.String()
}

// Elapsed returns base advanced by d, computed from the absolute offset
// rather than accumulated, so repeated calls do not drift.
func Elapsed(base Timecode, d time.Duration) string {
	return FromSeconds(base.TotalSeconds() + d.Seconds())
}

func secondsToFrames(total float64) int64 {
	if math.IsNaN(total) || total <= 0 {
		return 0
	}
	return int64(math.Floor(total*FramesPerSecond + frameEpsilon))
}
