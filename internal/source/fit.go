// Package source decodes workout files into raw workouts.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tormoder/fit"

	"github.com/verte-zerg/runrun/internal/model"
)

// ErrNotRunning is returned for activities recorded as another sport.
var ErrNotRunning = errors.New("activity is not a run")

// Record IDs are derived from the owner and the file content, so importing the same file
// twice for one user is detected while other users can import it too.
var fileNamespace = uuid.MustParse("6f1c2a8e-5d0b-4c43-9a57-0e3c1b7f2d64")

// ReadFile decodes a FIT activity file from disk for userID.
func ReadFile(path, userID string) (model.RawWorkout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RawWorkout{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw, err := ReadFIT(bytes.NewReader(data), userID)
	if err != nil {
		return model.RawWorkout{}, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

// ReadFIT decodes a FIT activity. Summary values come from the first session; the route
// and heart-rate series come from record messages. Invalid sentinel values are dropped.
// The workout belongs to userID.
func ReadFIT(r io.Reader, userID string) (model.RawWorkout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.RawWorkout{}, fmt.Errorf("failed to read fit data: %w", err)
	}
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return model.RawWorkout{}, fmt.Errorf("failed to decode fit: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return model.RawWorkout{}, fmt.Errorf("activity fit expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return model.RawWorkout{}, fmt.Errorf("activity has no session message")
	}
	session := activity.Sessions[0]
	if session.Sport != fit.SportRunning && session.Sport != fit.SportInvalid {
		return model.RawWorkout{}, fmt.Errorf("%v: %w", session.Sport, ErrNotRunning)
	}

	raw := model.RawWorkout{
		ID:            recordID(userID, data),
		UserID:        userID,
		Start:         validTimeOrZero(session.StartTime),
		TotalDistance: safePositive(session.GetTotalDistanceScaled()),
		TotalDuration: safePositive(session.GetTotalTimerTimeScaled()),
	}
	if v := validUint16(session.TotalCalories); v > 0 {
		raw.Calories = floatPtr(float64(v))
	}
	if v := validUint8(session.AvgHeartRate); v > 0 {
		raw.AvgHeartRate = floatPtr(float64(v))
	}
	if v := validUint8(session.MaxHeartRate); v > 0 {
		raw.MaxHeartRate = floatPtr(float64(v))
	}
	// FIT running cadence counts strides (one per foot pair).
	if v := cadenceFromAny(session.GetAvgCadence()); v > 0 {
		raw.Cadence = floatPtr(v * 2)
	}
	if v := validUint32(session.TotalCycles); v > 0 {
		steps := int(v) * 2
		raw.StepCount = &steps
	}

	var lastDistance float64
	for _, rec := range activity.Records {
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		if raw.Start.IsZero() {
			raw.Start = ts
		}
		if hr := validUint8(rec.HeartRate); hr > 0 {
			raw.HeartRates = append(raw.HeartRates, model.HeartRateSample{Time: ts, BPM: float64(hr)})
		}
		if d := safePositive(rec.GetDistanceScaled()); d > 0 {
			lastDistance = d
		}
		if rec.PositionLat.Invalid() || rec.PositionLong.Invalid() {
			continue
		}
		raw.Route = append(raw.Route, model.LocationFix{
			Time:      ts,
			Latitude:  rec.PositionLat.Degrees(),
			Longitude: rec.PositionLong.Degrees(),
		})
	}
	if raw.TotalDistance == 0 {
		raw.TotalDistance = lastDistance
	}
	if raw.TotalDuration == 0 && len(activity.Records) > 1 {
		first := validTimeOrZero(activity.Records[0].Timestamp)
		last := validTimeOrZero(activity.Records[len(activity.Records)-1].Timestamp)
		if !first.IsZero() && last.After(first) {
			raw.TotalDuration = last.Sub(first).Seconds()
		}
	}
	return raw, nil
}

func recordID(userID string, data []byte) string {
	name := make([]byte, 0, len(userID)+1+len(data))
	name = append(name, userID...)
	name = append(name, 0)
	name = append(name, data...)
	return uuid.NewSHA1(fileNamespace, name).String()
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint8(v uint8) uint8 {
	if v == math.MaxUint8 {
		return 0
	}
	return v
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func validUint32(v uint32) uint32 {
	if v == math.MaxUint32 {
		return 0
	}
	return v
}

func cadenceFromAny(v any) float64 {
	switch x := v.(type) {
	case uint8:
		if x == math.MaxUint8 {
			return 0
		}
		return float64(x)
	case uint16:
		if x == math.MaxUint16 {
			return 0
		}
		return float64(x)
	case float64:
		return safePositive(x)
	default:
		return 0
	}
}

func safePositive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func floatPtr(v float64) *float64 {
	return &v
}
