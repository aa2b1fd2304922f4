package series

import (
	"fmt"
	"strings"
	"time"

	"github.com/vjranagit/omfseries/pkg/types"
)

// TimestampLayout is the YYYYMMDDHH form accepted for range endpoints
const TimestampLayout = "2006010215"

// Bound is a range endpoint given either as a time or as YYYYMMDDHH text
type Bound struct {
	time time.Time
	text string
	set  bool
}

// At returns a bound holding t
func At(t time.Time) Bound {
	return Bound{time: t, set: true}
}

// Text returns a bound to be parsed from s
func Text(s string) Bound {
	return Bound{text: s}
}

// Resolve yields the bound as a UTC time truncated to the hour
func (b Bound) Resolve() (time.Time, error) {
	if b.set {
		return b.time.UTC().Truncate(time.Hour), nil
	}
	return ParseTimestamp(b.text)
}

func (b Bound) String() string {
	if b.set {
		return b.time.UTC().Format(TimestampLayout)
	}
	return b.text
}

// ParseTimestamp parses "YYYYMMDDHH" or "YYYYMMDD HH" as a UTC hour
func ParseTimestamp(s string) (time.Time, error) {
	merged := strings.TrimSpace(s)
	if len(merged) == len("20060102 15") && merged[8] == ' ' {
		merged = merged[:8] + merged[9:]
	}
	if len(merged) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYYMMDDHH", types.ErrParse, s)
	}
	t, err := time.ParseInLocation(TimestampLayout, merged, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYYMMDDHH: %v", types.ErrParse, s, err)
	}
	return t, nil
}

// TimeRange is an inclusive span of whole hours
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange checks start <= end
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	start = start.UTC().Truncate(time.Hour)
	end = end.UTC().Truncate(time.Hour)
	if start.After(end) {
		return TimeRange{}, fmt.Errorf("%w: start %s is after end %s", types.ErrInvalidArgument,
			start.Format(TimestampLayout), end.Format(TimestampLayout))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Len returns the number of hourly timestamps, counting both ends
func (r TimeRange) Len() int {
	return int(r.End.Sub(r.Start)/time.Hour) + 1
}

// Hours expands the range into strictly increasing hourly timestamps
func (r TimeRange) Hours() []time.Time {
	n := r.Len()
	hours := make([]time.Time, n)
	for i := 0; i < n; i++ {
		hours[i] = r.Start.Add(time.Duration(i) * time.Hour)
	}
	return hours
}
