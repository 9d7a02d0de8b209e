// Package interval implements half-open time intervals measured in UTC
// microseconds since the Unix epoch. An interval [StartUs, EndUs) is empty
// when EndUs <= StartUs. All timeline arithmetic in lapse is built on the
// three primitives defined here: Overlaps, Intersect, and Subtract.
package interval

// Interval is a half-open span [StartUs, EndUs) in UTC microseconds.
type Interval struct {
	StartUs int64 `json:"start_us"`
	EndUs   int64 `json:"end_us"`
}

// New returns the interval [startUs, endUs).
func New(startUs, endUs int64) Interval {
	return Interval{StartUs: startUs, EndUs: endUs}
}

// Empty reports whether the interval contains no time at all.
func (a Interval) Empty() bool {
	return a.EndUs <= a.StartUs
}

// DurationUs returns the length of the interval in microseconds,
// or 0 for an empty interval.
func (a Interval) DurationUs() int64 {
	if a.Empty() {
		return 0
	}

	return a.EndUs - a.StartUs
}

// Seconds returns the length of the interval in seconds.
func (a Interval) Seconds() float64 {
	return float64(a.DurationUs()) / 1e6
}

// Contains reports whether the instant t lies within the interval.
func (a Interval) Contains(t int64) bool {
	return t >= a.StartUs && t < a.EndUs
}

// Overlaps reports whether a and b share at least one instant. An empty
// interval overlaps nothing. Touching endpoints do not overlap: [1,2)
// and [2,3) are disjoint.
func (a Interval) Overlaps(b Interval) bool {
	return !a.Empty() && !b.Empty() &&
		a.StartUs < b.EndUs && b.StartUs < a.EndUs
}

// Intersect returns the common span of a and b. The second return value
// is false when the intersection is empty.
func (a Interval) Intersect(b Interval) (Interval, bool) {
	start := max(a.StartUs, b.StartUs)
	end := min(a.EndUs, b.EndUs)

	if end <= start {
		return Interval{}, false
	}

	return Interval{StartUs: start, EndUs: end}, true
}

// Subtract removes b from a and returns the surviving pieces in order.
// The result has zero, one, or two elements: none when b covers a
// entirely, one when b clips an edge or misses a, and two when b punches
// a hole through the middle.
func (a Interval) Subtract(b Interval) []Interval {
	if !a.Overlaps(b) {
		return []Interval{a}
	}

	var out []Interval

	if a.StartUs < b.StartUs {
		out = append(out, Interval{StartUs: a.StartUs, EndUs: b.StartUs})
	}

	if a.EndUs > b.EndUs {
		out = append(out, Interval{StartUs: b.EndUs, EndUs: a.EndUs})
	}

	return out
}

// SubtractAll removes every interval in bs from a.
func (a Interval) SubtractAll(bs []Interval) []Interval {
	remaining := []Interval{a}

	for _, b := range bs {
		var next []Interval
		for _, r := range remaining {
			next = append(next, r.Subtract(b)...)
		}

		remaining = next
		if len(remaining) == 0 {
			break
		}
	}

	return remaining
}
