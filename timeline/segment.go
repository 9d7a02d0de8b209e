package timeline

import (
	"fmt"

	"github.com/ayoisaiah/lapse/internal/interval"
)

// SegmentSource distinguishes observed attribution from manual entry.
type SegmentSource uint8

const (
	SourceRaw SegmentSource = iota
	SourceManual
)

var segmentSourceNames = map[SegmentSource]string{
	SourceRaw:    "raw",
	SourceManual: "manual",
}

func (s SegmentSource) String() string {
	if v, ok := segmentSourceNames[s]; ok {
		return v
	}

	return fmt.Sprintf("SegmentSource(%d)", uint8(s))
}

func (s SegmentSource) MarshalText() ([]byte, error) {
	v, ok := segmentSourceNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown segment source: %d", uint8(s))
	}

	return []byte(v), nil
}

func (s *SegmentSource) UnmarshalText(b []byte) error {
	for v, name := range segmentSourceNames {
		if name == string(b) {
			*s = v
			return nil
		}
	}

	return fmt.Errorf("unknown segment source: %q", string(b))
}

// Coverage marks whether a span was actually observed by a running agent.
type Coverage uint8

const (
	CoverageObserved Coverage = iota
	CoverageUnobservedGap
)

var coverageNames = map[Coverage]string{
	CoverageObserved:      "observed",
	CoverageUnobservedGap: "unobserved_gap",
}

func (c Coverage) String() string {
	if v, ok := coverageNames[c]; ok {
		return v
	}

	return fmt.Sprintf("Coverage(%d)", uint8(c))
}

func (c Coverage) MarshalText() ([]byte, error) {
	v, ok := coverageNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown coverage: %d", uint8(c))
	}

	return []byte(v), nil
}

func (c *Coverage) UnmarshalText(b []byte) error {
	for v, name := range coverageNames {
		if name == string(b) {
			*c = v
			return nil
		}
	}

	return fmt.Errorf("unknown coverage: %q", string(b))
}

// Segment is one conflict-resolved unit of attributed time. Segments are
// the terminal output of the builder: sorted, non-overlapping, strictly
// positive in duration, and confined to the requested range.
type Segment struct {
	StartUs int64 `json:"start_us"`
	EndUs   int64 `json:"end_us"`

	// DurationSeconds is derived from the interval during cleanup.
	DurationSeconds float64 `json:"duration_seconds"`

	Source SegmentSource `json:"source"`

	BundleID string  `json:"bundle_id,omitempty"`
	AppName  string  `json:"app_name,omitempty"`
	Title    *string `json:"title,omitempty"`

	// Tags is ordered and deduplicated.
	Tags []string `json:"tags,omitempty"`

	Coverage Coverage `json:"coverage"`

	// SupportIDs lists the raw/edit events that produced this segment,
	// for debugging and export only.
	SupportIDs []string `json:"support_ids,omitempty"`
}

// Interval returns the segment's span.
func (s *Segment) Interval() interval.Interval {
	return interval.New(s.StartUs, s.EndUs)
}

// withInterval returns a copy of s confined to iv, sharing attribution
// but with freshly copied tag and support slices so later splits cannot
// alias each other.
func (s *Segment) withInterval(iv interval.Interval) Segment {
	out := *s
	out.StartUs = iv.StartUs
	out.EndUs = iv.EndUs
	out.Tags = append([]string(nil), s.Tags...)
	out.SupportIDs = append([]string(nil), s.SupportIDs...)

	return out
}

func stateSupport(id int64) string    { return fmt.Sprintf("state/%d", id) }
func activitySupport(id int64) string { return fmt.Sprintf("activity/%d", id) }
func editSupport(id string) string    { return "edit/" + id }
