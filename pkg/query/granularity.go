package query

import (
	"bytes"
	"fmt"

	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Granularity is the time bucketing of a query. Simple granularities are
// named; duration granularities carry a bucket size in milliseconds. The zero
// value is GranularityAll.
type Granularity struct {
	Name     string
	Duration int64
}

const (
	allGranularity      = "all"
	durationGranularity = "duration"
)

// Simple granularities.
var (
	GranularityAll           = Granularity{}
	GranularityNone          = Granularity{Name: "none"}
	GranularitySecond        = Granularity{Name: "second"}
	GranularityMinute        = Granularity{Name: "minute"}
	GranularityFifteenMinute = Granularity{Name: "fifteen_minute"}
	GranularityThirtyMinute  = Granularity{Name: "thirty_minute"}
	GranularityHour          = Granularity{Name: "hour"}
	GranularityDay           = Granularity{Name: "day"}
	GranularityWeek          = Granularity{Name: "week"}
	GranularityMonth         = Granularity{Name: "month"}
	GranularityQuarter       = Granularity{Name: "quarter"}
	GranularityYear          = Granularity{Name: "year"}
)

var simpleGranularities = map[string]Granularity{}

func init() {
	for _, g := range []Granularity{
		GranularityAll, GranularityNone, GranularitySecond, GranularityMinute,
		GranularityFifteenMinute, GranularityThirtyMinute, GranularityHour,
		GranularityDay, GranularityWeek, GranularityMonth, GranularityQuarter,
		GranularityYear,
	} {
		simpleGranularities[g.String()] = g
	}
}

// DurationGranularity returns a granularity bucketing by ms milliseconds.
func DurationGranularity(ms int64) Granularity {
	return Granularity{Name: durationGranularity, Duration: ms}
}

// IsDuration reports whether g is a duration granularity.
func (g Granularity) IsDuration() bool { return g.Name == durationGranularity }

func (g Granularity) String() string {
	if g.IsDuration() {
		return fmt.Sprintf("duration(%dms)", g.Duration)
	}
	if g.Name == "" {
		return allGranularity
	}
	return g.Name
}

// MarshalJSON implements json.Marshaler. The zero value encodes as "all".
func (g Granularity) MarshalJSON() ([]byte, error) {
	if g.IsDuration() {
		return serde.MarshalTagged("type", durationGranularity, struct {
			Duration int64 `json:"duration"`
		}{g.Duration})
	}
	name := g.String()
	if _, ok := simpleGranularities[name]; !ok {
		return nil, fmt.Errorf("unknown granularity %q", name)
	}
	return serde.Marshal(name)
}

// UnmarshalJSON implements json.Unmarshaler. It accepts a bare name, a
// {"type": ...} object or null, which means all. "all" decodes to the zero
// value.
func (g *Granularity) UnmarshalJSON(data []byte) error {
	name, err := serde.TaggedOrUntagged(data, allGranularity)
	if err != nil {
		return fmt.Errorf("granularity: %w", err)
	}
	if name == durationGranularity {
		var aux struct {
			Duration *int64 `json:"duration"`
		}
		if err := serde.Unmarshal(bytes.TrimSpace(data), &aux); err != nil {
			return fmt.Errorf("granularity: %w", err)
		}
		if aux.Duration == nil {
			return fmt.Errorf("granularity: %w: duration", ErrMissingField)
		}
		*g = DurationGranularity(*aux.Duration)
		return nil
	}
	simple, ok := simpleGranularities[name]
	if !ok {
		return &UnknownTypeError{Family: "granularity", Type: name}
	}
	*g = simple
	return nil
}
