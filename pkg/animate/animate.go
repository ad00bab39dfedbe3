// Package animate schedules the forward pulse over a diagram's connectors.
//
// Connector i lights up at i*Stagger and goes dark Duration later, so the
// whole pulse lasts (n-1)*Stagger + Duration. [Schedule] computes the table;
// [Controller] plays it against a [Sink] in real time. A Controller runs one
// pulse at a time: starting a new one cancels the old one and clears its
// highlights first.
package animate

import (
	"cmp"
	"slices"
	"time"

	"github.com/matzehuels/nnviz/pkg/errors"
)

// Timing is the pulse stagger and per-connector highlight duration.
type Timing struct {
	Stagger  time.Duration `json:"stagger" koanf:"stagger"`
	Duration time.Duration `json:"duration" koanf:"duration"`
}

// DefaultTiming staggers connectors by 80ms and lights each for 600ms.
var DefaultTiming = Timing{Stagger: 80 * time.Millisecond, Duration: 600 * time.Millisecond}

// Validate rejects negative stagger and non-positive duration.
func (t Timing) Validate() error {
	if t.Stagger < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pulse stagger must not be negative, got %s", t.Stagger)
	}
	if t.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pulse duration must be positive, got %s", t.Duration)
	}
	return nil
}

// Total returns when the last of n connectors goes dark. It is 0 for n <= 0.
func (t Timing) Total(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n-1)*t.Stagger + t.Duration
}

// Step is the highlight window of one connector.
type Step struct {
	Index int           `json:"index"`
	On    time.Duration `json:"on"`
	Off   time.Duration `json:"off"`
}

// Schedule returns the highlight window of each of n connectors in emission
// order.
func Schedule(n int, t Timing) []Step {
	if n <= 0 {
		return nil
	}
	steps := make([]Step, n)
	for i := range steps {
		on := time.Duration(i) * t.Stagger
		steps[i] = Step{Index: i, On: on, Off: on + t.Duration}
	}
	return steps
}

// Event is a single highlight change.
type Event struct {
	At    time.Duration
	Index int
	On    bool
}

// Events flattens a schedule into a time-ordered list of changes. When an
// off and an on fall on the same instant the off comes first; ties between
// equal kinds keep emission order.
func Events(n int, t Timing) []Event {
	steps := Schedule(n, t)
	events := make([]Event, 0, 2*len(steps))
	for _, s := range steps {
		events = append(events, Event{At: s.On, Index: s.Index, On: true}, Event{At: s.Off, Index: s.Index})
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := cmp.Compare(a.At, b.At); c != 0 {
			return c
		}
		switch {
		case a.On == b.On:
			return cmp.Compare(a.Index, b.Index)
		case !a.On:
			return -1
		default:
			return 1
		}
	})
	return events
}
