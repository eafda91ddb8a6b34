package boundary

import (
	"fmt"
	"time"

	"planera/core/factory"
	"planera/core/schedule"
	"planera/core/timeutil"
)

type periodConf struct {
	Period []string `json:"period"`
}

// Period matches candidate dates against named weekday and quarter tokens
// ("mon".."sun", "q1".."q4").
type Period struct {
	weekdays map[string]bool
	quarters map[string]bool
}

func newPeriod(conf map[string]any) (schedule.Boundary, error) {
	var c periodConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, fmt.Errorf("boundary: decode period payload: %w", err)
	}
	known := make(map[string]bool)
	for _, wd := range timeutil.WeekdayShortNames() {
		known[wd] = true
	}
	p := &Period{weekdays: make(map[string]bool), quarters: make(map[string]bool)}
	for _, token := range c.Period {
		switch {
		case known[token]:
			p.weekdays[token] = true
		case token == "q1" || token == "q2" || token == "q3" || token == "q4":
			p.quarters[token] = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
	}
	return p, nil
}

func (b *Period) Kind() string { return KindPeriod }
func (b *Period) Class() schedule.BoundaryClass { return schedule.ClassDeterminate }

func (b *Period) EligibleDates(ctx *schedule.BoundaryContext) ([]time.Time, error) {
	var out []time.Time
	for _, date := range ctx.Dates {
		if b.weekdays[timeutil.WeekdayShort(date)] {
			out = append(out, date)
			continue
		}
		if b.quarters[fmt.Sprintf("q%d", timeutil.Quarter(date))] {
			out = append(out, date)
		}
	}
	return out, nil
}

func (b *Period) EligibleEvents(ctx *schedule.BoundaryContext) ([]*schedule.Event, error) {
	return ctx.Events, nil
}
