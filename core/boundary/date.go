package boundary

import (
	"fmt"
	"time"

	"planera/core/factory"
	"planera/core/schedule"
)

// DateSpec is one recurring month/day pair.
type DateSpec struct {
	MonthNumber int `json:"month_number"`
	DayOfMonth  int `json:"day_of_month"`
}

type dateConf struct {
	Date []DateSpec `json:"date"`
}

// Date matches candidate dates against explicit day/month pairs, recurring
// across years.
type Date struct {
	specs []DateSpec
}

func newDate(conf map[string]any) (schedule.Boundary, error) {
	var c dateConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, fmt.Errorf("boundary: decode date payload: %w", err)
	}
	for _, spec := range c.Date {
		if spec.MonthNumber < 1 || spec.MonthNumber > 12 || spec.DayOfMonth < 1 || spec.DayOfMonth > 31 {
			return nil, fmt.Errorf("boundary: invalid date spec month=%d day=%d", spec.MonthNumber, spec.DayOfMonth)
		}
	}
	return &Date{specs: c.Date}, nil
}

func (b *Date) Kind() string { return KindDate }
func (b *Date) Class() schedule.BoundaryClass { return schedule.ClassDeterminate }

func (b *Date) EligibleDates(ctx *schedule.BoundaryContext) ([]time.Time, error) {
	var out []time.Time
	for _, date := range ctx.Dates {
		for _, spec := range b.specs {
			if int(date.Month()) == spec.MonthNumber && date.Day() == spec.DayOfMonth {
				out = append(out, date)
				break
			}
		}
	}
	return out, nil
}

func (b *Date) EligibleEvents(ctx *schedule.BoundaryContext) ([]*schedule.Event, error) {
	return ctx.Events, nil
}
