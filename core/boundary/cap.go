package boundary

import (
	"fmt"
	"time"

	"planera/core/factory"
	"planera/core/quota"
	"planera/core/schedule"
)

type capConf struct {
	Cap []quota.Template `json:"cap"`
}

// Cap carries quota window templates. It cannot narrow dates without quota
// context, so it passes every candidate through and is consumed entirely by
// indeterminate planning.
type Cap struct {
	caps []quota.Template
}

func newCap(conf map[string]any) (schedule.Boundary, error) {
	var c capConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, fmt.Errorf("boundary: decode cap payload: %w", err)
	}
	for _, tpl := range c.Cap {
		if err := tpl.Validate(); err != nil {
			return nil, err
		}
	}
	return &Cap{caps: c.Cap}, nil
}

func (b *Cap) Kind() string { return KindCap }
func (b *Cap) Class() schedule.BoundaryClass { return schedule.ClassIndeterminate }

// Caps returns the quota templates to expand during indeterminate planning.
func (b *Cap) Caps() []quota.Template { return b.caps }

func (b *Cap) EligibleDates(ctx *schedule.BoundaryContext) ([]time.Time, error) {
	return ctx.Dates, nil
}

func (b *Cap) EligibleEvents(ctx *schedule.BoundaryContext) ([]*schedule.Event, error) {
	return ctx.Events, nil
}
