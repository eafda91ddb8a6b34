// Package boundary implements the rule evaluators that narrow date and event
// candidate sets: explicit dates, weekday/quarter periods, quota caps and
// minimum-distance separation.
package boundary

import (
	"errors"

	"planera/core/factory"
	"planera/core/model"
	"planera/core/schedule"
)

// Boundary kinds resolvable through the registry.
const (
	KindDate     = "date"
	KindPeriod   = "period"
	KindCap      = "cap"
	KindDistance = "distance"
)

// ErrUnknownToken is returned for period tokens that are neither weekday
// short names nor quarter tokens.
var ErrUnknownToken = errors.New("boundary: unknown period token")

// ErrMultiDateProbe is returned when a distance boundary is probed with more
// than one date at a time.
var ErrMultiDateProbe = errors.New("boundary: multi-date distance probe is not implemented")

// NewRegistry returns the closed registry of boundary kinds.
func NewRegistry() *factory.Registry[schedule.Boundary] {
	reg := factory.NewRegistry[schedule.Boundary]()
	register := func(kind string, f factory.Factory[schedule.Boundary]) {
		if err := reg.Register(kind, f); err != nil {
			// registration of the built-in kinds cannot collide
			panic(err)
		}
	}
	register(KindDate, newDate)
	register(KindPeriod, newPeriod)
	register(KindCap, newCap)
	register(KindDistance, newDistance)
	return reg
}

// FromRule resolves a rule to a boundary instance via the registry.
func FromRule(reg *factory.Registry[schedule.Boundary], rule model.Rule) (schedule.Boundary, error) {
	return reg.Create(factory.ModuleConfig{Kind: rule.Boundary, Conf: rule.Payload})
}
