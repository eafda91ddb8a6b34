package config

import "planera/core/model"

// EventDefaults fills event fields omitted from the input.
type EventDefaults struct {
	Prio   *int `json:"prio"`
	Active *int `json:"active"`
}

// Apply merges the defaults into events that left the field unset.
func (d EventDefaults) Apply(events []model.Event) []model.Event {
	for i := range events {
		if events[i].Prio == 0 && d.Prio != nil {
			events[i].Prio = *d.Prio
		}
		if events[i].Active == nil && d.Active != nil {
			active := *d.Active
			events[i].Active = &active
		}
	}
	return events
}
