package builder

import (
	"fmt"
	"time"

	"planera/core/boundary"
	"planera/core/model"
	"planera/core/planner"
	"planera/core/quota"
	"planera/core/schedule"
)

// setupPhase wraps the active source events, starts the master schedule via
// the planner and spawns the candidate-index minion.
type setupPhase struct {
	seed *schedule.Schedule
}

func (setupPhase) Name() string { return "setup" }

func (p setupPhase) Handle(b *Builder) error {
	for _, src := range b.input.Events {
		if !src.IsActive() {
			b.log.Debugf("skipping inactive event %d (%s)", src.ID, src.Name)
			continue
		}
		b.events = append(b.events, schedule.NewEvent(src))
	}
	b.ruleSets = b.input.RuleSets()

	master, err := b.planner.PlanInit(b.opts, p.seed)
	if err != nil {
		return err
	}
	if err := b.manager.AddMaster(master); err != nil {
		return err
	}

	// the candidate index holds every event that could go on a date, so it
	// must not inherit the master's daily limit
	candOpts := master.Options()
	candOpts.DailyEventLimit = 0
	cand, err := schedule.New(candOpts)
	if err != nil {
		return err
	}
	if err := b.manager.AddMinion(b.candKey, cand); err != nil {
		return err
	}

	if pa, ok := b.planner.(planner.EventPoolAware); ok {
		pa.SetEventPool(b.events)
	}
	return nil
}

// decideCandidatesPhase resolves each event's rules to boundaries and
// computes its candidate dates, indexing them into the candidate minion.
type decideCandidatesPhase struct{}

func (decideCandidatesPhase) Name() string { return "decide_candidates" }

func (decideCandidatesPhase) Handle(b *Builder) error {
	master := b.Master()
	globals := b.input.GlobalRuleNames()

	for _, ev := range b.events {
		names := dedupStrings(append(append([]string(nil), ev.Rules()...), globals...))
		ev.SetRules(names)

		for _, name := range names {
			rs, ok := b.ruleSets[name]
			if !ok {
				return fmt.Errorf("event %d references unknown rule set %q", ev.ID(), name)
			}
			for _, rule := range rs.Rules {
				if rule.Type != model.RuleTypeBoundary {
					continue
				}
				bd, err := boundary.FromRule(b.boundaries, rule)
				if err != nil {
					return fmt.Errorf("rule set %q: %w", name, err)
				}
				ev.AddBoundary(bd)
			}
		}

		dates := master.Dates()
		if b.planner.ApplyBoundaries() {
			for _, bd := range ev.Boundaries() {
				var err error
				dates, err = bd.EligibleDates(&schedule.BoundaryContext{
					Schedule: master,
					Events:   []*schedule.Event{ev},
					Dates:    dates,
				})
				if err != nil {
					return fmt.Errorf("event %d boundary %s: %w", ev.ID(), bd.Kind(), err)
				}
			}
		}
		ev.SetCandidates(dates)
		b.log.Debugw("candidates decided", map[string]any{
			"event": ev.ID(), "count": len(dates),
		})
		if len(dates) > 0 {
			if err := b.manager.AddMinionEvent(b.candKey, dates, ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// planIndeterminatePhase expands cap templates into quota windows and fills
// each window up to capacity, sampling without replacement from the dates
// where the event is the sole candidate.
type planIndeterminatePhase struct{}

func (planIndeterminatePhase) Name() string { return "plan_indeterminate" }

// quotaCarrier is satisfied by cap boundaries.
type quotaCarrier interface {
	Caps() []quota.Template
}

func (planIndeterminatePhase) Handle(b *Builder) error {
	master := b.Master()

	// date -> candidate id set, built once from the candidate index
	soleIndex := make(map[time.Time]map[int]bool)
	if cand := b.candidates(); cand != nil {
		for _, date := range cand.Dates() {
			for _, ev := range cand.EventsOn(date) {
				if soleIndex[date] == nil {
					soleIndex[date] = make(map[int]bool)
				}
				soleIndex[date][ev.ID()] = true
			}
		}
	}

	for _, ev := range b.events {
		var windows []*quota.Window
		if master.Quotas().Has(ev.ID()) {
			// re-planning on a seeded master: windows are already expanded
			// and partially consumed
			windows = master.Quotas().Windows(ev.ID())
		} else {
			for _, bd := range ev.BoundariesByClass(schedule.ClassIndeterminate) {
				carrier, ok := bd.(quotaCarrier)
				if !ok {
					continue
				}
				for _, tpl := range carrier.Caps() {
					ws, err := quota.Build(master.Start(), master.End(), tpl)
					if err != nil {
						return fmt.Errorf("event %d: %w", ev.ID(), err)
					}
					master.AddQuota(ev.ID(), ws)
					windows = append(windows, ws...)
				}
			}
		}
		for _, w := range windows {
			if err := b.fillWindow(ev, w, soleIndex); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillWindow places ev on as many dates as the window has capacity left.
func (b *Builder) fillWindow(ev *schedule.Event, w *quota.Window, soleIndex map[time.Time]map[int]bool) error {
	need := w.Remaining()
	if need == 0 {
		return nil
	}
	// the pool holds only dates no competing event is a candidate for;
	// contested dates stay for determinate and conflict planning
	var pool []time.Time
	for _, date := range intersectDates(ev.Candidates(), w.Dates) {
		if ids := soleIndex[date]; len(ids) != 1 || !ids[ev.ID()] {
			continue
		}
		out, err := b.applyChain(date, []*schedule.Event{ev})
		if err != nil {
			return err
		}
		if len(out) == 0 {
			candidateRejections.Inc()
			continue
		}
		pool = append(pool, date)
	}

	if len(pool) < need {
		return &UnsatisfiableQuotaError{EventID: ev.ID(), Window: *w, PoolSize: len(pool)}
	}
	for _, date := range sampleDates(pool, need, b.src) {
		if err := b.place(date, ev, schedule.MethodIndeterminate, true); err != nil {
			return err
		}
	}
	return nil
}

// planDeterminatePhase places every date whose candidate bucket holds exactly
// one event, in date order.
type planDeterminatePhase struct{}

func (planDeterminatePhase) Name() string { return "plan_determinate" }

func (planDeterminatePhase) Handle(b *Builder) error {
	cand := b.candidates()
	for _, date := range cand.Dates() {
		bucket := cand.EventsOn(date)
		if len(bucket) != 1 {
			continue
		}
		out, err := b.applyChain(date, bucket)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			continue
		}
		pick, err := b.planner.PlanSingleEvent(date, out[0])
		if err != nil {
			return err
		}
		if pick == nil {
			continue
		}
		if err := b.place(date, pick, schedule.MethodDeterminate, false); err != nil {
			return err
		}
	}
	return nil
}

// resolveConflictsPhase iterates dates per the configured order, delegating
// multi-candidate dates to the planner and empty ones to missing-day fill.
type resolveConflictsPhase struct{}

func (resolveConflictsPhase) Name() string { return "resolve_conflicts" }

func (resolveConflictsPhase) Handle(b *Builder) error {
	master := b.Master()
	cand := b.candidates()
	dates, err := master.IterDates(b.iterMethod, b.rng)
	if err != nil {
		return err
	}

	for _, date := range dates {
		bucket := cand.EventsOn(date)
		switch {
		case len(bucket) > 1:
			out, err := b.applyChain(date, bucket)
			if err != nil {
				return err
			}
			if len(out) == 0 {
				continue
			}
			// even a single survivor goes through the planner, which may
			// veto it
			pick, err := b.planner.ResolveConflict(master, date, out)
			if err != nil {
				return err
			}
			if pick == nil {
				// unresolvable date stays empty
				continue
			}
			conflictsResolved.Inc()
			if err := b.place(date, pick, schedule.MethodConflict, false); err != nil {
				return err
			}

		case len(bucket) == 0 && !master.HasEvent(date):
			ev, err := b.planner.PlanMissingEvent(date, master.Day(date))
			if err != nil {
				return err
			}
			if ev == nil {
				continue
			}
			out, err := b.applyChain(date, []*schedule.Event{ev})
			if err != nil {
				return err
			}
			if len(out) == 0 {
				continue
			}
			if err := b.place(date, out[0], schedule.MethodMissingFill, false); err != nil {
				return err
			}
		}
	}
	b.status = statusPlanOK
	return nil
}

// terminatePhase seals the build.
type terminatePhase struct{}

func (terminatePhase) Name() string { return "terminate" }

func (terminatePhase) Handle(b *Builder) error {
	if b.status != statusPlanOK {
		return fmt.Errorf("%w (status %s)", ErrPipelineOrder, b.status)
	}
	master := b.Master()
	master.MarkBuilt()
	b.status = statusBuildOK
	unfilledDates.Set(float64(len(master.UnfilledDates())))
	buildsTotal.Inc()
	b.log.Infof("build %s done: %d/%d days filled", b.id,
		len(master.Dates())-len(master.UnfilledDates()), len(master.Dates()))
	return nil
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func intersectDates(a, b []time.Time) []time.Time {
	set := make(map[time.Time]bool, len(b))
	for _, d := range b {
		set[d] = true
	}
	var out []time.Time
	for _, d := range a {
		if set[d] {
			out = append(out, d)
		}
	}
	return out
}
