package builder

import (
	"errors"
	"testing"
	"time"

	"planera/core/model"
	"planera/core/planner"
	"planera/core/schedule"
	"planera/core/timeutil"
)

func day(s string) time.Time { return timeutil.MustParseDay(s) }

func periodRule(tokens ...string) model.Rule {
	anyTokens := make([]any, len(tokens))
	for i, tok := range tokens {
		anyTokens[i] = tok
	}
	return model.Rule{
		Type:     model.RuleTypeBoundary,
		Boundary: "period",
		Payload:  map[string]any{"period": anyTokens},
	}
}

func capRule(min, max int, unit string) model.Rule {
	return model.Rule{
		Type:     model.RuleTypeBoundary,
		Boundary: "cap",
		Payload: map[string]any{
			"cap": []any{map[string]any{"min": min, "max": max, "time_unit": unit}},
		},
	}
}

func inputWith(events []model.Event, sets ...model.NamedRuleSet) model.Input {
	return model.Input{
		Events:     events,
		RuleGroups: []model.RuleGroup{{Scope: "crew", RuleSet: sets}},
	}
}

// 2024-01-01 is a Monday.
func weekOpts() schedule.Options {
	return schedule.Options{Start: day("2024-01-01"), End: day("2024-01-07")}
}

func build(t *testing.T, cfg Config) *schedule.Schedule {
	t.Helper()
	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sch, err := b.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	return sch
}

func TestBuildConflictWeek(t *testing.T) {
	// one event eligible mon/wed/fri, another only mon: the cornered event
	// must take monday, the flexible one the remaining days
	input := inputWith(
		[]model.Event{
			{ID: 1, Name: "flex", Rules: []string{"mwf"}},
			{ID: 2, Name: "cornered", Rules: []string{"mon-only"}},
		},
		model.NamedRuleSet{Name: "mwf", ID: 1, Rules: []model.Rule{periodRule("mon", "wed", "fri")}},
		model.NamedRuleSet{Name: "mon-only", ID: 2, Rules: []model.Rule{periodRule("mon")}},
	)
	sch := build(t, Config{
		Planner:    planner.NewWeighted(42),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       42,
	})

	mon := sch.EventsOn(day("2024-01-01"))
	if len(mon) != 1 || mon[0].ID() != 2 {
		t.Fatalf("monday must go to the cornered event, got %v", mon)
	}
	for _, d := range []string{"2024-01-03", "2024-01-05"} {
		evs := sch.EventsOn(day(d))
		if len(evs) != 1 || evs[0].ID() != 1 {
			t.Fatalf("%s must go to the flexible event, got %v", d, evs)
		}
	}
	if sch.HasEvent(day("2024-01-02")) {
		t.Fatal("tuesday must stay empty")
	}
}

func TestBuildWeeklyCap(t *testing.T) {
	// cap 1..2 per week over two weeks: exactly capacity placements per
	// window, never more
	input := inputWith(
		[]model.Event{{ID: 1, Name: "capped", Rules: []string{"twice-weekly"}}},
		model.NamedRuleSet{Name: "twice-weekly", ID: 1, Rules: []model.Rule{capRule(1, 2, "week")}},
	)
	sch := build(t, Config{
		Planner:    planner.NewWeighted(7),
		Input:      input,
		Options:    schedule.Options{Start: day("2024-01-01"), End: day("2024-01-14")},
		IterMethod: schedule.IterSorted,
		Seed:       7,
	})

	if got := sch.PlacementCount(1); got != 4 {
		t.Fatalf("expected 4 placements (2 per week), got %d", got)
	}
	for _, w := range sch.Quotas().Windows(1) {
		if w.Used != 2 {
			t.Fatalf("expected window used 2, got %d", w.Used)
		}
		if w.Remaining() != 0 {
			t.Fatalf("expected window exhausted, got remaining %d", w.Remaining())
		}
	}
	for _, ev := range sch.Events() {
		if got := ev.Meta(schedule.MetaMethod); len(got) != 1 || got[0] != schedule.MethodIndeterminate {
			t.Fatalf("expected indeterminate method tag, got %v", got)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	input := inputWith(
		[]model.Event{
			{ID: 1, Rules: []string{"weekdays"}},
			{ID: 2, Rules: []string{"weekdays"}, Prio: 1},
		},
		model.NamedRuleSet{Name: "weekdays", ID: 1, Rules: []model.Rule{periodRule("mon", "tue", "wed", "thu", "fri")}},
	)
	run := func() map[string]int {
		sch := build(t, Config{
			Planner:    planner.NewWeighted(99),
			Input:      input,
			Options:    weekOpts(),
			IterMethod: schedule.IterSorted,
			Seed:       99,
		})
		out := make(map[string]int)
		for _, d := range sch.Dates() {
			for _, ev := range sch.EventsOn(d) {
				out[timeutil.FormatDay(d)] = ev.ID()
			}
		}
		return out
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("runs differ in size: %d vs %d", len(first), len(second))
	}
	for d, id := range first {
		if second[d] != id {
			t.Fatalf("runs diverge on %s: %d vs %d", d, id, second[d])
		}
	}
}

func TestBuildUnsatisfiableQuota(t *testing.T) {
	// capacity 2 per week but only mondays eligible
	input := inputWith(
		[]model.Event{{ID: 1, Rules: []string{"impossible"}}},
		model.NamedRuleSet{Name: "impossible", ID: 1, Rules: []model.Rule{
			periodRule("mon"),
			capRule(1, 2, "week"),
		}},
	)
	b, err := New(Config{
		Planner:    planner.NewWeighted(1),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       1,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Build(nil)
	var uqe *UnsatisfiableQuotaError
	if !errors.As(err, &uqe) {
		t.Fatalf("expected UnsatisfiableQuotaError, got %v", err)
	}
	if uqe.EventID != 1 || uqe.PoolSize != 1 {
		t.Fatalf("unexpected error payload: %+v", uqe)
	}
}

func TestBuildQuotaPoolSoleCandidatesOnly(t *testing.T) {
	// the quota pool holds only dates no other event competes for; one
	// sole monday cannot satisfy a capacity-2 window even though the
	// capped event is a candidate all week
	input := inputWith(
		[]model.Event{
			{ID: 1, Name: "capped", Rules: []string{"twice-weekly"}},
			{ID: 2, Name: "rival", Rules: []string{"rest-of-week"}},
		},
		model.NamedRuleSet{Name: "twice-weekly", ID: 1, Rules: []model.Rule{capRule(1, 2, "week")}},
		model.NamedRuleSet{Name: "rest-of-week", ID: 2, Rules: []model.Rule{
			periodRule("tue", "wed", "thu", "fri", "sat", "sun"),
		}},
	)
	b, err := New(Config{
		Planner:    planner.NewWeighted(13),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       13,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Build(nil)
	var uqe *UnsatisfiableQuotaError
	if !errors.As(err, &uqe) {
		t.Fatalf("expected UnsatisfiableQuotaError, got %v", err)
	}
	if uqe.EventID != 1 || uqe.PoolSize != 1 {
		t.Fatalf("unexpected error payload: %+v", uqe)
	}
}

func TestBuildSeededWeekCap(t *testing.T) {
	// a seed carrying two placements of a cap-2 event must have consumed
	// the window, so the build adds nothing on top of it
	input := inputWith(
		[]model.Event{{ID: 1, Name: "capped", Rules: []string{"twice-weekly"}}},
		model.NamedRuleSet{Name: "twice-weekly", ID: 1, Rules: []model.Rule{capRule(1, 2, "week")}},
	)
	seed, err := schedule.New(weekOpts())
	if err != nil {
		t.Fatal(err)
	}
	if err := PrimeSeed(seed, input); err != nil {
		t.Fatal(err)
	}
	pre := schedule.NewEvent(input.Events[0])
	for _, d := range []string{"2024-01-01", "2024-01-02"} {
		if err := seed.AddEvent([]time.Time{day(d)}, pre); err != nil {
			t.Fatal(err)
		}
	}

	b, err := New(Config{
		Planner:    planner.NewWeighted(6),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       6,
	})
	if err != nil {
		t.Fatal(err)
	}
	sch, err := b.Build(seed)
	if err != nil {
		t.Fatal(err)
	}
	if got := sch.PlacementCount(1); got != 2 {
		t.Fatalf("seeded cap-2 week must not gain placements, got %d", got)
	}
	for _, w := range sch.Quotas().Windows(1) {
		if w.Used != 2 {
			t.Fatalf("window must count the seeded placements, used %d", w.Used)
		}
	}
}

func TestBuildUnknownRuleReference(t *testing.T) {
	input := model.Input{Events: []model.Event{{ID: 1, Rules: []string{"ghost"}}}}
	b, err := New(Config{Planner: planner.NewWeighted(1), Input: input, Options: weekOpts()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(nil); err == nil {
		t.Fatal("expected unknown rule set error")
	}
}

func TestBuildGlobalRulesInjected(t *testing.T) {
	input := model.Input{
		Events: []model.Event{{ID: 1}},
		RuleGroups: []model.RuleGroup{{
			Scope: model.ScopeGlobal,
			RuleSet: []model.NamedRuleSet{
				{Name: "weekend", ID: 1, Rules: []model.Rule{periodRule("sat", "sun")}},
			},
		}},
	}
	sch := build(t, Config{
		Planner:    planner.NewWeighted(5),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       5,
	})
	for _, d := range sch.Dates() {
		for _, ev := range sch.EventsOn(d) {
			if wd := timeutil.WeekdayShort(d); wd != "sat" && wd != "sun" {
				t.Fatalf("global weekend rule violated: event %d on %s", ev.ID(), wd)
			}
		}
	}
	if !sch.HasEvent(day("2024-01-06")) || !sch.HasEvent(day("2024-01-07")) {
		t.Fatal("weekend days must be filled")
	}
}

func TestBuildInactiveEventSkipped(t *testing.T) {
	inactive := 0
	input := inputWith(
		[]model.Event{
			{ID: 1, Rules: []string{"mwf"}, Active: &inactive},
		},
		model.NamedRuleSet{Name: "mwf", ID: 1, Rules: []model.Rule{periodRule("mon", "wed", "fri")}},
	)
	sch := build(t, Config{Planner: planner.NewWeighted(3), Input: input, Options: weekOpts(), Seed: 3})
	if len(sch.Events()) != 0 {
		t.Fatal("inactive events must never be placed")
	}
}

func TestBuildRandomizerFillsMissingDays(t *testing.T) {
	input := inputWith(
		[]model.Event{
			{ID: 1, Rules: []string{"mon-only"}},
			{ID: 2, Rules: []string{"mon-only"}},
		},
		model.NamedRuleSet{Name: "mon-only", ID: 1, Rules: []model.Rule{periodRule("mon")}},
	)
	sch := build(t, Config{
		Planner:    planner.NewRandomizer(11),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       11,
	})
	// randomizer ignores boundaries and fills every day from the pool
	if !sch.Complete() {
		t.Fatalf("expected every day filled, unfilled: %v", sch.UnfilledDates())
	}
}

func TestBuildMethodTags(t *testing.T) {
	input := inputWith(
		[]model.Event{
			{ID: 1, Rules: []string{"mwf"}},
			{ID: 2, Rules: []string{"mon-only"}},
		},
		model.NamedRuleSet{Name: "mwf", ID: 1, Rules: []model.Rule{periodRule("mon", "wed", "fri")}},
		model.NamedRuleSet{Name: "mon-only", ID: 2, Rules: []model.Rule{periodRule("mon")}},
	)
	sch := build(t, Config{
		Planner:    planner.NewWeighted(8),
		Input:      input,
		Options:    weekOpts(),
		IterMethod: schedule.IterSorted,
		Seed:       8,
	})
	mon := sch.EventsOn(day("2024-01-01"))[0]
	if got := mon.Meta(schedule.MetaMethod); len(got) != 1 || got[0] != schedule.MethodConflict {
		t.Fatalf("expected conflict_resolution tag on monday, got %v", got)
	}
	wed := sch.EventsOn(day("2024-01-03"))[0]
	if got := wed.Meta(schedule.MetaMethod); len(got) != 1 || got[0] != schedule.MethodDeterminate {
		t.Fatalf("expected determinate_single tag on wednesday, got %v", got)
	}
}

// vetoPlanner records delegated candidate lists and always leaves the day
// empty.
type vetoPlanner struct {
	planner.Base
	delegated [][]int
}

func (p *vetoPlanner) ResolveConflict(_ *schedule.Schedule, _ time.Time, candidates []*schedule.Event) (*schedule.Event, error) {
	ids := make([]int, len(candidates))
	for i, ev := range candidates {
		ids[i] = ev.ID()
	}
	p.delegated = append(p.delegated, ids)
	return nil, nil
}

func TestConflictSingleSurvivorDelegated(t *testing.T) {
	// monday holds two candidates but the exclude filter drops one; the
	// surviving single-element list still goes through the planner, which
	// may veto it
	input := inputWith(
		[]model.Event{
			{ID: 1, Name: "flex", Rules: []string{"mwf"}},
			{ID: 2, Name: "cornered", Rules: []string{"mon-only"}},
		},
		model.NamedRuleSet{Name: "mwf", ID: 1, Rules: []model.Rule{periodRule("mon", "wed", "fri")}},
		model.NamedRuleSet{Name: "mon-only", ID: 2, Rules: []model.Rule{periodRule("mon")}},
	)
	p := &vetoPlanner{}
	opts := weekOpts()
	opts.ExcludeEventIDs = []int{2}
	sch := build(t, Config{
		Planner:    p,
		Input:      input,
		Options:    opts,
		IterMethod: schedule.IterSorted,
		Seed:       3,
	})

	if sch.HasEvent(day("2024-01-01")) {
		t.Fatal("vetoed monday must stay empty")
	}
	found := false
	for _, ids := range p.delegated {
		if len(ids) == 1 && ids[0] == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("single surviving candidate must reach the planner, delegated %v", p.delegated)
	}
}

func TestBuildSeedReused(t *testing.T) {
	seed, err := schedule.New(weekOpts())
	if err != nil {
		t.Fatal(err)
	}
	pre := schedule.NewEvent(model.Event{ID: 9, Name: "pinned"})
	if err := seed.AddEvent([]time.Time{day("2024-01-02")}, pre); err != nil {
		t.Fatal(err)
	}

	input := inputWith(
		[]model.Event{{ID: 1, Rules: []string{"mwf"}}},
		model.NamedRuleSet{Name: "mwf", ID: 1, Rules: []model.Rule{periodRule("mon", "wed", "fri")}},
	)
	b, err := New(Config{Planner: planner.NewWeighted(4), Input: input, Options: weekOpts(), Seed: 4})
	if err != nil {
		t.Fatal(err)
	}
	sch, err := b.Build(seed)
	if err != nil {
		t.Fatal(err)
	}
	if sch != seed {
		t.Fatal("seed schedule must be planned on top of")
	}
	got := sch.EventsOn(day("2024-01-02"))
	if len(got) != 1 || got[0].ID() != 9 {
		t.Fatal("seeded placement must survive the build")
	}
}

func TestTerminateRequiresPlanOK(t *testing.T) {
	b, err := New(Config{Planner: planner.NewWeighted(1), Options: weekOpts()})
	if err != nil {
		t.Fatal(err)
	}
	if err := (terminatePhase{}).Handle(b); !errors.Is(err, ErrPipelineOrder) {
		t.Fatalf("expected ErrPipelineOrder, got %v", err)
	}
}

func TestBuildPublishesPlacements(t *testing.T) {
	input := inputWith(
		[]model.Event{{ID: 1, Rules: []string{"mwf"}}},
		model.NamedRuleSet{Name: "mwf", ID: 1, Rules: []model.Rule{periodRule("mon", "wed", "fri")}},
	)
	b, err := New(Config{Planner: planner.NewWeighted(2), Input: input, Options: weekOpts(), Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	ch := b.Placements().SubscribeBuf(64)
	if _, err := b.Build(nil); err != nil {
		t.Fatal(err)
	}
	b.Close()
	n := 0
	for p := range ch {
		if p.EventID != 1 {
			t.Fatalf("unexpected placement %+v", p)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("expected 3 placement notifications, got %d", n)
	}
}
