package builder

import (
	"fmt"

	"planera/core/boundary"
	"planera/core/model"
	"planera/core/quota"
	"planera/core/schedule"
)

// PrimeSeed registers the cap quota windows of every active input event on
// sch. A schedule rebuilt from an exported document must be primed before
// placements are added, so each seeded date consumes a quota unit and a
// later build sees the windows as partially used instead of expanding fresh
// ones on top of the seeded placements.
func PrimeSeed(sch *schedule.Schedule, input model.Input) error {
	reg := boundary.NewRegistry()
	ruleSets := input.RuleSets()
	globals := input.GlobalRuleNames()

	for _, src := range input.Events {
		if !src.IsActive() {
			continue
		}
		names := dedupStrings(append(append([]string(nil), src.Rules...), globals...))
		for _, name := range names {
			rs, ok := ruleSets[name]
			if !ok {
				return fmt.Errorf("event %d references unknown rule set %q", src.ID, name)
			}
			for _, rule := range rs.Rules {
				if rule.Type != model.RuleTypeBoundary {
					continue
				}
				bd, err := boundary.FromRule(reg, rule)
				if err != nil {
					return fmt.Errorf("rule set %q: %w", name, err)
				}
				carrier, ok := bd.(quotaCarrier)
				if !ok {
					continue
				}
				for _, tpl := range carrier.Caps() {
					ws, err := quota.Build(sch.Start(), sch.End(), tpl)
					if err != nil {
						return fmt.Errorf("event %d: %w", src.ID, err)
					}
					sch.AddQuota(src.ID, ws)
				}
			}
		}
	}
	return nil
}
