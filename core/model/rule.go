package model

import (
	"encoding/json"
	"fmt"
)

// ScopeGlobal marks a rule group whose rule names are attached to every event.
const ScopeGlobal = "global"

// RuleTypeBoundary is currently the only rule type.
const RuleTypeBoundary = "boundary"

// Rule is one constraint inside a named rule set. The boundary-specific
// payload is kept raw and decoded by the boundary registry.
type Rule struct {
	Type     string
	Boundary string
	Payload  map[string]any
}

func (r *Rule) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if t, ok := raw["type"].(string); ok {
		r.Type = t
	}
	if bk, ok := raw["boundary"].(string); ok {
		r.Boundary = bk
	}
	delete(raw, "type")
	delete(raw, "boundary")
	r.Payload = raw
	return nil
}

func (r Rule) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+2)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["type"] = r.Type
	out["boundary"] = r.Boundary
	return json.Marshal(out)
}

// NamedRuleSet is a named list of rules referenced from event rule lists.
type NamedRuleSet struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Rules []Rule `json:"rules"`
}

// RuleGroup scopes a list of named rule sets. Global groups are attached to
// every event; any other scope is opt-in by name.
type RuleGroup struct {
	Scope   string         `json:"scope"`
	RuleSet []NamedRuleSet `json:"rule_set"`
}

// ParseRuleGroups decodes a JSON array of rule groups.
func ParseRuleGroups(data []byte) ([]RuleGroup, error) {
	var groups []RuleGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parse rule groups: %w", err)
	}
	return groups, nil
}

// Input bundles the raw planning sources.
type Input struct {
	Events     []Event
	RuleGroups []RuleGroup
}

// RuleSets indexes every named rule set by name.
func (in Input) RuleSets() map[string]NamedRuleSet {
	sets := make(map[string]NamedRuleSet)
	for _, group := range in.RuleGroups {
		for _, rs := range group.RuleSet {
			sets[rs.Name] = rs
		}
	}
	return sets
}

// GlobalRuleNames returns the names of rule sets in globally scoped groups,
// in declaration order.
func (in Input) GlobalRuleNames() []string {
	var names []string
	for _, group := range in.RuleGroups {
		if group.Scope != ScopeGlobal {
			continue
		}
		for _, rs := range group.RuleSet {
			names = append(names, rs.Name)
		}
	}
	return names
}
