package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEvents(t *testing.T) {
	data := []byte(`[
		{"id": 1, "name": "stew", "rules": ["weekday"], "prio": 2, "min_date": "2024-02-01"},
		{"id": 2, "name": "soup", "rules": [], "active": 0}
	]`)
	events, err := ParseEvents(data)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.True(t, events[0].IsActive(), "absent active flag defaults to active")
	require.False(t, events[1].IsActive())
	require.Equal(t, 2, events[0].Prio)
	require.NotNil(t, events[0].MinDate)
	require.Equal(t, "2024-02-01", events[0].MinDate.Format("2006-01-02"))
	require.Nil(t, events[0].MaxDate)
}

func TestRulePayloadRoundTrip(t *testing.T) {
	src := []byte(`{"type": "boundary", "boundary": "period", "period": ["mon", "q2"]}`)
	var r Rule
	require.NoError(t, json.Unmarshal(src, &r))
	require.Equal(t, RuleTypeBoundary, r.Type)
	require.Equal(t, "period", r.Boundary)
	require.Equal(t, []any{"mon", "q2"}, r.Payload["period"])

	out, err := json.Marshal(r)
	require.NoError(t, err)
	var back Rule
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, r, back)
}

func TestInputRuleSets(t *testing.T) {
	groups, err := ParseRuleGroups([]byte(`[
		{"scope": "global", "rule_set": [
			{"name": "spacing", "id": 10, "rules": [{"type": "boundary", "boundary": "distance", "distance": [{"value": 2, "time_unit": "day"}]}]}
		]},
		{"scope": "events", "rule_set": [
			{"name": "weekday", "id": 11, "rules": [{"type": "boundary", "boundary": "period", "period": ["mon"]}]}
		]}
	]`))
	require.NoError(t, err)

	in := Input{RuleGroups: groups}
	sets := in.RuleSets()
	require.Len(t, sets, 2)
	require.Contains(t, sets, "spacing")
	require.Contains(t, sets, "weekday")
	require.Equal(t, []string{"spacing"}, in.GlobalRuleNames())
}
