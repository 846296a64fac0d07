package validation

import "strings"

// Scenario names a context that decides which attributes may be assigned and validated.
type Scenario string

const (
	ScenarioDefault      Scenario = "default"
	ScenarioCreate       Scenario = "create"
	ScenarioUpdate       Scenario = "update"
	ScenarioRegistration Scenario = "registration"
	ScenarioEditProfile  Scenario = "editprofile"
	ScenarioSuperCreate  Scenario = "supercreate"
	ScenarioBulkEdit     Scenario = "bulkedit"
	ScenarioDeleteImage  Scenario = "deleteimage"
)

// ParseScenario normalizes s. An empty string yields fallback.
func ParseScenario(s string, fallback Scenario) Scenario {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return Scenario(s)
}

// Scenarios maps each scenario to its ordered list of safe attributes.
type Scenarios map[Scenario][]string

// Active returns the attributes of scenario s, or nil if s is not declared.
func (sc Scenarios) Active(s Scenario) ([]string, bool) {
	attrs, ok := sc[s]
	if !ok {
		return nil, false
	}
	return append([]string(nil), attrs...), true
}

// Has reports whether attribute is safe in scenario s.
func (sc Scenarios) Has(s Scenario, attribute string) bool {
	for _, a := range sc[s] {
		if a == attribute {
			return true
		}
	}
	return false
}

// Merge concatenates attribute lists keeping the first occurrence of each name.
func Merge(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, a := range list {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
