package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// Validator names understood by the engine.
const (
	Required = "required"
	Match    = "match"
	String   = "string"
	Number   = "number"
	Boolean  = "boolean"
	Email    = "email"
	Unique   = "unique"
	File     = "file"
	FileSize = "filesize"
	Image    = "image"
	In       = "in"
	Compare  = "compare"
	Timezone = "timezone"
	Safe     = "safe"
)

// FilterExcludeSelf makes a unique rule ignore the record being validated.
const FilterExcludeSelf = "exclude_self"

// Rule declares one validator over a list of attributes.
type Rule struct {
	Attributes  []string       `yaml:"attributes" json:"attributes"`
	Validator   string         `yaml:"validator" json:"validator"`
	Params      map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	On          []Scenario     `yaml:"on,omitempty" json:"on,omitempty"`
	SkipOnEmpty *bool          `yaml:"skipOnEmpty,omitempty" json:"skipOnEmpty,omitempty"`
	Message     string         `yaml:"message,omitempty" json:"message,omitempty"`
}

// AppliesTo reports whether the rule is active in scenario s.
func (r Rule) AppliesTo(s Scenario) bool {
	if len(r.On) == 0 {
		return true
	}
	for _, on := range r.On {
		if on == s {
			return true
		}
	}
	return false
}

func (r Rule) skipOnEmpty() bool {
	if r.SkipOnEmpty != nil {
		return *r.SkipOnEmpty
	}
	return r.Validator != Required
}

func (r Rule) String() string {
	return fmt.Sprintf("%s%v", r.Validator, r.Attributes)
}

// SafeAttributes returns every attribute referenced by rules, in declaration order.
// It is the attribute list of the default scenario.
func SafeAttributes(rules []Rule) []string {
	lists := make([][]string, 0, len(rules))
	for _, r := range rules {
		lists = append(lists, r.Attributes)
	}
	return Merge(lists...)
}

func (r Rule) stringParam(key string) string {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func (r Rule) intParam(key string) (int64, bool) {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (r Rule) boolParam(key string) bool {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

// listParam accepts either a YAML list or a comma separated string ("jpg, png").
func (r Rule) listParam(key string) []string {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return nil
	}
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(t)}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
