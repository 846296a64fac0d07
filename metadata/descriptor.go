package metadata

import (
	"github.com/camden-git/dancereg/validation"
)

// Translator resolves a message in a category.
type Translator interface {
	T(category, msg string) string
}

// LabelSource is one entry of a label table: the category and English source text.
type LabelSource struct {
	Category string `yaml:"category"`
	Message  string `yaml:"message"`
}

// Descriptor declares the labels, scenarios and rules of one model. When Extended is
// set, each section it provides replaces the built-in one.
type Descriptor struct {
	Model     string
	labels    map[string]LabelSource
	scenarios validation.Scenarios
	rules     []validation.Rule
	Extended  *ExtendedConfig
}

// Labels returns translated labels keyed by attribute.
func (d *Descriptor) Labels(tr Translator) map[string]string {
	src := d.labels
	if d.Extended != nil && len(d.Extended.Labels) > 0 {
		src = d.Extended.Labels
	}
	out := make(map[string]string, len(src))
	for attr, l := range src {
		if tr == nil {
			out[attr] = l.Message
			continue
		}
		out[attr] = tr.T(l.Category, l.Message)
	}
	return out
}

// Label returns one translated attribute label, humanizing unknown attributes.
func (d *Descriptor) Label(tr Translator, attribute string) string {
	if l, ok := d.Labels(tr)[attribute]; ok {
		return l
	}
	return validation.Humanize(attribute)
}

// Scenarios returns the scenario table. The default scenario always lists every
// attribute referenced by a rule unless the table overrides it.
func (d *Descriptor) Scenarios() validation.Scenarios {
	src := d.scenarios
	if d.Extended != nil && len(d.Extended.Scenarios) > 0 {
		return cloneScenarios(d.Extended.Scenarios)
	}
	out := cloneScenarios(src)
	if _, ok := out[validation.ScenarioDefault]; !ok {
		out[validation.ScenarioDefault] = validation.SafeAttributes(d.Rules())
	}
	return out
}

// Rules returns the rule list.
func (d *Descriptor) Rules() []validation.Rule {
	if d.Extended != nil && len(d.Extended.Rules) > 0 {
		return append([]validation.Rule(nil), d.Extended.Rules...)
	}
	return append([]validation.Rule(nil), d.rules...)
}

// ActiveAttributes returns the safe attributes of scenario s.
func (d *Descriptor) ActiveAttributes(s validation.Scenario) ([]string, bool) {
	return d.Scenarios().Active(s)
}

func cloneScenarios(in validation.Scenarios) validation.Scenarios {
	out := make(validation.Scenarios, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
