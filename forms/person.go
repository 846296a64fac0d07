package forms

import (
	"context"
	"strings"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/validation"
)

// PersonForm is the input of the person partial.
type PersonForm struct {
	Descriptor *metadata.Descriptor
	Person     *models.Person // nil renders an empty form
	Scenario   validation.Scenario
	Errors     map[string][]string
}

// Person renders one control per attribute active in the scenario, in scenario order.
func (r *Renderer) Person(ctx context.Context, f PersonForm) (string, error) {
	attrs, ok := f.Descriptor.ActiveAttributes(f.Scenario)
	if !ok {
		return "", &UnknownScenarioError{Scenario: f.Scenario}
	}
	tr := i18n.FromContext(ctx)
	person := f.Person
	if person == nil {
		person = &models.Person{}
	}

	fields := make([]Field, 0, len(attrs))
	for _, attr := range attrs {
		value, err := person.AttributeValue(attr)
		if err != nil {
			// attributes only known to an extended config have no column
			continue
		}
		fl := Field{
			Name:     attr,
			ID:       fieldID("person", attr),
			Type:     "text",
			Label:    f.Descriptor.Label(tr, attr),
			Value:    value,
			Required: requiredIn(f.Descriptor, f.Scenario, attr),
			Errors:   f.Errors[attr],
		}
		switch attr {
		case metadata.AttrEmail:
			fl.Type = "email"
		case metadata.AttrMobilephone:
			fl.Type = "tel"
		case metadata.AttrCouple:
			fl.Type = "select"
			fl.Placeholder = tr.T("application", "Select...")
			fl.Options = selectOptions(yesNoOptions(tr), value)
		case metadata.AttrDancingRole:
			fl.Type = "select"
			fl.Placeholder = tr.T("application", "Select...")
			fl.Options = selectOptions(DancingRoleOptions(tr), value)
		case metadata.AttrProfileImage:
			fl.Type = "file"
			fl.Value = ""
			fl.Accept = acceptList(metadata.ImageExtensions)
			preview, err := r.Thumbnail(ctx, f.Person)
			if err != nil {
				return "", err
			}
			fl.Preview = preview
		}
		fields = append(fields, fl)
	}
	return r.renderFields("person-form", f.Scenario, fields)
}

// UnknownScenarioError is returned for a scenario the descriptor does not define.
type UnknownScenarioError struct {
	Scenario validation.Scenario
}

func (e *UnknownScenarioError) Error() string {
	return "unknown scenario " + string(e.Scenario)
}

func acceptList(extensions string) string {
	parts := strings.Split(extensions, ",")
	for i, p := range parts {
		parts[i] = "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
