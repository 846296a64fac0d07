package forms

import (
	"context"
	"strconv"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/validation"
)

// AccountForm is the input of the account partial.
type AccountForm struct {
	Descriptor *metadata.Descriptor
	User       *models.User // nil renders an empty form
	Scenario   validation.Scenario
	Groups     []models.Group
	Errors     map[string][]string
}

// Account renders the account partial: username, status, customer type, timezone and
// groups, the password pair in the create and registration scenarios, and the hidden
// system type.
func (r *Renderer) Account(ctx context.Context, f AccountForm) (string, error) {
	tr := i18n.FromContext(ctx)
	user := f.User
	if user == nil {
		user = &models.User{}
	}
	value := func(attr string) string {
		v, _ := user.AttributeValue(attr)
		return v
	}
	field := func(attr, typ string) Field {
		return Field{
			Name:     attr,
			ID:       fieldID("user", attr),
			Type:     typ,
			Label:    f.Descriptor.Label(tr, attr),
			Value:    value(attr),
			Required: requiredIn(f.Descriptor, f.Scenario, attr),
			Errors:   f.Errors[attr],
		}
	}
	select2 := func(attr string, opts []Option, selected ...string) Field {
		fl := field(attr, "select")
		fl.Select2 = true
		fl.Placeholder = tr.T("application", "Select...")
		fl.Options = selectOptions(opts, selected...)
		return fl
	}

	var status string
	if f.User != nil {
		status = strconv.Itoa(int(user.Status))
	}
	groups := select2(metadata.AttrGroups, GroupOptions(f.Groups), groupValues(user)...)
	groups.Multiple = true

	fields := []Field{
		field(metadata.AttrUsername, "text"),
		select2(metadata.AttrStatus, StatusOptions(tr), status),
		select2(metadata.AttrCustomerType, CustomerTypeOptions(tr), user.CustomerType),
		select2(metadata.AttrTimezone, TimezoneOptions(), user.Timezone),
		groups,
	}
	if metadata.NeedsPassword(f.Scenario) {
		fields = append(fields,
			field(metadata.AttrPassword, "password"),
			field(metadata.AttrConfirmPassword, "password"),
		)
	}
	fields = append(fields, Field{
		Name:  metadata.AttrType,
		ID:    fieldID("user", metadata.AttrType),
		Type:  "hidden",
		Value: models.UserTypeSystem,
	})
	return r.renderFields("account-form", f.Scenario, fields)
}

func groupValues(u *models.User) []string {
	ids := u.GroupIDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatUint(uint64(id), 10))
	}
	return out
}
