package metadata

import (
	"github.com/camden-git/dancereg/validation"
)

var accountLabels = map[string]LabelSource{
	AttrID:              {categoryApplication, "Id"},
	AttrUsername:        {categoryUsers, "Username"},
	AttrPassword:        {categoryUsers, "Password"},
	AttrConfirmPassword: {categoryUsers, "Confirm Password"},
	AttrStatus:          {categoryUsers, "Status"},
	AttrCustomerType:    {categoryUsers, "Customer Type"},
	AttrTimezone:        {categoryUsers, "Timezone"},
	AttrGroups:          {categoryUsers, "Groups"},
}

// PasswordScenarios are the account scenarios that set a password.
var PasswordScenarios = []validation.Scenario{validation.ScenarioCreate, validation.ScenarioRegistration}

// NeedsPassword reports whether the account form asks for a password in s.
func NeedsPassword(s validation.Scenario) bool {
	for _, p := range PasswordScenarios {
		if p == s {
			return true
		}
	}
	return false
}

// NewAccountDescriptor builds the descriptor for the account form.
// statuses and customerTypes are the allowed dropdown keys.
func NewAccountDescriptor(statuses, customerTypes []string) *Descriptor {
	profile := []string{AttrUsername, AttrStatus, AttrCustomerType, AttrTimezone, AttrGroups, AttrType}
	withPassword := validation.Merge(profile, []string{AttrPassword, AttrConfirmPassword})
	return &Descriptor{
		Model:  "User",
		labels: accountLabels,
		scenarios: validation.Scenarios{
			validation.ScenarioCreate:       withPassword,
			validation.ScenarioRegistration: withPassword,
			validation.ScenarioUpdate:       profile,
		},
		rules: []validation.Rule{
			{Attributes: []string{AttrUsername, AttrStatus}, Validator: validation.Required},
			{Attributes: []string{AttrUsername}, Validator: validation.Match, Params: map[string]any{"pattern": `^[A-Za-z0-9_.\-]+$`}},
			{Attributes: []string{AttrUsername}, Validator: validation.String, Params: map[string]any{"max": 64}},
			{Attributes: []string{AttrUsername}, Validator: validation.Unique, On: PasswordScenarios},
			{
				Attributes: []string{AttrUsername},
				Validator:  validation.Unique,
				Params:     map[string]any{"filter": validation.FilterExcludeSelf},
				On:         []validation.Scenario{validation.ScenarioUpdate},
			},
			{Attributes: []string{AttrStatus}, Validator: validation.In, Params: map[string]any{"range": statuses}},
			{Attributes: []string{AttrCustomerType}, Validator: validation.In, Params: map[string]any{"range": customerTypes}},
			{Attributes: []string{AttrTimezone}, Validator: validation.Timezone},
			{Attributes: []string{AttrPassword, AttrConfirmPassword}, Validator: validation.Required, On: PasswordScenarios},
			{Attributes: []string{AttrPassword}, Validator: validation.String, Params: map[string]any{"min": 8, "max": 72, "maxBytes": 72}},
			{
				Attributes: []string{AttrConfirmPassword},
				Validator:  validation.Compare,
				Params:     map[string]any{"compareAttribute": AttrPassword},
				On:         PasswordScenarios,
			},
			{Attributes: []string{AttrGroups, AttrType}, Validator: validation.Safe},
		},
	}
}
