package metadata

import (
	"github.com/camden-git/dancereg/validation"
)

const (
	categoryApplication = "application"
	categoryUsers       = "users"
)

// personCommonAttributes are assignable in create, update and supercreate.
var personCommonAttributes = []string{
	AttrEmail, AttrFirstname, AttrLastname, AttrCouple, AttrDancingRole,
	AttrPartnerFirstname, AttrPartnerLastname, AttrMobilephone,
}

var personLabels = map[string]LabelSource{
	AttrID:               {categoryApplication, "Id"},
	AttrDancingRole:      {categoryUsers, "Dancing Role"},
	AttrFirstname:        {categoryUsers, "Your First Name"},
	AttrLastname:         {categoryUsers, "Your Last Name"},
	AttrCouple:           {categoryUsers, "Registering as a Couple?"},
	AttrPartnerFirstname: {categoryUsers, "Partner First Name"},
	AttrPartnerLastname:  {categoryUsers, "Partner Last Name"},
	AttrMobilephone:      {categoryUsers, "Mobile"},
	AttrEmail:            {categoryUsers, "Email"},
	AttrFullName:         {categoryUsers, "Full Name"},
	AttrProfileImage:     {categoryUsers, "Profile Image"},
}

func personScenarios() validation.Scenarios {
	withImage := validation.Merge(personCommonAttributes, []string{AttrProfileImage})
	self := []string{
		AttrFirstname, AttrLastname, AttrEmail, AttrCouple, AttrDancingRole,
		AttrPartnerFirstname, AttrPartnerLastname, AttrMobilephone,
	}
	return validation.Scenarios{
		validation.ScenarioCreate:       withImage,
		validation.ScenarioUpdate:       withImage,
		validation.ScenarioRegistration: self,
		validation.ScenarioEditProfile:  self,
		validation.ScenarioSuperCreate:  append([]string(nil), personCommonAttributes...),
		validation.ScenarioBulkEdit: {
			AttrFirstname, AttrLastname, AttrCouple, AttrDancingRole,
			AttrPartnerFirstname, AttrPartnerLastname, AttrMobilephone,
		},
		validation.ScenarioDeleteImage: {AttrProfileImage},
	}
}

func personRules() []validation.Rule {
	names := []string{AttrFirstname, AttrLastname}
	return []validation.Rule{
		{Attributes: names, Validator: validation.Required},
		{Attributes: names, Validator: validation.Match, Params: map[string]any{"pattern": `^[A-Z._]+$`, "ignoreCase": true}},
		{Attributes: names, Validator: validation.String, Params: map[string]any{"max": 32}},
		{Attributes: []string{AttrEmail}, Validator: validation.Required},
		{
			Attributes: []string{AttrEmail},
			Validator:  validation.Unique,
			On:         []validation.Scenario{validation.ScenarioCreate, validation.ScenarioRegistration},
		},
		{
			Attributes: []string{AttrEmail},
			Validator:  validation.Unique,
			Params:     map[string]any{"filter": validation.FilterExcludeSelf},
			On:         []validation.Scenario{validation.ScenarioUpdate, validation.ScenarioEditProfile},
		},
		{Attributes: []string{AttrEmail}, Validator: validation.Email},
		{Attributes: []string{AttrCouple}, Validator: validation.Required},
		{Attributes: []string{AttrCouple}, Validator: validation.Boolean},
		{Attributes: []string{AttrDancingRole}, Validator: validation.Required},
		{Attributes: []string{AttrDancingRole}, Validator: validation.String},
		{Attributes: []string{AttrPartnerFirstname}, Validator: validation.String},
		{Attributes: []string{AttrPartnerLastname}, Validator: validation.String},
		{Attributes: []string{AttrMobilephone}, Validator: validation.Number},
		{Attributes: []string{AttrProfileImage}, Validator: validation.File},
		{Attributes: []string{AttrProfileImage}, Validator: validation.FileSize},
		{Attributes: []string{AttrProfileImage}, Validator: validation.Image, Params: map[string]any{"extensions": ImageExtensions}},
		{Attributes: []string{AttrFirstname, AttrLastname, AttrMobilephone, AttrCouple, AttrDancingRole}, Validator: validation.Safe},
	}
}

// ImageLimits are optional pixel bounds for the profile image, zero means unbounded.
type ImageLimits struct {
	MinWidth, MinHeight, MaxWidth, MaxHeight int
}

// NewPersonDescriptor builds the Person descriptor. ext may be nil.
func NewPersonDescriptor(ext *ExtendedConfig, limits ImageLimits) *Descriptor {
	rules := personRules()
	for i := range rules {
		if rules[i].Validator != validation.Image {
			continue
		}
		for k, v := range map[string]int{
			"minWidth": limits.MinWidth, "minHeight": limits.MinHeight,
			"maxWidth": limits.MaxWidth, "maxHeight": limits.MaxHeight,
		} {
			if v > 0 {
				rules[i].Params[k] = v
			}
		}
	}
	return &Descriptor{
		Model:     "Person",
		labels:    personLabels,
		scenarios: personScenarios(),
		rules:     rules,
		Extended:  ext,
	}
}

// PersonLabel is the translated singular name of the model.
func PersonLabel(tr Translator) string {
	if tr == nil {
		return "Person"
	}
	return tr.T(categoryUsers, "Person")
}

// NotSet is the placeholder shown for missing values.
func NotSet(tr Translator) string {
	if tr == nil {
		return "(not set)"
	}
	return tr.T(categoryApplication, "(not set)")
}
