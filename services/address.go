package services

import (
	"context"
	"errors"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/validation"
	"gorm.io/gorm"
)

var addressAttributes = []string{"address1", "address2", "city", "state", "country", "postal_code"}

var addressRules = []validation.Rule{
	{Attributes: []string{"address1", "address2", "city", "state"}, Validator: validation.String, Params: map[string]any{"max": 255}},
	{Attributes: []string{"country"}, Validator: validation.Match, Params: map[string]any{"pattern": `^[A-Za-z]{2}$`}},
	{Attributes: []string{"postal_code"}, Validator: validation.String, Params: map[string]any{"max": 16}},
}

// GetAddress returns the person's default address.
func (s *PersonService) GetAddress(ctx context.Context, personID uint) (*models.Address, error) {
	if _, err := s.Get(ctx, personID); err != nil {
		return nil, err
	}
	addr, err := s.addresses.GetDefault(ctx, models.OwnerTypePerson, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("address of person", personID)
		}
		return nil, internal(err, "failed to load address")
	}
	return addr, nil
}

// SaveAddress creates or replaces the person's default address.
func (s *PersonService) SaveAddress(ctx context.Context, personID uint, in Input) (*models.Address, error) {
	if _, err := s.Get(ctx, personID); err != nil {
		return nil, err
	}
	v := in.safeValues(addressAttributes)
	tr := i18n.FromContext(ctx)
	labels := make(map[string]string, len(addressAttributes))
	for _, a := range addressAttributes {
		labels[a] = tr.T("users", validation.Humanize(a))
	}

	verrs, err := s.engine.Validate(ctx, validation.Request{
		Rules:     addressRules,
		Active:    addressAttributes,
		Target:    validation.Target{ID: personID, Values: v},
		Labels:    labels,
		Translate: tr.T,
	})
	if err != nil {
		return nil, internal(err, "failed to validate address")
	}
	if !verrs.Empty() {
		return nil, verrs.Rich()
	}

	addr := &models.Address{
		RelatedModelID:   personID,
		RelatedModelType: models.OwnerTypePerson,
		Type:             models.AddressTypeDefault,
		Address1:         v["address1"],
		Address2:         v["address2"],
		City:             v["city"],
		State:            v["state"],
		Country:          v["country"],
		PostalCode:       v["postal_code"],
	}
	if err := s.addresses.SaveDefault(ctx, addr); err != nil {
		return nil, internal(err, "failed to save address")
	}
	return addr, nil
}
