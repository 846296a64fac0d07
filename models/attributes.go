package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/validation"
)

// ErrUnknownAttribute is returned when an attribute name does not belong to the model.
var ErrUnknownAttribute = errors.New("unknown attribute")

// AttributeValue returns the raw string form of a person attribute.
func (p *Person) AttributeValue(name string) (string, error) {
	switch name {
	case metadata.AttrID:
		if p.ID == 0 {
			return "", nil
		}
		return strconv.FormatUint(uint64(p.ID), 10), nil
	case metadata.AttrFirstname:
		return p.Firstname, nil
	case metadata.AttrLastname:
		return p.Lastname, nil
	case metadata.AttrCouple:
		if p.Couple == nil {
			return "", nil
		}
		if *p.Couple {
			return "1", nil
		}
		return "0", nil
	case metadata.AttrDancingRole:
		return p.DancingRole, nil
	case metadata.AttrPartnerFirstname:
		return p.PartnerFirstname, nil
	case metadata.AttrPartnerLastname:
		return p.PartnerLastname, nil
	case metadata.AttrMobilephone:
		return p.Mobilephone, nil
	case metadata.AttrEmail:
		return p.Email, nil
	case metadata.AttrProfileImage:
		if p.ProfileImage == nil {
			return "", nil
		}
		return *p.ProfileImage, nil
	}
	return "", fmt.Errorf("%w '%s' on person", ErrUnknownAttribute, name)
}

// Attributes returns the raw values of the named attributes.
func (p *Person) Attributes(names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, n := range names {
		v, err := p.AttributeValue(n)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}

// SetAttribute assigns a raw string value. The profile image is not assignable this way,
// it is set by the upload flow.
func (p *Person) SetAttribute(name, raw string) error {
	switch name {
	case metadata.AttrFirstname:
		p.Firstname = raw
	case metadata.AttrLastname:
		p.Lastname = raw
	case metadata.AttrCouple:
		if strings.TrimSpace(raw) == "" {
			p.Couple = nil
			return nil
		}
		b, ok := validation.ParseBool(raw)
		if !ok {
			return fmt.Errorf("invalid boolean %q for couple", raw)
		}
		p.Couple = &b
	case metadata.AttrDancingRole:
		p.DancingRole = raw
	case metadata.AttrPartnerFirstname:
		p.PartnerFirstname = raw
	case metadata.AttrPartnerLastname:
		p.PartnerLastname = raw
	case metadata.AttrMobilephone:
		p.Mobilephone = strings.TrimSpace(raw)
	case metadata.AttrEmail:
		p.Email = strings.TrimSpace(raw)
	default:
		return fmt.Errorf("%w '%s' on person", ErrUnknownAttribute, name)
	}
	return nil
}

// AttributeValue returns the raw string form of an account attribute.
func (u *User) AttributeValue(name string) (string, error) {
	switch name {
	case metadata.AttrID:
		if u.ID == 0 {
			return "", nil
		}
		return strconv.FormatUint(uint64(u.ID), 10), nil
	case metadata.AttrUsername:
		return u.Username, nil
	case metadata.AttrStatus:
		return strconv.Itoa(int(u.Status)), nil
	case metadata.AttrCustomerType:
		return u.CustomerType, nil
	case metadata.AttrTimezone:
		return u.Timezone, nil
	case metadata.AttrType:
		return u.Type, nil
	case metadata.AttrGroups:
		ids := u.GroupIDs()
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatUint(uint64(id), 10)
		}
		return strings.Join(parts, ","), nil
	case metadata.AttrPassword, metadata.AttrConfirmPassword:
		return "", nil
	}
	return "", fmt.Errorf("%w '%s' on user", ErrUnknownAttribute, name)
}

// SetAttribute assigns a raw account value. Passwords and groups are handled by the
// account service.
func (u *User) SetAttribute(name, raw string) error {
	switch name {
	case metadata.AttrUsername:
		u.Username = strings.TrimSpace(raw)
	case metadata.AttrStatus:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid status %q: %w", raw, err)
		}
		u.Status = UserStatus(n)
	case metadata.AttrCustomerType:
		u.CustomerType = raw
	case metadata.AttrTimezone:
		u.Timezone = strings.TrimSpace(raw)
	case metadata.AttrType:
		u.Type = raw
	default:
		return fmt.Errorf("%w '%s' on user", ErrUnknownAttribute, name)
	}
	return nil
}

// DisplayName returns the full name, or the translated "(not set)" placeholder.
func (p *Person) DisplayName(tr metadata.Translator) string {
	if name, ok := p.FullName(); ok {
		return name
	}
	return metadata.NotSet(tr)
}

// Label returns the translated model name.
func (Person) Label(tr metadata.Translator) string {
	return metadata.PersonLabel(tr)
}
