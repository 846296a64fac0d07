package models

import "time"

// OwnerTypePerson is the discriminator stored in addresses.relatedmodel for rows owned by a Person.
const OwnerTypePerson = "Person"

// Person represents a registrant in the database using GORM.
// It corresponds to the 'people' table.
type Person struct {
	ID               uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Firstname        string  `gorm:"size:32" json:"firstname"`
	Lastname         string  `gorm:"size:32" json:"lastname"`
	Couple           *bool   `json:"couple"`
	DancingRole      string  `json:"dancing_role"`
	PartnerFirstname string  `json:"partner_firstname"`
	PartnerLastname  string  `json:"partner_lastname"`
	Mobilephone      string  `json:"mobilephone"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	ProfileImage     *string `json:"profile_image"`     // relative asset path of the uploaded original
	ProfileThumbnail *string `json:"profile_thumbnail"` // relative asset path, filled in by the thumbnail worker

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	// only the default address is preloaded, see repository.PersonRepository
	Address *Address `gorm:"polymorphic:RelatedModel;polymorphicValue:Person" json:"address,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

// HasProfileImage reports whether an uploaded image is attached.
func (p *Person) HasProfileImage() bool {
	return p.ProfileImage != nil && *p.ProfileImage != ""
}

// FullName joins first and last name. It returns false when either part is missing
// so callers can substitute their own placeholder.
func (p *Person) FullName() (string, bool) {
	if p.Firstname == "" || p.Lastname == "" {
		return "", false
	}
	return p.Firstname + " " + p.Lastname, true
}
