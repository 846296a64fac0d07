package metadata

// Person attribute names, as used by forms, rules and the JSON API.
const (
	AttrID               = "id"
	AttrFirstname        = "firstname"
	AttrLastname         = "lastname"
	AttrCouple           = "couple"
	AttrDancingRole      = "dancing_role"
	AttrPartnerFirstname = "partner_firstname"
	AttrPartnerLastname  = "partner_lastname"
	AttrMobilephone      = "mobilephone"
	AttrEmail            = "email"
	AttrFullName         = "fullName"
	AttrProfileImage     = "profile_image"
)

// Account attribute names.
const (
	AttrUsername        = "username"
	AttrPassword        = "password"
	AttrConfirmPassword = "confirmPassword"
	AttrStatus          = "status"
	AttrCustomerType    = "customer_type"
	AttrTimezone        = "timezone"
	AttrGroups          = "groups"
	AttrType            = "type"
)

// ImageExtensions are the upload extensions the profile image accepts.
const ImageExtensions = "jpg, png, gif, jpeg"
