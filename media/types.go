package media

type AssetType string

const (
	AssetTypeProfileImage AssetType = "profile_image"
	AssetTypeThumbnail    AssetType = "thumbnail"
)

// ResourceKind names what a ResourceManager manages. Only images are stored today.
type ResourceKind string

const KindImage ResourceKind = "image"
