package media

import (
	"errors"
	"fmt"
)

// Resource is the pair of stored paths attached to one record.
type Resource struct {
	Original  string
	Thumbnail string
}

// ResourceConfig binds a ResourceManager to a store and to the record's current files.
type ResourceConfig struct {
	Store     Store
	AssetType AssetType
	// CreateThumbnail marks resources that get a generated thumbnail, which Delete
	// then removes along with the original.
	CreateThumbnail bool
	Current         Resource
}

// ResourceManager stores and removes the files behind one attribute of one record.
type ResourceManager struct {
	kind ResourceKind
	cfg  ResourceConfig
}

func NewResourceManager(kind ResourceKind, cfg ResourceConfig) (*ResourceManager, error) {
	if kind != KindImage {
		return nil, fmt.Errorf("unsupported resource kind '%s'", kind)
	}
	if cfg.Store == nil {
		return nil, errors.New("resource manager requires a store")
	}
	if cfg.AssetType == "" {
		cfg.AssetType = AssetTypeProfileImage
	}
	return &ResourceManager{kind: kind, cfg: cfg}, nil
}

func (m *ResourceManager) Kind() ResourceKind {
	return m.kind
}

// CreatesThumbnail reports whether saved resources should be queued for thumbnailing.
func (m *ResourceManager) CreatesThumbnail() bool {
	return m.cfg.CreateThumbnail
}

// Save stores the upload under a generated name keeping its extension and returns the
// relative path.
func (m *ResourceManager) Save(up *Upload) (string, error) {
	if up.Empty() {
		return "", errors.New("nothing uploaded")
	}
	name, err := generatedName(up.Ext())
	if err != nil {
		return "", err
	}
	return m.cfg.Store.Save(m.cfg.AssetType, "", name, up.Reader())
}

// Delete removes the current original and, for thumbnailed resources, its thumbnail.
// Files that are already gone are ignored.
func (m *ResourceManager) Delete() error {
	var errs []error
	if m.cfg.Current.Original != "" {
		if err := m.cfg.Store.Delete(m.cfg.Current.Original); err != nil {
			errs = append(errs, err)
		}
	}
	if m.cfg.CreateThumbnail && m.cfg.Current.Thumbnail != "" {
		if err := m.cfg.Store.Delete(m.cfg.Current.Thumbnail); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
