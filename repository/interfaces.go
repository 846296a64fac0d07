package repository

import (
	"context"

	"github.com/camden-git/dancereg/database"
	"github.com/camden-git/dancereg/models"
)

// PersonRepositoryInterface defines the methods for person data operations
type PersonRepositoryInterface interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uint) (*models.Person, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error)
	List(ctx context.Context, filter database.PeopleFilter, sortOrder string) ([]models.Person, error)
	Update(ctx context.Context, person *models.Person) error
	UpdateProfileImage(ctx context.Context, id uint, image, thumbnail *string) error
	SetThumbnail(ctx context.Context, id uint, originalPath, thumbnailPath string) (bool, error)
	Delete(ctx context.Context, id uint) error
	IsTaken(ctx context.Context, attribute, value string, excludeID uint) (bool, error)
	Transaction(ctx context.Context, fn func(repo PersonRepositoryInterface) error) error
}

// AddressRepositoryInterface reads and writes the default address of an owner
type AddressRepositoryInterface interface {
	GetDefault(ctx context.Context, ownerType string, ownerID uint) (*models.Address, error)
	SaveDefault(ctx context.Context, address *models.Address) error
}

// UserRepository defines the methods for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	ListAll(ctx context.Context) ([]models.User, error)
	ReplaceGroups(ctx context.Context, user *models.User, groups []*models.Group) error
	IsTaken(ctx context.Context, attribute, value string, excludeID uint) (bool, error)
	Transaction(ctx context.Context, fn func(repo UserRepository) error) error
}

// GroupRepository defines the methods for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByName(ctx context.Context, name string) (*models.Group, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Group, error)
	ListAll(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, id uint) error
}
