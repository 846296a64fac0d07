package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/camden-git/dancereg/database"
	"github.com/camden-git/dancereg/models"
	"github.com/facette/natsort"
	"gorm.io/gorm"
)

// ErrUnsupportedAttribute is returned by IsTaken for attributes without a unique column.
var ErrUnsupportedAttribute = errors.New("attribute has no uniqueness check")

// personUniqueColumns maps attribute names to columns that may be checked for uniqueness.
var personUniqueColumns = map[string]string{
	"email": "email",
}

// PersonRepository handles database operations for Person entities
type PersonRepository struct {
	DB *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// withDefaultAddress preloads only the default address of each person.
func withDefaultAddress(db *gorm.DB) *gorm.DB {
	return db.Preload("Address", "type = ?", models.AddressTypeDefault)
}

// Create creates a new person record in the database
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	if err := r.DB.WithContext(ctx).Omit("Address").Create(person).Error; err != nil {
		return fmt.Errorf("failed to create person %s: %w", person.Email, err)
	}
	return nil
}

// GetByID retrieves a person by their ID, preloading the default address
func (r *PersonRepository) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	err := withDefaultAddress(r.DB.WithContext(ctx)).First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// GetByIDs returns the people with the given ids ordered by id. Missing ids are skipped.
func (r *PersonRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error) {
	var people []models.Person
	if len(ids) == 0 {
		return people, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get people by IDs: %w", err)
	}
	return people, nil
}

// List retrieves people matching filter in the requested order.
func (r *PersonRepository) List(ctx context.Context, filter database.PeopleFilter, sortOrder string) ([]models.Person, error) {
	if !database.IsValidSortOrder(sortOrder) {
		sortOrder = database.DefaultSortOrder
	}
	where, args, err := database.PeopleWhere(filter)
	if err != nil {
		return nil, err
	}

	q := withDefaultAddress(r.DB.WithContext(ctx)).Order(database.OrderClause(sortOrder))
	if where != "" {
		q = q.Where(where, args...)
	}

	var people []models.Person
	if err := q.Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}

	if sortOrder == database.SortNameNat {
		sortPeopleNatural(people)
	}
	return people, nil
}

func sortPeopleNatural(people []models.Person) {
	key := func(p models.Person) string {
		return strings.ToLower(p.Lastname + " " + p.Firstname)
	}
	sort.SliceStable(people, func(i, j int) bool {
		return natsort.Compare(key(people[i]), key(people[j]))
	})
}

// Update saves every column of an existing person. The profile image columns are
// left alone, they change through UpdateProfileImage and SetThumbnail.
func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Person{ID: person.ID}).
		Select("firstname", "lastname", "couple", "dancing_role", "partner_firstname",
			"partner_lastname", "mobilephone", "email", "updated_at").
		Updates(person)
	if result.Error != nil {
		return fmt.Errorf("failed to update person ID %d: %w", person.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfileImage replaces both image columns. nil clears a column.
func (r *PersonRepository) UpdateProfileImage(ctx context.Context, id uint, image, thumbnail *string) error {
	result := r.DB.WithContext(ctx).Model(&models.Person{ID: id}).Updates(map[string]any{
		"profile_image":     image,
		"profile_thumbnail": thumbnail,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update profile image of person ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetThumbnail records a generated thumbnail, but only while originalPath is still the
// person's profile image. It reports whether the row was updated.
func (r *PersonRepository) SetThumbnail(ctx context.Context, id uint, originalPath, thumbnailPath string) (bool, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ? AND profile_image = ?", id, originalPath).
		Update("profile_thumbnail", thumbnailPath)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set thumbnail of person ID %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a person and the addresses they own
func (r *PersonRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("relatedmodel = ? AND relatedmodel_id = ?", models.OwnerTypePerson, id).
			Delete(&models.Address{}).Error; err != nil {
			return fmt.Errorf("failed to delete addresses of person ID %d: %w", id, err)
		}
		result := tx.Delete(&models.Person{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete person ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IsTaken implements the unique validator lookup for person attributes.
func (r *PersonRepository) IsTaken(ctx context.Context, attribute, value string, excludeID uint) (bool, error) {
	column, ok := personUniqueColumns[attribute]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedAttribute, attribute)
	}
	return exists(ctx, r.DB, models.Person{}.TableName(), column, value, excludeID)
}

// Transaction runs fn with a repository bound to a single database transaction.
func (r *PersonRepository) Transaction(ctx context.Context, fn func(repo PersonRepositoryInterface) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPersonRepository(tx))
	})
}
