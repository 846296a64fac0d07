package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"sync"
	"testing"

	"github.com/camden-git/dancereg/database"
	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/realtime"
	"github.com/camden-git/dancereg/repository"
	"github.com/camden-git/dancereg/validation"
	"github.com/camden-git/dancereg/workers"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []workers.ThumbnailJob
	full bool
}

func (q *recordingQueue) QueueJob(job workers.ThumbnailJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

type recordingEvents struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingEvents) Broadcast(ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc    *PersonService
	db     *gorm.DB
	store  *media.LocalStorage
	queue  *recordingQueue
	events *recordingEvents
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	store, err := media.NewLocalStorage(t.TempDir(), map[media.AssetType]string{
		media.AssetTypeProfileImage: "profile_images",
		media.AssetTypeThumbnail:    "thumbnails",
	})
	require.NoError(t, err)
	f := &fixture{db: db, store: store, queue: &recordingQueue{}, events: &recordingEvents{}}
	f.svc = NewPersonService(PersonDeps{
		People:        repository.NewPersonRepository(db),
		Addresses:     repository.NewAddressRepository(db),
		Descriptor:    metadata.NewPersonDescriptor(nil, metadata.ImageLimits{}),
		Store:         store,
		Thumbnails:    f.queue,
		Events:        f.events,
		MaxUploadSize: 1 << 20,
	})
	return f
}

func validValues(email string) map[string]string {
	return map[string]string{
		"firstname":    "ada",
		"lastname":     "lovelace",
		"email":        email,
		"couple":       "1",
		"dancing_role": "leader",
	}
}

func pngUpload(t *testing.T, name string) *media.Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return &media.Upload{Filename: name, Size: int64(buf.Len()), Data: buf.Bytes()}
}

func requireRich(t *testing.T, err error) *goerrors.Error {
	t.Helper()
	require.Error(t, err)
	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich), "expected rich error, got %v", err)
	return rich
}

func requireFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	fields, ok := validation.FieldsOf(err)
	require.True(t, ok, "expected validation error, got %v", err)
	return fields
}

func exists(t *testing.T, store *media.LocalStorage, rel string) bool {
	t.Helper()
	rc, _, err := store.Get(rel)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

func TestCreateRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	values := validValues("ada@example.com")
	values["id"] = "99"
	values["partner_firstname"] = "<b>charles</b>"
	p, err := f.svc.Create(ctx, Input{Values: values}, validation.ScenarioRegistration)
	require.NoError(t, err)

	assert.NotEqual(t, uint(99), p.ID)
	assert.Equal(t, "charles", p.PartnerFirstname)
	require.NotNil(t, p.Couple)
	assert.True(t, *p.Couple)
	assert.Equal(t, []string{realtime.EventPersonCreated}, f.events.types())
}

func TestCreateRejectsUnknownScenario(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), Input{Values: validValues("a@example.com")}, validation.ScenarioBulkEdit)
	assert.Equal(t, TextCodeInvalidScenario, requireRich(t, err).TextCode)
}

func TestCreateValidationMessages(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), Input{Values: map[string]string{
		"firstname":   "Ada Lovelace",
		"email":       "not-an-email",
		"mobilephone": "call me",
	}}, validation.ScenarioRegistration)

	rich := requireRich(t, err)
	assert.Equal(t, goerrors.CategoryValidation, rich.Category)
	fields := requireFields(t, err)
	assert.Equal(t, []string{"Your First Name is invalid."}, fields["firstname"])
	assert.Equal(t, []string{"Your Last Name cannot be blank."}, fields["lastname"])
	assert.Equal(t, []string{"Email is not a valid email address."}, fields["email"])
	assert.Equal(t, []string{"Registering as a Couple? cannot be blank."}, fields["couple"])
	assert.Equal(t, []string{"Mobile must be a number."}, fields["mobilephone"])
}

func TestEmailUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioRegistration)
	assert.Equal(t, []string{`Email "ada@example.com" has already been taken.`}, requireFields(t, err)["email"])

	// supercreate has no unique rule, the index still rejects the duplicate
	_, err = f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioSuperCreate)
	assert.Equal(t, TextCodeConflict, requireRich(t, err).TextCode)

	updated, err := f.svc.Update(ctx, first.ID, Input{Values: map[string]string{"email": "ada@example.com", "mobilephone": "0123"}}, validation.ScenarioEditProfile)
	require.NoError(t, err)
	assert.Equal(t, "0123", updated.Mobilephone)
}

func TestEmailUniquenessOnUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, Input{Values: validValues("bob@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, second.ID, Input{Values: validValues("ada@example.com")}, validation.ScenarioUpdate)
	assert.Equal(t, []string{`Email "ada@example.com" has already been taken.`}, requireFields(t, err)["email"])

	_, err = f.svc.Update(ctx, second.ID, Input{Values: map[string]string{"email": "ada@example.com"}}, validation.ScenarioEditProfile)
	assert.Equal(t, []string{`Email "ada@example.com" has already been taken.`}, requireFields(t, err)["email"])

	got, err := f.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
}

func TestBulkEditIgnoresEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, Input{Values: validValues("a@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, Input{Values: validValues("b@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	people, err := f.svc.BulkEdit(ctx, []uint{a.ID, b.ID}, Input{Values: map[string]string{
		"dancing_role": "follower",
		"email":        "same@example.com",
	}})
	require.NoError(t, err)
	require.Len(t, people, 2)

	for _, id := range []uint{a.ID, b.ID} {
		p, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "follower", p.DancingRole)
		assert.NotEqual(t, "same@example.com", p.Email)
	}
}

func TestBulkEditValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, Input{Values: validValues("a@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	_, err = f.svc.BulkEdit(ctx, []uint{a.ID}, Input{Values: map[string]string{"couple": "maybe"}})
	fields := requireFields(t, err)
	assert.Contains(t, fields, "1.couple")

	_, err = f.svc.BulkEdit(ctx, []uint{a.ID, 404}, Input{Values: map[string]string{"couple": "0"}})
	assert.Equal(t, goerrors.CategoryNotFound, requireRich(t, err).Category)

	_, err = f.svc.BulkEdit(ctx, nil, Input{})
	assert.Equal(t, TextCodeInvalidInput, requireRich(t, err).TextCode)

	p, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, *p.Couple, "nothing was applied")
}

func TestCreateWithProfileImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, Input{
		Values: validValues("ada@example.com"),
		Files:  map[string]*media.Upload{"profile_image": pngUpload(t, "me.png")},
	}, validation.ScenarioCreate)
	require.NoError(t, err)
	require.True(t, p.HasProfileImage())
	assert.True(t, exists(t, f.store, *p.ProfileImage))

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, p.ID, f.queue.jobs[0].PersonID)
	assert.Equal(t, *p.ProfileImage, f.queue.jobs[0].OriginalRelativePath)
}

func TestRegistrationIgnoresProfileImage(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Create(context.Background(), Input{
		Values: validValues("ada@example.com"),
		Files:  map[string]*media.Upload{"profile_image": pngUpload(t, "me.png")},
	}, validation.ScenarioRegistration)
	require.NoError(t, err)
	assert.False(t, p.HasProfileImage())
	assert.Empty(t, f.queue.jobs)
}

func TestUploadProfileImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	_, err = f.svc.UploadProfileImage(ctx, p.ID, &media.Upload{Filename: "me.txt", Size: 3, Data: []byte("abc")})
	assert.Equal(t, []string{"Only files with these extensions are allowed: jpg, png, gif, jpeg."}, requireFields(t, err)["profile_image"])

	_, err = f.svc.UploadProfileImage(ctx, p.ID, nil)
	assert.Equal(t, []string{"Please upload a file."}, requireFields(t, err)["profile_image"])

	first, err := f.svc.UploadProfileImage(ctx, p.ID, pngUpload(t, "one.png"))
	require.NoError(t, err)
	firstPath := *first.ProfileImage

	thumb, err := f.store.Save(media.AssetTypeThumbnail, "", "one.jpg", bytes.NewReader([]byte("t")))
	require.NoError(t, err)
	applied, err := repository.NewPersonRepository(f.db).SetThumbnail(ctx, p.ID, firstPath, thumb)
	require.NoError(t, err)
	require.True(t, applied)

	second, err := f.svc.UploadProfileImage(ctx, p.ID, pngUpload(t, "two.png"))
	require.NoError(t, err)
	assert.NotEqual(t, firstPath, *second.ProfileImage)
	assert.False(t, exists(t, f.store, firstPath), "previous original removed")
	assert.True(t, exists(t, f.store, thumb), "previous thumbnail kept until replaced")

	last := f.queue.jobs[len(f.queue.jobs)-1]
	assert.Equal(t, thumb, last.PreviousThumbnail)
}

func TestUploadProfileImageQueueFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)
	first, err := f.svc.UploadProfileImage(ctx, p.ID, pngUpload(t, "one.png"))
	require.NoError(t, err)

	thumb, err := f.store.Save(media.AssetTypeThumbnail, "", "one.jpg", bytes.NewReader([]byte("t")))
	require.NoError(t, err)
	_, err = repository.NewPersonRepository(f.db).SetThumbnail(ctx, p.ID, *first.ProfileImage, thumb)
	require.NoError(t, err)

	f.queue.full = true
	second, err := f.svc.UploadProfileImage(ctx, p.ID, pngUpload(t, "two.png"))
	require.NoError(t, err)
	assert.Nil(t, second.ProfileThumbnail)
	assert.False(t, exists(t, f.store, thumb))
}

func TestDeleteImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{
		Values: validValues("ada@example.com"),
		Files:  map[string]*media.Upload{"profile_image": pngUpload(t, "me.png")},
	}, validation.ScenarioCreate)
	require.NoError(t, err)
	original := *p.ProfileImage

	thumb, err := f.store.Save(media.AssetTypeThumbnail, "", "me.jpg", bytes.NewReader([]byte("t")))
	require.NoError(t, err)
	_, err = repository.NewPersonRepository(f.db).SetThumbnail(ctx, p.ID, original, thumb)
	require.NoError(t, err)

	got, err := f.svc.DeleteImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProfileImage)
	assert.Nil(t, got.ProfileThumbnail)
	assert.False(t, exists(t, f.store, original))
	assert.False(t, exists(t, f.store, thumb))

	reloaded, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasProfileImage())

	_, err = f.svc.DeleteImage(ctx, p.ID)
	assert.NoError(t, err, "no image is a no-op")
}

func TestDeleteHooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{
		Values: validValues("ada@example.com"),
		Files:  map[string]*media.Upload{"profile_image": pngUpload(t, "me.png")},
	}, validation.ScenarioCreate)
	require.NoError(t, err)
	original := *p.ProfileImage

	veto := true
	var seen []uint
	f.svc.OnBeforeDelete(func(_ context.Context, person *models.Person) (bool, error) {
		seen = append(seen, person.ID)
		return !veto, nil
	})

	err = f.svc.Delete(ctx, p.ID)
	assert.True(t, errors.Is(err, ErrDeleteAborted))
	assert.True(t, exists(t, f.store, original), "vetoed delete keeps the image")
	_, err = f.svc.Get(ctx, p.ID)
	require.NoError(t, err)

	veto = false
	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.Equal(t, []uint{p.ID, p.ID}, seen)
	assert.False(t, exists(t, f.store, original))

	_, err = f.svc.Get(ctx, p.ID)
	assert.Equal(t, goerrors.CategoryNotFound, requireRich(t, err).Category)
}

func TestDeleteHookError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	f.svc.OnBeforeDelete(func(context.Context, *models.Person) (bool, error) {
		return false, errors.New("ledger unavailable")
	})
	err = f.svc.Delete(ctx, p.ID)
	assert.Equal(t, goerrors.CategoryInternal, requireRich(t, err).Category)
}

func TestDeleteMissingImageIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	gone := "profile_images/gone.png"
	require.NoError(t, repository.NewPersonRepository(f.db).UpdateProfileImage(ctx, p.ID, &gone, nil))
	require.NoError(t, f.svc.Delete(ctx, p.ID))
}

func TestAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, Input{Values: validValues("ada@example.com")}, validation.ScenarioCreate)
	require.NoError(t, err)

	_, err = f.svc.GetAddress(ctx, p.ID)
	assert.Equal(t, goerrors.CategoryNotFound, requireRich(t, err).Category)

	_, err = f.svc.SaveAddress(ctx, p.ID, Input{Values: map[string]string{"country": "GBR"}})
	assert.Equal(t, []string{"Country is invalid."}, requireFields(t, err)["country"])

	saved, err := f.svc.SaveAddress(ctx, p.ID, Input{Values: map[string]string{"city": "London", "country": "GB"}})
	require.NoError(t, err)
	assert.Equal(t, models.AddressTypeDefault, saved.Type)

	got, err := f.svc.GetAddress(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "London", got.City)

	_, err = f.svc.SaveAddress(ctx, 404, Input{})
	assert.Equal(t, goerrors.CategoryNotFound, requireRich(t, err).Category)
}
