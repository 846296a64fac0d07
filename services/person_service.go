package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/camden-git/dancereg/database"
	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/realtime"
	"github.com/camden-git/dancereg/repository"
	"github.com/camden-git/dancereg/validation"
	"github.com/camden-git/dancereg/workers"
	"go.uber.org/zap"
)

var (
	createScenarios = []validation.Scenario{validation.ScenarioCreate, validation.ScenarioSuperCreate, validation.ScenarioRegistration}
	updateScenarios = []validation.Scenario{validation.ScenarioUpdate, validation.ScenarioEditProfile, validation.ScenarioBulkEdit}
)

// BeforeDeleteHook runs before a person is deleted. Returning false vetoes the delete.
type BeforeDeleteHook func(ctx context.Context, person *models.Person) (bool, error)

// ThumbnailQueue accepts thumbnail jobs, see workers.ThumbnailGenerator.
type ThumbnailQueue interface {
	QueueJob(job workers.ThumbnailJob) bool
}

type PersonDeps struct {
	People     repository.PersonRepositoryInterface
	Addresses  repository.AddressRepositoryInterface
	Descriptor *metadata.Descriptor
	Store      media.Store
	// Thumbnails may be nil, thumbnails are then never generated.
	Thumbnails ThumbnailQueue
	Events     realtime.Publisher
	// MaxUploadSize is the default limit of the filesize rule.
	MaxUploadSize int64
}

// PersonService runs the person lifecycle: scenario driven assignment and validation,
// persistence, profile image handling and change events.
type PersonService struct {
	people     repository.PersonRepositoryInterface
	addresses  repository.AddressRepositoryInterface
	descriptor *metadata.Descriptor
	engine     *validation.Engine
	store      media.Store
	thumbnails ThumbnailQueue
	events     realtime.Publisher

	mu    sync.RWMutex
	hooks []BeforeDeleteHook
}

func NewPersonService(deps PersonDeps) *PersonService {
	events := deps.Events
	if events == nil {
		events = realtime.Discard{}
	}
	return &PersonService{
		people:     deps.People,
		addresses:  deps.Addresses,
		descriptor: deps.Descriptor,
		engine:     validation.NewEngine(validation.Options{Unique: deps.People, MaxFileSize: deps.MaxUploadSize}),
		store:      deps.Store,
		thumbnails: deps.Thumbnails,
		events:     events,
	}
}

// Descriptor exposes the labels, scenarios and rules in use.
func (s *PersonService) Descriptor() *metadata.Descriptor {
	return s.descriptor
}

// OnBeforeDelete registers a hook. Hooks run in registration order.
func (s *PersonService) OnBeforeDelete(hook BeforeDeleteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *PersonService) Get(ctx context.Context, id uint) (*models.Person, error) {
	person, err := s.people.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "person", id, "failed to load person")
	}
	return person, nil
}

func (s *PersonService) List(ctx context.Context, filter database.PeopleFilter, sortOrder string) ([]models.Person, error) {
	people, err := s.people.List(ctx, filter, sortOrder)
	if err != nil {
		return nil, internal(err, "failed to list people")
	}
	return people, nil
}

// Create inserts a person under one of the create, supercreate or registration scenarios.
func (s *PersonService) Create(ctx context.Context, in Input, scenario validation.Scenario) (*models.Person, error) {
	if !contains(createScenarios, scenario) {
		return nil, invalidScenario(scenario, "create")
	}
	person := &models.Person{}
	upload, verrs, err := s.prepare(ctx, person, in, scenario, nil)
	if err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs.Rich()
	}

	var stored string
	if upload != nil {
		if stored, err = s.saveImage(upload); err != nil {
			return nil, err
		}
		person.ProfileImage = &stored
	}

	if err := s.people.Create(ctx, person); err != nil {
		s.removeFile(ctx, stored)
		return nil, storeError(err, "person", 0, "failed to create person")
	}
	if stored != "" {
		s.queueThumbnail(ctx, person, stored, "")
	}

	logging.LogInfo(ctx, "person created", zap.Uint("person_id", person.ID), zap.String("scenario", string(scenario)))
	s.events.Broadcast(realtime.Event{Type: realtime.EventPersonCreated, PersonID: person.ID})
	return person, nil
}

// Update changes a person under one of the update, editprofile or bulkedit scenarios.
func (s *PersonService) Update(ctx context.Context, id uint, in Input, scenario validation.Scenario) (*models.Person, error) {
	if !contains(updateScenarios, scenario) {
		return nil, invalidScenario(scenario, "update")
	}
	person, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	upload, verrs, err := s.prepare(ctx, person, in, scenario, nil)
	if err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs.Rich()
	}

	if err := s.people.Update(ctx, person); err != nil {
		return nil, storeError(err, "person", id, "failed to update person")
	}
	if upload != nil {
		if err := s.replaceImage(ctx, person, upload); err != nil {
			return nil, err
		}
	}

	logging.LogInfo(ctx, "person updated", zap.Uint("person_id", id), zap.String("scenario", string(scenario)))
	s.events.Broadcast(realtime.Event{Type: realtime.EventPersonUpdated, PersonID: id})
	return s.Get(ctx, id)
}

// BulkEdit applies the same values to several people under the bulkedit scenario.
// Either every person is updated or none is. Validation messages are keyed
// "<id>.<attribute>".
func (s *PersonService) BulkEdit(ctx context.Context, ids []uint, in Input) ([]models.Person, error) {
	if len(ids) == 0 {
		return nil, invalidInput("no people selected")
	}
	people, err := s.people.GetByIDs(ctx, ids)
	if err != nil {
		return nil, internal(err, "failed to load people")
	}
	found := make(map[uint]bool, len(people))
	for _, p := range people {
		found[p.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, notFound("person", id)
		}
	}

	combined := validation.NewErrors()
	for i := range people {
		_, verrs, err := s.prepare(ctx, &people[i], in, validation.ScenarioBulkEdit, nil)
		if err != nil {
			return nil, err
		}
		for _, attr := range verrs.Attributes() {
			for _, msg := range verrs.Fields()[attr] {
				combined.Add(fmt.Sprintf("%d.%s", people[i].ID, attr), msg)
			}
		}
	}
	if !combined.Empty() {
		return nil, combined.Rich()
	}

	err = s.people.Transaction(ctx, func(repo repository.PersonRepositoryInterface) error {
		for i := range people {
			if err := repo.Update(ctx, &people[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "person", 0, "failed to bulk edit people")
	}

	for _, p := range people {
		s.events.Broadcast(realtime.Event{Type: realtime.EventPersonUpdated, PersonID: p.ID})
	}
	logging.LogInfo(ctx, "people bulk edited", zap.Int("count", len(people)))
	return people, nil
}

// UploadProfileImage validates the upload with the update scenario's profile image
// rules, stores it, removes the previous original and queues a thumbnail.
func (s *PersonService) UploadProfileImage(ctx context.Context, id uint, upload *media.Upload) (*models.Person, error) {
	person, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload.Empty() {
		verrs := validation.NewErrors()
		verrs.Add(metadata.AttrProfileImage, i18n.FromContext(ctx).T("validation", "Please upload a file."))
		return nil, verrs.Rich()
	}
	in := Input{Files: map[string]*media.Upload{metadata.AttrProfileImage: upload}}
	_, verrs, err := s.prepare(ctx, person, in, validation.ScenarioUpdate, []string{metadata.AttrProfileImage})
	if err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs.Rich()
	}
	if err := s.replaceImage(ctx, person, upload); err != nil {
		return nil, err
	}
	return person, nil
}

// DeleteImage removes the profile image and its thumbnail under the deleteimage scenario.
func (s *PersonService) DeleteImage(ctx context.Context, id uint) (*models.Person, error) {
	if !s.descriptor.Scenarios().Has(validation.ScenarioDeleteImage, metadata.AttrProfileImage) {
		return nil, invalidScenario(validation.ScenarioDeleteImage, "delete image")
	}
	person, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !person.HasProfileImage() {
		return person, nil
	}

	s.removeImageFiles(ctx, person)
	if err := s.people.UpdateProfileImage(ctx, id, nil, nil); err != nil {
		return nil, storeError(err, "person", id, "failed to clear profile image")
	}
	person.ProfileImage = nil
	person.ProfileThumbnail = nil

	s.events.Broadcast(realtime.Event{Type: realtime.EventPersonImage, PersonID: id})
	return person, nil
}

// Delete runs the before-delete hooks, removes the profile image and deletes the row.
func (s *PersonService) Delete(ctx context.Context, id uint) error {
	person, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.RLock()
	hooks := append([]BeforeDeleteHook(nil), s.hooks...)
	s.mu.RUnlock()
	for _, hook := range hooks {
		ok, err := hook(ctx, person)
		if err != nil {
			return internal(err, "before-delete hook failed")
		}
		if !ok {
			logging.LogInfo(ctx, "person delete vetoed", zap.Uint("person_id", id))
			return ErrDeleteAborted
		}
	}

	if person.HasProfileImage() {
		s.removeImageFiles(ctx, person)
	}
	if err := s.people.Delete(ctx, id); err != nil {
		return storeError(err, "person", id, "failed to delete person")
	}

	logging.LogInfo(ctx, "person deleted", zap.Uint("person_id", id))
	s.events.Broadcast(realtime.Event{Type: realtime.EventPersonDeleted, PersonID: id})
	return nil
}

// prepare assigns the safe values of in to person and validates the result. It returns
// the profile image upload when one was submitted and is safe in scenario.
func (s *PersonService) prepare(ctx context.Context, person *models.Person, in Input, scenario validation.Scenario, only []string) (*media.Upload, *validation.Errors, error) {
	active, ok := s.descriptor.ActiveAttributes(scenario)
	if !ok {
		return nil, nil, invalidScenario(scenario, "person")
	}
	values := in.safeValues(active)
	delete(values, metadata.AttrProfileImage)

	raw := make(map[string]string, len(active))
	for _, attr := range active {
		if v, err := person.AttributeValue(attr); err == nil {
			raw[attr] = v
		}
	}
	for k, v := range values {
		raw[k] = v
	}

	upload := in.file(metadata.AttrProfileImage, active)
	if upload.Empty() {
		upload = nil
	}
	target := validation.Target{ID: person.ID, Values: raw}
	if upload != nil {
		target.Files = map[string]*media.Upload{metadata.AttrProfileImage: upload}
	}

	tr := i18n.FromContext(ctx)
	verrs, err := s.engine.Validate(ctx, validation.Request{
		Rules:     s.descriptor.Rules(),
		Scenario:  scenario,
		Active:    active,
		Target:    target,
		Labels:    s.descriptor.Labels(tr),
		Only:      only,
		Translate: tr.T,
	})
	if err != nil {
		return nil, nil, internal(err, "failed to validate person")
	}
	if !verrs.Empty() {
		return nil, verrs, nil
	}

	for k, v := range values {
		if err := person.SetAttribute(k, v); err != nil && !errors.Is(err, models.ErrUnknownAttribute) {
			return nil, nil, invalidInput(err.Error())
		}
	}
	return upload, verrs, nil
}

func (s *PersonService) imageManager(person *models.Person) (*media.ResourceManager, error) {
	current := media.Resource{}
	if person != nil {
		current.Original = deref(person.ProfileImage)
		current.Thumbnail = deref(person.ProfileThumbnail)
	}
	return media.NewResourceManager(media.KindImage, media.ResourceConfig{
		Store:           s.store,
		AssetType:       media.AssetTypeProfileImage,
		CreateThumbnail: true,
		Current:         current,
	})
}

func (s *PersonService) saveImage(upload *media.Upload) (string, error) {
	rm, err := s.imageManager(nil)
	if err != nil {
		return "", internal(err, "failed to prepare image storage")
	}
	stored, err := rm.Save(upload)
	if err != nil {
		return "", internal(err, "failed to store profile image")
	}
	return stored, nil
}

// replaceImage stores upload as the person's profile image. The previous thumbnail
// stays in place until the new one is generated.
func (s *PersonService) replaceImage(ctx context.Context, person *models.Person, upload *media.Upload) error {
	stored, err := s.saveImage(upload)
	if err != nil {
		return err
	}
	oldImage := deref(person.ProfileImage)
	oldThumb := deref(person.ProfileThumbnail)

	if err := s.people.UpdateProfileImage(ctx, person.ID, &stored, person.ProfileThumbnail); err != nil {
		s.removeFile(ctx, stored)
		return storeError(err, "person", person.ID, "failed to record profile image")
	}
	person.ProfileImage = &stored
	if oldImage != "" && oldImage != stored {
		s.removeFile(ctx, oldImage)
	}

	if !s.queueThumbnail(ctx, person, stored, oldThumb) && oldThumb != "" {
		s.removeFile(ctx, oldThumb)
		if err := s.people.UpdateProfileImage(ctx, person.ID, &stored, nil); err != nil {
			return storeError(err, "person", person.ID, "failed to clear stale thumbnail")
		}
		person.ProfileThumbnail = nil
	}

	s.events.Broadcast(realtime.Event{Type: realtime.EventPersonImage, PersonID: person.ID, Path: stored})
	return nil
}

func (s *PersonService) queueThumbnail(ctx context.Context, person *models.Person, original, previousThumb string) bool {
	if s.thumbnails == nil {
		return false
	}
	queued := s.thumbnails.QueueJob(workers.ThumbnailJob{
		PersonID:             person.ID,
		OriginalRelativePath: original,
		PreviousThumbnail:    previousThumb,
	})
	if !queued {
		logging.LogWarn(ctx, "thumbnail not queued", zap.Uint("person_id", person.ID), zap.String("original", original))
	}
	return queued
}

// removeImageFiles deletes the stored original and thumbnail. Failures are logged only.
func (s *PersonService) removeImageFiles(ctx context.Context, person *models.Person) {
	rm, err := s.imageManager(person)
	if err == nil {
		err = rm.Delete()
	}
	if err != nil {
		logging.LogWarn(ctx, "failed to remove profile image files", zap.Uint("person_id", person.ID), zap.Error(err))
	}
}

func (s *PersonService) removeFile(ctx context.Context, rel string) {
	if rel == "" {
		return
	}
	if err := s.store.Delete(rel); err != nil {
		logging.LogWarn(ctx, "failed to remove file", zap.String("path", rel), zap.Error(err))
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
