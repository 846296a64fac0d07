package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/realtime"
	"github.com/camden-git/dancereg/repository"
	"github.com/camden-git/dancereg/validation"
	"go.uber.org/zap"
)

// UserService creates and edits the accounts behind the account form.
type UserService struct {
	users      repository.UserRepository
	groups     repository.GroupRepository
	descriptor *metadata.Descriptor
	engine     *validation.Engine
	events     realtime.Publisher
}

// NewAccountDescriptor returns the account descriptor for the built-in status and
// customer type options.
func NewAccountDescriptor() *metadata.Descriptor {
	statuses := make([]string, 0, len(models.UserStatuses))
	for _, st := range models.UserStatuses {
		statuses = append(statuses, strconv.Itoa(int(st)))
	}
	return metadata.NewAccountDescriptor(statuses, models.CustomerTypes)
}

func NewUserService(users repository.UserRepository, groups repository.GroupRepository, events realtime.Publisher) *UserService {
	if events == nil {
		events = realtime.Discard{}
	}
	return &UserService{
		users:      users,
		groups:     groups,
		descriptor: NewAccountDescriptor(),
		engine:     validation.NewEngine(validation.Options{Unique: users}),
		events:     events,
	}
}

func (s *UserService) Descriptor() *metadata.Descriptor {
	return s.descriptor
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user", id, "failed to load user")
	}
	return user, nil
}

func (s *UserService) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, internal(err, "failed to list groups")
	}
	return groups, nil
}

// Create adds an account under the create or registration scenario. Both require a
// password and its confirmation.
func (s *UserService) Create(ctx context.Context, in Input, scenario validation.Scenario) (*models.User, error) {
	if !metadata.NeedsPassword(scenario) {
		return nil, invalidScenario(scenario, "account create")
	}
	user := &models.User{Type: models.UserTypeSystem}
	groups, err := s.prepare(ctx, user, in, scenario)
	if err != nil {
		return nil, err
	}
	err = s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		if err := tx.Create(ctx, user); err != nil {
			return storeError(err, "user", 0, "failed to create user")
		}
		return assignGroups(ctx, tx, user, groups)
	})
	if err != nil {
		return nil, err
	}
	logging.LogInfo(ctx, "user created", zap.Uint("user_id", user.ID), zap.String("scenario", string(scenario)))
	s.events.Broadcast(realtime.Event{Type: realtime.EventUserSaved, UserID: user.ID})
	return user, nil
}

// Update edits an account under the update scenario. Passwords are not touched.
func (s *UserService) Update(ctx context.Context, id uint, in Input) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	groups, err := s.prepare(ctx, user, in, validation.ScenarioUpdate)
	if err != nil {
		return nil, err
	}
	err = s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		if err := tx.Update(ctx, user); err != nil {
			return storeError(err, "user", id, "failed to update user")
		}
		return assignGroups(ctx, tx, user, groups)
	})
	if err != nil {
		return nil, err
	}
	s.events.Broadcast(realtime.Event{Type: realtime.EventUserSaved, UserID: user.ID})
	return s.Get(ctx, id)
}

// assignGroups replaces the memberships of user when groups were submitted.
func assignGroups(ctx context.Context, tx repository.UserRepository, user *models.User, groups []*models.Group) error {
	if groups == nil {
		return nil
	}
	if err := tx.ReplaceGroups(ctx, user, groups); err != nil {
		return internal(err, "failed to assign groups")
	}
	return nil
}

// prepare validates and assigns in. The returned groups are nil when the groups
// attribute was not submitted.
func (s *UserService) prepare(ctx context.Context, user *models.User, in Input, scenario validation.Scenario) ([]*models.Group, error) {
	active, ok := s.descriptor.ActiveAttributes(scenario)
	if !ok {
		return nil, invalidScenario(scenario, "account")
	}
	values := in.safeValues(active)

	raw := make(map[string]string, len(active))
	for _, attr := range active {
		if v, err := user.AttributeValue(attr); err == nil {
			raw[attr] = v
		}
	}
	for k, v := range values {
		raw[k] = v
	}

	tr := i18n.FromContext(ctx)
	labels := s.descriptor.Labels(tr)
	verrs, err := s.engine.Validate(ctx, validation.Request{
		Rules:     s.descriptor.Rules(),
		Scenario:  scenario,
		Active:    active,
		Target:    validation.Target{ID: user.ID, Values: raw},
		Labels:    labels,
		Translate: tr.T,
	})
	if err != nil {
		return nil, internal(err, "failed to validate user")
	}

	var groups []*models.Group
	rawGroups, submitted := values[metadata.AttrGroups]
	if submitted && verrs.Empty() {
		groups, err = s.loadGroups(ctx, rawGroups)
		if err != nil {
			verrs.Add(metadata.AttrGroups, strings.ReplaceAll(
				tr.T("validation", "{attribute} is invalid."), "{attribute}", labels[metadata.AttrGroups]))
		}
	}
	if !verrs.Empty() {
		return nil, verrs.Rich()
	}

	for k, v := range values {
		switch k {
		case metadata.AttrPassword, metadata.AttrConfirmPassword, metadata.AttrGroups:
			continue
		case metadata.AttrType:
			if v == "" {
				v = models.UserTypeSystem
			}
		}
		if err := user.SetAttribute(k, v); err != nil {
			if errors.Is(err, models.ErrUnknownAttribute) {
				continue
			}
			return nil, invalidInput(err.Error())
		}
	}
	if metadata.NeedsPassword(scenario) {
		if err := user.SetPassword(values[metadata.AttrPassword]); err != nil {
			return nil, internal(err, "failed to hash password")
		}
	}
	if submitted && groups == nil {
		groups = []*models.Group{}
	}
	return groups, nil
}

// loadGroups resolves a comma separated id list.
func (s *UserService) loadGroups(ctx context.Context, raw string) ([]*models.Group, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return s.groups.GetByIDs(ctx, ids)
}
