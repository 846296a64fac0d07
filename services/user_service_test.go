package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/realtime"
	"github.com/camden-git/dancereg/repository"
	"github.com/camden-git/dancereg/validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// lockedGroupsRepo fails every membership change.
type lockedGroupsRepo struct {
	repository.UserRepository
}

func (r lockedGroupsRepo) ReplaceGroups(context.Context, *models.User, []*models.Group) error {
	return errors.New("user_groups is locked")
}

func (r lockedGroupsRepo) Transaction(ctx context.Context, fn func(repo repository.UserRepository) error) error {
	return r.UserRepository.Transaction(ctx, func(tx repository.UserRepository) error {
		return fn(lockedGroupsRepo{tx})
	})
}

func newUserService(t *testing.T) (*UserService, repository.GroupRepository, *recordingEvents) {
	t.Helper()
	db := newTestDB(t)
	groups := repository.NewGormGroupRepository(db)
	events := &recordingEvents{}
	return NewUserService(repository.NewGormUserRepository(db), groups, events), groups, events
}

func accountValues() map[string]string {
	return map[string]string{
		"username":        "ada",
		"status":          "1",
		"customer_type":   models.CustomerTypeRetail,
		"timezone":        "Europe/London",
		"password":        "difference-engine",
		"confirmPassword": "difference-engine",
	}
}

func TestCreateAccount(t *testing.T) {
	svc, groups, events := newUserService(t)
	ctx := context.Background()

	staff := &models.Group{Name: "staff"}
	require.NoError(t, groups.Create(ctx, staff))

	values := accountValues()
	values["groups"] = fmt.Sprint(staff.ID)
	values["type"] = ""
	user, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioRegistration)
	require.NoError(t, err)

	assert.Equal(t, models.UserTypeSystem, user.Type)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.True(t, user.CheckPassword("difference-engine"))

	loaded, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{staff.ID}, loaded.GroupIDs())
	assert.Equal(t, []string{realtime.EventUserSaved}, events.types())
}

func TestCreateAccountPasswordChecks(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	values := accountValues()
	values["confirmPassword"] = "analytical-engine"
	_, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	fields := requireFields(t, err)
	assert.Equal(t, []string{`Confirm Password must be equal to "Password".`}, fields["confirmPassword"])

	values = accountValues()
	delete(values, "password")
	delete(values, "confirmPassword")
	_, err = svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	fields = requireFields(t, err)
	assert.Equal(t, []string{"Password cannot be blank."}, fields["password"])
	assert.Equal(t, []string{"Confirm Password cannot be blank."}, fields["confirmPassword"])
}

func TestCreateAccountPasswordByteLimit(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	// 40 characters, 80 bytes
	long := strings.Repeat("ü", 40)
	values := accountValues()
	values["password"] = long
	values["confirmPassword"] = long
	_, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	assert.Equal(t, []string{"Password should not exceed 72 bytes."}, requireFields(t, err)["password"])

	// 36 characters, 72 bytes
	fits := strings.Repeat("ü", 36)
	values["password"] = fits
	values["confirmPassword"] = fits
	user, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	require.NoError(t, err)
	assert.True(t, user.CheckPassword(fits))
}

func TestCreateAccountRollsBackOnGroupFailure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	groups := repository.NewGormGroupRepository(db)
	users := repository.NewGormUserRepository(db)
	events := &recordingEvents{}
	svc := NewUserService(lockedGroupsRepo{users}, groups, events)

	staff := &models.Group{Name: "staff"}
	require.NoError(t, groups.Create(ctx, staff))

	values := accountValues()
	values["groups"] = fmt.Sprint(staff.ID)
	_, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	assert.Equal(t, goerrors.CategoryInternal, requireRich(t, err).Category)

	_, err = users.GetByUsername(ctx, "ada")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, events.types())
}

func TestUpdateAccountRollsBackOnGroupFailure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	groups := repository.NewGormGroupRepository(db)
	users := repository.NewGormUserRepository(db)

	staff := &models.Group{Name: "staff"}
	require.NoError(t, groups.Create(ctx, staff))
	values := accountValues()
	values["groups"] = fmt.Sprint(staff.ID)
	user, err := NewUserService(users, groups, nil).Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	require.NoError(t, err)

	locked := NewUserService(lockedGroupsRepo{users}, groups, nil)
	_, err = locked.Update(ctx, user.ID, Input{Values: map[string]string{
		"username": "ada.lovelace",
		"status":   "1",
		"groups":   "",
	}})
	assert.Equal(t, goerrors.CategoryInternal, requireRich(t, err).Category)

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, []uint{staff.ID}, got.GroupIDs())
}

func TestCreateAccountRejectsUpdateScenario(t *testing.T) {
	svc, _, _ := newUserService(t)
	_, err := svc.Create(context.Background(), Input{Values: accountValues()}, validation.ScenarioUpdate)
	assert.Equal(t, TextCodeInvalidScenario, requireRich(t, err).TextCode)
}

func TestCreateAccountInvalidOptions(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	values := accountValues()
	values["status"] = "7"
	values["customer_type"] = "vip"
	values["timezone"] = "Mars/Olympus"
	values["groups"] = "42"
	_, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	fields := requireFields(t, err)
	assert.Equal(t, []string{"Status is invalid."}, fields["status"])
	assert.Equal(t, []string{"Customer Type is invalid."}, fields["customer_type"])
	assert.Equal(t, []string{"Timezone is not a valid time zone."}, fields["timezone"])
	assert.NotContains(t, fields, "groups", "groups are checked once the rest is valid")

	values = accountValues()
	values["groups"] = "42"
	_, err = svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	assert.Equal(t, []string{"Groups is invalid."}, requireFields(t, err)["groups"])
}

func TestUpdateAccountKeepsPassword(t *testing.T) {
	svc, groups, _ := newUserService(t)
	ctx := context.Background()

	staff := &models.Group{Name: "staff"}
	require.NoError(t, groups.Create(ctx, staff))
	values := accountValues()
	values["groups"] = fmt.Sprint(staff.ID)
	user, err := svc.Create(ctx, Input{Values: values}, validation.ScenarioCreate)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user.ID, Input{Values: map[string]string{
		"username": "ada.lovelace",
		"status":   "2",
		"password": "ignored-password",
		"groups":   "",
	}})
	require.NoError(t, err)
	assert.Equal(t, "ada.lovelace", updated.Username)
	assert.Equal(t, models.UserStatusPending, updated.Status)
	assert.True(t, updated.CheckPassword("difference-engine"))
	assert.Empty(t, updated.GroupIDs())
}

func TestUsernameUniqueness(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Values: accountValues()}, validation.ScenarioCreate)
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Values: accountValues()}, validation.ScenarioCreate)
	assert.Equal(t, []string{`Username "ada" has already been taken.`}, requireFields(t, err)["username"])

	_, err = svc.Get(ctx, 404)
	assert.Equal(t, goerrors.CategoryNotFound, requireRich(t, err).Category)
}
