package validation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/camden-git/dancereg/media"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUnique struct {
	taken   map[string]uint
	err     error
	exclude uint
}

func (f *fakeUnique) IsTaken(_ context.Context, attribute, value string, excludeID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.exclude = excludeID
	id, ok := f.taken[attribute+"="+value]
	return ok && id != excludeID, nil
}

var nameRules = []Rule{
	{Attributes: []string{"firstname"}, Validator: Required},
	{Attributes: []string{"firstname"}, Validator: Match, Params: map[string]any{"pattern": `^[A-Z._]+$`, "ignoreCase": true}},
	{Attributes: []string{"firstname"}, Validator: String, Params: map[string]any{"max": 32}},
	{Attributes: []string{"couple"}, Validator: Boolean},
	{Attributes: []string{"mobilephone"}, Validator: Number},
	{Attributes: []string{"email"}, Validator: Email},
}

func validate(t *testing.T, e *Engine, rules []Rule, active []string, values map[string]string) *Errors {
	t.Helper()
	errs, err := e.Validate(context.Background(), Request{
		Rules:    rules,
		Scenario: ScenarioCreate,
		Active:   active,
		Target:   Target{Values: values},
	})
	require.NoError(t, err)
	return errs
}

func TestValidateMessages(t *testing.T) {
	e := NewEngine(Options{})
	active := []string{"firstname", "couple", "mobilephone", "email"}

	errs := validate(t, e, nameRules, active, map[string]string{
		"firstname":   "",
		"couple":      "maybe",
		"mobilephone": "12ab",
		"email":       "nope",
	})
	assert.Equal(t, []string{"firstname", "couple", "mobilephone", "email"}, errs.Attributes())
	assert.Equal(t, "Firstname cannot be blank.", errs.First("firstname"))
	assert.Equal(t, `Couple must be either "1" or "0".`, errs.First("couple"))
	assert.Equal(t, "Mobilephone must be a number.", errs.First("mobilephone"))
	assert.Equal(t, "Email is not a valid email address.", errs.First("email"))
}

func TestValidatePassing(t *testing.T) {
	e := NewEngine(Options{})
	errs := validate(t, e, nameRules, []string{"firstname", "couple", "mobilephone", "email"}, map[string]string{
		"firstname":   "ada",
		"couple":      "true",
		"mobilephone": "0123456789",
		"email":       "ada@example.com",
	})
	assert.True(t, errs.Empty())
}

func TestValidateMatchAndLength(t *testing.T) {
	e := NewEngine(Options{})
	errs := validate(t, e, nameRules, []string{"firstname"}, map[string]string{"firstname": "Ada Lovelace"})
	assert.Equal(t, []string{"Firstname is invalid."}, errs.Fields()["firstname"])

	long := "abcdefghijklmnopqrstuvwxyzabcdefg"
	errs = validate(t, e, nameRules, []string{"firstname"}, map[string]string{"firstname": long})
	assert.Equal(t, "Firstname should contain at most 32 characters.", errs.First("firstname"))
}

func TestValidateSkipsInactiveAttributes(t *testing.T) {
	e := NewEngine(Options{})
	errs := validate(t, e, nameRules, []string{"email"}, map[string]string{"firstname": ""})
	assert.True(t, errs.Empty())
}

func TestValidateUsesLabelsAndTranslation(t *testing.T) {
	e := NewEngine(Options{Translate: func(category, msg string) string {
		if category == "validation" && msg == "{attribute} cannot be blank." {
			return "{attribute} darf nicht leer sein."
		}
		return msg
	}})
	errs, err := e.Validate(context.Background(), Request{
		Rules:    nameRules,
		Scenario: ScenarioCreate,
		Active:   []string{"firstname"},
		Target:   Target{Values: map[string]string{}},
		Labels:   map[string]string{"firstname": "Vorname"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Vorname darf nicht leer sein.", errs.First("firstname"))
}

func TestValidateRuleScenarios(t *testing.T) {
	checker := &fakeUnique{taken: map[string]uint{"email=ada@example.com": 4}}
	e := NewEngine(Options{Unique: checker})
	rules := []Rule{
		{Attributes: []string{"email"}, Validator: Unique, On: []Scenario{ScenarioCreate}},
		{Attributes: []string{"email"}, Validator: Unique, Params: map[string]any{"filter": FilterExcludeSelf}, On: []Scenario{ScenarioUpdate}},
	}
	target := Target{ID: 4, Values: map[string]string{"email": "ada@example.com"}}

	errs, err := e.Validate(context.Background(), Request{Rules: rules, Scenario: ScenarioCreate, Active: []string{"email"}, Target: target})
	require.NoError(t, err)
	assert.Equal(t, `Email "ada@example.com" has already been taken.`, errs.First("email"))

	errs, err = e.Validate(context.Background(), Request{Rules: rules, Scenario: ScenarioUpdate, Active: []string{"email"}, Target: target})
	require.NoError(t, err)
	assert.True(t, errs.Empty())
	assert.EqualValues(t, 4, checker.exclude)

	errs, err = e.Validate(context.Background(), Request{Rules: rules, Scenario: ScenarioBulkEdit, Active: []string{"email"}, Target: target})
	require.NoError(t, err)
	assert.True(t, errs.Empty())
}

func TestValidateUniqueFailure(t *testing.T) {
	boom := errors.New("db down")
	e := NewEngine(Options{Unique: &fakeUnique{err: boom}})
	_, err := e.Validate(context.Background(), Request{
		Rules:    []Rule{{Attributes: []string{"email"}, Validator: Unique}},
		Scenario: ScenarioCreate,
		Active:   []string{"email"},
		Target:   Target{Values: map[string]string{"email": "a@b.c"}},
	})
	assert.ErrorIs(t, err, boom)
}

func TestValidateUnknownValidator(t *testing.T) {
	e := NewEngine(Options{})
	_, err := e.Validate(context.Background(), Request{
		Rules:  []Rule{{Attributes: []string{"email"}, Validator: "telepathy"}},
		Active: []string{"email"},
	})
	assert.Error(t, err)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageRequest(up *media.Upload) Request {
	files := map[string]*media.Upload{}
	if up != nil {
		files["profile_image"] = up
	}
	return Request{
		Rules: []Rule{
			{Attributes: []string{"profile_image"}, Validator: File},
			{Attributes: []string{"profile_image"}, Validator: FileSize},
			{Attributes: []string{"profile_image"}, Validator: Image, Params: map[string]any{"extensions": "jpg, png, gif, jpeg", "minWidth": 10}},
		},
		Scenario: ScenarioUpdate,
		Active:   []string{"profile_image"},
		Target:   Target{Files: files},
	}
}

func TestValidateImage(t *testing.T) {
	e := NewEngine(Options{MaxFileSize: 1 << 20})
	ctx := context.Background()

	errs, err := e.Validate(ctx, imageRequest(nil))
	require.NoError(t, err)
	assert.True(t, errs.Empty(), "no upload is skipped")

	data := pngBytes(t, 20, 20)
	errs, err = e.Validate(ctx, imageRequest(&media.Upload{Filename: "me.png", Size: int64(len(data)), Data: data}))
	require.NoError(t, err)
	assert.True(t, errs.Empty())

	errs, err = e.Validate(ctx, imageRequest(&media.Upload{Filename: "me.bmp", Size: int64(len(data)), Data: data}))
	require.NoError(t, err)
	assert.Equal(t, "Only files with these extensions are allowed: jpg, png, gif, jpeg.", errs.First("profile_image"))

	small := pngBytes(t, 5, 5)
	errs, err = e.Validate(ctx, imageRequest(&media.Upload{Filename: "me.png", Size: int64(len(small)), Data: small}))
	require.NoError(t, err)
	assert.Equal(t, `The image "me.png" is too small. The width cannot be smaller than 10 pixels.`, errs.First("profile_image"))

	errs, err = e.Validate(ctx, imageRequest(&media.Upload{Filename: "me.png", Size: 4, Data: []byte("text")}))
	require.NoError(t, err)
	assert.Equal(t, `The file "me.png" is not an image.`, errs.First("profile_image"))

	errs, err = e.Validate(ctx, imageRequest(&media.Upload{Filename: "big.png", Size: 3 << 20, Data: data}))
	require.NoError(t, err)
	assert.Equal(t, `The file "big.png" is too big. Its size cannot exceed 1 MiB.`, errs.First("profile_image"))
}

func TestValidateCompareAndIn(t *testing.T) {
	e := NewEngine(Options{})
	rules := []Rule{
		{Attributes: []string{"confirmPassword"}, Validator: Compare, Params: map[string]any{"compareAttribute": "password"}},
		{Attributes: []string{"status"}, Validator: In, Params: map[string]any{"range": []string{"0", "1", "2"}}},
		{Attributes: []string{"timezone"}, Validator: Timezone},
	}
	errs := validate(t, e, rules, []string{"confirmPassword", "status", "timezone"}, map[string]string{
		"password":        "secret123",
		"confirmPassword": "secret124",
		"status":          "7",
		"timezone":        "Mars/Olympus",
	})
	assert.Equal(t, `ConfirmPassword must be equal to "Password".`, errs.First("confirmPassword"))
	assert.Equal(t, "Status is invalid.", errs.First("status"))
	assert.Equal(t, "Timezone is not a valid time zone.", errs.First("timezone"))

	errs = validate(t, e, rules, []string{"confirmPassword", "status", "timezone"}, map[string]string{
		"password":        "secret123",
		"confirmPassword": "secret123",
		"status":          "1",
		"timezone":        "Europe/Berlin",
	})
	assert.True(t, errs.Empty())
}

func TestErrorsRich(t *testing.T) {
	errs := NewErrors()
	errs.Add("email", "Email cannot be blank.")
	rich := errs.Rich()
	assert.Equal(t, goerrors.CategoryValidation, rich.Category)

	fields, ok := FieldsOf(rich)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"email": {"Email cannot be blank."}}, fields)

	_, ok = FieldsOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Partner Firstname", Humanize("partner_firstname"))
	assert.Equal(t, "ConfirmPassword", Humanize("confirmPassword"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Ada", StripMarkup(" <b>Ada</b> "))
	assert.Equal(t, "O'Neil", StripMarkup("O'Neil"))
	assert.Equal(t, "Tom & Jerry", StripMarkup("Tom &amp; Jerry"))
	assert.Equal(t, "1 < 2", StripMarkup("1 < 2"))

	encoded := StripMarkup("&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, encoded, "<script")
	assert.NotContains(t, encoded, "<")
	assert.NotContains(t, StripMarkup("&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;"), "<b>")
	out := StripAll(map[string]string{"firstname": "<i>x</i>", "password": "<p>"}, "password")
	assert.Equal(t, map[string]string{"firstname": "x", "password": "<p>"}, out)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "2 MiB", FormatBytes(2<<20))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
}
