package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonFullName(t *testing.T) {
	p := &Person{Firstname: "Ada", Lastname: "Lovelace"}
	name, ok := p.FullName()
	assert.True(t, ok)
	assert.Equal(t, "Ada Lovelace", name)

	p.Lastname = ""
	_, ok = p.FullName()
	assert.False(t, ok)
}

func TestPersonSetAttributeCouple(t *testing.T) {
	p := &Person{}
	require.NoError(t, p.SetAttribute("couple", "true"))
	require.NotNil(t, p.Couple)
	assert.True(t, *p.Couple)

	v, err := p.AttributeValue("couple")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, p.SetAttribute("couple", "0"))
	assert.False(t, *p.Couple)

	require.NoError(t, p.SetAttribute("couple", ""))
	assert.Nil(t, p.Couple)

	assert.Error(t, p.SetAttribute("couple", "maybe"))
}

func TestPersonAttributesUnknown(t *testing.T) {
	p := &Person{}
	_, err := p.AttributeValue("shoe_size")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	assert.ErrorIs(t, p.SetAttribute("profile_image", "x.jpg"), ErrUnknownAttribute)
}

func TestPersonAttributes(t *testing.T) {
	img := "profile_images/a.jpg"
	p := &Person{ID: 7, Email: "ada@example.com", ProfileImage: &img}
	values, err := p.Attributes([]string{"id", "email", "profile_image", "couple"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"id":            "7",
		"email":         "ada@example.com",
		"profile_image": img,
		"couple":        "",
	}, values)
	assert.True(t, p.HasProfileImage())
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("correct horse"))
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("battery staple"))
}

func TestUserAttributes(t *testing.T) {
	u := &User{Groups: []*Group{{ID: 3}, nil, {ID: 1}}}
	require.NoError(t, u.SetAttribute("status", "2"))
	assert.Equal(t, UserStatusPending, u.Status)
	assert.Error(t, u.SetAttribute("status", "active"))

	v, err := u.AttributeValue("groups")
	require.NoError(t, err)
	assert.Equal(t, "3,1", v)
}

func TestPersonDisplayName(t *testing.T) {
	p := &Person{Firstname: "Ada"}
	assert.Equal(t, "(not set)", p.DisplayName(nil))
	p.Lastname = "Lovelace"
	assert.Equal(t, "Ada Lovelace", p.DisplayName(nil))
	assert.Equal(t, "Person", Person{}.Label(nil))
}
