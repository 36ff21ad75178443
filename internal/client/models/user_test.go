package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_FullName(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())

	u = &User{FirstName: "Ada"}
	assert.Equal(t, "Ada", u.FullName())

	u = &User{}
	assert.Equal(t, "", u.FullName())
}

func TestUser_Clone(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Clone())

	u := &User{ID: "1", Email: "a@b.com"}
	c := u.Clone()
	c.Email = "x@y.com"
	assert.Equal(t, "a@b.com", u.Email)
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())

	name := "Ada"
	assert.False(t, ProfileUpdate{FirstName: &name}.IsEmpty())
}
