package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleViewer.IsValid())
	assert.True(t, RoleEditor.IsValid())
	assert.True(t, RoleSiteAdmin.IsValid())
	assert.False(t, Role("bogus").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleViewer.Level() < RoleEditor.Level())
	assert.True(t, RoleEditor.Level() < RoleSiteAdmin.Level())
	assert.Equal(t, 0, Role("bogus").Level())
}

func TestRoleAllows(t *testing.T) {
	tests := []struct {
		holder   Role
		required Role
		allowed  bool
	}{
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleEditor, false},
		{RoleViewer, RoleSiteAdmin, false},
		{RoleEditor, RoleViewer, true},
		{RoleEditor, RoleEditor, true},
		{RoleEditor, RoleSiteAdmin, false},
		{RoleSiteAdmin, RoleViewer, true},
		{RoleSiteAdmin, RoleEditor, true},
		{RoleSiteAdmin, RoleSiteAdmin, true},
		{Role("bogus"), RoleViewer, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.holder.Allows(tt.required),
			"%s.Allows(%s)", tt.holder, tt.required)
	}
}
