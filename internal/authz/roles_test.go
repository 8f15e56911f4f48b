package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoles(t *testing.T) {
	assert.True(t, IsElevated(RoleOwner))
	assert.True(t, IsElevated(RoleAdmin))
	assert.False(t, IsElevated(RoleMember))
	assert.False(t, IsElevated(RoleViewer))

	assert.True(t, IsReadOnly(RoleViewer))
	assert.False(t, IsReadOnly(RoleMember))

	assert.True(t, IsKnown(RoleMember))
	assert.False(t, IsKnown("audit"))
	assert.False(t, IsKnown(""))
}
