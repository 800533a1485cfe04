package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleOwner, PermissionPayrollPost))
	assert.False(t, HasPermission(RoleManager, PermissionPayrollPost))
	assert.True(t, HasPermission(RoleManager, PermissionRegularizationApprove))
	assert.True(t, HasPermission(RoleEmployee, PermissionRegularizationSubmit))
	assert.False(t, HasPermission(RoleEmployee, PermissionAttendanceViewAll))
	assert.False(t, HasPermission(Role("guest"), PermissionShiftView))
}

func TestPrincipal_CanApprove(t *testing.T) {
	assert.True(t, Principal{Role: RoleOwner}.CanApprove())
	assert.True(t, Principal{Role: RoleManager}.CanApprove())
	assert.False(t, Principal{Role: RoleEmployee}.CanApprove())
}
