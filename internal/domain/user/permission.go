package user

type Permission string

const (
	PermissionAttendanceViewOwn     Permission = "attendance.view_own"
	PermissionAttendanceViewAll     Permission = "attendance.view_all"
	PermissionAttendanceRecalculate Permission = "attendance.recalculate"

	PermissionShiftView   Permission = "shift.view"
	PermissionShiftManage Permission = "shift.manage"

	PermissionRegularizationSubmit  Permission = "regularization.submit"
	PermissionRegularizationViewAll Permission = "regularization.view_all"
	PermissionRegularizationApprove Permission = "regularization.approve"

	PermissionHolidayView   Permission = "holiday.view"
	PermissionHolidayManage Permission = "holiday.manage"

	PermissionLeaveManage Permission = "leave.manage"

	PermissionReportsView Permission = "reports.view"
	PermissionPayrollPost Permission = "payroll.post"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceRecalculate,
		PermissionShiftView,
		PermissionShiftManage,
		PermissionRegularizationSubmit,
		PermissionRegularizationViewAll,
		PermissionRegularizationApprove,
		PermissionHolidayView,
		PermissionHolidayManage,
		PermissionLeaveManage,
		PermissionReportsView,
		PermissionPayrollPost,
	},
	RoleManager: {
		// Manager runs day-to-day attendance but cannot post payroll
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceRecalculate,
		PermissionShiftView,
		PermissionShiftManage,
		PermissionRegularizationSubmit,
		PermissionRegularizationViewAll,
		PermissionRegularizationApprove,
		PermissionHolidayView,
		PermissionLeaveManage,
		PermissionReportsView,
	},
	RoleEmployee: {
		PermissionAttendanceViewOwn,
		PermissionShiftView,
		PermissionRegularizationSubmit,
		PermissionHolidayView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
