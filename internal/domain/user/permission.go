package user

type Permission string

const (
	// Self Management
	PermissionViewOwnProfile Permission = "profile.view_own"

	// Leave Management
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveManage  Permission = "leave.manage"
	PermissionLeaveApprove Permission = "leave.approve"

	// Attendance Management
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManage  Permission = "attendance.manage"

	// Employee Management
	PermissionEmployeeViewAll Permission = "employee.view_all"
	PermissionEmployeeManage  Permission = "employee.manage"

	// Department Management
	PermissionDepartmentManage Permission = "department.manage"
)

var selfService = []Permission{
	PermissionViewOwnProfile,
	PermissionLeaveViewOwn,
	PermissionLeaveCreate,
	PermissionAttendanceViewOwn,
	PermissionAttendanceCreate,
}

var official = append(append([]Permission{}, selfService...),
	PermissionLeaveViewAll,
	PermissionLeaveManage,
	PermissionLeaveApprove,
	PermissionAttendanceViewAll,
	PermissionAttendanceManage,
	PermissionEmployeeViewAll,
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: append(append([]Permission{}, official...),
		PermissionEmployeeManage,
		PermissionDepartmentManage,
	),
	RoleHR: append(append([]Permission{}, official...),
		PermissionEmployeeManage,
		PermissionDepartmentManage,
	),
	RoleManager:  official,
	RoleEmployee: selfService,
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
