package attendance

import (
	"context"

	"cloud.google.com/go/civil"
)

// AttendanceRepository defines data access methods for attendance records.
// The ForUpdate variants lock the row and must run inside a transaction.
type AttendanceRepository interface {
	// GetOrCreateForUpdate returns the employee's record for date, inserting an
	// empty absent record first when none exists.
	GetOrCreateForUpdate(ctx context.Context, employeeID string, date civil.Date) (Attendance, error)

	// GetByEmployeeAndDateForUpdate fails with ErrAttendanceNotFound when no record exists.
	GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date civil.Date) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)
	GetByIDForUpdate(ctx context.Context, id string) (Attendance, error)

	// Create fails with ErrAttendanceExists when (employee, date) is taken.
	Create(ctx context.Context, a Attendance) (Attendance, error)
	Update(ctx context.Context, a Attendance) (Attendance, error)

	// ListByEmployeeSince returns the employee's records from since onwards, newest first.
	ListByEmployeeSince(ctx context.Context, employeeID string, since civil.Date) ([]Attendance, error)

	// ListSince returns all records from since onwards, newest first.
	ListSince(ctx context.Context, since civil.Date) ([]Attendance, error)
}
