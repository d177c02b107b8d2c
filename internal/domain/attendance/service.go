package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// CheckIn records the caller's arrival for today
	CheckIn(ctx context.Context) (AttendanceResponse, error)

	// CheckOut records the caller's departure for today
	CheckOut(ctx context.Context) (AttendanceResponse, error)

	// GetMyAttendance summarises the caller's last 30 days
	GetMyAttendance(ctx context.Context) (MyAttendanceResponse, error)

	// ListOverall returns every record of the last 30 days (privileged)
	ListOverall(ctx context.Context) (OverallAttendanceResponse, error)

	// GetAttendance returns one record to its owner or a privileged caller
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	// UpdateAttendance corrects a record and recomputes it (privileged)
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	// MarkAttendance creates a non-worked day for an employee (privileged)
	MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (AttendanceResponse, error)
}
