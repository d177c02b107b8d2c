package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceSelect = `
	SELECT a.id, a.employee_id, a.date, a.check_in, a.check_out, a.status,
		   a.hours_worked, a.late_minutes, a.overtime_hours, a.remarks,
		   a.is_auto_checkout, a.created_at, a.updated_at, u.username
	FROM attendance_records a
	JOIN employees e ON e.id = a.employee_id
	JOIN users u ON u.id = e.user_id
`

// attendanceReturning mirrors attendanceSelect for INSERT/UPDATE ... RETURNING,
// resolving the employee name through a scalar subquery.
const attendanceReturning = `
	RETURNING id, employee_id, date, check_in, check_out, status,
		hours_worked, late_minutes, overtime_hours, remarks,
		is_auto_checkout, created_at, updated_at,
		(SELECT u.username FROM employees e JOIN users u ON u.id = e.user_id WHERE e.id = employee_id)
`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		a    attendance.Attendance
		date time.Time
	)
	err := row.Scan(
		&a.ID,
		&a.EmployeeID,
		&date,
		&a.CheckIn,
		&a.CheckOut,
		&a.Status,
		&a.HoursWorked,
		&a.LateMinutes,
		&a.OvertimeHours,
		&a.Remarks,
		&a.IsAutoCheckout,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.EmployeeName,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	a.Date = dateOf(date)
	return a, nil
}

func (r *attendanceRepository) getOne(ctx context.Context, query string, args ...any) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

func (r *attendanceRepository) list(ctx context.Context, query string, args ...any) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	records := []attendance.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	return records, nil
}

// GetOrCreateForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetOrCreateForUpdate(ctx context.Context, employeeID string, date civil.Date) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	// Concurrent first check-ins race on the unique key; the loser's insert
	// is a no-op and it then waits on the winner's row lock.
	_, err := q.Exec(ctx, `
		INSERT INTO attendance_records (id, employee_id, date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, date) DO NOTHING
	`, newID(), employeeID, dateParam(date), attendance.StatusAbsent)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to ensure attendance: %w", err)
	}

	return r.GetByEmployeeAndDateForUpdate(ctx, employeeID, date)
}

// GetByEmployeeAndDateForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date civil.Date) (attendance.Attendance, error) {
	return r.getOne(ctx,
		attendanceSelect+` WHERE a.employee_id = $1 AND a.date = $2 FOR UPDATE OF a`,
		employeeID, dateParam(date),
	)
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	return r.getOne(ctx, attendanceSelect+` WHERE a.id = $1`, id)
}

// GetByIDForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return r.getOne(ctx, attendanceSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id)
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, check_in, check_out, status, hours_worked,
			late_minutes, overtime_hours, remarks, is_auto_checkout
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	` + attendanceReturning

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newID(),
		a.EmployeeID,
		dateParam(a.Date),
		a.CheckIn,
		a.CheckOut,
		a.Status,
		a.HoursWorked,
		a.LateMinutes,
		a.OvertimeHours,
		a.Remarks,
		a.IsAutoCheckout,
	))
	if err != nil {
		if constraint, ok := database.ConstraintError(err, database.CodeUniqueViolation); ok && constraint == "uq_attendance_employee_date" {
			return attendance.Attendance{}, attendance.ErrAttendanceExists
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepository) Update(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records
		SET check_in = $2,
			check_out = $3,
			status = $4,
			hours_worked = $5,
			late_minutes = $6,
			overtime_hours = $7,
			remarks = $8,
			is_auto_checkout = $9,
			updated_at = NOW()
		WHERE id = $1
	` + attendanceReturning

	updated, err := scanAttendance(q.QueryRow(ctx, query,
		a.ID,
		a.CheckIn,
		a.CheckOut,
		a.Status,
		a.HoursWorked,
		a.LateMinutes,
		a.OvertimeHours,
		a.Remarks,
		a.IsAutoCheckout,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	return updated, nil
}

// ListByEmployeeSince implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployeeSince(ctx context.Context, employeeID string, since civil.Date) ([]attendance.Attendance, error) {
	return r.list(ctx,
		attendanceSelect+` WHERE a.employee_id = $1 AND a.date >= $2 ORDER BY a.date DESC`,
		employeeID, dateParam(since),
	)
}

// ListSince implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListSince(ctx context.Context, since civil.Date) ([]attendance.Attendance, error) {
	return r.list(ctx,
		attendanceSelect+` WHERE a.date >= $1 ORDER BY a.date DESC, u.username`,
		dateParam(since),
	)
}
