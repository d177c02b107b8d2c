package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestSelect = `
	SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date, lr.reason,
		   lr.status, lr.notification_date, lr.approved_by, lr.created_at, lr.updated_at,
		   u.username
	FROM leave_requests lr
	JOIN employees e ON e.id = lr.employee_id
	JOIN users u ON u.id = e.user_id
`

const leaveRequestReturning = `
	RETURNING id, employee_id, leave_type, start_date, end_date, reason,
		status, notification_date, approved_by, created_at, updated_at,
		(SELECT u.username FROM employees e JOIN users u ON u.id = e.user_id WHERE e.id = employee_id)
`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		lr               leave.LeaveRequest
		start, end       time.Time
		notificationDate *time.Time
	)
	err := row.Scan(
		&lr.ID,
		&lr.EmployeeID,
		&lr.LeaveType,
		&start,
		&end,
		&lr.Reason,
		&lr.Status,
		&notificationDate,
		&lr.ApprovedBy,
		&lr.CreatedAt,
		&lr.UpdatedAt,
		&lr.EmployeeName,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	lr.StartDate = dateOf(start)
	lr.EndDate = dateOf(end)
	lr.NotificationDate = nullableDateOf(notificationDate)
	return lr, nil
}

func mapLeaveRequestError(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.ErrLeaveRequestNotFound
	}
	if _, ok := database.ConstraintError(err, database.CodeForeignKeyViolation); ok {
		return employee.ErrEmployeeNotFound
	}
	return fmt.Errorf("failed to %s leave request: %w", action, err)
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	if req.Status == "" {
		req.Status = leave.StatusPending
	}

	query := `
		INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, reason, status, notification_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	` + leaveRequestReturning

	created, err := scanLeaveRequest(q.QueryRow(ctx, query,
		newID(),
		req.EmployeeID,
		req.LeaveType,
		dateParam(req.StartDate),
		dateParam(req.EndDate),
		req.Reason,
		req.Status,
		nullableDateParam(req.NotificationDate),
	))
	if err != nil {
		return leave.LeaveRequest{}, mapLeaveRequestError(err, "create")
	}
	return created, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	lr, err := scanLeaveRequest(q.QueryRow(ctx, leaveRequestSelect+` WHERE lr.id = $1`, id))
	if err != nil {
		return leave.LeaveRequest{}, mapLeaveRequestError(err, "get")
	}
	return lr, nil
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, employeeID *string) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := leaveRequestSelect + ` WHERE ($1::uuid IS NULL OR lr.employee_id = $1::uuid) ORDER BY lr.created_at DESC`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	requests := []leave.LeaveRequest{}
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return requests, nil
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET leave_type = $2,
			start_date = $3,
			end_date = $4,
			reason = $5,
			notification_date = $6,
			updated_at = NOW()
		WHERE id = $1
	` + leaveRequestReturning

	updated, err := scanLeaveRequest(q.QueryRow(ctx, query,
		req.ID,
		req.LeaveType,
		dateParam(req.StartDate),
		dateParam(req.EndDate),
		req.Reason,
		nullableDateParam(req.NotificationDate),
	))
	if err != nil {
		return leave.LeaveRequest{}, mapLeaveRequestError(err, "update")
	}
	return updated, nil
}

// UpdateStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, id string, status leave.Status, approvedBy string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $2, approved_by = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	` + leaveRequestReturning

	updated, err := scanLeaveRequest(q.QueryRow(ctx, query, id, status, approvedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either missing or already decided; tell the two apart.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return leave.LeaveRequest{}, getErr
			}
			return leave.LeaveRequest{}, leave.ErrLeaveRequestAlreadyProcessed
		}
		return leave.LeaveRequest{}, mapLeaveRequestError(err, "update status of")
	}
	return updated, nil
}

// Delete implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}
