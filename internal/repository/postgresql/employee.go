package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT e.id, e.user_id, e.role, e.phone, e.gender, e.date_of_birth, e.department_id,
		   e.designation, e.employment_type, e.date_joined, e.date_left, e.is_active,
		   e.location, e.is_offsite, e.is_wfh_enabled, e.created_at, e.updated_at,
		   u.username, u.email,
		   d.id, d.name, d.description, d.work_start_time::text, d.work_end_time::text,
		   d.working_days_per_week, d.grace_minutes, d.created_at, d.updated_at
	FROM employees e
	JOIN users u ON u.id = e.user_id
	LEFT JOIN departments d ON d.id = e.department_id
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		e           employee.Employee
		dateOfBirth time.Time
		dateLeft    *time.Time

		deptID, deptName, deptDesc, deptStart, deptEnd *string
		deptDays, deptGrace                            *int
		deptCreated, deptUpdated                       *time.Time
	)
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Role,
		&e.Phone,
		&e.Gender,
		&dateOfBirth,
		&e.DepartmentID,
		&e.Designation,
		&e.EmploymentType,
		&e.DateJoined,
		&dateLeft,
		&e.IsActive,
		&e.Location,
		&e.IsOffsite,
		&e.IsWFHEnabled,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.Username,
		&e.Email,
		&deptID,
		&deptName,
		&deptDesc,
		&deptStart,
		&deptEnd,
		&deptDays,
		&deptGrace,
		&deptCreated,
		&deptUpdated,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	e.DateOfBirth = dateOf(dateOfBirth)
	e.DateLeft = nullableDateOf(dateLeft)

	if deptID != nil {
		d := department.Department{
			ID:                 *deptID,
			Name:               *deptName,
			Description:        *deptDesc,
			WorkingDaysPerWeek: *deptDays,
			GraceMinutes:       deptGrace,
			CreatedAt:          *deptCreated,
			UpdatedAt:          *deptUpdated,
		}
		if d.WorkStartTime, err = civil.ParseTime(*deptStart); err != nil {
			return employee.Employee{}, fmt.Errorf("failed to parse work_start_time %q: %w", *deptStart, err)
		}
		if d.WorkEndTime, err = civil.ParseTime(*deptEnd); err != nil {
			return employee.Employee{}, fmt.Errorf("failed to parse work_end_time %q: %w", *deptEnd, err)
		}
		e.Department = &d
	}

	return e, nil
}

func (r *employeeRepositoryImpl) getOne(ctx context.Context, where string, arg any) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRow(ctx, employeeSelect+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	if e.Role == "" {
		e.Role = user.RoleEmployee
	}
	if e.EmploymentType == "" {
		e.EmploymentType = employee.EmploymentFullTime
	}

	query := `
		INSERT INTO employees (
			id, user_id, role, phone, gender, date_of_birth, department_id,
			designation, employment_type, location, is_offsite, is_wfh_enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		newID(),
		e.UserID,
		e.Role,
		e.Phone,
		e.Gender,
		dateParam(e.DateOfBirth),
		e.DepartmentID,
		e.Designation,
		e.EmploymentType,
		e.Location,
		e.IsOffsite,
		e.IsWFHEnabled,
	).Scan(&id)
	if err != nil {
		if _, ok := database.ConstraintError(err, database.CodeUniqueViolation); ok {
			return employee.Employee{}, employee.ErrPhoneExists
		}
		if _, ok := database.ConstraintError(err, database.CodeForeignKeyViolation); ok {
			return employee.Employee{}, department.ErrDepartmentNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return r.getOne(ctx, `WHERE e.id = $1`, id)
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.getOne(ctx, `WHERE e.id = $1`, id)
}

// GetByUserID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	return r.getOne(ctx, `WHERE e.user_id = $1`, userID)
}

// ExistsByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ExistsByID(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check employee: %w", err)
	}
	return exists, nil
}

// ExistsByPhone implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE phone = $1)`, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return exists, nil
}

// ListIDs implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM employees ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect employee ids: %w", err)
	}
	return ids, nil
}

// GetByIDs implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, employeeSelect+` WHERE e.id = ANY($1::uuid[]) ORDER BY e.created_at`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0, len(ids))
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// UpdateDepartment implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) UpdateDepartment(ctx context.Context, id string, departmentID *string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE employees SET department_id = $2, updated_at = NOW()
		WHERE id = $1
	`, id, departmentID)
	if err != nil {
		if _, ok := database.ConstraintError(err, database.CodeForeignKeyViolation); ok {
			return department.ErrDepartmentNotFound
		}
		return fmt.Errorf("failed to update employee department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
