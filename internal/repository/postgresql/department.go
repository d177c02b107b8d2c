package postgresql

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type departmentRepositoryImpl struct {
	db *database.DB
}

func NewDepartmentRepository(db *database.DB) department.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

const departmentColumns = `id, name, description, work_start_time::text, work_end_time::text,
	working_days_per_week, grace_minutes, created_at, updated_at`

func scanDepartment(row pgx.Row) (department.Department, error) {
	var d department.Department
	var start, end string
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Description,
		&start,
		&end,
		&d.WorkingDaysPerWeek,
		&d.GraceMinutes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return department.Department{}, err
	}
	if d.WorkStartTime, err = civil.ParseTime(start); err != nil {
		return department.Department{}, fmt.Errorf("failed to parse work_start_time %q: %w", start, err)
	}
	if d.WorkEndTime, err = civil.ParseTime(end); err != nil {
		return department.Department{}, fmt.Errorf("failed to parse work_end_time %q: %w", end, err)
	}
	return d, nil
}

func mapDepartmentError(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return department.ErrDepartmentNotFound
	}
	if _, ok := database.ConstraintError(err, database.CodeUniqueViolation); ok {
		return department.ErrDepartmentNameExists
	}
	return fmt.Errorf("failed to %s department: %w", action, err)
}

// Create implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) Create(ctx context.Context, d department.Department) (department.Department, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO departments (id, name, description, work_start_time, work_end_time, working_days_per_week, grace_minutes)
		VALUES ($1, $2, $3, $4::time, $5::time, $6, $7)
		RETURNING ` + departmentColumns

	created, err := scanDepartment(q.QueryRow(ctx, query,
		newID(),
		d.Name,
		d.Description,
		d.WorkStartTime.String(),
		d.WorkEndTime.String(),
		d.WorkingDaysPerWeek,
		d.GraceMinutes,
	))
	if err != nil {
		return department.Department{}, mapDepartmentError(err, "create")
	}
	return created, nil
}

// GetByID implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) GetByID(ctx context.Context, id string) (department.Department, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanDepartment(q.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id))
	if err != nil {
		return department.Department{}, mapDepartmentError(err, "get")
	}
	return d, nil
}

// List implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) List(ctx context.Context) ([]department.Department, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := []department.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate departments: %w", err)
	}
	return departments, nil
}

// Update implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) Update(ctx context.Context, d department.Department) (department.Department, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE departments
		SET name = $2,
			description = $3,
			work_start_time = $4::time,
			work_end_time = $5::time,
			working_days_per_week = $6,
			grace_minutes = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + departmentColumns

	updated, err := scanDepartment(q.QueryRow(ctx, query,
		d.ID,
		d.Name,
		d.Description,
		d.WorkStartTime.String(),
		d.WorkEndTime.String(),
		d.WorkingDaysPerWeek,
		d.GraceMinutes,
	))
	if err != nil {
		return department.Department{}, mapDepartmentError(err, "update")
	}
	return updated, nil
}
