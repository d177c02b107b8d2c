package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, e Employee) (Employee, error)
	// GetByID loads the employee together with its department, if any.
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ListIDs(ctx context.Context) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	UpdateDepartment(ctx context.Context, id string, departmentID *string) error
}
