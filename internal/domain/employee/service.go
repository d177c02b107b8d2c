package employee

import "context"

type EmployeeService interface {
	// List returns every profile for privileged callers and only the caller's own otherwise.
	List(ctx context.Context) ([]EmployeeResponse, error)
	Get(ctx context.Context, id string) (EmployeeResponse, error)
	Me(ctx context.Context) (EmployeeResponse, error)
	AssignDepartment(ctx context.Context, req AssignDepartmentRequest) (EmployeeResponse, error)
}
