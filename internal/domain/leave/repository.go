package leave

import "context"

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// List returns requests newest first; a nil employeeID lists every employee.
	List(ctx context.Context, employeeID *string) ([]LeaveRequest, error)
	Update(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	// UpdateStatus only transitions requests that are still pending.
	UpdateStatus(ctx context.Context, id string, status Status, approvedBy string) (LeaveRequest, error)
	Delete(ctx context.Context, id string) error
}
