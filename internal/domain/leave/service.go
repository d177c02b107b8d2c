package leave

import "context"

type LeaveService interface {
	Create(ctx context.Context, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	Update(ctx context.Context, req UpdateLeaveRequestRequest) (LeaveRequestResponse, error)
	Get(ctx context.Context, id string) (LeaveRequestResponse, error)
	// List returns all requests for privileged callers and only their own otherwise.
	List(ctx context.Context) ([]LeaveRequestResponse, error)
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, id string) (LeaveRequestResponse, error)
}
