package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	rules *RuleEngine
	loc   *time.Location
	now   func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepository employee.EmployeeRepository,
	rules *RuleEngine,
	loc *time.Location,
) leave.LeaveService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaveServiceImpl{
		tx:                     tx,
		LeaveRequestRepository: leaveRequestRepository,
		EmployeeRepository:     employeeRepository,
		rules:                  rules,
		loc:                    loc,
		now:                    time.Now,
	}
}

func (s *LeaveServiceImpl) today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

func (s *LeaveServiceImpl) caller(ctx context.Context) (jwt.AccessClaims, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return jwt.AccessClaims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	if claims.EmployeeID == "" {
		return jwt.AccessClaims{}, employee.ErrNoEmployeeProfile
	}
	return claims, nil
}

func (s *LeaveServiceImpl) privilegedCaller(ctx context.Context) (jwt.AccessClaims, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return jwt.AccessClaims{}, err
	}
	if !claims.Role.IsPrivileged() {
		return jwt.AccessClaims{}, leave.ErrUnauthorized
	}
	return claims, nil
}

// parseDate parses a YYYY-MM-DD field, recording a violation when it is
// malformed. Empty input stays zero.
func parseDate(errs *validator.ValidationErrors, field, s string) civil.Date {
	if s == "" {
		return civil.Date{}
	}
	d, ok := validator.IsValidDate(s)
	if !ok {
		errs.Add(field, field+" must be YYYY-MM-DD")
	}
	return d
}

func parseOptionalDate(errs *validator.ValidationErrors, field string, s *string) *civil.Date {
	if s == nil || *s == "" {
		return nil
	}
	d := parseDate(errs, field, *s)
	return &d
}

// Create implements leave.LeaveService.
func (s *LeaveServiceImpl) Create(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	claims, err := s.caller(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	employeeID := claims.EmployeeID
	if claims.Role.IsPrivileged() {
		var errs validator.ValidationErrors
		if req.EmployeeID == nil {
			errs.Add("employee_id", "Employee ID is required for privileged roles")
			return leave.LeaveRequestResponse{}, errs
		}
		exists, err := s.EmployeeRepository.ExistsByID(ctx, *req.EmployeeID)
		if err != nil {
			return leave.LeaveRequestResponse{}, fmt.Errorf("failed to check employee: %w", err)
		}
		if !exists {
			errs.Add("employee_id", "Employee does not exist with this ID")
			return leave.LeaveRequestResponse{}, errs
		}
		employeeID = *req.EmployeeID
	}

	var errs validator.ValidationErrors
	leaveType, ok := leave.ParseType(req.LeaveType)
	if !ok {
		errs.Add("leave_type", "invalid leave type")
	}
	lr := leave.LeaveRequest{
		EmployeeID:       employeeID,
		LeaveType:        leaveType,
		StartDate:        parseDate(&errs, "start_date", req.StartDate),
		EndDate:          parseDate(&errs, "end_date", req.EndDate),
		Reason:           req.Reason,
		Status:           leave.StatusPending,
		NotificationDate: parseOptionalDate(&errs, "notification_date", req.NotificationDate),
	}
	if err := errs.OrNil(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	in := ValidationInput{
		Type:      lr.LeaveType,
		StartDate: lr.StartDate,
		EndDate:   lr.EndDate,
		Today:     s.today(),
	}
	if lr.NotificationDate != nil {
		in.RequestDate = *lr.NotificationDate
	}
	if errs := s.rules.Validate(in); len(errs) > 0 {
		return leave.LeaveRequestResponse{}, errs
	}

	created, err := s.LeaveRequestRepository.Create(ctx, lr)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request created", "leave_request_id", created.ID, "employee_id", created.EmployeeID, "type", created.LeaveType)
	return s.toResponse(created), nil
}

// Update implements leave.LeaveService.
func (s *LeaveServiceImpl) Update(ctx context.Context, req leave.UpdateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if _, err := s.privilegedCaller(ctx); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var updated leave.LeaveRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		lr, err := s.LeaveRequestRepository.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if !lr.IsPending() {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		var errs validator.ValidationErrors
		if req.LeaveType != nil {
			t, ok := leave.ParseType(*req.LeaveType)
			if !ok {
				errs.Add("leave_type", "invalid leave type")
			}
			lr.LeaveType = t
		}
		if req.StartDate != nil {
			lr.StartDate = parseDate(&errs, "start_date", *req.StartDate)
		}
		if req.EndDate != nil {
			lr.EndDate = parseDate(&errs, "end_date", *req.EndDate)
		}
		if req.Reason != nil {
			lr.Reason = *req.Reason
		}
		if req.NotificationDate != nil {
			lr.NotificationDate = parseOptionalDate(&errs, "notification_date", req.NotificationDate)
		}
		if err := errs.OrNil(); err != nil {
			return err
		}

		// Notice is measured from when the request was first made
		in := ValidationInput{
			Type:      lr.LeaveType,
			StartDate: lr.StartDate,
			EndDate:   lr.EndDate,
			Today:     s.today(),
		}
		switch {
		case lr.NotificationDate != nil:
			in.RequestDate = *lr.NotificationDate
		case !lr.CreatedAt.IsZero():
			in.RequestDate = civil.DateOf(lr.CreatedAt.In(s.loc))
		}
		if errs := s.rules.Validate(in); len(errs) > 0 {
			return errs
		}

		updated, err = s.LeaveRequestRepository.Update(ctx, lr)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return s.toResponse(updated), nil
}

// Get implements leave.LeaveService.
func (s *LeaveServiceImpl) Get(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return leave.LeaveRequestResponse{}, leave.ErrLeaveRequestNotFound
	}

	lr, err := s.LeaveRequestRepository.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !claims.Role.IsPrivileged() && lr.EmployeeID != claims.EmployeeID {
		return leave.LeaveRequestResponse{}, leave.ErrUnauthorized
	}

	return s.toResponse(lr), nil
}

// List implements leave.LeaveService.
func (s *LeaveServiceImpl) List(ctx context.Context) ([]leave.LeaveRequestResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	var filter *string
	if !claims.Role.IsPrivileged() {
		filter = &claims.EmployeeID
	}

	requests, err := s.LeaveRequestRepository.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, lr := range requests {
		out = append(out, s.toResponse(lr))
	}
	return out, nil
}

// Delete implements leave.LeaveService.
func (s *LeaveServiceImpl) Delete(ctx context.Context, id string) error {
	if _, err := s.privilegedCaller(ctx); err != nil {
		return err
	}
	if !validator.IsValidUUID(id) {
		return leave.ErrLeaveRequestNotFound
	}
	return s.LeaveRequestRepository.Delete(ctx, id)
}

// Approve implements leave.LeaveService.
func (s *LeaveServiceImpl) Approve(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	return s.decide(ctx, id, leave.StatusApproved)
}

// Reject implements leave.LeaveService.
func (s *LeaveServiceImpl) Reject(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	return s.decide(ctx, id, leave.StatusRejected)
}

func (s *LeaveServiceImpl) decide(ctx context.Context, id string, status leave.Status) (leave.LeaveRequestResponse, error) {
	claims, err := s.privilegedCaller(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return leave.LeaveRequestResponse{}, leave.ErrLeaveRequestNotFound
	}

	lr, err := s.LeaveRequestRepository.UpdateStatus(ctx, id, status, claims.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("Leave request decided", "leave_request_id", lr.ID, "status", lr.Status, "by", claims.EmployeeID)
	return s.toResponse(lr), nil
}

func (s *LeaveServiceImpl) toResponse(lr leave.LeaveRequest) leave.LeaveRequestResponse {
	var notification *string
	if lr.NotificationDate != nil {
		v := lr.NotificationDate.String()
		notification = &v
	}
	return leave.LeaveRequestResponse{
		ID:               lr.ID,
		EmployeeID:       lr.EmployeeID,
		EmployeeName:     lr.EmployeeName,
		LeaveType:        string(lr.LeaveType),
		StartDate:        lr.StartDate.String(),
		EndDate:          lr.EndDate.String(),
		TotalDays:        lr.TotalDays(),
		Reason:           lr.Reason,
		Status:           string(lr.Status),
		NotificationDate: notification,
		ApprovedBy:       lr.ApprovedBy,
		CreatedAt:        lr.CreatedAt.In(s.loc).Format(time.RFC3339),
		UpdatedAt:        lr.UpdatedAt.In(s.loc).Format(time.RFC3339),
	}
}
