package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// AllEmployeesCacheKey holds the id list served to privileged callers.
// Anything that adds an employee must delete it.
const AllEmployeesCacheKey = "all_employees"

func selfCacheKey(userID string) string {
	return "employee_" + userID
}

type EmployeeServiceImpl struct {
	employeeRepo   employee.EmployeeRepository
	departmentRepo department.DepartmentRepository
	cache          cache.Cache
	cacheTTL       time.Duration
	loc            *time.Location
}

func NewEmployeeService(
	employeeRepo employee.EmployeeRepository,
	departmentRepo department.DepartmentRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	loc *time.Location,
) employee.EmployeeService {
	if loc == nil {
		loc = time.UTC
	}
	return &EmployeeServiceImpl{
		employeeRepo:   employeeRepo,
		departmentRepo: departmentRepo,
		cache:          c,
		cacheTTL:       cacheTTL,
		loc:            loc,
	}
}

// Helper function to extract claims from context
func (s *EmployeeServiceImpl) caller(ctx context.Context) (jwt.AccessClaims, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return jwt.AccessClaims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	if claims.EmployeeID == "" {
		return jwt.AccessClaims{}, employee.ErrNoEmployeeProfile
	}
	return claims, nil
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context) ([]employee.EmployeeResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	if claims.Role.IsPrivileged() {
		ids, err = cache.GetOrSet(ctx, s.cache, AllEmployeesCacheKey, s.cacheTTL, s.employeeRepo.ListIDs)
	} else {
		ids, err = cache.GetOrSet(ctx, s.cache, selfCacheKey(claims.UserID), s.cacheTTL,
			func(ctx context.Context) ([]string, error) {
				e, err := s.employeeRepo.GetByUserID(ctx, claims.UserID)
				if err != nil {
					return nil, err
				}
				return []string{e.ID}, nil
			})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve employee ids: %w", err)
	}

	employees, err := s.employeeRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, s.toResponse(e))
	}
	return out, nil
}

// Get implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Get(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
	}
	if !claims.Role.IsPrivileged() && id != claims.EmployeeID {
		return employee.EmployeeResponse{}, employee.ErrUnauthorized
	}

	e, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.toResponse(e), nil
}

// Me implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Me(ctx context.Context) (employee.EmployeeResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	e, err := s.employeeRepo.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.toResponse(e), nil
}

// AssignDepartment implements employee.EmployeeService.
func (s *EmployeeServiceImpl) AssignDepartment(ctx context.Context, req employee.AssignDepartmentRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	claims, err := s.caller(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if !user.HasPermission(claims.Role, user.PermissionEmployeeManage) {
		return employee.EmployeeResponse{}, employee.ErrUnauthorized
	}

	if req.DepartmentID != nil {
		if _, err := s.departmentRepo.GetByID(ctx, *req.DepartmentID); err != nil {
			return employee.EmployeeResponse{}, err
		}
	}
	if err := s.employeeRepo.UpdateDepartment(ctx, req.EmployeeID, req.DepartmentID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	e, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.toResponse(e), nil
}

func (s *EmployeeServiceImpl) toResponse(e employee.Employee) employee.EmployeeResponse {
	resp := employee.EmployeeResponse{
		ID:             e.ID,
		UserID:         e.UserID,
		Username:       e.Username,
		Email:          e.Email,
		Role:           string(e.Role),
		Phone:          e.Phone,
		DateOfBirth:    e.DateOfBirth.String(),
		DepartmentID:   e.DepartmentID,
		Designation:    e.Designation,
		EmploymentType: string(e.EmploymentType),
		DateJoined:     e.DateJoined.In(s.loc).Format(time.RFC3339),
		IsActive:       e.IsActive,
		Location:       e.Location,
		IsOffsite:      e.IsOffsite,
		IsWFHEnabled:   e.IsWFHEnabled,
		CreatedAt:      e.CreatedAt.In(s.loc).Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.In(s.loc).Format(time.RFC3339),
	}
	if e.Gender != nil {
		g := string(*e.Gender)
		resp.Gender = &g
	}
	if e.DateLeft != nil {
		d := e.DateLeft.String()
		resp.DateLeft = &d
	}
	if e.Department != nil {
		resp.DepartmentName = &e.Department.Name
	}
	return resp
}
