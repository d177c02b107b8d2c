package department

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type DepartmentServiceImpl struct {
	department.DepartmentRepository
	loc *time.Location
}

func NewDepartmentService(departmentRepository department.DepartmentRepository, loc *time.Location) department.DepartmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &DepartmentServiceImpl{
		DepartmentRepository: departmentRepository,
		loc:                  loc,
	}
}

// Create implements department.DepartmentService.
func (s *DepartmentServiceImpl) Create(ctx context.Context, req department.CreateDepartmentRequest) (department.DepartmentResponse, error) {
	if err := req.Validate(); err != nil {
		return department.DepartmentResponse{}, err
	}

	d := department.Department{
		Name:               req.Name,
		Description:        req.Description,
		WorkStartTime:      department.DefaultWorkStartTime,
		WorkEndTime:        department.DefaultWorkEndTime,
		WorkingDaysPerWeek: department.DefaultWorkingDaysPerWeek,
		GraceMinutes:       req.GraceMinutes,
	}
	if req.WorkStartTime != "" {
		d.WorkStartTime, _ = validator.IsValidTimeOfDay(req.WorkStartTime)
	}
	if req.WorkEndTime != "" {
		d.WorkEndTime, _ = validator.IsValidTimeOfDay(req.WorkEndTime)
	}
	if req.WorkingDaysPerWeek != nil {
		d.WorkingDaysPerWeek = *req.WorkingDaysPerWeek
	}

	created, err := s.DepartmentRepository.Create(ctx, d)
	if err != nil {
		return department.DepartmentResponse{}, err
	}

	slog.Info("Department created", "department_id", created.ID, "name", created.Name)
	return s.toResponse(created), nil
}

// Update implements department.DepartmentService.
func (s *DepartmentServiceImpl) Update(ctx context.Context, req department.UpdateDepartmentRequest) (department.DepartmentResponse, error) {
	if err := req.Validate(); err != nil {
		return department.DepartmentResponse{}, err
	}

	d, err := s.DepartmentRepository.GetByID(ctx, req.ID)
	if err != nil {
		return department.DepartmentResponse{}, err
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.WorkStartTime != nil {
		d.WorkStartTime, _ = validator.IsValidTimeOfDay(*req.WorkStartTime)
	}
	if req.WorkEndTime != nil {
		d.WorkEndTime, _ = validator.IsValidTimeOfDay(*req.WorkEndTime)
	}
	if req.WorkingDaysPerWeek != nil {
		d.WorkingDaysPerWeek = *req.WorkingDaysPerWeek
	}
	if req.GraceMinutes != nil {
		d.GraceMinutes = req.GraceMinutes
	}
	if req.ClearGraceMinutes {
		d.GraceMinutes = nil
	}

	updated, err := s.DepartmentRepository.Update(ctx, d)
	if err != nil {
		return department.DepartmentResponse{}, err
	}
	return s.toResponse(updated), nil
}

// Get implements department.DepartmentService.
func (s *DepartmentServiceImpl) Get(ctx context.Context, id string) (department.DepartmentResponse, error) {
	if !validator.IsValidUUID(id) {
		return department.DepartmentResponse{}, department.ErrDepartmentNotFound
	}
	d, err := s.DepartmentRepository.GetByID(ctx, id)
	if err != nil {
		return department.DepartmentResponse{}, err
	}
	return s.toResponse(d), nil
}

// List implements department.DepartmentService.
func (s *DepartmentServiceImpl) List(ctx context.Context) ([]department.DepartmentResponse, error) {
	departments, err := s.DepartmentRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	out := make([]department.DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		out = append(out, s.toResponse(d))
	}
	return out, nil
}

func (s *DepartmentServiceImpl) toResponse(d department.Department) department.DepartmentResponse {
	return department.DepartmentResponse{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		WorkStartTime:      d.WorkStartTime.String(),
		WorkEndTime:        d.WorkEndTime.String(),
		WorkingDaysPerWeek: d.WorkingDaysPerWeek,
		GraceMinutes:       d.GraceMinutes,
		CreatedAt:          d.CreatedAt.In(s.loc).Format(time.RFC3339),
		UpdatedAt:          d.UpdatedAt.In(s.loc).Format(time.RFC3339),
	}
}
