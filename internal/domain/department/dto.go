package department

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type CreateDepartmentRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	WorkStartTime      string `json:"work_start_time,omitempty"`
	WorkEndTime        string `json:"work_end_time,omitempty"`
	WorkingDaysPerWeek *int   `json:"working_days_per_week,omitempty"`
	GraceMinutes       *int   `json:"grace_minutes,omitempty"`
}

func (r *CreateDepartmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 155 {
		errs.Add("name", "name must be at most 155 characters")
	}
	validateShift(&errs, optional(r.WorkStartTime), optional(r.WorkEndTime), r.WorkingDaysPerWeek, r.GraceMinutes)

	return errs.OrNil()
}

type UpdateDepartmentRequest struct {
	ID                 string  `json:"-"`
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	WorkStartTime      *string `json:"work_start_time,omitempty"`
	WorkEndTime        *string `json:"work_end_time,omitempty"`
	WorkingDaysPerWeek *int    `json:"working_days_per_week,omitempty"`
	GraceMinutes       *int    `json:"grace_minutes,omitempty"`
	ClearGraceMinutes  bool    `json:"clear_grace_minutes,omitempty"`
}

func (r *UpdateDepartmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "invalid department id")
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	}
	if r.ClearGraceMinutes && r.GraceMinutes != nil {
		errs.Add("grace_minutes", "grace_minutes cannot be set and cleared at once")
	}
	validateShift(&errs, r.WorkStartTime, r.WorkEndTime, r.WorkingDaysPerWeek, r.GraceMinutes)

	return errs.OrNil()
}

func validateShift(errs *validator.ValidationErrors, start, end *string, workingDays, grace *int) {
	if start != nil {
		if _, ok := validator.IsValidTimeOfDay(*start); !ok {
			errs.Add("work_start_time", "work_start_time must be HH:MM or HH:MM:SS")
		}
	}
	if end != nil {
		if _, ok := validator.IsValidTimeOfDay(*end); !ok {
			errs.Add("work_end_time", "work_end_time must be HH:MM or HH:MM:SS")
		}
	}
	if workingDays != nil && (*workingDays < 1 || *workingDays > 7) {
		errs.Add("working_days_per_week", "working_days_per_week must be between 1 and 7")
	}
	if grace != nil && *grace < 0 {
		errs.Add("grace_minutes", "grace_minutes must not be negative")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type DepartmentResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	WorkStartTime      string `json:"work_start_time"`
	WorkEndTime        string `json:"work_end_time"`
	WorkingDaysPerWeek int    `json:"working_days_per_week"`
	GraceMinutes       *int   `json:"grace_minutes"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}
