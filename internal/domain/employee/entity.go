package employee

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "FULL_TIME"
	EmploymentPartTime EmploymentType = "PART_TIME"
	EmploymentContract EmploymentType = "CONTRACT"
	EmploymentIntern   EmploymentType = "INTERN"
)

type Employee struct {
	ID             string
	UserID         string
	Role           user.Role
	Phone          string
	Gender         *Gender
	DateOfBirth    civil.Date
	DepartmentID   *string
	Designation    string
	EmploymentType EmploymentType
	DateJoined     time.Time
	DateLeft       *civil.Date
	IsActive       bool
	Location       string
	IsOffsite      bool
	IsWFHEnabled   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Join
	Username   string
	Email      string
	Department *department.Department
}
