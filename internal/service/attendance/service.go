package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// windowDays is how far back the personal and overall listings reach.
const windowDays = 30

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	calc     *Calculator
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepository attendance.AttendanceRepository,
	employeeRepository employee.EmployeeRepository,
	calc *Calculator,
	c cache.Cache,
	cacheTTL time.Duration,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepository,
		EmployeeRepository:   employeeRepository,
		calc:                 calc,
		cache:                c,
		cacheTTL:             cacheTTL,
		now:                  time.Now,
	}
}

func myAttendanceKey(employeeID string) string {
	return fmt.Sprintf("attendance_%s_%ddays", employeeID, windowDays)
}

func (s *AttendanceServiceImpl) invalidate(ctx context.Context, employeeID string) {
	if err := s.cache.Delete(ctx, myAttendanceKey(employeeID)); err != nil {
		slog.Warn("Failed to invalidate attendance cache", "employee_id", employeeID, "error", err)
	}
}

func (s *AttendanceServiceImpl) caller(ctx context.Context) (jwt.AccessClaims, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return jwt.AccessClaims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	if claims.EmployeeID == "" {
		return jwt.AccessClaims{}, employee.ErrNoEmployeeProfile
	}
	return claims, nil
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now()
	today := s.calc.Today(now)

	var saved attendance.Attendance
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		emp, err := s.EmployeeRepository.GetByID(ctx, claims.EmployeeID)
		if err != nil {
			return err
		}

		rec, err := s.AttendanceRepository.GetOrCreateForUpdate(ctx, emp.ID, today)
		if err != nil {
			return err
		}
		if rec.CheckIn != nil {
			return attendance.ErrAlreadyCheckedIn
		}

		rec.CheckIn = &now
		rec = s.calc.Recompute(rec, emp.Department, now)

		saved, err = s.AttendanceRepository.Update(ctx, rec)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, saved.EmployeeID)
	slog.Info("Employee checked in", "employee_id", saved.EmployeeID, "date", saved.Date.String(), "late_minutes", saved.LateMinutes)

	return s.toResponse(saved), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now()
	today := s.calc.Today(now)

	var saved attendance.Attendance
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		emp, err := s.EmployeeRepository.GetByID(ctx, claims.EmployeeID)
		if err != nil {
			return err
		}

		rec, err := s.openRecordForUpdate(ctx, emp, today)
		if err != nil {
			return err
		}
		if rec.CheckOut != nil {
			return attendance.ErrAlreadyCheckedOut
		}

		rec.CheckOut = &now
		rec.IsAutoCheckout = false
		rec = s.calc.Recompute(rec, emp.Department, now)

		saved, err = s.AttendanceRepository.Update(ctx, rec)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, saved.EmployeeID)
	slog.Info("Employee checked out", "employee_id", saved.EmployeeID, "date", saved.Date.String(), "hours_worked", saved.HoursWorked.String())

	return s.toResponse(saved), nil
}

// openRecordForUpdate finds the record a check-out applies to: today's, or
// yesterday's when the department shift runs past midnight and yesterday's
// record is still open.
func (s *AttendanceServiceImpl) openRecordForUpdate(ctx context.Context, emp employee.Employee, today civil.Date) (attendance.Attendance, error) {
	rec, err := s.AttendanceRepository.GetByEmployeeAndDateForUpdate(ctx, emp.ID, today)
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, err
	}
	if err == nil && rec.CheckIn != nil {
		return rec, nil
	}

	if emp.Department != nil && emp.Department.EndsNextDay() {
		prev, prevErr := s.AttendanceRepository.GetByEmployeeAndDateForUpdate(ctx, emp.ID, today.AddDays(-1))
		if prevErr == nil && prev.CheckIn != nil && prev.CheckOut == nil {
			return prev, nil
		}
		if prevErr != nil && !errors.Is(prevErr, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, prevErr
		}
	}

	return attendance.Attendance{}, attendance.ErrNotCheckedIn
}

// myAttendanceSnapshot is the cached form of the personal listing.
type myAttendanceSnapshot struct {
	Records []attendance.MyAttendanceRecord `json:"records"`
	// SettleAt is the earliest shift end among records still open when the
	// snapshot was taken. Past it the snapshot is stale.
	SettleAt *time.Time `json:"settle_at,omitempty"`
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context) (attendance.MyAttendanceResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.MyAttendanceResponse{}, err
	}

	now := s.now()
	today := s.calc.Today(now)
	since := today.AddDays(-windowDays)
	key := myAttendanceKey(claims.EmployeeID)

	load := func(ctx context.Context) (myAttendanceSnapshot, error) {
		emp, err := s.EmployeeRepository.GetByID(ctx, claims.EmployeeID)
		if err != nil {
			return myAttendanceSnapshot{}, err
		}
		rows, err := s.AttendanceRepository.ListByEmployeeSince(ctx, claims.EmployeeID, since)
		if err != nil {
			return myAttendanceSnapshot{}, fmt.Errorf("failed to list attendance: %w", err)
		}

		snap := myAttendanceSnapshot{Records: make([]attendance.MyAttendanceRecord, 0, len(rows))}
		for _, r := range rows {
			r, err = s.settle(ctx, r, emp.Department, now)
			if err != nil {
				return myAttendanceSnapshot{}, err
			}
			if end, open := s.calc.AutoCheckoutAt(r, emp.Department); open && (snap.SettleAt == nil || end.Before(*snap.SettleAt)) {
				snap.SettleAt = &end
			}
			snap.Records = append(snap.Records, attendance.MyAttendanceRecord{
				ID:          r.ID,
				Date:        r.Date.String(),
				Status:      string(r.Status),
				LateMinutes: r.LateMinutes,
			})
		}
		return snap, nil
	}

	snap, err := cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, load)
	if err != nil {
		return attendance.MyAttendanceResponse{}, err
	}
	if snap.SettleAt != nil && now.After(*snap.SettleAt) {
		s.invalidate(ctx, claims.EmployeeID)
		if snap, err = cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, load); err != nil {
			return attendance.MyAttendanceResponse{}, err
		}
	}

	return attendance.MyAttendanceResponse{
		From:    since.String(),
		To:      today.String(),
		Summary: summarize(snap.Records),
		Records: snap.Records,
	}, nil
}

func summarize(records []attendance.MyAttendanceRecord) attendance.AttendanceSummary {
	var sum attendance.AttendanceSummary
	for _, r := range records {
		switch attendance.Status(r.Status) {
		case attendance.StatusPresent:
			sum.TotalPresent++
		case attendance.StatusHalfDay:
			sum.TotalHalfDays++
		case attendance.StatusAbsent:
			sum.TotalAbsent++
		}
		if r.LateMinutes > 0 {
			sum.TotalLate++
		}
	}
	return sum
}

// settle applies the auto check-out to an open record whose shift is over and
// saves it. Any other record is returned as is.
func (s *AttendanceServiceImpl) settle(ctx context.Context, rec attendance.Attendance, dept *department.Department, now time.Time) (attendance.Attendance, error) {
	end, open := s.calc.AutoCheckoutAt(rec, dept)
	if !open || !now.After(end) {
		return rec, nil
	}

	var saved attendance.Attendance
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.AttendanceRepository.GetByIDForUpdate(ctx, rec.ID)
		if err != nil {
			return err
		}
		if locked.CheckOut != nil {
			// Closed by a concurrent request
			saved = locked
			return nil
		}
		saved, err = s.AttendanceRepository.Update(ctx, s.calc.Recompute(locked, dept, now))
		return err
	})
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to apply auto check-out: %w", err)
	}
	if saved.EmployeeName == nil {
		saved.EmployeeName = rec.EmployeeName
	}

	s.invalidate(ctx, saved.EmployeeID)
	slog.Info("Attendance auto checked out", "attendance_id", saved.ID, "employee_id", saved.EmployeeID, "date", saved.Date.String())
	return saved, nil
}

// settleAll settles records in place, looking each employee's department up once.
func (s *AttendanceServiceImpl) settleAll(ctx context.Context, records []attendance.Attendance, now time.Time) error {
	depts := make(map[string]*department.Department)
	for i, rec := range records {
		if rec.CheckIn == nil || rec.CheckOut != nil || rec.Status.IsNonWorked() {
			continue
		}
		dept, seen := depts[rec.EmployeeID]
		if !seen {
			emp, err := s.EmployeeRepository.GetByID(ctx, rec.EmployeeID)
			if err != nil {
				return err
			}
			dept = emp.Department
			depts[rec.EmployeeID] = dept
		}

		settled, err := s.settle(ctx, rec, dept, now)
		if err != nil {
			return err
		}
		records[i] = settled
	}
	return nil
}

// ListOverall implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListOverall(ctx context.Context) (attendance.OverallAttendanceResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.OverallAttendanceResponse{}, err
	}
	if !claims.Role.IsPrivileged() {
		return attendance.OverallAttendanceResponse{}, attendance.ErrUnauthorized
	}

	now := s.now()
	today := s.calc.Today(now)
	since := today.AddDays(-windowDays)
	records, err := s.AttendanceRepository.ListSince(ctx, since)
	if err != nil {
		return attendance.OverallAttendanceResponse{}, err
	}
	if err := s.settleAll(ctx, records, now); err != nil {
		return attendance.OverallAttendanceResponse{}, err
	}

	out := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		out = append(out, s.toResponse(r))
	}
	return attendance.OverallAttendanceResponse{
		From:    since.String(),
		To:      today.String(),
		Records: out,
	}, nil
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
	}

	rec, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !claims.Role.IsPrivileged() && rec.EmployeeID != claims.EmployeeID {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	records := []attendance.Attendance{rec}
	if err := s.settleAll(ctx, records, s.now()); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return s.toResponse(records[0]), nil
}

// UpdateAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !claims.Role.IsPrivileged() {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	var errs validator.ValidationErrors
	checkIn := parseInstantField(&errs, "check_in", req.CheckIn, s.calc.Location())
	checkOut := parseInstantField(&errs, "check_out", req.CheckOut, s.calc.Location())
	if err := errs.OrNil(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now()

	var saved attendance.Attendance
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.AttendanceRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		if checkIn != nil {
			rec.CheckIn = checkIn
		}
		if checkOut != nil {
			rec.CheckOut = checkOut
			rec.IsAutoCheckout = false
		}
		if req.ClearCheckOut {
			rec.CheckOut = nil
			rec.IsAutoCheckout = false
		}
		if req.Status != nil {
			if *req.Status == "" {
				// Back to normal evaluation; Recompute derives the worked status
				rec.Status = attendance.StatusAbsent
			} else {
				rec.Status = attendance.Status(*req.Status)
			}
		}
		if req.Remarks != nil {
			rec.Remarks = req.Remarks
		}

		if rec.CheckOut != nil && rec.CheckIn == nil {
			var errs validator.ValidationErrors
			errs.Add("check_out", "check_out requires a check_in")
			return errs
		}
		if rec.CheckOut != nil && rec.CheckOut.Before(*rec.CheckIn) {
			var errs validator.ValidationErrors
			errs.Add("check_out", "check_out must not be before check_in")
			return errs
		}

		emp, err := s.EmployeeRepository.GetByID(ctx, rec.EmployeeID)
		if err != nil {
			return err
		}

		rec = s.calc.Recompute(rec, emp.Department, now)
		saved, err = s.AttendanceRepository.Update(ctx, rec)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, saved.EmployeeID)
	slog.Info("Attendance corrected", "attendance_id", saved.ID, "by", claims.UserID)

	return s.toResponse(saved), nil
}

// MarkAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAttendance(ctx context.Context, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	claims, err := s.caller(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !claims.Role.IsPrivileged() {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	date, ok := validator.IsValidDate(req.Date)
	if !ok {
		var errs validator.ValidationErrors
		errs.Add("date", "date must be YYYY-MM-DD")
		return attendance.AttendanceResponse{}, errs
	}

	var saved attendance.Attendance
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.EmployeeRepository.ExistsByID(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if !exists {
			return employee.ErrEmployeeNotFound
		}

		rec := attendance.Attendance{
			EmployeeID: req.EmployeeID,
			Date:       date,
			Status:     attendance.Status(req.Status),
			Remarks:    req.Remarks,
		}
		rec = s.calc.Recompute(rec, nil, s.now())

		saved, err = s.AttendanceRepository.Create(ctx, rec)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, saved.EmployeeID)
	return s.toResponse(saved), nil
}

// parseInstantField parses an optional timestamp, recording a violation for
// field when it is malformed.
func parseInstantField(errs *validator.ValidationErrors, field string, value *string, loc *time.Location) *time.Time {
	if value == nil {
		return nil
	}
	t, ok := validator.ParseInstant(*value, loc)
	if !ok {
		errs.Add(field, field+" must be an ISO8601 timestamp")
		return nil
	}
	return &t
}

// toResponse renders timestamps as RFC3339 in the organisation's zone.
func (s *AttendanceServiceImpl) toResponse(a attendance.Attendance) attendance.AttendanceResponse {
	loc := s.calc.Location()
	format := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		v := t.In(loc).Format(time.RFC3339)
		return &v
	}

	return attendance.AttendanceResponse{
		ID:             a.ID,
		EmployeeID:     a.EmployeeID,
		EmployeeName:   a.EmployeeName,
		Date:           a.Date.String(),
		CheckIn:        format(a.CheckIn),
		CheckOut:       format(a.CheckOut),
		Status:         string(a.Status),
		HoursWorked:    a.HoursWorked,
		LateMinutes:    a.LateMinutes,
		OvertimeHours:  a.OvertimeHours,
		IsAutoCheckout: a.IsAutoCheckout,
		Remarks:        a.Remarks,
		CreatedAt:      a.CreatedAt.In(loc).Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.In(loc).Format(time.RFC3339),
	}
}
