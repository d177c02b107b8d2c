package attendance

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/department"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== fakes ====================

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
	listed  int
}

func newMemAttendanceRepo() *memAttendanceRepo {
	return &memAttendanceRepo{records: map[string]attendance.Attendance{}}
}

func (m *memAttendanceRepo) find(employeeID string, date civil.Date) (attendance.Attendance, bool) {
	for _, r := range m.records {
		if r.EmployeeID == employeeID && r.Date == date {
			return r, true
		}
	}
	return attendance.Attendance{}, false
}

func (m *memAttendanceRepo) GetOrCreateForUpdate(_ context.Context, employeeID string, date civil.Date) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.find(employeeID, date); ok {
		return r, nil
	}
	r := attendance.Attendance{ID: uuid.Must(uuid.NewV7()).String(), EmployeeID: employeeID, Date: date, Status: attendance.StatusAbsent}
	m.records[r.ID] = r
	return r, nil
}

func (m *memAttendanceRepo) GetByEmployeeAndDateForUpdate(_ context.Context, employeeID string, date civil.Date) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.find(employeeID, date); ok {
		return r, nil
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (m *memAttendanceRepo) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return r, nil
}

func (m *memAttendanceRepo) GetByIDForUpdate(ctx context.Context, id string) (attendance.Attendance, error) {
	return m.GetByID(ctx, id)
}

func (m *memAttendanceRepo) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.find(a.EmployeeID, a.Date); ok {
		return attendance.Attendance{}, attendance.ErrAttendanceExists
	}
	a.ID = uuid.Must(uuid.NewV7()).String()
	m.records[a.ID] = a
	return a, nil
}

func (m *memAttendanceRepo) Update(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[a.ID]; !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	m.records[a.ID] = a
	return a, nil
}

func (m *memAttendanceRepo) ListByEmployeeSince(_ context.Context, employeeID string, since civil.Date) ([]attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed++
	var out []attendance.Attendance
	for _, r := range m.records {
		if r.EmployeeID == employeeID && !r.Date.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAttendanceRepo) ListSince(_ context.Context, since civil.Date) ([]attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Attendance
	for _, r := range m.records {
		if !r.Date.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memEmployeeRepo struct {
	employee.EmployeeRepository
	employees map[string]employee.Employee
}

func (m *memEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memEmployeeRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := m.employees[id]
	return ok, nil
}

type memoryCache struct {
	deleted []string
	values  map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = b
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

// ==================== helpers ====================

var kathmandu = mustLoad("Asia/Kathmandu")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

const (
	staffID   = "0190a000-0000-7000-8000-000000000001"
	managerID = "0190a000-0000-7000-8000-000000000002"
)

func ctxAs(t *testing.T, employeeID string, role user.Role) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"user_id":     "user-" + employeeID,
		"employee_id": employeeID,
		"role":        string(role),
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

type fixture struct {
	svc     *AttendanceServiceImpl
	records *memAttendanceRepo
	cache   *memoryCache
	clock   time.Time
}

func newFixture(t *testing.T, dept *department.Department) *fixture {
	t.Helper()
	f := &fixture{
		records: newMemAttendanceRepo(),
		cache:   &memoryCache{values: map[string][]byte{}},
	}
	employees := &memEmployeeRepo{employees: map[string]employee.Employee{
		staffID:   {ID: staffID, Role: user.RoleEmployee, Department: dept},
		managerID: {ID: managerID, Role: user.RoleManager, Department: dept},
	}}
	svc := NewAttendanceService(fakeTransactor{}, f.records, employees, NewCalculator(kathmandu), f.cache, time.Hour)
	f.svc = svc.(*AttendanceServiceImpl)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func clockAt(hour, minute int) time.Time {
	return time.Date(2024, time.March, 15, hour, minute, 0, 0, kathmandu)
}

var dayShift = &department.Department{
	ID:            "dept-1",
	WorkStartTime: civil.Time{Hour: 9},
	WorkEndTime:   civil.Time{Hour: 17},
}

// ==================== tests ====================

func TestCheckInAndOut_FullDay(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(9, 12)
	in, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, in.LateMinutes)
	assert.Equal(t, "2024-03-15", in.Date)
	assert.Equal(t, "absent", in.Status)

	f.clock = clockAt(17, 30)
	out, err := f.svc.CheckOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "present", out.Status)
	assert.True(t, decimal.RequireFromString("8.30").Equal(out.HoursWorked), out.HoursWorked.String())
	assert.False(t, out.IsAutoCheckout)
	assert.Equal(t, "2024-03-15T17:30:00+05:45", *out.CheckOut)
}

func TestCheckIn_Twice(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(9, 0)
	_, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)

	f.clock = clockAt(9, 5)
	_, err = f.svc.CheckIn(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	f := newFixture(t, dayShift)
	f.clock = clockAt(17, 0)

	_, err := f.svc.CheckOut(ctxAs(t, staffID, user.RoleEmployee))
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestCheckOut_Twice(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(9, 0)
	_, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)
	f.clock = clockAt(13, 0)
	_, err = f.svc.CheckOut(ctx)
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestCheckOut_OvernightShiftClosesYesterday(t *testing.T) {
	night := &department.Department{ID: "night", WorkStartTime: civil.Time{Hour: 22}, WorkEndTime: civil.Time{Hour: 6}}
	f := newFixture(t, night)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(22, 0)
	_, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)

	f.clock = clockAt(22, 0).Add(8 * time.Hour)
	out, err := f.svc.CheckOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", out.Date)
	assert.Equal(t, "present", out.Status)
}

func TestCheckIn_AfterShiftEndCanStillCheckOut(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(17, 30)
	in, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)
	assert.Nil(t, in.CheckOut)
	assert.False(t, in.IsAutoCheckout)

	f.clock = clockAt(19, 0)
	out, err := f.svc.CheckOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T19:00:00+05:45", *out.CheckOut)
	assert.True(t, decimal.RequireFromString("1.5").Equal(out.HoursWorked), out.HoursWorked.String())
	assert.False(t, out.IsAutoCheckout)
}

func TestCheckIn_RequiresEmployeeProfile(t *testing.T) {
	f := newFixture(t, dayShift)
	_, err := f.svc.CheckIn(ctxAs(t, "", user.RoleEmployee))
	assert.ErrorIs(t, err, employee.ErrNoEmployeeProfile)
}

func TestGetMyAttendance_SummaryAndCache(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)
	today := civil.Date{Year: 2024, Month: time.March, Day: 15}

	seed := []attendance.Attendance{
		{EmployeeID: staffID, Date: today.AddDays(-1), Status: attendance.StatusPresent, LateMinutes: 5},
		{EmployeeID: staffID, Date: today.AddDays(-2), Status: attendance.StatusHalfDay},
		{EmployeeID: staffID, Date: today.AddDays(-3), Status: attendance.StatusAbsent},
		{EmployeeID: staffID, Date: today.AddDays(-31), Status: attendance.StatusPresent},
		{EmployeeID: managerID, Date: today.AddDays(-1), Status: attendance.StatusPresent},
	}
	for _, r := range seed {
		_, err := f.records.Create(ctx, r)
		require.NoError(t, err)
	}

	f.clock = clockAt(12, 0)
	got, err := f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-14", got.From)
	assert.Equal(t, "2024-03-15", got.To)
	assert.Len(t, got.Records, 3)
	assert.Equal(t, attendance.AttendanceSummary{TotalPresent: 1, TotalHalfDays: 1, TotalAbsent: 1, TotalLate: 1}, got.Summary)

	_, err = f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.records.listed, "second read should be served from cache")

	_, err = f.svc.CheckIn(ctx)
	require.NoError(t, err)
	assert.Contains(t, f.cache.deleted, "attendance_"+staffID+"_30days")

	got, err = f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Records, 4)
	assert.Equal(t, 2, f.records.listed)
}

func TestListOverall_PrivilegedOnly(t *testing.T) {
	f := newFixture(t, dayShift)
	f.clock = clockAt(12, 0)

	_, err := f.svc.ListOverall(ctxAs(t, staffID, user.RoleEmployee))
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	_, err = f.records.Create(context.Background(), attendance.Attendance{
		EmployeeID: staffID,
		Date:       civil.Date{Year: 2024, Month: time.March, Day: 10},
		Status:     attendance.StatusPresent,
	})
	require.NoError(t, err)

	list, err := f.svc.ListOverall(ctxAs(t, managerID, user.RoleManager))
	require.NoError(t, err)
	assert.Len(t, list.Records, 1)
	assert.Equal(t, "2024-02-14", list.From)
	assert.Equal(t, "2024-03-15", list.To)
}

func TestReadPaths_ApplyForgottenCheckOut(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(9, 0)
	in, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)

	// Next day, no check-out was ever made
	f.clock = clockAt(9, 0).Add(26 * time.Hour)

	list, err := f.svc.ListOverall(ctxAs(t, managerID, user.RoleManager))
	require.NoError(t, err)
	require.Len(t, list.Records, 1)
	got := list.Records[0]
	assert.Equal(t, "present", got.Status)
	assert.True(t, decimal.NewFromInt(8).Equal(got.HoursWorked), got.HoursWorked.String())
	assert.True(t, got.IsAutoCheckout)
	require.NotNil(t, got.CheckOut)
	assert.Equal(t, "2024-03-15T17:00:00+05:45", *got.CheckOut)

	stored := f.records.records[in.ID]
	assert.True(t, stored.IsAutoCheckout, "auto check-out is saved")
	require.NotNil(t, stored.CheckOut)

	mine, err := f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.AttendanceSummary{TotalPresent: 1}, mine.Summary)

	one, err := f.svc.GetAttendance(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "present", one.Status)
}

func TestGetAttendance_AppliesForgottenCheckOut(t *testing.T) {
	f := newFixture(t, dayShift)
	in := clockAt(9, 30)
	id := seedV7(t, f, attendance.Attendance{
		EmployeeID: staffID,
		Date:       civil.Date{Year: 2024, Month: time.March, Day: 15},
		CheckIn:    &in,
		Status:     attendance.StatusAbsent,
	})

	f.clock = clockAt(18, 0)
	got, err := f.svc.GetAttendance(ctxAs(t, staffID, user.RoleEmployee), id)
	require.NoError(t, err)
	assert.Equal(t, "half_day", got.Status)
	assert.True(t, got.IsAutoCheckout)
	assert.True(t, decimal.RequireFromString("7.5").Equal(got.HoursWorked), got.HoursWorked.String())
	assert.Contains(t, f.cache.deleted, "attendance_"+staffID+"_30days")
}

func TestGetMyAttendance_CachedOpenDayRefreshesAfterShiftEnd(t *testing.T) {
	f := newFixture(t, dayShift)
	ctx := ctxAs(t, staffID, user.RoleEmployee)

	f.clock = clockAt(9, 0)
	_, err := f.svc.CheckIn(ctx)
	require.NoError(t, err)

	f.clock = clockAt(12, 0)
	mine, err := f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.AttendanceSummary{TotalAbsent: 1}, mine.Summary)

	f.clock = clockAt(16, 0)
	_, err = f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.records.listed, "still inside the shift, served from cache")

	f.clock = clockAt(18, 0)
	mine, err = f.svc.GetMyAttendance(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.AttendanceSummary{TotalPresent: 1}, mine.Summary)
	assert.Equal(t, 2, f.records.listed)
}

func TestGetAttendance_OwnerOrPrivileged(t *testing.T) {
	f := newFixture(t, dayShift)
	id := seedV7(t, f, attendance.Attendance{
		EmployeeID: managerID,
		Date:       civil.Date{Year: 2024, Month: time.March, Day: 10},
		Status:     attendance.StatusAbsent,
	})

	_, err := f.svc.GetAttendance(ctxAs(t, staffID, user.RoleEmployee), id)
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	got, err := f.svc.GetAttendance(ctxAs(t, managerID, user.RoleEmployee), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = f.svc.GetAttendance(ctxAs(t, staffID, user.RoleHR), "not-a-uuid")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func seedV7(t *testing.T, f *fixture, a attendance.Attendance) string {
	t.Helper()
	a.ID = uuid.Must(uuid.NewV7()).String()
	f.records.records[a.ID] = a
	return a.ID
}

func strPtr(s string) *string { return &s }

func TestUpdateAttendance_CorrectsAndRecomputes(t *testing.T) {
	f := newFixture(t, dayShift)
	f.clock = clockAt(20, 0)
	id := seedV7(t, f, attendance.Attendance{
		EmployeeID: staffID,
		Date:       civil.Date{Year: 2024, Month: time.March, Day: 15},
		Status:     attendance.StatusAbsent,
	})

	got, err := f.svc.UpdateAttendance(ctxAs(t, managerID, user.RoleManager), attendance.UpdateAttendanceRequest{
		ID:       id,
		CheckIn:  strPtr("2024-03-15 09:00:00"),
		CheckOut: strPtr("2024-03-15T07:15:00Z"),
		Remarks:  strPtr("forgot badge"),
	})
	require.NoError(t, err)
	// 07:15Z is 13:00 in Kathmandu
	assert.Equal(t, "half_day", got.Status)
	assert.True(t, decimal.NewFromInt(4).Equal(got.HoursWorked))
	assert.Equal(t, "forgot badge", *got.Remarks)
}

func TestUpdateAttendance_NonWorkedStatusAndBack(t *testing.T) {
	f := newFixture(t, dayShift)
	f.clock = clockAt(20, 0)
	in := clockAt(9, 0)
	out := clockAt(17, 0)
	id := seedV7(t, f, attendance.Attendance{
		EmployeeID: staffID,
		Date:       civil.Date{Year: 2024, Month: time.March, Day: 15},
		CheckIn:    &in,
		CheckOut:   &out,
		Status:     attendance.StatusPresent,
	})
	ctx := ctxAs(t, managerID, user.RoleHR)

	got, err := f.svc.UpdateAttendance(ctx, attendance.UpdateAttendanceRequest{ID: id, Status: strPtr("holiday")})
	require.NoError(t, err)
	assert.Equal(t, "holiday", got.Status)
	assert.True(t, got.HoursWorked.IsZero())

	got, err = f.svc.UpdateAttendance(ctx, attendance.UpdateAttendanceRequest{ID: id, Status: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "present", got.Status)
	assert.True(t, decimal.NewFromInt(8).Equal(got.HoursWorked))
}

func TestUpdateAttendance_RejectsCheckOutBeforeCheckIn(t *testing.T) {
	f := newFixture(t, dayShift)
	id := seedV7(t, f, attendance.Attendance{EmployeeID: staffID, Date: civil.Date{Year: 2024, Month: time.March, Day: 15}})

	_, err := f.svc.UpdateAttendance(ctxAs(t, managerID, user.RoleAdmin), attendance.UpdateAttendanceRequest{
		ID:       id,
		CheckIn:  strPtr("2024-03-15 12:00:00"),
		CheckOut: strPtr("2024-03-15 11:00:00"),
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "check_out", verrs[0].Field)
}

func TestUpdateAttendance_EmployeeForbidden(t *testing.T) {
	f := newFixture(t, dayShift)
	id := seedV7(t, f, attendance.Attendance{EmployeeID: staffID, Date: civil.Date{Year: 2024, Month: time.March, Day: 15}})

	_, err := f.svc.UpdateAttendance(ctxAs(t, staffID, user.RoleEmployee), attendance.UpdateAttendanceRequest{ID: id, Remarks: strPtr("x")})
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)
}

func TestMarkAttendance(t *testing.T) {
	f := newFixture(t, dayShift)
	f.clock = clockAt(8, 0)
	ctx := ctxAs(t, managerID, user.RoleHR)
	req := attendance.MarkAttendanceRequest{EmployeeID: staffID, Date: "2024-03-20", Status: "on_leave"}

	got, err := f.svc.MarkAttendance(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "on_leave", got.Status)
	assert.True(t, got.HoursWorked.IsZero())

	_, err = f.svc.MarkAttendance(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrAttendanceExists)

	req.EmployeeID = uuid.Must(uuid.NewV7()).String()
	_, err = f.svc.MarkAttendance(ctx, req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

var _ cache.Cache = (*memoryCache)(nil)

func TestParseInstantField(t *testing.T) {
	var errs validator.ValidationErrors

	assert.Nil(t, parseInstantField(&errs, "check_in", nil, kathmandu))

	got := parseInstantField(&errs, "check_in", strPtr("2024-03-15 09:00:00"), kathmandu)
	require.NotNil(t, got)
	assert.True(t, got.Equal(clockAt(9, 0)))
	assert.Empty(t, errs)

	assert.Nil(t, parseInstantField(&errs, "check_out", strPtr("after lunch"), kathmandu))
	require.Len(t, errs, 1)
	assert.Equal(t, "check_out", errs[0].Field)
}
