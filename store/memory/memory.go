// Package memory provides an in-memory host store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of overtime.Store
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	attendance  map[string]overtime.AttendanceRecord
	employees   map[string]overtime.EmployeeProfile
	shiftTypes  map[string]overtime.ShiftType
	assignments []overtime.ShiftAssignment
	payRates    []overtime.PayRateAssignment
	holidays    []generic.Holiday
	components  map[string]overtime.SalaryComponent
	checkins    map[string]overtime.Checkin
	artifacts   map[string]overtime.ApprovalArtifact
	artifactSeq []string // insertion order
}

var _ overtime.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		attendance: make(map[string]overtime.AttendanceRecord),
		employees:  make(map[string]overtime.EmployeeProfile),
		shiftTypes: make(map[string]overtime.ShiftType),
		components: make(map[string]overtime.SalaryComponent),
		checkins:   make(map[string]overtime.Checkin),
		artifacts:  make(map[string]overtime.ApprovalArtifact),
	}
}

// =============================================================================
// SEEDING
// =============================================================================

func (s *Store) PutAttendance(a overtime.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Status == "" {
		a.Status = overtime.AttendancePresent
	}
	s.attendance[a.ID] = a
}

func (s *Store) PutEmployee(e overtime.EmployeeProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.EmployeeID] = e
}

func (s *Store) PutShiftType(st overtime.ShiftType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shiftTypes[st.ID] = st
}

func (s *Store) AddShiftAssignment(a overtime.ShiftAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, a)
}

func (s *Store) AddPayRate(a overtime.PayRateAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payRates = append(s.payRates, a)
}

func (s *Store) AddHoliday(h generic.Holiday) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays = append(s.holidays, h)
}

func (s *Store) AddComponent(c overtime.SalaryComponent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[c.Name] = c
}

func (s *Store) AddCheckin(c overtime.Checkin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkins[c.ID] = c
}

// Checkin returns a stored check-in event by id.
func (s *Store) Checkin(id string) (overtime.Checkin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkins[id]
	return c, ok
}

// =============================================================================
// HOST READS
// =============================================================================

func (s *Store) GetAttendance(_ context.Context, id string) (*overtime.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attendance[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) GetEmployeeProfile(_ context.Context, employeeID string) (*overtime.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[employeeID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) LatestShiftAssignment(_ context.Context, employeeID string, asOf generic.TimePoint) (*overtime.ShiftAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *overtime.ShiftAssignment
	for i := range s.assignments {
		a := s.assignments[i]
		if a.EmployeeID != employeeID || !a.Confirmed || a.StartDate.After(asOf) {
			continue
		}
		if best == nil || !a.StartDate.Before(best.StartDate) {
			best = &a
		}
	}
	return best, nil
}

func (s *Store) GetShiftType(_ context.Context, shiftID string) (*overtime.ShiftType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.shiftTypes[shiftID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) LatestPayRate(_ context.Context, employeeID string, asOf generic.TimePoint) (*overtime.PayRateAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *overtime.PayRateAssignment
	for i := range s.payRates {
		a := s.payRates[i]
		if a.EmployeeID != employeeID || !a.Confirmed || a.EffectiveFrom.After(asOf) {
			continue
		}
		if best == nil || !a.EffectiveFrom.Before(best.EffectiveFrom) {
			best = &a
		}
	}
	return best, nil
}

// IsHoliday checks company-specific holidays first, then global ones.
func (s *Store) IsHoliday(_ context.Context, companyID string, date generic.TimePoint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.holidays {
		if h.CompanyID != "" && h.Matches(companyID, date) {
			return true, nil
		}
	}
	for _, h := range s.holidays {
		if h.CompanyID == "" && h.Matches(companyID, date) {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// ARTIFACTS
// =============================================================================

func (s *Store) FindOvertimeArtifact(_ context.Context, employeeID string, date generic.TimePoint) (*overtime.ApprovalArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.findLiveLocked(employeeID, date); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) findLiveLocked(employeeID string, date generic.TimePoint) *overtime.ApprovalArtifact {
	for _, id := range s.artifactSeq {
		a := s.artifacts[id]
		if a.EmployeeID == employeeID && a.EffectiveDate.Equal(date) && a.IsOvertime && !a.IsVoided() {
			return &a
		}
	}
	return nil
}

// CreateArtifact is a conditional insert: the uniqueness check and the write
// happen under one lock.
func (s *Store) CreateArtifact(_ context.Context, a overtime.ApprovalArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.IsOvertime && !a.IsVoided() && s.findLiveLocked(a.EmployeeID, a.EffectiveDate) != nil {
		return generic.ErrDuplicateArtifact
	}
	if _, exists := s.artifacts[a.ID]; exists {
		return generic.ErrDuplicateArtifact
	}
	s.artifacts[a.ID] = a
	s.artifactSeq = append(s.artifactSeq, a.ID)
	return nil
}

func (s *Store) FinalizeArtifact(_ context.Context, id string) error {
	return s.setStatus(id, overtime.ArtifactSubmitted)
}

func (s *Store) VoidArtifact(_ context.Context, id string) error {
	return s.setStatus(id, overtime.ArtifactVoided)
}

func (s *Store) setStatus(id string, status overtime.ArtifactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[id]
	if !ok {
		return generic.ErrNotFound
	}
	a.Status = status
	s.artifacts[id] = a
	return nil
}

func (s *Store) GetArtifact(_ context.Context, id string) (*overtime.ApprovalArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) ListArtifacts(_ context.Context, f overtime.ArtifactFilter) ([]overtime.ApprovalArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []overtime.ApprovalArtifact
	for _, id := range s.artifactSeq {
		a := s.artifacts[id]
		switch {
		case f.EmployeeID != "" && a.EmployeeID != f.EmployeeID:
		case !f.Period.Contains(a.EffectiveDate):
		case a.IsVoided() && !f.IncludeVoided:
		case f.OnlySubmitted && a.Status != overtime.ArtifactSubmitted:
		case f.OvertimeMarked && !a.IsOvertime:
		default:
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveDate.Before(out[j].EffectiveDate) })
	return out, nil
}

func (s *Store) ComponentExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.components[name]
	return ok, nil
}

// =============================================================================
// CHECK-INS
// =============================================================================

func (s *Store) LatestOutCheckin(_ context.Context, attendanceID string) (*overtime.Checkin, error) {
	return s.latestOut(func(c overtime.Checkin) bool { return c.AttendanceID == attendanceID }), nil
}

func (s *Store) LatestOutCheckinOnDay(_ context.Context, employeeID string, day generic.TimePoint) (*overtime.Checkin, error) {
	return s.latestOut(func(c overtime.Checkin) bool {
		return c.EmployeeID == employeeID && generic.DateOf(c.Time).Equal(day)
	}), nil
}

func (s *Store) latestOut(match func(overtime.Checkin) bool) *overtime.Checkin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *overtime.Checkin
	for _, c := range s.checkins {
		if c.LogType != overtime.LogOut || !match(c) {
			continue
		}
		if best == nil || c.Time.After(best.Time) {
			cp := c
			best = &cp
		}
	}
	return best
}

// ApplyClockOutReset writes the attendance and check-in under one lock.
func (s *Store) ApplyClockOutReset(_ context.Context, w overtime.ResetWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attendance[w.AttendanceID]
	if !ok {
		return generic.ErrNotFound
	}
	if w.CheckinID != "" {
		c, ok := s.checkins[w.CheckinID]
		if !ok {
			return generic.ErrNotFound
		}
		if c.OriginalTime == nil {
			orig := c.Time
			c.OriginalTime = &orig
		}
		c.Time = w.ClockOut
		c.SkipAutoAttendance = true
		c.ResetReason = w.Reason
		s.checkins[c.ID] = c
	}

	out := w.ClockOut
	hours := w.WorkedHours
	if att.ResetCloseTime == nil {
		att.ResetCloseTime = att.ClockOut
	}
	att.ClockOut = &out
	att.WorkedHours = &hours
	s.attendance[att.ID] = att
	return nil
}

// =============================================================================
// REPORT
// =============================================================================

func (s *Store) ListReportCandidates(_ context.Context, f overtime.ReportFilter) ([]overtime.ReportCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []overtime.ReportCandidate
	for _, a := range s.attendance {
		e, ok := s.employees[a.EmployeeID]
		if !ok || a.Status != overtime.AttendancePresent || !a.HasCheckout() {
			continue
		}
		switch {
		case !f.Period.Contains(a.Date):
		case f.EmployeeID != "" && a.EmployeeID != f.EmployeeID:
		case f.Department != "" && e.Department != f.Department:
		case f.CompanyID != "" && a.CompanyID != f.CompanyID:
		case f.Eligible != nil && e.Eligible != *f.Eligible:
		default:
			out = append(out, overtime.ReportCandidate{Attendance: a, Employee: e})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Attendance.Date, out[j].Attendance.Date
		if !di.Equal(dj) {
			return di.After(dj)
		}
		if out[i].Employee.Name != out[j].Employee.Name {
			return out[i].Employee.Name < out[j].Employee.Name
		}
		return out[i].Attendance.ID < out[j].Attendance.ID
	})
	return out, nil
}
