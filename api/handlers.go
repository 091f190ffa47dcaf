/*
handlers.go - HTTP API handlers for the overtime engine

PURPOSE:
  Exposes overtime computation, review, approval and payroll lines via REST.
  Handles HTTP request/response, JSON serialization, and delegates to the
  overtime, payroll and editcache packages.

ENDPOINTS:
  Overtime:
    GET    /api/attendance/{id}/overtime          Compute one record
    GET    /api/attendance/{id}/overtime/details  Computation + approval state
    GET    /api/overtime/report                   Review report (filters in query)
    POST   /api/overtime/process                  Approve / reject a batch
    GET    /api/overtime/artifacts                List approval artifacts
    POST   /api/overtime/artifacts/{id}/void      Void an artifact

  Edits (per user, identified by the X-User header):
    GET    /api/overtime/edits                    All pending edits
    POST   /api/overtime/edits                    Save one edit
    DELETE /api/overtime/edits                    Clear all edits
    GET    /api/overtime/edits/info               Count and remaining TTL
    POST   /api/overtime/edits/applied            Drop submitted edits
    GET    /api/overtime/edits/{attendance}       One edit
    DELETE /api/overtime/edits/{attendance}       Delete one edit

  Payroll:
    POST   /api/payroll/consolidate               Merge duplicate slip rows
    GET    /api/employees/{id}/overtime-lines     Monthly overtime earnings

  Records: employees, shifts, pay rates, holidays, attendance, check-ins,
  salary components and HR settings.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - ShiftFactory: JSON to ShiftType conversion
  - Edits: Operator edit cache
  - The current HR settings. Calculator, processor and reporter are built
    per request from them so a settings update takes effect immediately.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, business-rule violations
  - 403: Overtime tracking disabled
  - 404: Record not found
  - 409: Overtime already approved for the employee and date
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The X-User header only partitions the edit cache.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/overtime-engine/editcache"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/payroll"
	"github.com/warp/overtime-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// UserHeader names the operator whose edit bucket a request uses.
const UserHeader = "X-User"

const defaultUser = "Administrator"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	ShiftFactory *factory.ShiftFactory
	Edits        *editcache.Cache
	Logger       *slog.Logger

	mu              sync.RWMutex
	settings        overtime.Settings
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, settings overtime.Settings, edits *editcache.Cache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if edits == nil {
		edits = editcache.New(editcache.DefaultTTL, logger)
	}
	return &Handler{
		Store:        store,
		ShiftFactory: factory.NewShiftFactory(),
		Edits:        edits,
		Logger:       logger,
		settings:     settings.WithDefaults(),
	}
}

// Settings returns the HR settings in effect.
func (h *Handler) Settings() overtime.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// SetSettings replaces the HR settings in effect.
func (h *Handler) SetSettings(s overtime.Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = s.WithDefaults()
}

// LoadStoredSettings overlays settings saved through the API on the ones the
// handler was started with. Knobs the API does not expose are kept.
func (h *Handler) LoadStoredSettings(ctx context.Context) error {
	stored, err := h.Store.GetSettings(ctx)
	if err != nil || stored == nil {
		return err
	}
	h.SetSettings(toSettingsDTO(*stored).apply(h.Settings()))
	return nil
}

func (h *Handler) processor() *overtime.Processor {
	return overtime.NewProcessor(h.Store, h.Settings(), h.Logger)
}

func (h *Handler) calculator() *overtime.Calculator {
	return overtime.NewCalculator(h.Store, h.Settings())
}

func (h *Handler) reporter() *overtime.Reporter {
	return overtime.NewReporter(h.Store, h.calculator())
}

// requireTracking refuses overtime operations while tracking is disabled.
func (h *Handler) requireTracking(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Settings().Enabled {
			writeError(w, http.StatusForbidden, "Overtime tracking is disabled", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// OVERTIME ENDPOINTS
// =============================================================================

// GetOvertime computes overtime for one attendance record.
// GET /api/attendance/{id}/overtime
func (h *Handler) GetOvertime(w http.ResponseWriter, r *http.Request) {
	calc, err := h.calculator().ComputeByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to compute overtime", err)
		return
	}
	writeJSON(w, http.StatusOK, toComputationDTO(calc))
}

// GetOvertimeDetails returns the computation and whether it is approved.
// GET /api/attendance/{id}/overtime/details
func (h *Handler) GetOvertimeDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.reporter().Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get overtime details", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsDTO(*details))
}

// GetOvertimeReport returns the overtime review report.
// GET /api/overtime/report?from_date=&to_date=&employee=&department=&company=&eligible=Yes|No
func (h *Handler) GetOvertimeReport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReportFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report filter", err)
		return
	}

	rows, err := h.reporter().Run(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to build overtime report", err)
		return
	}

	dtos := make([]ReportRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toReportRowDTO(row))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func parseReportFilter(r *http.Request) (overtime.ReportFilter, error) {
	q := r.URL.Query()
	today := generic.DateOf(time.Now())
	filter := overtime.ReportFilter{
		Period:     generic.MonthPeriod(today),
		EmployeeID: q.Get("employee"),
		Department: q.Get("department"),
		CompanyID:  q.Get("company"),
	}

	if s := q.Get("from_date"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			return filter, err
		}
		filter.Period.Start = d
	}
	if s := q.Get("to_date"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			return filter, err
		}
		filter.Period.End = d
	}

	switch q.Get("eligible") {
	case "":
	case "Yes":
		yes := true
		filter.Eligible = &yes
	case "No":
		no := false
		filter.Eligible = &no
	default:
		return filter, errors.New("eligible must be Yes or No")
	}
	return filter, nil
}

// ProcessOvertime approves or rejects a batch of attendance records.
// POST /api/overtime/process
func (h *Handler) ProcessOvertime(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user := userFrom(r)
	items := make([]overtime.BatchItem, 0, len(req.Items))
	for _, it := range req.Items {
		item := overtime.BatchItem{AttendanceID: it.AttendanceID, IsOverride: it.IsOverride}
		if it.ApprovedHours != nil {
			item.ApprovedHours = *it.ApprovedHours
		}
		if req.ApplyEdits && !item.IsOverride {
			if edit, ok := h.Edits.Get(user, it.AttendanceID); ok {
				item.ApprovedHours = edit.ApprovedHours
				item.IsOverride = true
			}
		}
		items = append(items, item)
	}

	result, err := h.processor().Process(r.Context(), items, overtime.Action(req.Action))
	if err != nil {
		writeDomainError(w, "Failed to process overtime", err)
		return
	}

	resp := toBatchResultDTO(result)
	if req.ApplyEdits {
		done := make([]string, 0, len(result.Artifacts)+len(result.Resets))
		for _, a := range result.Artifacts {
			done = append(done, a.SourceAttendanceID)
		}
		for _, rs := range result.Resets {
			done = append(done, rs.AttendanceID)
		}
		applied := h.Edits.MarkApplied(user, done)
		resp.EditsApplied = &applied.Removed
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListArtifacts lists approval artifacts.
// GET /api/overtime/artifacts?employee=&month=YYYY-MM&include_voided=true
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := overtime.ArtifactFilter{
		EmployeeID:    q.Get("employee"),
		IncludeVoided: q.Get("include_voided") == "true",
	}
	if month := q.Get("month"); month != "" {
		period, err := generic.ParseMonth(month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		filter.Period = period
	}

	arts, err := h.Store.ListArtifacts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list artifacts", err)
		return
	}
	dtos := make([]ArtifactDTO, 0, len(arts))
	for _, a := range arts {
		dtos = append(dtos, toArtifactDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// VoidArtifact voids an approval artifact.
// POST /api/overtime/artifacts/{id}/void
func (h *Handler) VoidArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := h.processor().Void(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to void artifact", err)
		return
	}
	writeJSON(w, http.StatusOK, toArtifactDTO(*a))
}

// =============================================================================
// EDIT CACHE ENDPOINTS
// =============================================================================

// ListEdits returns the user's pending edits keyed by attendance id.
// GET /api/overtime/edits
func (h *Handler) ListEdits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Edits.All(userFrom(r)))
}

// SaveEdit stores pending approved hours for one attendance row.
// POST /api/overtime/edits
func (h *Handler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	var req SaveEditRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ApprovedHours.IsNegative() {
		writeError(w, http.StatusBadRequest, "approved_hours must not be negative", nil)
		return
	}

	user := userFrom(r)
	count := h.Edits.Save(user, req.AttendanceID, generic.Round2(req.ApprovedHours))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"edit_count": count,
	})
}

// GetEdit returns one pending edit.
// GET /api/overtime/edits/{attendance}
func (h *Handler) GetEdit(w http.ResponseWriter, r *http.Request) {
	edit, ok := h.Edits.Get(userFrom(r), chi.URLParam(r, "attendance"))
	if !ok {
		writeError(w, http.StatusNotFound, "Edit not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, edit)
}

// DeleteEdit removes one pending edit.
// DELETE /api/overtime/edits/{attendance}
func (h *Handler) DeleteEdit(w http.ResponseWriter, r *http.Request) {
	deleted, remaining := h.Edits.Delete(userFrom(r), chi.URLParam(r, "attendance"))
	if !deleted {
		writeError(w, http.StatusNotFound, "Edit not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"remaining_edits": remaining,
	})
}

// ClearEdits removes all of the user's pending edits.
// DELETE /api/overtime/edits
func (h *Handler) ClearEdits(w http.ResponseWriter, r *http.Request) {
	cleared := h.Edits.Clear(userFrom(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"cleared_count": cleared,
	})
}

// MarkEditsApplied drops edits whose rows were submitted elsewhere.
// POST /api/overtime/edits/applied
func (h *Handler) MarkEditsApplied(w http.ResponseWriter, r *http.Request) {
	var req MarkAppliedRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.Edits.MarkApplied(userFrom(r), req.AttendanceIDs))
}

// GetEditsInfo returns the edit count and remaining TTL.
// GET /api/overtime/edits/info
func (h *Handler) GetEditsInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Edits.Info(userFrom(r)))
}

// =============================================================================
// PAYROLL ENDPOINTS
// =============================================================================

// ConsolidateSlipResponse is a slip after merging duplicate components.
type ConsolidateSlipResponse struct {
	Slip     payroll.Slip                `json:"slip"`
	Result   payroll.ConsolidationResult `json:"result"`
	Messages []string                    `json:"messages"`
	Summary  []string                    `json:"overtime_summary,omitempty"`
}

// ConsolidateSlip merges duplicate components of a salary slip.
// POST /api/payroll/consolidate
func (h *Handler) ConsolidateSlip(w http.ResponseWriter, r *http.Request) {
	var slip payroll.Slip
	if err := json.NewDecoder(r.Body).Decode(&slip); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res := slip.Consolidate()
	resp := ConsolidateSlipResponse{
		Slip:     slip,
		Result:   res,
		Messages: res.Messages(),
	}
	if res.Merged() {
		resp.Summary = payroll.OvertimeComponents(slip)
		h.Logger.Info("salary slip consolidated", "slip", slip.ID, "components", resp.Summary)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOvertimeLines returns an employee's consolidated overtime earnings.
// GET /api/employees/{id}/overtime-lines?month=YYYY-MM
func (h *Handler) GetOvertimeLines(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if _, err := generic.ParseMonth(month); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	lines, err := payroll.NewLineBuilder(h.Store, h.Logger).ForMonth(r.Context(), chi.URLParam(r, "id"), month)
	if err != nil {
		writeDomainError(w, "Failed to build overtime lines", err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns all employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(emps))
	for _, e := range emps {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), req.profile()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployeeProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// GetEmployeeAttendance lists an employee's attendance for a month.
// GET /api/employees/{id}/attendance?month=YYYY-MM
func (h *Handler) GetEmployeeAttendance(w http.ResponseWriter, r *http.Request) {
	period := generic.MonthPeriod(generic.DateOf(time.Now()))
	if month := r.URL.Query().Get("month"); month != "" {
		p, err := generic.ParseMonth(month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		period = p
	}

	recs, err := h.Store.ListAttendance(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attendance", err)
		return
	}
	dtos := make([]AttendanceDTO, 0, len(recs))
	for _, a := range recs {
		dtos = append(dtos, toAttendanceDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SHIFT ENDPOINTS
// =============================================================================

// ListShifts returns all shift types.
// GET /api/shifts
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Store.ListShiftTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}
	dtos := make([]factory.ShiftJSON, 0, len(shifts))
	for _, st := range shifts {
		dtos = append(dtos, h.ShiftFactory.ToJSON(st))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShift creates or updates a shift type from its JSON definition.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req factory.ShiftJSON
	if !decodeAndValidate(w, r, &req) {
		return
	}
	st, err := h.ShiftFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	if err := h.Store.SaveShiftType(r.Context(), *st); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.ShiftFactory.ToJSON(*st))
}

// GetShift returns one shift type.
// GET /api/shifts/{id}
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.GetShiftType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get shift", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "Shift not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.ShiftFactory.ToJSON(*st))
}

// CreateShiftAssignment binds an employee to a shift from a start date.
// POST /api/shifts/assignments
func (h *Handler) CreateShiftAssignment(w http.ResponseWriter, r *http.Request) {
	var req ShiftAssignmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	start, _ := generic.ParseDate(req.StartDate)
	a := overtime.ShiftAssignment{
		ID:         req.ID,
		EmployeeID: req.EmployeeID,
		ShiftID:    req.ShiftID,
		StartDate:  start,
		Confirmed:  req.Confirmed == nil || *req.Confirmed,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := h.Store.SaveShiftAssignment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift assignment", err)
		return
	}
	req.ID = a.ID
	req.Confirmed = &a.Confirmed
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// PAY RATE ENDPOINTS
// =============================================================================

// CreatePayRate records a salary assignment, deriving the hourly rate when
// it is not given.
// POST /api/pay-rates
func (h *Handler) CreatePayRate(w http.ResponseWriter, r *http.Request) {
	var req PayRateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.BaseSalary.IsNegative() || (req.HourlyRate != nil && req.HourlyRate.IsNegative()) {
		writeError(w, http.StatusBadRequest, "base and hourly_rate must not be negative", nil)
		return
	}

	from, _ := generic.ParseDate(req.EffectiveFrom)
	a := overtime.PayRateAssignment{
		ID:            req.ID,
		EmployeeID:    req.EmployeeID,
		EffectiveFrom: from,
		BaseSalary:    req.BaseSalary,
		HourlyRate:    req.HourlyRate,
		Confirmed:     req.Confirmed == nil || *req.Confirmed,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a = a.WithDerivedRate(h.Settings().StandardHoursPerMonth)

	if err := h.Store.SavePayRate(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pay rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayRateDTO(a))
}

// GetPayRate returns the pay rate in effect on a date (default today).
// GET /api/employees/{id}/pay-rate?date=YYYY-MM-DD
func (h *Handler) GetPayRate(w http.ResponseWriter, r *http.Request) {
	asOf := generic.DateOf(time.Now())
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		asOf = d
	}

	a, err := h.Store.LatestPayRate(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pay rate", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "No pay rate in effect", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPayRateDTO(a.WithDerivedRate(h.Settings().StandardHoursPerMonth)))
}

func toPayRateDTO(a overtime.PayRateAssignment) PayRateDTO {
	dto := PayRateDTO{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		EffectiveFrom: a.EffectiveFrom.String(),
		BaseSalary:    a.BaseSalary,
		Confirmed:     a.Confirmed,
	}
	if a.HourlyRate != nil {
		dto.HourlyRate = *a.HourlyRate
	}
	return dto
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays visible to a company.
// GET /api/holidays?company_id=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday. An empty company_id makes it global.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	date, _ := generic.ParseDate(req.Date)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	hol := generic.Holiday{
		ID:        req.ID,
		CompanyID: req.CompanyID,
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// CreateAttendance creates or updates an attendance record.
// POST /api/attendance
func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid attendance", err)
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := h.Store.SaveAttendance(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save attendance", err)
		return
	}
	saved, err := h.Store.GetAttendance(r.Context(), rec.ID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(*saved))
}

// GetAttendance returns one attendance record.
// GET /api/attendance/{id}
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	att, err := h.Store.GetAttendance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get attendance", err)
		return
	}
	if att == nil {
		writeError(w, http.StatusNotFound, "Attendance not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(*att))
}

// CreateCheckin records a clock event.
// POST /api/checkins
func (h *Handler) CreateCheckin(w http.ResponseWriter, r *http.Request) {
	var req CheckinDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	at, err := generic.ParseDateTime(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time", err)
		return
	}
	c := overtime.Checkin{
		ID:           req.ID,
		EmployeeID:   req.EmployeeID,
		AttendanceID: req.AttendanceID,
		LogType:      overtime.LogType(req.LogType),
		Time:         at,
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := h.Store.SaveCheckin(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save checkin", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCheckinDTO(c))
}

// GetCheckin returns one clock event, including its reset audit fields.
// GET /api/checkins/{id}
func (h *Handler) GetCheckin(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCheckin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get checkin", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Checkin not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toCheckinDTO(*c))
}

// =============================================================================
// SALARY COMPONENT ENDPOINTS
// =============================================================================

// ListComponents returns all salary components.
// GET /api/salary-components
func (h *Handler) ListComponents(w http.ResponseWriter, r *http.Request) {
	comps, err := h.Store.ListComponents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list salary components", err)
		return
	}
	dtos := make([]ComponentDTO, 0, len(comps))
	for _, c := range comps {
		dtos = append(dtos, ComponentDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateComponent creates or updates a salary component.
// POST /api/salary-components
func (h *Handler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req ComponentDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Store.SaveComponent(r.Context(), overtime.SalaryComponent(req)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save salary component", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

// GetSettings returns the HR settings in effect.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSettingsDTO(h.Settings()))
}

// UpdateSettings validates, persists and applies new HR settings.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	next := req.apply(h.Settings())
	if err := next.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	next = next.WithDefaults()
	if err := h.Store.SaveSettings(r.Context(), next); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	h.SetSettings(next)

	h.Logger.Info("hr settings updated",
		"enabled", next.Enabled,
		"weekday_multiplier", next.WeekdayMultiplier.String(),
		"holiday_multiplier", next.HolidayMultiplier.String(),
		"sunday_multiplier", next.SundayMultiplier.String(),
	)
	writeJSON(w, http.StatusOK, toSettingsDTO(next))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error class.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, generic.ErrDuplicateArtifact):
		status = http.StatusConflict
	case errors.Is(err, overtime.ErrAttendanceNotFound),
		errors.Is(err, overtime.ErrArtifactNotFound),
		generic.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, overtime.ErrEmptyBatch),
		generic.IsClientError(err),
		overtime.IsBusinessRule(err):
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}

// decodeAndValidate decodes the JSON body into dst and runs its validate
// tags. It writes the 400 response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if fields := validationErrors(dst); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
		return false
	}
	return true
}

func userFrom(r *http.Request) string {
	if u := r.Header.Get(UserHeader); u != "" {
		return u
	}
	return defaultUser
}
