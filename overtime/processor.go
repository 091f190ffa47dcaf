/*
processor.go - Batch approval and rejection of overtime claims

PURPOSE:
  Takes a batch of attendance ids chosen by an operator (optionally with
  hand-edited hours) and approves or rejects each one independently.

BATCH SEMANTICS:
  - Items are processed sequentially. One item's failure never aborts the
    batch; it is recorded as "<attendance>: <message>" in Errors.
  - Business-rule violations (see errors.go) are logged at Info.
  - Anything else, panics included, is logged at Error.
  - An empty batch is refused outright.

APPROVE:
  eligibility -> compute -> final hours (override wins when positive)
  -> hours > 0 -> amount > 0 -> no existing artifact -> component configured
  and existing -> create + finalize artifact -> align reset if overridden

  The artifact is written last so a failed item leaves nothing behind; a
  draft whose finalize fails is voided again. The
  existence check only gives a friendly message; the store's unique
  constraint is what actually prevents duplicates under concurrency.

REJECT:
  resolve shift -> standard reset, or align reset when hours were overridden

SEE ALSO:
  - calculator.go: Computation
  - reset.go: Clock-out reset
*/
package overtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// Action is the operator decision applied to a batch.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// BatchItem is one attendance record selected for processing.
type BatchItem struct {
	AttendanceID  string
	ApprovedHours decimal.Decimal
	IsOverride    bool
}

// Override returns the operator-approved hours when they supersede the
// computed ones.
func (i BatchItem) Override() (decimal.Decimal, bool) {
	if i.IsOverride && i.ApprovedHours.IsPositive() {
		return generic.Round2(i.ApprovedHours), true
	}
	return decimal.Zero, false
}

// BatchResult summarizes a processed batch.
type BatchResult struct {
	Processed int
	Approved  int
	Rejected  int
	Errors    []string

	Artifacts []ApprovalArtifact
	Resets    []ResetResult
}

// Processor approves and rejects overtime claims.
type Processor struct {
	Store      Store
	Calculator *Calculator
	Resets     *ResetEngine
	Settings   Settings
	Logger     *slog.Logger

	Now   func() time.Time
	NewID func() string
}

// NewProcessor wires a processor and its collaborators over the host store.
func NewProcessor(store Store, settings Settings, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	settings = settings.WithDefaults()
	resets := NewResetEngine(store, settings)
	resets.Logger = logger
	return &Processor{
		Store:      store,
		Calculator: NewCalculator(store, settings),
		Resets:     resets,
		Settings:   settings,
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      uuid.NewString,
	}
}

// =============================================================================
// BATCH
// =============================================================================

// Process applies action to every item. Only an empty batch is an error;
// per-item failures are reported in the result.
func (p *Processor) Process(ctx context.Context, items []BatchItem, action Action) (BatchResult, error) {
	result := BatchResult{Errors: []string{}}
	if len(items) == 0 {
		return result, ErrEmptyBatch
	}

	for _, item := range items {
		if err := p.processItem(ctx, item, action, &result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", item.AttendanceID, err.Error()))
			p.logItemFailure(item, action, err)
		}
	}

	p.Logger.Info("overtime batch processed",
		"action", action,
		"items", len(items),
		"processed", result.Processed,
		"approved", result.Approved,
		"rejected", result.Rejected,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (p *Processor) processItem(ctx context.Context, item BatchItem, action Action, result *BatchResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	att, err := p.loadCheckedOut(ctx, item.AttendanceID)
	if err != nil {
		return err
	}

	switch action {
	case ActionApprove:
		artifact, err := p.approve(ctx, *att, item)
		if err != nil {
			return err
		}
		result.Artifacts = append(result.Artifacts, *artifact)
		result.Approved++
	case ActionReject:
		reset, err := p.reject(ctx, *att, item)
		if err != nil {
			return err
		}
		result.Resets = append(result.Resets, reset)
		result.Rejected++
	default:
		return fmt.Errorf("%w '%s'", ErrInvalidAction, action)
	}
	result.Processed++
	return nil
}

func (p *Processor) logItemFailure(item BatchItem, action Action, err error) {
	if IsBusinessRule(err) {
		p.Logger.Info("overtime item refused", "attendance", item.AttendanceID, "action", action, "reason", err.Error())
		return
	}
	p.Logger.Error("overtime item failed", "attendance", item.AttendanceID, "action", action, "error", err)
}

// =============================================================================
// APPROVE
// =============================================================================

// Approve approves a single item outside a batch.
func (p *Processor) Approve(ctx context.Context, item BatchItem) (*ApprovalArtifact, error) {
	att, err := p.loadCheckedOut(ctx, item.AttendanceID)
	if err != nil {
		return nil, err
	}
	return p.approve(ctx, *att, item)
}

func (p *Processor) approve(ctx context.Context, att AttendanceRecord, item BatchItem) (*ApprovalArtifact, error) {
	eligible, err := p.Calculator.isEligible(ctx, att.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, att.EmployeeID)
	}

	calc, err := p.Calculator.Compute(ctx, att)
	if err != nil {
		return nil, err
	}

	// Pricing stays empty when nothing was computed, so an override on such a
	// day prices to zero and is refused.
	hours := calc.OvertimeHours
	pricing := Pricing{Type: calc.OvertimeType, HourlyRate: calc.HourlyRate, Multiplier: calc.Multiplier}
	override, overridden := item.Override()
	if overridden {
		hours = override
		p.Logger.Info("using operator-approved hours",
			"attendance", att.ID, "approved", override.StringFixed(2), "computed", calc.OvertimeHours.StringFixed(2))
	}

	if !hours.IsPositive() {
		return nil, fmt.Errorf("%w (allowance: %d minutes)", ErrNoOvertimeHours, calc.AllowanceMinutes)
	}
	amount := pricing.Amount(hours)
	if !amount.IsPositive() {
		return nil, ErrNoOvertimeAmount
	}

	existing, err := p.Store.FindOvertimeArtifact(ctx, att.EmployeeID, att.Date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateArtifactError{EmployeeID: att.EmployeeID, Date: att.Date, ExistingID: existing.ID}
	}

	component, err := p.component(ctx, pricing.Type)
	if err != nil {
		return nil, err
	}

	artifact := ApprovalArtifact{
		ID:                 p.NewID(),
		EmployeeID:         att.EmployeeID,
		CompanyID:          att.CompanyID,
		ComponentRef:       component,
		Amount:             amount,
		EffectiveDate:      att.Date,
		OvertimeHours:      hours,
		OvertimeType:       pricing.Type,
		SourceAttendanceID: att.ID,
		IsOvertime:         true,
		Status:             ArtifactDraft,
		CreatedAt:          p.Now(),
	}
	if err := p.Store.CreateArtifact(ctx, artifact); err != nil {
		if errors.Is(err, generic.ErrDuplicateArtifact) {
			return nil, &DuplicateArtifactError{EmployeeID: att.EmployeeID, Date: att.Date}
		}
		return nil, fmt.Errorf("create overtime artifact: %w", err)
	}
	if err := p.Store.FinalizeArtifact(ctx, artifact.ID); err != nil {
		// A leftover draft would hold the day's slot.
		if voidErr := p.Store.VoidArtifact(ctx, artifact.ID); voidErr != nil {
			p.Logger.Error("could not void draft artifact", "artifact", artifact.ID, "error", voidErr)
		}
		return nil, fmt.Errorf("finalize overtime artifact %s: %w", artifact.ID, err)
	}
	artifact.Status = ArtifactSubmitted

	p.Logger.Info("overtime approved",
		"artifact", artifact.ID,
		"employee", artifact.EmployeeID,
		"date", artifact.EffectiveDate.String(),
		"hours", hours.StringFixed(2),
		"amount", amount.StringFixed(2),
		"type", artifact.OvertimeType,
		"overridden", overridden,
	)

	if overridden {
		p.alignAfterApproval(ctx, att, override)
	}
	return &artifact, nil
}

// alignAfterApproval rewrites the clock-out to match the approved hours. The
// artifact already exists, so a missing shift only skips the reset.
func (p *Processor) alignAfterApproval(ctx context.Context, att AttendanceRecord, hours decimal.Decimal) {
	policy, err := p.Calculator.Shifts.Resolve(ctx, att.EmployeeID, att.Date)
	if err != nil {
		p.Logger.Warn("skipping clock-out alignment", "attendance", att.ID, "error", err)
		return
	}
	if _, err := p.Resets.Reset(ctx, att, *policy, hours); err != nil {
		p.Logger.Error("clock-out alignment failed", "attendance", att.ID, "error", err)
	}
}

func (p *Processor) component(ctx context.Context, t OvertimeType) (string, error) {
	name := p.Settings.ComponentFor(t)
	if name == "" {
		return "", &ComponentError{Type: t, Err: ErrComponentNotConfigured}
	}
	ok, err := p.Store.ComponentExists(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ComponentError{Type: t, Component: name, Err: ErrComponentNotFound}
	}
	return name, nil
}

// =============================================================================
// REJECT
// =============================================================================

// Reject rejects a single item outside a batch.
func (p *Processor) Reject(ctx context.Context, item BatchItem) (ResetResult, error) {
	att, err := p.loadCheckedOut(ctx, item.AttendanceID)
	if err != nil {
		return ResetResult{}, err
	}
	return p.reject(ctx, *att, item)
}

func (p *Processor) reject(ctx context.Context, att AttendanceRecord, item BatchItem) (ResetResult, error) {
	policy, err := p.Calculator.Shifts.Resolve(ctx, att.EmployeeID, att.Date)
	if err != nil {
		return ResetResult{}, err
	}
	hours, _ := item.Override()
	return p.Resets.Reset(ctx, att, *policy, hours)
}

// =============================================================================
// VOID
// =============================================================================

// Void marks an artifact voided, which frees its (employee, date) for a new
// approval. Voiding an already voided artifact is a no-op.
func (p *Processor) Void(ctx context.Context, artifactID string) (*ApprovalArtifact, error) {
	a, err := p.Store.GetArtifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrArtifactNotFound
	}
	if a.IsVoided() {
		return a, nil
	}
	if err := p.Store.VoidArtifact(ctx, artifactID); err != nil {
		return nil, fmt.Errorf("void artifact %s: %w", artifactID, err)
	}
	a.Status = ArtifactVoided
	p.Logger.Info("overtime artifact voided", "artifact", a.ID, "employee", a.EmployeeID, "date", a.EffectiveDate.String())
	return a, nil
}

func (p *Processor) loadCheckedOut(ctx context.Context, attendanceID string) (*AttendanceRecord, error) {
	att, err := p.Store.GetAttendance(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrAttendanceNotFound
	}
	if !att.HasCheckout() {
		return nil, ErrNoCheckout
	}
	return att, nil
}
