/*
reset.go - Clock-out reset when overtime is denied or adjusted

PURPOSE:
  When an operator rejects overtime, or approves a different number of hours
  than the attendance implies, the recorded clock-out is rewritten so the
  record no longer shows unapproved overtime. The new clock-out always
  covers at least a full standard workday.

MODES:
  Standard (no approved hours):
    out = in + 8h + U(0, allowance) min + variance(employee, date) s
  Align (approved hours H > 0):
    out = in + 8h + H + U(0, allowance) min + U(-jitter, +jitter) min
    clamped so that out >= in + 8h + H

VARIANCE:
  variance = base + md5(employee ‖ date) mod span  (3 or 4 seconds by default)
  It is a pure function of (employee, date): repeated standard resets of the
  same record land on the same second offset even though the allowance draw
  is not stored. The allowance and jitter draws come from an injected
  RandomSource so tests can fix them.

SIDE EFFECTS:
  One transaction writes both the attendance aggregate (clock-out, worked
  hours) and the newest OUT check-in event (time, skip-auto-attendance flag,
  original time, reason). The OUT event is matched by attendance link first,
  then by employee and calendar day.
*/
package overtime

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// RandomSource draws uniform integers in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ResetMode selects how the new clock-out is computed.
type ResetMode string

const (
	ResetStandard ResetMode = "standard"
	ResetAlign    ResetMode = "align"
)

// ResetResult describes an applied reset.
type ResetResult struct {
	AttendanceID string
	Mode         ResetMode
	ClockOut     time.Time
	WorkedHours  decimal.Decimal
	CheckinID    string
	Reason       string
}

// ResetEngine computes and applies policy-compliant clock-outs.
type ResetEngine struct {
	Checkins CheckinStore
	Settings Settings
	Rand     RandomSource
	Logger   *slog.Logger
}

// NewResetEngine creates an engine drawing from the global random source.
func NewResetEngine(checkins CheckinStore, settings Settings) *ResetEngine {
	return &ResetEngine{
		Checkins: checkins,
		Settings: settings.WithDefaults(),
		Rand:     globalRand{},
		Logger:   slog.Default(),
	}
}

// VarianceSeconds is base + md5(employee ‖ date) mod span.
func VarianceSeconds(employeeID string, date generic.TimePoint, base, span int) int {
	if span <= 0 {
		return base
	}
	sum := md5.Sum([]byte(employeeID + date.String()))
	return base + int(binary.BigEndian.Uint64(sum[8:])%uint64(span))
}

// StandardClockOut computes the clock-out for a rejected claim.
func (e *ResetEngine) StandardClockOut(att AttendanceRecord, allowanceMinutes int) time.Time {
	variance := time.Duration(VarianceSeconds(att.EmployeeID, att.Date,
		e.Settings.VarianceBaseSeconds, e.Settings.VarianceSpanSeconds)) * time.Second
	floor := att.ClockIn.Add(workday)

	out := floor.Add(e.drawMinutes(0, allowanceMinutes)).Add(variance)
	if out.Before(floor) {
		out = floor.Add(variance)
	}
	return out
}

// AlignedClockOut computes the clock-out matching approvedHours of overtime.
func (e *ResetEngine) AlignedClockOut(att AttendanceRecord, allowanceMinutes int, approvedHours decimal.Decimal) time.Time {
	jitter := e.Settings.AlignJitterMinutes
	floor := att.ClockIn.Add(workday).Add(generic.DurationFromHours(approvedHours))

	out := floor.Add(e.drawMinutes(0, allowanceMinutes)).Add(e.drawMinutes(-jitter, jitter))
	if out.Before(floor) {
		out = floor
	}
	return out
}

// Reset computes the new clock-out and writes it. A positive approvedHours
// selects align mode, anything else the standard reset.
func (e *ResetEngine) Reset(ctx context.Context, att AttendanceRecord, policy ShiftPolicy, approvedHours decimal.Decimal) (ResetResult, error) {
	res := ResetResult{AttendanceID: att.ID}
	if approvedHours.IsPositive() {
		res.Mode = ResetAlign
		res.ClockOut = e.AlignedClockOut(att, policy.AllowanceMinutes, approvedHours)
		res.Reason = fmt.Sprintf("approved %s hrs", approvedHours.String())
	} else {
		res.Mode = ResetStandard
		res.ClockOut = e.StandardClockOut(att, policy.AllowanceMinutes)
		res.Reason = "standard (no OT)"
	}
	res.WorkedHours = generic.Round2(generic.HoursBetween(att.ClockIn, res.ClockOut))

	checkin, err := e.findOutCheckin(ctx, att)
	if err != nil {
		return res, err
	}
	if checkin != nil {
		res.CheckinID = checkin.ID
	}

	if err := e.Checkins.ApplyClockOutReset(ctx, ResetWrite{
		AttendanceID: att.ID,
		ClockOut:     res.ClockOut,
		WorkedHours:  res.WorkedHours,
		CheckinID:    res.CheckinID,
		Reason:       res.Reason,
	}); err != nil {
		return res, fmt.Errorf("apply clock-out reset: %w", err)
	}

	e.logger().Info("clock-out reset",
		"attendance", att.ID,
		"employee", att.EmployeeID,
		"mode", res.Mode,
		"clock_out", res.ClockOut.Format(generic.DateTimeLayout),
		"worked_hours", res.WorkedHours.StringFixed(2),
		"checkin", res.CheckinID,
	)
	return res, nil
}

func (e *ResetEngine) findOutCheckin(ctx context.Context, att AttendanceRecord) (*Checkin, error) {
	c, err := e.Checkins.LatestOutCheckin(ctx, att.ID)
	if err != nil {
		return nil, fmt.Errorf("find linked OUT check-in: %w", err)
	}
	if c != nil {
		return c, nil
	}
	c, err = e.Checkins.LatestOutCheckinOnDay(ctx, att.EmployeeID, att.Date)
	if err != nil {
		return nil, fmt.Errorf("find same-day OUT check-in: %w", err)
	}
	return c, nil
}

// drawMinutes draws a whole number of minutes uniformly from [lo, hi].
func (e *ResetEngine) drawMinutes(lo, hi int) time.Duration {
	if hi <= lo {
		return time.Duration(lo) * time.Minute
	}
	src := e.Rand
	if src == nil {
		src = globalRand{}
	}
	return time.Duration(lo+src.IntN(hi-lo+1)) * time.Minute
}

func (e *ResetEngine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

var workday = generic.DurationFromHours(StandardWorkdayHours)
