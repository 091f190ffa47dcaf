/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario sets up the expected state and that the
	scenario endpoints reset the database and the edit cache.
*/
package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/warp/overtime-engine/generic"
)

func TestScenarioWeek(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC), "2025-03-03"},
		{time.Date(2025, time.September, 30, 10, 0, 0, 0, time.UTC), "2025-09-01"},
		{time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), "2025-06-02"},
	}
	for _, tt := range tests {
		if got := scenarioWeek(tt.now).String(); got != tt.want {
			t.Errorf("scenarioWeek(%s) = %s, want %s", tt.now.Format(generic.DateLayout), got, tt.want)
		}
	}
}

func TestScenario_WeekdayOvertime(t *testing.T) {
	// GIVEN: Weekday overtime scenario
	// WHEN: Loading the scenario
	// THEN: Employee, shift, pay rate and five attendance days should exist

	s := newTestServer(t)
	ctx := context.Background()

	if err := s.h.loadWeekdayOvertimeScenario(ctx, testWeek); err != nil {
		t.Fatalf("Failed to load weekday-overtime scenario: %v", err)
	}

	emp, err := s.h.Store.GetEmployeeProfile(ctx, "EMP-001")
	if err != nil || emp == nil {
		t.Fatalf("Expected employee EMP-001, got %v (err %v)", emp, err)
	}
	if !emp.Eligible {
		t.Error("Expected EMP-001 to be overtime eligible")
	}

	days, err := s.h.Store.ListAttendance(ctx, "EMP-001", generic.MonthPeriod(testWeek))
	if err != nil {
		t.Fatalf("Failed to list attendance: %v", err)
	}
	if len(days) != 5 {
		t.Errorf("Expected 5 attendance days, got %d", len(days))
	}

	rate, err := s.h.Store.LatestPayRate(ctx, "EMP-001", testWeek)
	if err != nil || rate == nil {
		t.Fatalf("Expected a pay rate, got %v (err %v)", rate, err)
	}
	if rate.HourlyRate == nil || rate.HourlyRate.String() != "200" {
		t.Errorf("Expected hourly rate 200, got %v", rate.HourlyRate)
	}
}

func TestScenario_BatchReviewPreApproves(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if err := s.h.loadBatchReviewScenario(ctx, testWeek); err != nil {
		t.Fatalf("Failed to load batch-review scenario: %v", err)
	}

	artifact, err := s.h.Store.FindOvertimeArtifact(ctx, "EMP-010", testWeek)
	if err != nil {
		t.Fatalf("Failed to find artifact: %v", err)
	}
	if artifact == nil {
		t.Fatal("Expected Chen's Monday to be approved")
	}
	if artifact.Amount.String() != "360" {
		t.Errorf("Expected amount 360, got %s", artifact.Amount)
	}
}

func TestLoadScenario_Endpoint(t *testing.T) {
	s := newTestServer(t)

	// Pending edits are dropped with the data they refer to
	s.h.Edits.Save(defaultUser, "ATT-OLD", dec("1"))

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "holiday-sunday"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := len(s.h.Edits.All(defaultUser)); n != 0 {
		t.Errorf("Expected edit cache to be cleared, got %d edits", n)
	}

	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil, ""))
	if current.ID != "holiday-sunday" {
		t.Errorf("Expected current scenario holiday-sunday, got %q", current.ID)
	}

	if rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", rec.Code)
	}

	if rec := s.do(t, http.MethodPost, "/api/scenarios/reset", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on reset, got %d", rec.Code)
	}
	employees := decodeBody[[]EmployeeDTO](t, s.do(t, http.MethodGet, "/api/employees", nil, ""))
	if len(employees) != 0 {
		t.Errorf("Expected no employees after reset, got %d", len(employees))
	}
}
