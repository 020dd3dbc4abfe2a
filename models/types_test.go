// ABOUTME: Tests for CRM data models
// ABOUTME: Validates deal probability defaults, contact activity dates, and suppression rules
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDealWinProbability(t *testing.T) {
	deal := Deal{Title: "No probability"}
	if got := deal.WinProbability(); got != DefaultProbability {
		t.Errorf("expected default probability %d, got %d", DefaultProbability, got)
	}

	high := 140
	deal.Probability = &high
	if got := deal.WinProbability(); got != 100 {
		t.Errorf("expected probability clamped to 100, got %d", got)
	}

	low := -5
	deal.Probability = &low
	if got := deal.WinProbability(); got != 0 {
		t.Errorf("expected probability clamped to 0, got %d", got)
	}
}

func TestDealStageFlags(t *testing.T) {
	won := Deal{Stage: StageClosedWon}
	if !won.IsWon() || won.IsLost() || won.IsOpen() {
		t.Error("closed_won deal should be won and not open")
	}

	lost := Deal{Stage: StageClosedLost}
	if !lost.IsLost() || lost.IsOpen() {
		t.Error("closed_lost deal should be lost and not open")
	}

	open := Deal{Stage: StageNegotiation}
	if !open.IsOpen() {
		t.Error("negotiation deal should be open")
	}
}

func TestContactLastActivity(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 2, 0)

	c := Contact{ID: uuid.New(), Name: "Sam"}
	if c.LastActivity() != nil {
		t.Error("expected nil last activity with no dates")
	}

	c.LastContactedAt = &older
	if got := c.LastActivity(); got == nil || !got.Equal(older) {
		t.Errorf("expected last contacted date, got %v", got)
	}

	c.LastPurchaseDate = &newer
	if got := c.LastActivity(); got == nil || !got.Equal(newer) {
		t.Errorf("expected later purchase date, got %v", got)
	}
}

func TestInteractionRecordSuppresses(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	cases := []struct {
		name   string
		record InteractionRecord
		want   bool
	}{
		{"accepted", InteractionRecord{Action: InteractionAccepted}, true},
		{"dismissed", InteractionRecord{Action: InteractionDismissed}, true},
		{"snoozed active", InteractionRecord{Action: InteractionSnoozed, SnoozedUntil: &later}, true},
		{"snoozed expired", InteractionRecord{Action: InteractionSnoozed, SnoozedUntil: &earlier}, false},
		{"snoozed until now", InteractionRecord{Action: InteractionSnoozed, SnoozedUntil: &now}, false},
		{"snoozed without expiry", InteractionRecord{Action: InteractionSnoozed}, false},
	}

	for _, tc := range cases {
		if got := tc.record.Suppresses(now); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestActivityPatchApply(t *testing.T) {
	due := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a := Activity{ID: uuid.New(), Type: ActivityTask, Title: "Send contract", DueAt: due}

	moved := due.AddDate(0, 0, 1)
	done := true
	patched := ActivityPatch{DueAt: &moved, Completed: &done}.Apply(a)

	if !patched.DueAt.Equal(moved) || !patched.Completed {
		t.Errorf("patch not applied: %+v", patched)
	}
	if a.Completed {
		t.Error("Apply must not mutate the original activity")
	}
	if patched.Title != a.Title {
		t.Error("nil patch fields must be left alone")
	}
}

func TestActivityTypeValid(t *testing.T) {
	for _, typ := range ActivityTypes {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if ActivityType("LUNCH").Valid() {
		t.Error("unknown type should be invalid")
	}
	if !ActivityCall.IsMeeting() || !ActivityMeeting.IsMeeting() || ActivityTask.IsMeeting() {
		t.Error("IsMeeting classification is wrong")
	}
}
