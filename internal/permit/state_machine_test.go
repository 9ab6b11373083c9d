package permit

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransitionAndApply(t *testing.T) {
	if !CanTransition(StatusDraft, StatusSubmitted) {
		t.Fatalf("expected draft -> submitted allowed")
	}
	if CanTransition(StatusDraft, StatusApproved) {
		t.Fatalf("expected draft -> approved not allowed")
	}
	if CanTransition(StatusExpired, StatusDraft) {
		t.Fatalf("expected expired to be terminal")
	}
	if CanTransition(StatusCancelled, StatusSubmitted) {
		t.Fatalf("expected cancelled to be terminal")
	}
	if CanTransition(StatusDraft, StatusDraft) {
		t.Fatalf("expected self transition not allowed")
	}
	if !CanTransition(StatusRejected, StatusDraft) {
		t.Fatalf("expected rejected -> draft allowed")
	}

	p := &Permit{Status: StatusDraft}
	now := time.Now()
	if err := ApplyTransition(p, StatusSubmitted, "", "inspector-1", now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if p.Status != StatusSubmitted {
		t.Fatalf("expected status submitted, got %s", p.Status)
	}
	if p.UpdatedBy != "inspector-1" {
		t.Fatalf("expected updated_by inspector-1, got %s", p.UpdatedBy)
	}

	if err := ApplyTransition(p, StatusApproved, "", "inspector-1", now); err == nil {
		t.Fatalf("expected invalid shortcut transition to fail")
	}
}

func TestApplyTransitionLeavesPermitUntouchedOnError(t *testing.T) {
	p := &Permit{Status: StatusDraft, Notes: "original"}
	err := ApplyTransition(p, StatusApproved, "new notes", "someone", time.Now())
	if err == nil {
		t.Fatalf("expected error")
	}
	var terr *InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidTransitionError, got %T", err)
	}
	if terr.From != StatusDraft || terr.To != StatusApproved {
		t.Fatalf("unexpected pair: %s -> %s", terr.From, terr.To)
	}
	if p.Status != StatusDraft || p.Notes != "original" || p.UpdatedBy != "" {
		t.Fatalf("permit was modified on illegal transition: %+v", p)
	}
}

func TestApprovalDateStampedOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &Permit{Status: StatusUnderReview}
	if err := ApplyTransition(p, StatusApproved, "", "reviewer", now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if p.ApprovalDate == nil || !p.ApprovalDate.Equal(now) {
		t.Fatalf("expected approval date stamped with %v, got %v", now, p.ApprovalDate)
	}

	first := *p.ApprovalDate
	later := now.Add(48 * time.Hour)
	if err := ApplyTransition(p, StatusExpired, "", "reviewer", later); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	// 再次手工走一遍 approved 分支的打点逻辑：已有日期不被覆盖
	p2 := &Permit{Status: StatusUnderReview, ApprovalDate: &first}
	if err := ApplyTransition(p2, StatusApproved, "", "reviewer", later); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if !p2.ApprovalDate.Equal(first) {
		t.Fatalf("approval date was overwritten: %v", p2.ApprovalDate)
	}
}

func TestApplyTransitionNotes(t *testing.T) {
	p := &Permit{Status: StatusSubmitted, Notes: "keep me"}
	if err := ApplyTransition(p, StatusUnderReview, "", "r", time.Now()); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if p.Notes != "keep me" {
		t.Fatalf("empty notes should not replace existing notes, got %q", p.Notes)
	}
	if err := ApplyTransition(p, StatusRejected, "missing documents", "r", time.Now()); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if p.Notes != "missing documents" {
		t.Fatalf("expected notes replaced, got %q", p.Notes)
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("under_review"); err != nil || s != StatusUnderReview {
		t.Fatalf("ParseStatus(under_review) = %v, %v", s, err)
	}
	if _, err := ParseStatus("bogus"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
