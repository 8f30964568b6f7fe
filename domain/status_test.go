package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTransitionModeNext(t *testing.T) {
	cases := []struct {
		name    string
		mode    TransitionMode
		op      Operation
		from    BatchStatus
		want    BatchStatus
		wantErr bool
	}{
		{"legacy test on pending", TransitionLegacy, OpRecordTest, StatusPendingTesting, StatusTestingComplete, false},
		{"legacy step from pending", TransitionLegacy, OpRecordStep, StatusPendingTesting, StatusProcessing, false},
		{"legacy test overwrites processing", TransitionLegacy, OpRecordTest, StatusProcessing, StatusTestingComplete, false},
		{"legacy test overwrites finalized", TransitionLegacy, OpRecordTest, StatusFinalized, StatusTestingComplete, false},
		{"legacy test on rejected", TransitionLegacy, OpRecordTest, StatusRejected, StatusRejected, true},
		{"legacy step on rejected", TransitionLegacy, OpRecordStep, StatusRejected, StatusRejected, true},
		{"legacy finalize on rejected", TransitionLegacy, OpFinalize, StatusRejected, StatusRejected, true},
		{"forward test keeps processing", TransitionForward, OpRecordTest, StatusProcessing, StatusProcessing, false},
		{"forward step advances", TransitionForward, OpRecordStep, StatusTestingComplete, StatusProcessing, false},
		{"forward test keeps finalized", TransitionForward, OpRecordTest, StatusFinalized, StatusFinalized, false},
		{"forward step on rejected", TransitionForward, OpRecordStep, StatusRejected, StatusRejected, true},
		{"forward test on rejected", TransitionForward, OpRecordTest, StatusRejected, StatusRejected, true},
		{"forward finalize on rejected", TransitionForward, OpFinalize, StatusRejected, StatusRejected, true},
		{"reject pending", TransitionLegacy, OpReject, StatusPendingTesting, StatusRejected, false},
		{"reject finalized", TransitionLegacy, OpReject, StatusFinalized, StatusFinalized, true},
		{"reject rejected", TransitionForward, OpReject, StatusRejected, StatusRejected, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.mode.Next(tc.op, tc.from)
			if tc.wantErr {
				if !errors.Is(err, ErrPrerequisiteNotMet) {
					t.Fatalf("expected ErrPrerequisiteNotMet, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNextUnknownOperation(t *testing.T) {
	if _, err := TransitionLegacy.Next(OpCreate, StatusPendingTesting); err == nil {
		t.Fatal("create is not a transition")
	}
}

func TestParseTransitionMode(t *testing.T) {
	for input, want := range map[string]TransitionMode{"": TransitionLegacy, "LEGACY": TransitionLegacy, " forward ": TransitionForward} {
		got, err := ParseTransitionMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseTransitionMode(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseTransitionMode("strict"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFinalizeRequiresQualityTest(t *testing.T) {
	b := &Batch{ID: "B001-ASH", Status: StatusProcessing}
	b.Normalize()

	changed, err := b.Finalize(time.Now(), "/verify?batchId=B001-ASH", TransitionLegacy)
	if !errors.Is(err, ErrPrerequisiteNotMet) || changed {
		t.Fatalf("expected prerequisite error, got changed=%v err=%v", changed, err)
	}
	if b.Status != StatusProcessing || b.FinalizedTimestamp != nil || b.QRCodeURL != "" {
		t.Fatalf("failed finalize mutated batch: %+v", b)
	}
}

func TestFinalizeTwice(t *testing.T) {
	first := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	second := first.Add(time.Hour)

	legacy := &Batch{ID: "B001-ASH", Status: StatusTestingComplete, QualityTests: []QualityTest{{ID: "Q1"}}}
	if _, err := legacy.Finalize(first, "/verify?batchId=B001-ASH", TransitionLegacy); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	changed, err := legacy.Finalize(second, "/verify?batchId=B001-ASH", TransitionLegacy)
	if err != nil || !changed {
		t.Fatalf("legacy re-finalize must succeed, changed=%v err=%v", changed, err)
	}
	if !legacy.FinalizedTimestamp.Equal(second) {
		t.Fatalf("legacy re-finalize must refresh the timestamp, got %v", legacy.FinalizedTimestamp)
	}

	forward := &Batch{ID: "B002-TUL", Status: StatusTestingComplete, QualityTests: []QualityTest{{ID: "Q1"}}}
	if _, err := forward.Finalize(first, "/verify?batchId=B002-TUL", TransitionForward); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	changed, err = forward.Finalize(second, "/verify?batchId=B002-TUL", TransitionForward)
	if err != nil || changed {
		t.Fatalf("forward re-finalize must be a no-op, changed=%v err=%v", changed, err)
	}
	if !forward.FinalizedTimestamp.Equal(first) {
		t.Fatalf("forward re-finalize changed the timestamp to %v", forward.FinalizedTimestamp)
	}
}

func TestRejectRecordsReason(t *testing.T) {
	b := &Batch{ID: "B003-NEE", Status: StatusTestingComplete}
	if err := b.Reject("pesticide above limit", TransitionForward); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if b.Status != StatusRejected || b.RejectionReason != "pesticide above limit" {
		t.Fatalf("unexpected batch %+v", b)
	}
	if err := b.Reject("again", TransitionForward); !errors.Is(err, ErrPrerequisiteNotMet) {
		t.Fatalf("expected prerequisite error, got %v", err)
	}
	if b.RejectionReason != "pesticide above limit" {
		t.Fatalf("failed reject overwrote reason: %q", b.RejectionReason)
	}
}

func TestRejectedBatchRefusesChanges(t *testing.T) {
	for _, mode := range []TransitionMode{TransitionLegacy, TransitionForward} {
		t.Run(string(mode), func(t *testing.T) {
			b := &Batch{ID: "B004-ASH", Status: StatusTestingComplete, QualityTests: []QualityTest{{ID: "Q1"}}}
			b.Normalize()
			if err := b.Reject("heavy metals", mode); err != nil {
				t.Fatalf("reject: %v", err)
			}

			if err := b.AddQualityTest(QualityTest{ID: "Q2"}, mode); !errors.Is(err, ErrPrerequisiteNotMet) {
				t.Fatalf("expected prerequisite error on test, got %v", err)
			}
			if err := b.AddProcessingStep(ProcessingStep{ID: "P1"}, mode); !errors.Is(err, ErrPrerequisiteNotMet) {
				t.Fatalf("expected prerequisite error on step, got %v", err)
			}
			changed, err := b.Finalize(time.Now(), "/verify?batchId=B004-ASH", mode)
			if !errors.Is(err, ErrPrerequisiteNotMet) || changed {
				t.Fatalf("expected prerequisite error on finalize, got changed=%v err=%v", changed, err)
			}

			if b.Status != StatusRejected || b.RejectionReason != "heavy metals" {
				t.Fatalf("rejected batch changed: %+v", b)
			}
			if len(b.QualityTests) != 1 || len(b.ProcessingSteps) != 0 || b.FinalizedTimestamp != nil || b.QRCodeURL != "" {
				t.Fatalf("refused operations left records behind: %+v", b)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusFinalized.Valid() || BatchStatus("SHIPPED").Valid() {
		t.Fatal("unexpected status validity")
	}
	if !StatusRejected.IsTerminal() || StatusProcessing.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}
