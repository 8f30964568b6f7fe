package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	StatusPendingTesting  BatchStatus = "PENDING_TESTING"
	StatusTestingComplete BatchStatus = "TESTING_COMPLETE"
	StatusProcessing      BatchStatus = "PROCESSING"
	StatusFinalized       BatchStatus = "FINALIZED"
	StatusRejected        BatchStatus = "REJECTED"
)

// statusRank orders the forward lifecycle. REJECTED sits outside it.
var statusRank = map[BatchStatus]int{
	StatusPendingTesting:  1,
	StatusTestingComplete: 2,
	StatusProcessing:      3,
	StatusFinalized:       4,
}

func (s BatchStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusRejected
}

func (s BatchStatus) IsTerminal() bool {
	return s == StatusFinalized || s == StatusRejected
}

// Operation names a ledger mutation that drives the state machine.
type Operation string

const (
	// OpCreate only labels batch creation for observers; it has no transition.
	OpCreate     Operation = "create"
	OpRecordTest Operation = "record_test"
	OpRecordStep Operation = "record_step"
	OpFinalize   Operation = "finalize"
	OpReject     Operation = "reject"
)

// TransitionMode selects how test and step records move the status.
//
// TransitionLegacy overwrites the status, which lets a late quality test pull
// a PROCESSING batch back to TESTING_COMPLETE and lets finalize run again on a
// FINALIZED batch. TransitionForward only advances along the lifecycle order
// and never leaves a terminal state. In both modes a REJECTED batch refuses
// every further operation.
type TransitionMode string

const (
	TransitionLegacy  TransitionMode = "legacy"
	TransitionForward TransitionMode = "forward"
)

// ParseTransitionMode maps a config value to a mode, defaulting to legacy.
func ParseTransitionMode(value string) (TransitionMode, error) {
	switch TransitionMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", TransitionLegacy:
		return TransitionLegacy, nil
	case TransitionForward:
		return TransitionForward, nil
	default:
		return "", fmt.Errorf("unknown transition mode %q", value)
	}
}

var operationTargets = map[Operation]BatchStatus{
	OpRecordTest: StatusTestingComplete,
	OpRecordStep: StatusProcessing,
	OpFinalize:   StatusFinalized,
	OpReject:     StatusRejected,
}

// Next returns the status a batch in state from moves to when op is applied.
// Data guards (such as the quality test requirement for finalize) are checked
// by the Batch methods, not here.
func (m TransitionMode) Next(op Operation, from BatchStatus) (BatchStatus, error) {
	target, ok := operationTargets[op]
	if !ok {
		return from, fmt.Errorf("unknown operation %q", op)
	}

	if op == OpReject {
		if from.IsTerminal() {
			return from, WrapError(ErrCodePrecondition, fmt.Sprintf("batch in status %s cannot be rejected", from), ErrPrerequisiteNotMet)
		}
		return target, nil
	}

	if from == StatusRejected {
		return from, WrapError(ErrCodePrecondition, fmt.Sprintf("rejected batch does not accept %s", op), ErrPrerequisiteNotMet)
	}
	if m != TransitionForward {
		return target, nil
	}

	switch {
	case from.IsTerminal():
		return from, nil
	case statusRank[target] > statusRank[from]:
		return target, nil
	default:
		return from, nil
	}
}

// AddQualityTest appends test and advances the status.
func (b *Batch) AddQualityTest(test QualityTest, mode TransitionMode) error {
	next, err := mode.Next(OpRecordTest, b.Status)
	if err != nil {
		return err
	}
	b.QualityTests = append(b.QualityTests, test)
	b.Status = next
	return nil
}

// AddProcessingStep appends step and advances the status.
func (b *Batch) AddProcessingStep(step ProcessingStep, mode TransitionMode) error {
	next, err := mode.Next(OpRecordStep, b.Status)
	if err != nil {
		return err
	}
	b.ProcessingSteps = append(b.ProcessingSteps, step)
	b.Status = next
	return nil
}

// Finalize marks the batch FINALIZED. It fails without mutating anything when
// no quality test has been recorded. The returned flag is false when the
// batch was left unchanged (forward mode on an already finalized batch).
func (b *Batch) Finalize(now time.Time, qrCodeURL string, mode TransitionMode) (bool, error) {
	if len(b.QualityTests) == 0 {
		return false, WrapError(ErrCodePrecondition, "cannot finalize a batch without a quality test", ErrPrerequisiteNotMet)
	}
	if mode == TransitionForward && b.Status == StatusFinalized {
		return false, nil
	}
	next, err := mode.Next(OpFinalize, b.Status)
	if err != nil {
		return false, err
	}
	ts := now
	b.Status = next
	b.FinalizedTimestamp = &ts
	b.QRCodeURL = qrCodeURL
	b.RejectionReason = ""
	return true, nil
}

// Reject moves a non-terminal batch to REJECTED.
func (b *Batch) Reject(reason string, mode TransitionMode) error {
	next, err := mode.Next(OpReject, b.Status)
	if err != nil {
		return err
	}
	b.Status = next
	b.RejectionReason = reason
	return nil
}
