package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestReasonOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"engine error", Errf(ReasonOverGoal, "full"), ReasonOverGoal},
		{"wrapped engine error", fmt.Errorf("outer: %w", Errf(ReasonNotFound, "missing")), ReasonNotFound},
		{"plain error", errors.New("plain"), Reason("")},
		{"nil", nil, Reason("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReasonOf(tt.err); got != tt.want {
				t.Errorf("ReasonOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsReason(t *testing.T) {
	err := Errf(ReasonUnauthorized, "governance only")
	if !IsReason(err, ReasonUnauthorized) {
		t.Error("IsReason should match own reason")
	}
	if IsReason(err, ReasonNotFound) {
		t.Error("IsReason should not match other reasons")
	}
	if IsReason(errors.New("plain"), ReasonUnauthorized) {
		t.Error("IsReason should not match plain errors")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Errf(ReasonInsufficientPayment, "bid %d below price %d", 5, 10)
	want := "InsufficientPayment: bid 5 below price 10"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &Error{Reason: ReasonNotFunded}
	if bare.Error() != "NotFunded" {
		t.Errorf("Error() = %q, want bare reason", bare.Error())
	}
}
