package avatar

import (
	"errors"
	"strings"
	"testing"
)

func TestInsufficientCreditsError(t *testing.T) {
	cause := errors.New("402 Payment Required")
	err := error(&InsufficientCreditsError{Provider: "Replicate", Err: cause})

	want := "Insufficient Replicate credits. Please add billing at https://replicate.com/account/billing"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !strings.Contains(err.Error(), "billing") {
		t.Error("message should mention billing")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() should reach the wrapped cause")
	}

	var credits *InsufficientCreditsError
	if !errors.As(err, &credits) {
		t.Error("errors.As() should match *InsufficientCreditsError")
	}
}
