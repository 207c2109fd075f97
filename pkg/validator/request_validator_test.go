package validator

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTransfer_OK(t *testing.T) {
	v := NewRequestValidator()

	if err := v.ValidateTransfer(1001, 1002, "2500.50", "Rent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateTransfer_BadAmount(t *testing.T) {
	v := NewRequestValidator()

	for _, amount := range []string{"", "0", "-10", "abc"} {
		err := v.ValidateTransfer(1001, 1002, amount, "")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestValidateTransfer_BadAccounts(t *testing.T) {
	v := NewRequestValidator()

	err := v.ValidateTransfer(0, -3, "100", "")
	if !errors.Is(err, ErrInvalidAccountNumber) {
		t.Errorf("expected ErrInvalidAccountNumber, got %v", err)
	}
}

func TestValidateTransfer_LongDescription(t *testing.T) {
	v := NewRequestValidator()

	err := v.ValidateTransfer(1001, 1002, "100", strings.Repeat("x", 300))
	if !errors.Is(err, ErrDescriptionTooLong) {
		t.Errorf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestValidatePayee(t *testing.T) {
	v := NewRequestValidator()

	if err := v.ValidatePayee("Landlord", "HDFC Bank", "HDFC0001234", 9999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.ValidatePayee("Landlord", "HDFC Bank", "not-an-ifsc", 9999); !errors.Is(err, ErrInvalidIFSC) {
		t.Errorf("expected ErrInvalidIFSC, got %v", err)
	}
	if err := v.ValidatePayee("", "HDFC Bank", "HDFC0001234", 9999); !errors.Is(err, ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
}
