package validator

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidIFSC          = errors.New("invalid IFSC code")
	ErrMissingName          = errors.New("name is required")
	ErrDescriptionTooLong   = errors.New("description too long")
)

const maxDescriptionLength = 255

// RequestValidator performs shape-level checks on inbound API payloads
// before the engine applies its own semantic rules.
type RequestValidator struct {
	ifscRegex *regexp.Regexp
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		ifscRegex: regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`),
	}
}

func (v *RequestValidator) ValidateTransfer(sourceAccount, destinationAccount int64, amount, description string) error {
	var errs []error

	if sourceAccount <= 0 {
		errs = append(errs, fmt.Errorf("%w: source %d", ErrInvalidAccountNumber, sourceAccount))
	}
	if destinationAccount <= 0 {
		errs = append(errs, fmt.Errorf("%w: destination %d", ErrInvalidAccountNumber, destinationAccount))
	}

	if d, err := decimal.NewFromString(amount); err != nil || !d.IsPositive() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidAmount, amount))
	}

	if len(description) > maxDescriptionLength {
		errs = append(errs, ErrDescriptionTooLong)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (v *RequestValidator) ValidatePayee(name, bankName, ifsc string, accountNumber int64) error {
	var errs []error

	if name == "" {
		errs = append(errs, ErrMissingName)
	}
	if bankName == "" {
		errs = append(errs, errors.New("bank name is required"))
	}
	if !v.ifscRegex.MatchString(ifsc) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidIFSC, ifsc))
	}
	if accountNumber <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidAccountNumber, accountNumber))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
