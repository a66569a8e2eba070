// Package errors defines the error values shared by the export lifecycle
// engine, its repository and its transport layers.
package errors

import (
	"fmt"
)

var (
	ErrNotFound           = fmt.Errorf("not found")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrDuplicateLotNumber = fmt.Errorf("duplicate lot number")
	ErrInvalidPermission  = fmt.Errorf("invalid permission")
	ErrInconsistentToggle = fmt.Errorf("inconsistent toggle")
	ErrMissingScope       = fmt.Errorf("missing scope")
	ErrConcurrentUpdate   = fmt.Errorf("concurrent update")
	ErrImmutableField     = fmt.Errorf("immutable field")
)

// DuplicateLotError reports a lot number already used by another lot in the
// same company and harvest year.
type DuplicateLotError struct {
	LotNumber      string
	ContractID     string
	ContractNumber string
}

func (e *DuplicateLotError) Error() string {
	return fmt.Sprintf("%v: lot %q already used in contract %s", ErrDuplicateLotNumber, e.LotNumber, e.ContractNumber)
}

// Is makes errors.Is(err, ErrDuplicateLotNumber) hold for every DuplicateLotError.
func (e *DuplicateLotError) Is(target error) bool {
	return target == ErrDuplicateLotNumber
}
