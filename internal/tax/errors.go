package tax

import "errors"

var (
	// ErrInvalidSettings indicates rejected tax settings input.
	ErrInvalidSettings = errors.New("tax: invalid settings")
	// ErrAlreadyFiled indicates the year already has a filing.
	ErrAlreadyFiled = errors.New("tax: return already filed")
	// ErrLedgerEntryExists indicates a carryforward entry for the origin year exists.
	ErrLedgerEntryExists = errors.New("tax: carryforward entry already exists")
	// ErrEntryExpired indicates consumption of an entry outside its carryover window.
	ErrEntryExpired = errors.New("tax: carryforward entry expired")
	// ErrEntryExhausted indicates consumption of a fully used entry.
	ErrEntryExhausted = errors.New("tax: carryforward entry exhausted")
	// ErrOverConsumption indicates consumption beyond the remaining amount.
	ErrOverConsumption = errors.New("tax: consumption exceeds remaining amount")
	// ErrFilingNotFound indicates no filing exists for the year.
	ErrFilingNotFound = errors.New("tax: filing not found")
)
