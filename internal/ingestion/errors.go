package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// File-level failures. None of them leaves a batch behind.
var (
	ErrMissingColumns      = errors.New("missing required columns")
	ErrNoTransactions      = errors.New("no transactions found in file")
	ErrNothingNew          = errors.New("nothing new to import: every transaction in the file was imported before")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrUnreadableFile      = errors.New("unreadable file")
)

// MissingColumnsError names the required fields the header mapper could not
// find.
type MissingColumnsError struct {
	Provider string
	Missing  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// IsBadFormat reports whether err means the file itself cannot be imported,
// as opposed to a duplicate upload or an internal failure.
func IsBadFormat(err error) bool {
	return errors.Is(err, ErrMissingColumns) ||
		errors.Is(err, ErrNoTransactions) ||
		errors.Is(err, ErrUnsupportedProvider) ||
		errors.Is(err, ErrUnreadableFile)
}
