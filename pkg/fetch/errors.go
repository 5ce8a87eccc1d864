package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrUnsupportedScheme  = errors.New("unsupported url scheme")
	ErrTransferInProgress = errors.New("a transfer is already in progress")
	ErrBadStatus          = errors.New("unexpected response status")
)

// TransferError is a structured error from a Source.
// Use errors.As to extract it.
type TransferError struct {
	// Protocol is the source protocol, e.g. "http" or "ftp".
	Protocol string
	// Op is the step that failed, e.g. "connect" or "status".
	Op    string
	Cause error
}

func (e *TransferError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s", e.Protocol, e.Op, e.Cause.Error())
	}
	return fmt.Sprintf("%s %s", e.Protocol, e.Op)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

func newTransferError(protocol, op string, cause error) *TransferError {
	return &TransferError{Protocol: protocol, Op: op, Cause: cause}
}
