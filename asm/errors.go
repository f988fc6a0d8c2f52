package asm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for conditions callers branch on. Mirrors the
// teacher's errProgramFinished/errSegmentationFault convention of
// package-level sentinels for outcomes other code inspects by identity.
var (
	errUnterminatedBlockComment = errors.New("unterminated block comment")
	errUnterminatedString       = errors.New("unterminated string")
	errBadLabel                 = errors.New("invalid label")
	errBadAssignment             = errors.New("malformed assignment")
	errLocalLabelNoScope        = errors.New("local label outside any scope")
	errLabelRedefined           = errors.New("label redefined")
	errUnknownIdentifier        = errors.New("unknown identifier")
	errUnknownDirective         = errors.New("unknown directive")
	errUnknownMnemonic          = errors.New("unknown instruction")
	errOperandCount              = errors.New("wrong number of operands")
	errImmediateRange            = errors.New("immediate out of range")
	errPCRelRange                 = errors.New("pc-relative target out of range")
	errUnaligned                  = errors.New("unaligned data directive")
	errNoVariant                  = errors.New("no instruction variant matched")
	errConvergence                = errors.New("assembler passes did not converge")
	errIncludeCycle               = errors.New("include cycle detected")
)

// sourceError carries a source position so it renders as
// "file:line: ERROR: message" per spec §4.9/§7.
type sourceError struct {
	file string
	line int
	err  error
}

func (e *sourceError) Error() string {
	return fmt.Sprintf("%s:%d: ERROR: %s", e.file, e.line, e.err)
}

func (e *sourceError) Unwrap() error { return e.err }

func atLine(file string, line int, err error) error {
	if err == nil {
		return nil
	}
	return &sourceError{file: file, line: line, err: err}
}
