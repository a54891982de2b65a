package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInstructionFiles is returned by callers that require at least
	// one instruction file. The engine itself reports an empty set.
	ErrNoInstructionFiles = errors.New("no instruction files found")

	// ErrEmptyInstruction is returned when an update has no text.
	ErrEmptyInstruction = errors.New("instruction is empty")

	// ErrStalePlan marks a plan whose file changed after planning.
	ErrStalePlan = errors.New("file changed since the update was planned")
)

// WriteError is a per-file failure while applying a plan.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
