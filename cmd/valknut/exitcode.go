package main

import (
	"context"
	"errors"

	"github.com/sibyllinesoft/valknut/internal/results"

	verrors "github.com/sibyllinesoft/valknut/internal/errors"
)

// exitCodeForError maps an error returned from app.Run to a process exit
// code. Cancellation, however it surfaced, maps to 130; everything else
// that escaped as an error is an unrecoverable startup failure (config or
// discovery, per §7) and maps to 2.
func exitCodeForError(err error) int {
	var cancelled *verrors.CancelledError
	if errors.As(err, &cancelled) {
		return results.ExitCancelled
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return results.ExitCancelled
	}
	return results.ExitUnrecoverableError
}
