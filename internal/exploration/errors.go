package exploration

import "errors"

var (
	// ErrInvalidState indicates an operation was called out of order, such as
	// navigating outside the visited cards or acting before a session starts.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound indicates an unknown exploration, state or checkpoint.
	ErrNotFound = errors.New("not found")

	// ErrSessionBusy indicates another mutating call is still in flight.
	ErrSessionBusy = errors.New("session busy")

	// ErrQuotaExceeded indicates the checkpoint store is over its size budget.
	// It is surfaced as a checkpoint status and never fails a save.
	ErrQuotaExceeded = errors.New("checkpoint database exceeded the allocated size limit")

	// ErrProgressNotSaved indicates the session holds progress that has not
	// been written to a checkpoint.
	ErrProgressNotSaved = errors.New("current exploration contains unsaved progress")

	// ErrOutdatedCheckpoint indicates a stored checkpoint cannot be resumed
	// against the current lesson content or record schema.
	ErrOutdatedCheckpoint = errors.New("outdated exploration checkpoint")
)

// StateError is an ErrInvalidState failure carrying a message meant for the
// caller. Error returns the message verbatim.
type StateError struct {
	Msg string
}

// InvalidState returns a *StateError with the given message.
func InvalidState(msg string) error {
	return &StateError{Msg: msg}
}

func (e *StateError) Error() string { return e.Msg }

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }
