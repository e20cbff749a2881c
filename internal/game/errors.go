package game

import "errors"

// Rejection taxonomy for commands. Every rejected command wraps one of these;
// the dispatch boundary maps them to a wire error code and leaves room state
// untouched.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrWrongPhase      = errors.New("wrong phase")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Code returns the machine-readable wire code for a rejection.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}
