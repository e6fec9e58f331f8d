// Package mergeerr collects the sentinel error kinds shared by the
// strategy dispatcher, the merge drivers and the cmd/jdime front-end.
// Each is a plain sentinel (github.com/pkg/errors.New) that
// collaborators wrap with errors.Wrapf for call-site context without
// losing errors.Is/errors.As compatibility.
package mergeerr

import "github.com/pkg/errors"

var (
	// ErrParseFailure: input cannot be parsed by the parser collaborator.
	// Triggers fallback to line merge under combined/autotuning; surfaces
	// otherwise.
	ErrParseFailure = errors.New("mergeerr: parse failure")

	// ErrStrategyNotFound: unknown strategy name. Fatal before any
	// merging begins.
	ErrStrategyNotFound = errors.New("mergeerr: strategy not found")

	// ErrInputMissing: an input artifact could not be located.
	ErrInputMissing = errors.New("mergeerr: input missing")

	// ErrInputInaccessible: an input artifact exists but could not be
	// read by the file-I/O collaborator.
	ErrInputInaccessible = errors.New("mergeerr: input inaccessible")

	// ErrCancelled: cooperative cancellation observed between major
	// phases; any partial result must be discarded.
	ErrCancelled = errors.New("mergeerr: cancelled")
)

// IsRecoverable reports whether err may be recorded in the crash
// registry and the driver allowed to continue with the next scenario
// rather than treated as fatal.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrParseFailure) || errors.Is(err, ErrInputMissing) || errors.Is(err, ErrInputInaccessible)
}
