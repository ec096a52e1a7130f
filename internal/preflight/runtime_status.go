package preflight

import (
	"errors"
	"fmt"
)

// ErrPreflight wraps every failed check returned by Err.
var ErrPreflight = errors.New("preflight failed")

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins every failed check into one error, or returns nil.
func Err(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, r := range failed {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrPreflight, r.Name, r.Detail))
	}
	return errors.Join(errs...)
}
