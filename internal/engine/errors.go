package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// DataUnavailableError reports that the dataset source could not be fetched or
// did not parse into the expected table. It is fatal for the session: no
// partial dataset accompanies it.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("dataset %s unavailable: %v", e.Source, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

func unavailable(source string, err error) error {
	return &DataUnavailableError{Source: source, Err: err}
}

// IsDataUnavailable reports whether err carries a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var due *DataUnavailableError
	return errors.As(err, &due)
}
