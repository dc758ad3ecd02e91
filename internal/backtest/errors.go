package backtest

import (
	"errors"
	"fmt"
)

// ErrCancelled reports a run aborted through its context. A cancelled
// run produces no partial result.
var ErrCancelled = errors.New("backtest cancelled")

// DataLoadError reports that the historical data collaborator produced
// no usable bars. It aborts the whole run before any simulation.
type DataLoadError struct {
	Symbol string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no usable historical data for %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("no usable historical data for %s", e.Symbol)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
