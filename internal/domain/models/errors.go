package models

import (
	"errors"
	"fmt"
)

// DataError marks malformed input bars (empty series, non-monotonic
// timestamps, non-finite prices). Fatal for the affected series; batch
// orchestration excludes the item and continues.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string { return "data error: " + e.Reason }

// NewDataError creates a DataError with a formatted reason.
func NewDataError(format string, a ...interface{}) *DataError {
	return &DataError{Reason: fmt.Sprintf(format, a...)}
}

// IsDataError reports whether err wraps a DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

var (
	// ErrIndeterminate is returned by stage classification when the
	// lookback window is not yet filled. Expected, not exceptional;
	// callers must branch on it instead of guessing a stage.
	ErrIndeterminate = errors.New("indeterminate: insufficient lookback for classification")

	// ErrInsufficientData marks a window too short for a pattern or a
	// labeling walk. The affected item is skipped, never failed.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrExcluded marks a signal dropped from the training dataset:
	// history ended while the position was open with a non-positive
	// gain, which is not evidence of failure.
	ErrExcluded = errors.New("signal excluded from dataset")
)

// FeatureIncompleteError is returned when inference is attempted on a
// feature vector with undefined values. It fails that single
// prediction only; it must not abort a batch.
type FeatureIncompleteError struct {
	Feature string
}

func (e *FeatureIncompleteError) Error() string {
	return "feature incomplete: " + e.Feature
}

// IsFeatureIncomplete reports whether err wraps a FeatureIncompleteError.
func IsFeatureIncomplete(err error) bool {
	var fe *FeatureIncompleteError
	return errors.As(err, &fe)
}
