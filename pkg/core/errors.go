package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrBadExport means the export artifact is missing or its outer
	// structure is not a record array. It aborts the whole run.
	ErrBadExport = errors.New("export artifact missing or not a record array")

	// ErrAttachmentMissing means no search directory contained the
	// referenced file. Recovered per attachment, never fatal.
	ErrAttachmentMissing = errors.New("attachment not found in any search directory")
)

// RecordError marks a single export record that failed validation.
// The record is skipped and counted; the run continues.
type RecordError struct {
	Index  int    // position in the export array
	Reason string // why the record was rejected
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}
