package extract

import "fmt"

// BackendError reports a failed backend call. Extract logs it and returns no claims.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// MalformedResultError marks a document whose shape is inconsistent.
// Only that document is skipped.
type MalformedResultError struct {
	Document int    // position in the coerced sequence
	Shape    string // variant the document was classified as
	Reason   string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed %s document %d: %s", e.Shape, e.Document, e.Reason)
}
