// Package report persists OpenCL initialization reports so that driver and
// compiler failures can be inspected after the process has exited.
package report

// Store defines report persistence operations.
//
// Error handling conventions:
//   - Return ErrNotFound if a record doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// Save atomically writes the record, replacing any record with the
	// same RuntimeID.
	Save(record *Record) error

	// Load retrieves the record for the given runtime ID.
	Load(runtimeID string) (*Record, error)

	// List returns summaries of all stored records, oldest first.
	List() ([]Info, error)

	// Delete removes the record for the given runtime ID.
	Delete(runtimeID string) error
}

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing record.
type NotFoundError struct {
	RuntimeID string
}

func (e *NotFoundError) Error() string {
	if e.RuntimeID != "" {
		return "report not found: " + e.RuntimeID
	}
	return "report not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
