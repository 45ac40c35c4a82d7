package study

// StorageError indicates the study could not be loaded or persisted. It is
// fatal wherever it occurs: continuing with unpersisted trials would break
// the batch-id resume invariant.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "study storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
