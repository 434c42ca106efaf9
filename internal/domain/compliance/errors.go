package compliance

import "errors"

// Compliance exchange errors
var (
	// ErrMalformedRecord and ErrDuplicateRecord classify single AFD lines
	// inside an ImportReport; the import itself keeps going.
	ErrMalformedRecord = errors.New("malformed AFD record")
	ErrDuplicateRecord = errors.New("duplicate AFD record")

	ErrImportCancelled = errors.New("AFD import cancelled; already-applied punches persist")
	ErrEmptyRange      = errors.New("export date range is empty")
	ErrUnknownEmployee = errors.New("no employee matches the record identifier")
)
