package apperrors

import "errors"

// ErrFormat indicates malformed input: a user-entered date or a customer export
// that does not follow the fixed schema.
var ErrFormat = errors.New("format error")

// ErrRange indicates a date range that is inverted or falls outside the supported window.
var ErrRange = errors.New("range error")

// ErrDataUnavailable indicates that an upstream source returned no usable data
// for one unit of work.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrSheetMissing indicates that the expected named table does not exist in the store.
var ErrSheetMissing = errors.New("sheet missing")

// ErrCancelled indicates that the user declined a confirmation or cancelled a prompt.
var ErrCancelled = errors.New("cancelled by user")
