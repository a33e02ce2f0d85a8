package models

import "github.com/cockroachdb/errors"

// Error classes. Concrete failures are marked with one of these so callers
// can classify them with errors.Is regardless of how deeply they are wrapped.
var (
	ErrFetch          = errors.New("fetch failed")
	ErrPersistence    = errors.New("persistence failed")
	ErrNotFound       = errors.New("not found")
	ErrConfiguration  = errors.New("configuration error")
	ErrStaleTimestamp = errors.New("timestamp does not advance latest slot")
)

func MarkFetch(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrFetch)
}

func MarkPersistence(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrPersistence)
}

func MarkNotFound(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrNotFound)
}
