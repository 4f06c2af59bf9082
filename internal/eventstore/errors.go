package eventstore

import "errors"

var (
	// ErrNotFound is returned when a lookup finds no row for the given id.
	ErrNotFound = errors.New("eventstore: not found")
	// ErrAlreadyExists reports a duplicate id. Save upserts, so no Store
	// method currently returns it; ErrorKind still classifies it.
	ErrAlreadyExists = errors.New("eventstore: already exists")
)

// ErrorKind maps the package's sentinel errors to a stable logging label;
// any other error is labelled "unexpected". It mirrors
// application.ErrorKind's shape for structured logging.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	}
	return "unexpected"
}
