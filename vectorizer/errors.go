package vectorizer

import "errors"

var (
	// ErrModelCorrupt indicates a persisted model that fails internal
	// consistency checks.
	ErrModelCorrupt = errors.New("vectorizer model is corrupt")
)
