package segment

import "errors"

// Sentinel errors returned by fact validation.
var (
	ErrMissingEntityID  = errors.New("entity_id is required")
	ErrMissingEventTime = errors.New("event_time is required")
	ErrBadEventTime     = errors.New("event_time could not be parsed")
	ErrEmptyAttributes  = errors.New("attributes must contain at least one field")
)
