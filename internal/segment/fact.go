package segment

import (
	"fmt"
	"strings"

	"github.com/refdata-io/refdata/internal/temporal"
)

const (
	fieldEntityID  = "entity_id"
	fieldEventTime = "event_time"
)

// Validator turns a raw incoming record into a validated Fact: it resolves
// entity-id aliases, parses the event_time instant, and separates reserved
// fields from the attribute bag.
type Validator struct {
	resolver *AliasResolver
}

// NewValidator creates a Validator. A nil resolver is a valid no-op resolver.
func NewValidator(resolver *AliasResolver) *Validator {
	return &Validator{resolver: resolver}
}

// ValidateFact validates a raw record and produces a Fact.
//
// raw must contain a non-empty "entity_id" string and a parseable
// "event_time" (see temporal.ParseInstant for accepted shapes). Every other
// key becomes part of Attributes. At least one non-reserved attribute is
// required.
func (v *Validator) ValidateFact(raw map[string]any) (*Fact, error) {
	rawEntityID, _ := raw[fieldEntityID].(string)

	entityID := strings.TrimSpace(rawEntityID)
	if entityID == "" {
		return nil, ErrMissingEntityID
	}

	rawEventTime, ok := raw[fieldEventTime]
	if !ok {
		return nil, ErrMissingEventTime
	}

	eventTime, err := temporal.ParseInstant(rawEventTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadEventTime, err)
	}

	attrs := make(map[string]any, len(raw))

	for k, val := range raw {
		if k == fieldEntityID || k == fieldEventTime {
			continue
		}

		attrs[k] = val
	}

	if len(attrs) == 0 {
		return nil, ErrEmptyAttributes
	}

	return &Fact{
		EntityID:   v.resolver.Resolve(entityID),
		EventTime:  eventTime,
		Attributes: attrs,
	}, nil
}
