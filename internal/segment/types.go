package segment

import "time"

type (
	// Segment is the atomic unit of bi-temporal history: one
	// (entity, valid-window, knowledge-window, attributes) tuple.
	Segment struct {
		// ID is the opaque monotone identifier assigned by the store on
		// insert. Zero until persisted.
		ID int64

		// EntityID is the canonical (post alias-resolution) business key.
		EntityID string

		// Attributes is the attribute bag: the fact's input record minus
		// the reserved entity_id/event_time keys. Its canonical encoding is
		// AttributesCanonical.
		Attributes map[string]any

		// AttributesCanonical is the deterministic byte encoding of
		// Attributes, used for idempotency/equality comparisons.
		AttributesCanonical []byte

		// EventTime is the origin event instant for this segment.
		EventTime time.Time

		// ValidFrom is the inclusive start of the valid (event) window.
		ValidFrom time.Time

		// ValidTo is the exclusive end of the valid window; nil means
		// open-ended.
		ValidTo *time.Time

		// KnowledgeFrom is the inclusive start of the knowledge (transaction)
		// window.
		KnowledgeFrom time.Time

		// KnowledgeTo is the exclusive end of the knowledge window; nil
		// means currently believed. Once set, the segment is frozen.
		KnowledgeTo *time.Time

		// IsCurrent is true iff both KnowledgeTo and ValidTo are nil.
		IsCurrent bool
	}

	// Fact is one incoming record: a business key, the instant it describes,
	// and its attribute bag (canonicalised later, by the merge engine).
	Fact struct {
		EntityID   string
		EventTime  time.Time
		Attributes map[string]any
	}

	// Watermark maps a pipeline name to the largest event_time ever
	// admitted under that name.
	Watermark struct {
		Name  string
		Value time.Time
	}
)

// computeIsCurrent returns whether a segment with the given windows counts
// as current: both knowledge and validity must be open-ended.
func computeIsCurrent(validTo, knowledgeTo *time.Time) bool {
	return validTo == nil && knowledgeTo == nil
}

// NewSegment builds a Segment with IsCurrent derived from its windows:
// is_current iff knowledge_to and valid_to are both unset.
func NewSegment(
	entityID string,
	attrs map[string]any,
	attrsCanonical []byte,
	eventTime, validFrom time.Time,
	validTo *time.Time,
	knowledgeFrom time.Time,
	knowledgeTo *time.Time,
) Segment {
	return Segment{
		EntityID:            entityID,
		Attributes:          attrs,
		AttributesCanonical: attrsCanonical,
		EventTime:           eventTime,
		ValidFrom:           validFrom,
		ValidTo:             validTo,
		KnowledgeFrom:       knowledgeFrom,
		KnowledgeTo:         knowledgeTo,
		IsCurrent:           computeIsCurrent(validTo, knowledgeTo),
	}
}
