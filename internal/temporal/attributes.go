package temporal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// CanonicalizeAttributes takes a fact's attribute bag (its input record
// minus the reserved "entity_id"/"event_time" keys) and returns a
// deterministic byte encoding suitable for equality comparison.
//
// Go map iteration order is randomised, so canonical form requires an
// explicit recursive key sort at every nesting level before marshalling.
func CanonicalizeAttributes(attrs map[string]any) ([]byte, error) {
	sorted := sortValue(attrs)

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(sorted); err != nil {
		return nil, fmt.Errorf("canonicalize attributes: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// sortValue walks an arbitrary JSON-shaped value, replacing every map with
// an orderedMap whose keys marshal in sorted order. Slices are walked
// element-wise; scalars pass through unchanged.
func sortValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		entries := make([]orderedEntry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, orderedEntry{Key: k, Value: sortValue(val[k])})
		}

		return orderedMap(entries)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sortValue(item)
		}

		return out
	default:
		return val
	}
}

// orderedEntry is one key/value pair of an orderedMap.
type orderedEntry struct {
	Key   string
	Value any
}

// orderedMap marshals its entries in slice order (already sorted by
// sortValue), producing deterministic object key order in the JSON output.
type orderedMap []orderedEntry

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, entry := range m {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
