package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFact_Valid(t *testing.T) {
	v := NewValidator(nil)

	f, err := v.ValidateFact(map[string]any{
		"entity_id":  " AAPL ",
		"event_time": "2024-01-01T00:00:00Z",
		"status":     "ACTIVE",
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", f.EntityID)
	assert.Equal(t, "ACTIVE", f.Attributes["status"])
	assert.NotContains(t, f.Attributes, fieldEntityID)
	assert.NotContains(t, f.Attributes, fieldEventTime)
}

func TestValidateFact_ResolvesAlias(t *testing.T) {
	resolver := NewAliasResolver(&AliasConfig{
		EntityPatterns: []EntityPattern{
			{Pattern: "nasdaq:{ticker}", Canonical: "equity:{ticker}"},
		},
	})
	v := NewValidator(resolver)

	f, err := v.ValidateFact(map[string]any{
		"entity_id":  "nasdaq:AAPL",
		"event_time": "2024-01-01T00:00:00Z",
		"status":     "ACTIVE",
	})
	require.NoError(t, err)
	assert.Equal(t, "equity:AAPL", f.EntityID)
}

func TestValidateFact_Rejects(t *testing.T) {
	v := NewValidator(nil)

	tests := map[string]map[string]any{
		"missing entity_id":  {"event_time": "2024-01-01T00:00:00Z", "status": "ACTIVE"},
		"blank entity_id":    {"entity_id": "  ", "event_time": "2024-01-01T00:00:00Z", "status": "ACTIVE"},
		"missing event_time": {"entity_id": "AAPL", "status": "ACTIVE"},
		"bad event_time":     {"entity_id": "AAPL", "event_time": "not-a-time", "status": "ACTIVE"},
		"no attributes":      {"entity_id": "AAPL", "event_time": "2024-01-01T00:00:00Z"},
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateFact(raw)
			assert.Error(t, err)
		})
	}
}
