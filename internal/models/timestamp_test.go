package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_DecodeShapes(t *testing.T) {
	want := time.Date(2025, 3, 14, 20, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{"rfc3339", `"2025-03-14T20:15:00Z"`},
		{"epoch millis", `1741983300000`},
		{"seconds object", `{"seconds": 1741983300, "nanoseconds": 0}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &ts))
			assert.True(t, want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_NullAndEmpty(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ts))
}

func TestLogEntry_DecodeDocument(t *testing.T) {
	raw := `{
		"id": "e1",
		"timestamp": "2025-03-14T20:15:00.5Z",
		"timecode": "20:15:00:15",
		"participants": ["p1", "p2"],
		"location": "l1",
		"actionCategory": "a2",
		"tags": ["t1"],
		"notes": "argument in the kitchen",
		"createdBy": "u1",
		"createdAt": 1741983300500
	}`
	var e LogEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, []string{"p1", "p2"}, e.Participants)
	assert.Equal(t, "a2", e.ActionCategory)
	assert.True(t, e.Timestamp.Equal(e.CreatedAt.Time))
}

func TestUser_CanEdit(t *testing.T) {
	var nobody *User
	assert.False(t, nobody.CanEdit())
	assert.True(t, (&User{Role: RoleAdmin}).CanEdit())
	assert.True(t, (&User{Role: RoleLogger}).CanEdit())
	assert.False(t, (&User{Role: RoleViewer}).CanEdit())
}
