package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskmesh/diskmesh/internal/storage"
	"github.com/diskmesh/diskmesh/pkg/item"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogDeposit(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		stored    int
		wantLevel string
	}{
		{"fully stored", 100, 100, "info"},
		{"partially returned", 100, 60, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(zerolog.New(&buf)).LogDeposit("0:3,0,0", 1, tt.requested, tt.stored)

			entry := decode(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "deposit", entry["event_type"])
			assert.Equal(t, "0:3,0,0", entry["origin"])
			assert.EqualValues(t, tt.stored, entry["stored"])
			assert.EqualValues(t, tt.requested-tt.stored, entry["returned"])
		})
	}
}

func TestLogWithdrawal(t *testing.T) {
	nail := item.Identity{Type: 1}

	t.Run("complete", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(zerolog.New(&buf)).LogWithdrawal("0:0,0,0", storage.Report{
			Removed:      map[item.Identity]int{nail: 25},
			Shortfall:    map[item.Identity]int{},
			DisksWritten: 1,
		})

		entry := decode(t, &buf)
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "withdrawal", entry["event_type"])
		assert.EqualValues(t, 25, entry["removed"])
		assert.EqualValues(t, 1, entry["disks_written"])
		assert.NotContains(t, entry, "shortfall")
	})

	t.Run("shortfall", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(zerolog.New(&buf)).LogWithdrawal("0:0,0,0", storage.Report{
			Removed:   map[item.Identity]int{nail: 40},
			Shortfall: map[item.Identity]int{nail: 5},
		})

		entry := decode(t, &buf)
		assert.Equal(t, "warn", entry["level"])
		assert.EqualValues(t, 5, entry["shortfall"])
		missing, ok := entry["missing"].(map[string]interface{})
		require.True(t, ok)
		assert.EqualValues(t, 5, missing[nail.String()])
	})
}

func TestLogDropBox(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(zerolog.New(&buf)).LogDropBox("0:4,0,0", 15)

	entry := decode(t, &buf)
	assert.Equal(t, "dropbox", entry["event_type"])
	assert.EqualValues(t, 15, entry["moved"])
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.LogDeposit("x", 1, 1, 1)
		l.LogWithdrawal("x", storage.Report{})
		l.LogDropBox("x", 0)
	})
}
