package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	c := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	later := c.Add(5 * time.Minute)
	earlier := c.Add(-5 * time.Minute)

	tests := []struct {
		name   string
		client time.Time
		server time.Time
		queued int
		want   Decision
	}{
		{"equal, empty queue", c, c, 0, NoOp},
		{"equal, queued edits", c, c, 3, NoOp},
		{"server ahead, empty queue", c, later, 0, FastForward},
		{"server ahead, queued edits", c, later, 1, Conflict},
		{"client ahead, empty queue", c, earlier, 0, Conflict},
		{"client ahead, queued edits", c, earlier, 2, Conflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.client, tt.server, tt.queued))
		})
	}
}

func TestDecide_EqualAcrossZones(t *testing.T) {
	utc := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	riga := utc.In(time.FixedZone("EET", 2*3600))
	assert.Equal(t, NoOp, Decide(utc, riga, 0))
}

func TestParseResolution(t *testing.T) {
	r, err := ParseResolution("server")
	require.NoError(t, err)
	assert.Equal(t, ResolutionServer, r)

	r, err = ParseResolution("local")
	require.NoError(t, err)
	assert.Equal(t, ResolutionLocal, r)

	_, err = ParseResolution("merge")
	assert.Error(t, err)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "fast-forward", FastForward.String())
	assert.Equal(t, "decision(9)", Decision(9).String())
}
