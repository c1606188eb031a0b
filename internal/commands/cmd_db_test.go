package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBCmd_Status(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "db", "migrate", "status", "--json")
	require.NoError(t, err)

	assert.Equal(t, []migrationInfo{
		{Version: 1, Name: "filter_prefs", Applied: true},
		{Version: 2, Name: "filter_prefs_updated_idx", Applied: true},
	}, decodeLines[migrationInfo](t, out))
}

func TestDBCmd_Down(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "db", "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "reverted 1 migration(s)")

	out, err = env.run(t, "db", "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "filter_prefs_updated_idx")
	assert.Contains(t, out, "pending")

	statuses := map[int]bool{}
	out, err = env.run(t, "db", "migrate", "status", "--json")
	require.NoError(t, err)
	for _, m := range decodeLines[migrationInfo](t, out) {
		statuses[m.Version] = m.Applied
	}
	assert.Equal(t, map[int]bool{1: true, 2: false}, statuses)
}

func TestDBCmd_DownTooMany(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "db", "migrate", "down", "--steps", "5")
	assert.Error(t, err)

	out, err := env.run(t, "db", "migrate", "status", "--json")
	require.NoError(t, err)
	for _, m := range decodeLines[migrationInfo](t, out) {
		assert.True(t, m.Applied, "failed down must not revert anything")
	}
}
