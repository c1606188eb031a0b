package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiltersCmd_GetDefaults(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "filters", "get", "--change", "I1", "--json")
	require.NoError(t, err)

	got := decodeLines[filtersInfo](t, out)
	require.Len(t, got, 1)
	assert.Equal(t, "I1", got[0].Change)
	require.NotNil(t, got[0].UnresolvedOnly)
	assert.False(t, *got[0].UnresolvedOnly)
}

func TestFiltersCmd_SetMergesAndGet(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "filters", "set", "--change", "I1", "--unresolved-only")
	require.NoError(t, err)
	_, err = env.run(t, "filters", "set", "--change", "I1", "--robot-reply")
	require.NoError(t, err)

	out, err := env.run(t, "filters", "get", "--change", "I1", "--json")
	require.NoError(t, err)

	got := decodeLines[filtersInfo](t, out)
	require.Len(t, got, 1)
	assert.True(t, *got[0].UnresolvedOnly)
	assert.False(t, *got[0].DraftsOnly)
	assert.True(t, *got[0].RobotReplyOnly)
}

func TestFiltersCmd_SetRequiresToggle(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "filters", "set", "--change", "I1")
	assert.Error(t, err)
}

func TestFiltersCmd_ListAndClear(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "filters", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved filters.")

	_, err = env.run(t, "filters", "set", "--change", "I1", "--drafts-only")
	require.NoError(t, err)

	out, err = env.run(t, "filters", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "CHANGE")
	assert.Contains(t, out, "I1")

	out, err = env.run(t, "filters", "clear", "--change", "I1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared filters for I1")

	_, err = env.run(t, "filters", "clear", "--change", "I1")
	assert.Error(t, err)
}

func TestConfigCmd_ValidateJSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "config", "validate", "--format", "json")
	require.NoError(t, err)

	assert.JSONEq(t, `{"valid": true}`, out)
}

func TestConfigCmd_Show(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "theme: tokyo-night")
	assert.Contains(t, out, "locale: und")
}
