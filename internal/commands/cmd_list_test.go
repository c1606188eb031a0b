package commands

import (
	"testing"

	"github.com/colonyops/revthreads/internal/core/eventbus"
	"github.com/colonyops/revthreads/internal/core/eventbus/testbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootIDs(infos []threadInfo) []string {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.RootID
	}
	return ids
}

func TestListCmd_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "list", "-f", fixturePath(t), "--json")
	require.NoError(t, err)

	infos := decodeLines[threadInfo](t, out)
	require.Len(t, infos, 3)
	assert.ElementsMatch(t, []string{"c1", "ps1", "r1"}, rootIDs(infos))

	first := infos[0]
	assert.Equal(t, "r1", first.RootID, "unresolved thread with a draft sorts first")
	assert.True(t, first.Unresolved)
	assert.True(t, first.HasDraft)
	assert.True(t, first.HasRobotComment)
	assert.True(t, first.HumanReplied)
	assert.Equal(t, "Will fix", first.LastMessage)
}

func TestListCmd_PublishesSync(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "list", "-f", fixturePath(t), "--json")
	require.NoError(t, err)

	env.bus.AssertPublished(t, eventbus.EventThreadsSynced)
	payloads := testbus.Payloads[eventbus.ThreadsSyncedPayload](env.bus, eventbus.EventThreadsSynced)
	require.NotEmpty(t, payloads)
	assert.Equal(t, "12345", payloads[0].Change)
	assert.Equal(t, 3, payloads[0].Count)
}

func TestListCmd_UnresolvedOnly(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "list", "-f", fixturePath(t), "--json", "--unresolved-only")
	require.NoError(t, err)

	assert.Equal(t, []string{"r1"}, rootIDs(decodeLines[threadInfo](t, out)))
}

func TestListCmd_PathGlob(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "list", "-f", fixturePath(t), "--json", "--path", "src/**")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"c1", "r1"}, rootIDs(decodeLines[threadInfo](t, out)))
}

func TestListCmd_InvalidGlob(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "list", "-f", fixturePath(t), "--path", "[")
	assert.Error(t, err)
}

func TestListCmd_SavedFilters(t *testing.T) {
	env := newTestEnv(t)
	file := fixturePath(t)

	_, err := env.run(t, "list", "-f", file, "--json", "--unresolved-only", "--save")
	require.NoError(t, err)

	out, err := env.run(t, "list", "-f", file, "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, rootIDs(decodeLines[threadInfo](t, out)), "saved toggle applies")

	out, err = env.run(t, "list", "-f", file, "--json", "--unresolved-only=false")
	require.NoError(t, err)
	assert.Len(t, decodeLines[threadInfo](t, out), 3, "flag overrides saved toggle")

	out, err = env.run(t, "list", "-f", file, "--json", "--all")
	require.NoError(t, err)
	assert.Len(t, decodeLines[threadInfo](t, out), 3, "--all ignores saved toggles")
}

func TestListCmd_ConfigDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.flags.Config.Filters.DraftsOnly = true

	out, err := env.run(t, "list", "-f", fixturePath(t), "--json")
	require.NoError(t, err)

	assert.Equal(t, []string{"r1"}, rootIDs(decodeLines[threadInfo](t, out)))
}

func TestListCmd_AnonymousIgnoresDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.flags.Config.Display.LoggedIn = false

	out, err := env.run(t, "list", "-f", fixturePath(t), "--json", "--drafts-only")
	require.NoError(t, err)

	assert.Len(t, decodeLines[threadInfo](t, out), 3)
}

func TestListCmd_Table(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "list", "-f", fixturePath(t), "--unresolved-only")
	require.NoError(t, err)

	assert.Contains(t, out, "LOCATION")
	assert.Contains(t, out, "src/util.go:3")
	assert.Contains(t, out, "unresolved")
	assert.Contains(t, out, "robot+reply")
	assert.NotContains(t, out, "src/main.go")
	assert.Contains(t, out, "2 thread(s) hidden by filters")
}

func TestListCmd_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	env.flags.Config.Display.EmptyMessage = "Nothing to review."

	out, err := env.run(t, "list", "-f", fixturePath(t), "--path", "docs/**")
	require.NoError(t, err)

	assert.Contains(t, out, "Nothing to review.")
	assert.NotContains(t, out, "LOCATION")
}

