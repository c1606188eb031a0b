package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/colonyops/revthreads/internal/core/config"
	"github.com/colonyops/revthreads/internal/core/eventbus/testbus"
	"github.com/colonyops/revthreads/internal/data/db"
	"github.com/colonyops/revthreads/internal/data/stores"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const fixture = "testdata/12345.json"

type testEnv struct {
	flags *Flags
	app   *App
	bus   *testbus.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataDir := t.TempDir()

	cfg, err := config.Load("", dataDir)
	require.NoError(t, err)

	database, err := stores.Open(dataDir, db.DefaultOpenOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	bus := testbus.New(t)
	return &testEnv{
		flags: &Flags{DataDir: dataDir, Config: cfg},
		app:   &App{DB: database, Filters: stores.NewFilterStore(database), Bus: bus.EventBus},
		bus:   bus,
	}
}

// run executes args against a freshly registered root command.
func (env *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer

	root := &cli.Command{Name: "revthreads", Writer: &buf}
	root = NewListCmd(env.flags, env.app).Register(root)
	root = NewDraftCmd(env.flags, env.app).Register(root)
	root = NewFiltersCmd(env.flags, env.app).Register(root)
	root = NewDBCmd(env.flags, env.app).Register(root)
	root = NewConfigCmd(env.flags).Register(root)

	err := root.Run(context.Background(), append([]string{"revthreads"}, args...))
	return buf.String(), err
}

func decodeLines[T any](t *testing.T, out string) []T {
	t.Helper()
	var items []T
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var v T
		require.NoError(t, json.Unmarshal(sc.Bytes(), &v), "line: %s", sc.Text())
		items = append(items, v)
	}
	return items
}

func fixturePath(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs(fixture)
	require.NoError(t, err)
	return p
}
