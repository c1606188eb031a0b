package gerrit

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) ChangeComments {
	t.Helper()
	f, err := os.Open("testdata/change.json")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	cc, err := Decode(f)
	require.NoError(t, err)
	return cc
}

func TestTimestamp_RoundTrip(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01 10:30:00.123000000"`), &ts))

	want := time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC)
	assert.True(t, want.Equal(ts.Time))

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01 10:30:00.123"`, string(out))
}

func TestTimestamp_Invalid(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`"yesterday"`), &ts)
	assert.Error(t, err)
}

func TestTimestamp_Null(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestDecode_Document(t *testing.T) {
	cc := loadFixture(t)

	assert.Equal(t, 5, cc.Len())
	assert.Len(t, cc.Comments["src/main.go"], 2)
	assert.Len(t, cc.Drafts["src/util.go"], 1)
	assert.Equal(t, "vet", cc.RobotComments["src/util.go"][0].RobotID)
}

func TestDecode_BareMap(t *testing.T) {
	in := `)]}'
{"a.go": [{"id": "x", "line": 1, "updated": "2024-03-01 10:00:00.000000000"}]}`

	cc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	assert.Len(t, cc.Comments["a.go"], 1)
	assert.Empty(t, cc.Drafts)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		empty bool
	}{
		{name: "empty", input: "", empty: true},
		{name: "guard only", input: ")]}'\n", empty: true},
		{name: "not json", input: "<html>"},
		{name: "array", input: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.empty {
				assert.ErrorIs(t, err, ErrEmptyInput)
			}
		})
	}
}

func TestThreads_FromFixture(t *testing.T) {
	threads := Threads(loadFixture(t))

	require.Len(t, threads, 3)
	assert.Equal(t, "c1", threads[0].RootID)
	assert.Equal(t, "ps1", threads[1].RootID)
	assert.Equal(t, "r1", threads[2].RootID)

	main := threads[0]
	assert.Equal(t, "src/main.go", main.Path)
	assert.Equal(t, 12, main.Line)
	require.Len(t, main.Comments, 2)
	assert.Equal(t, "grace", main.Comments[0].Author)
	assert.False(t, thread.Annotate(main).Unresolved)

	ps := threads[1]
	assert.Equal(t, thread.PatchsetLevelPath, ps.Path)
	assert.True(t, ps.IsFileLevel())

	robot := threads[2]
	require.Len(t, robot.Comments, 2)
	assert.True(t, robot.Comments[1].Draft)
	st := thread.Annotate(robot)
	assert.True(t, st.HasRobotComment)
	assert.True(t, st.HasHumanReplyToRobotComment)
	assert.True(t, st.HasDraft)
	assert.True(t, st.Unresolved)
}

func TestThreads_OrphanBecomesRoot(t *testing.T) {
	cc := ChangeComments{Comments: map[string][]CommentInfo{
		"a.go": {{ID: "x", InReplyTo: "deleted", Line: 4}},
	}}

	threads := Threads(cc)

	require.Len(t, threads, 1)
	assert.Equal(t, "x", threads[0].RootID)
	assert.Equal(t, 4, threads[0].Line)
}

func TestThreads_OrdersCommentsByTimeThenID(t *testing.T) {
	at := Timestamp{time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	cc := ChangeComments{Comments: map[string][]CommentInfo{
		"a.go": {
			{ID: "root", Updated: at},
			{ID: "b", InReplyTo: "root", Updated: Timestamp{at.Add(time.Minute)}},
			{ID: "a", InReplyTo: "b", Updated: Timestamp{at.Add(time.Minute)}},
		},
	}}

	threads := Threads(cc)

	require.Len(t, threads, 1)
	var got []string
	for _, c := range threads[0].Comments {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{"root", "a", "b"}, got)
}

func TestThreads_ReplyCycle(t *testing.T) {
	cc := ChangeComments{Comments: map[string][]CommentInfo{
		"a.go": {
			{ID: "a", InReplyTo: "b"},
			{ID: "b", InReplyTo: "a"},
		},
	}}

	threads := Threads(cc)

	total := 0
	for _, th := range threads {
		total += len(th.Comments)
	}
	assert.Equal(t, 2, total)
}

func TestAccountInfo_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada", AccountInfo{Name: "Ada", Username: "ada"}.DisplayName())
	assert.Equal(t, "a@x", AccountInfo{Email: "a@x"}.DisplayName())
	assert.Equal(t, "account 7", AccountInfo{AccountID: 7}.DisplayName())
	assert.Empty(t, AccountInfo{}.DisplayName())
}
